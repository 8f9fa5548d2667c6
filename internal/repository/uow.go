package repository

import (
	"context"
	"database/sql"
	"errors"

	"eloboost/internal/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UnitOfWork runs multi-record mutations as one serializable transaction. Repositories join it
// through their WithTx method. Failed units are rolled back in full and never retried here.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := u.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return mapError(err)
}

// mapError converts storage errors into the domain taxonomy. Domain errors pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if isWriteConflict(err) {
		return &domain.Error{Kind: domain.KindConflict, Message: domain.ErrWriteConflict.Message, Err: err}
	}
	return domain.Internal(err)
}

func isWriteConflict(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// ER_LOCK_DEADLOCK, ER_LOCK_WAIT_TIMEOUT
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// notFound maps gorm's missing-row error to the given domain error.
func notFound(err error, nf error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return mapError(err)
}
