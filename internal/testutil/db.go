// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"eloboost/internal/database"
	"eloboost/internal/domain"
	"eloboost/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to the test. The pool is pinned to
// one connection so every query sees the same memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given role; its wallet is created by the model hook.
func CreateUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// FundWallet sets a wallet balance directly, standing in for the escrow-release collaborator.
func FundWallet(t *testing.T, db *gorm.DB, userID uint, balance string) {
	t.Helper()
	err := db.Model(&models.Wallet{}).Where("user_id = ?", userID).
		Update("balance", decimal.RequireFromString(balance)).Error
	if err != nil {
		t.Fatalf("fund wallet: %v", err)
	}
}

func Wallet(t *testing.T, db *gorm.DB, userID uint) *models.Wallet {
	t.Helper()
	var w models.Wallet
	if err := db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		t.Fatalf("load wallet: %v", err)
	}
	return &w
}

func Caller(u *models.User) domain.Caller {
	return domain.NewCaller(u.ID, u.Role)
}

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
