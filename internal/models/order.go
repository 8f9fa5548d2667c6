package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	BoostID         string          `gorm:"size:64;uniqueIndex;not null" json:"boost_id"`
	Type            string          `gorm:"size:30;not null;index" json:"type"`   // premier, wingman, level_farming
	Status          string          `gorm:"size:20;not null;index" json:"status"` // see domain.OrderStatus*
	Price           decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price"`
	UserID          uint            `gorm:"not null;index" json:"user"`
	PartnerID       *uint           `gorm:"index" json:"partner"`
	AssignPartnerID *uint           `gorm:"index" json:"assign_partner"`
	RetryCount      int             `gorm:"not null;default:0" json:"retryCount"`
	ConversationID  *uint           `json:"conversation,omitempty"`
	ParentBoostID   *string         `gorm:"size:64;index" json:"parent_boost_id,omitempty"` // set on renew/recover
	Details         string          `gorm:"type:text" json:"details"`                       // JSON payload (ranks, region, options)
	Version         int64           `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	StatusHistory []OrderStatusEntry `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_history"`
}

func (Order) TableName() string {
	return "orders"
}

// CurrentHistoryStatus returns the status of the last history entry, or "" if there is none.
func (o *Order) CurrentHistoryStatus() string {
	if len(o.StatusHistory) == 0 {
		return ""
	}
	return o.StatusHistory[len(o.StatusHistory)-1].Status
}

// OrderStatusEntry is one append-only row of an order's status history.
type OrderStatusEntry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	OrderID   uint      `gorm:"not null;index" json:"-"`
	Status    string    `gorm:"size:20;not null" json:"status"`
	ActorID   *uint     `json:"actor,omitempty"`
	AdminID   *uint     `json:"admin,omitempty"` // set when an admin forced the status
	CreatedAt time.Time `json:"timestamp"`
}

func (OrderStatusEntry) TableName() string {
	return "order_status_history"
}
