package models

import (
	"sbs/src/types"
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID                uint            `gorm:"primarykey" json:"id"`
	Name              string          `json:"name,omitempty"`
	Email             string          `json:"email,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	TotalSpend        decimal.Decimal `gorm:"type:decimal(14,2)" json:"total_spend"`
	LastTransactionAt *time.Time      `json:"last_transaction_at,omitempty"`

	Bookings []Booking `gorm:"foreignKey:customer_id" json:"bookings,omitempty"`

	types.Timestamps
}
