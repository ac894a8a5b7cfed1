package models

import (
	"sbs/src/types"
	"time"

	"github.com/shopspring/decimal"
)

// Voucher is a single-use stored-value code. ACTIVE→USED happens exactly
// once, inside the booking transaction that consumes it; ACTIVE→EXPIRED is a
// lazy sweep applied before any lookup.
type Voucher struct {
	ID         uint                `gorm:"primarykey" json:"id"`
	Code       string              `gorm:"uniqueIndex;size:12" json:"code,omitempty"`
	Value      decimal.Decimal     `gorm:"type:decimal(12,2)" json:"value"`
	Status     types.VoucherStatus `gorm:"default:'active'" json:"status,omitempty"`
	CustomerID *uint               `json:"customer_id,omitempty"`
	ExpiresAt  *time.Time          `json:"expires_at,omitempty"`

	Customer *Customer `gorm:"foreignKey:customer_id" json:"customer,omitempty"`

	types.Timestamps
}
