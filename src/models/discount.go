package models

import (
	"sbs/src/types"
	"time"

	"github.com/shopspring/decimal"
)

// Discount is a time-boxed reduction. At most one ACTIVE discount exists
// system-wide; the vouchers core enforces that at creation time.
type Discount struct {
	ID       uint                 `gorm:"primarykey" json:"id"`
	Type     types.DiscountType   `json:"type,omitempty"`
	Value    decimal.Decimal      `gorm:"type:decimal(12,2)" json:"value"`
	Branch   *string              `json:"branch,omitempty"`
	StartsAt *time.Time           `json:"starts_at,omitempty"`
	EndsAt   *time.Time           `json:"ends_at,omitempty"`
	Status   types.DiscountStatus `gorm:"default:'active'" json:"status,omitempty"`

	Services []*Service `gorm:"many2many:discount_services;" json:"services,omitempty"`

	types.Timestamps
}
