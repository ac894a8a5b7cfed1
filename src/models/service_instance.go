package models

import (
	"sbs/src/types"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceInstance is one claimable unit of a purchased service. Quantity is
// always 1; a booking for qty 3 holds three rows. PriceAtBooking and
// CommissionBase are frozen at creation and never recomputed.
type ServiceInstance struct {
	ID             uint                 `gorm:"primarykey" json:"id"`
	BookingID      uint                 `json:"booking_id,omitempty"`
	ServiceID      uint                 `json:"service_id,omitempty"`
	ServiceSetID   *uint                `json:"service_set_id,omitempty"`
	PriceAtBooking decimal.Decimal      `gorm:"type:decimal(12,2)" json:"price_at_booking"`
	CommissionBase decimal.Decimal      `gorm:"type:decimal(12,4)" json:"commission_base"`
	SequenceOrder  uint                 `json:"sequence_order,omitempty"`
	Status         types.InstanceStatus `gorm:"default:'unclaimed'" json:"status,omitempty"`
	ClaimedBy      *uint                `json:"claimed_by,omitempty"`
	ServedAt       *time.Time           `json:"served_at,omitempty"`

	Booking  *Booking  `gorm:"foreignKey:booking_id" json:"booking,omitempty"`
	Service  *Service  `gorm:"foreignKey:service_id" json:"service,omitempty"`
	Claimant *Employee `gorm:"foreignKey:claimed_by" json:"claimant,omitempty"`

	types.Timestamps
}

func (si *ServiceInstance) AfterCreate(tx *gorm.DB) error {
	go PublishRowChange("service_instances", "insert", si.ID, si.BookingID, nil)
	return nil
}

func (si *ServiceInstance) AfterDelete(tx *gorm.DB) error {
	go PublishRowChange("service_instances", "delete", si.ID, si.BookingID, nil)
	return nil
}
