package models

import (
	"sbs/src/types"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Booking struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	CustomerID    uint                `json:"customer_id,omitempty"`
	AppointmentAt *time.Time          `json:"appointment_at,omitempty"`
	Duration      uint                `json:"duration,omitempty"`
	Branch        string              `json:"branch,omitempty"`
	GrandTotal    decimal.Decimal     `gorm:"type:decimal(12,2)" json:"grand_total"`
	GrandDiscount decimal.Decimal     `gorm:"type:decimal(12,2)" json:"grand_discount"`
	Status        types.BookingStatus `gorm:"default:'pending'" json:"status,omitempty"`
	VoucherID     *uint               `json:"voucher_id,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	ConfirmedAt   *time.Time          `json:"confirmed_at,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`

	Customer  *Customer         `gorm:"foreignKey:customer_id" json:"customer,omitempty"`
	Voucher   *Voucher          `gorm:"foreignKey:voucher_id" json:"voucher,omitempty"`
	Instances []ServiceInstance `gorm:"foreignKey:booking_id" json:"instances,omitempty"`

	types.Timestamps
}

func (b *Booking) AfterCreate(tx *gorm.DB) error {
	go PublishRowChange("bookings", "insert", b.ID, b.ID, b.AppointmentAt)
	return nil
}

func (b *Booking) AfterDelete(tx *gorm.DB) error {
	go PublishRowChange("bookings", "delete", b.ID, b.ID, b.AppointmentAt)
	return nil
}
