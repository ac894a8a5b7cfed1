package models

import (
	"sbs/src/types"
	"time"
)

// AppointmentSession tracks a customer's multi-visit journey through a
// service's step sequence. The partial unique index keeps at most one
// IN_PROGRESS session per (customer, service) pair at the storage level.
type AppointmentSession struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	CustomerID  uint                `gorm:"uniqueIndex:uniq_active_session,where:status = 'in_progress'" json:"customer_id,omitempty"`
	ServiceID   uint                `gorm:"uniqueIndex:uniq_active_session,where:status = 'in_progress'" json:"service_id,omitempty"`
	CurrentStep uint                `gorm:"default:1" json:"current_step,omitempty"`
	TotalSteps  *uint               `json:"total_steps,omitempty"`
	Status      types.SessionStatus `gorm:"default:'in_progress'" json:"status,omitempty"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`

	Customer *Customer                   `gorm:"foreignKey:customer_id" json:"customer,omitempty"`
	Service  *Service                    `gorm:"foreignKey:service_id" json:"service,omitempty"`
	Bookings []AppointmentSessionBooking `gorm:"foreignKey:session_id" json:"bookings,omitempty"`

	types.Timestamps
}

// AppointmentSessionBooking links one booking to one step of a session.
type AppointmentSessionBooking struct {
	ID        uint `gorm:"primarykey" json:"id"`
	SessionID uint `gorm:"uniqueIndex:uniq_session_step" json:"session_id,omitempty"`
	BookingID uint `json:"booking_id,omitempty"`
	StepOrder uint `gorm:"uniqueIndex:uniq_session_step" json:"step_order,omitempty"`

	Booking *Booking `gorm:"foreignKey:booking_id" json:"booking,omitempty"`

	types.Timestamps
}
