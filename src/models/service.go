package models

import (
	"sbs/src/types"

	"github.com/shopspring/decimal"
)

type Service struct {
	ID       uint            `gorm:"primarykey" json:"id"`
	Name     string          `json:"name,omitempty"`
	Slug     string          `gorm:"uniqueIndex" json:"slug,omitempty"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Duration uint            `json:"duration,omitempty"`
	Category string          `gorm:"default:'general'" json:"category,omitempty"`
	Active   bool            `gorm:"default:true" json:"active"`

	Steps []ServiceAppointmentStep `gorm:"foreignKey:service_id" json:"steps,omitempty"`

	types.Timestamps
}

// RequiresSessions reports whether the service walks a multi-visit step
// sequence.
func (s *Service) RequiresSessions() bool {
	return len(s.Steps) > 0
}

type ServiceSet struct {
	ID     uint            `gorm:"primarykey" json:"id"`
	Name   string          `json:"name,omitempty"`
	Slug   string          `gorm:"uniqueIndex" json:"slug,omitempty"`
	Price  decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Active bool            `gorm:"default:true" json:"active"`

	Items []ServiceSetItem `gorm:"foreignKey:service_set_id" json:"items,omitempty"`

	types.Timestamps
}

// ServiceSetItem binds a service into a set. AdjustedPrice, when present,
// overrides the commission base for that member; otherwise the set price is
// split evenly across members.
type ServiceSetItem struct {
	ID            uint             `gorm:"primarykey" json:"id"`
	ServiceSetID  uint             `json:"service_set_id,omitempty"`
	ServiceID     uint             `json:"service_id,omitempty"`
	AdjustedPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"adjusted_price,omitempty"`

	Service *Service `gorm:"foreignKey:service_id" json:"service,omitempty"`

	types.Timestamps
}

// ServiceAppointmentStep is the per-service template a session walks
// through, not per-customer state.
type ServiceAppointmentStep struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	ServiceID     uint    `gorm:"uniqueIndex:uniq_service_step" json:"service_id,omitempty"`
	StepOrder     uint    `gorm:"uniqueIndex:uniq_service_step" json:"step_order,omitempty"`
	StepServiceID uint    `json:"step_service_id,omitempty"`
	DaysUntilNext uint    `json:"days_until_next,omitempty"`
	Label         *string `json:"label,omitempty"`

	StepService *Service `gorm:"foreignKey:step_service_id" json:"step_service,omitempty"`

	types.Timestamps
}
