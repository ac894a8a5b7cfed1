package models

import (
	"sbs/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionTransaction is a ledger row crediting (ADD) or reversing
// (REVERT) an employee's earnings for one served instance. Rows are never
// mutated or deleted; a reversal is a new REVERT row paired to its ADD via
// RevertsID, and payroll aggregation treats the pair as net zero.
type CommissionTransaction struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	EmployeeID        uint                    `gorm:"index" json:"employee_id,omitempty"`
	ServiceInstanceID uint                    `gorm:"index" json:"service_instance_id,omitempty"`
	BookingID         uint                    `gorm:"index" json:"booking_id,omitempty"`
	Amount            decimal.Decimal         `gorm:"type:decimal(12,2)" json:"amount"`
	PriceSnapshot     decimal.Decimal         `gorm:"type:decimal(12,4)" json:"price_snapshot"`
	RateSnapshot      decimal.Decimal         `gorm:"type:decimal(5,4)" json:"rate_snapshot"`
	Type              types.CommissionTxnType `json:"type,omitempty"`
	Status            types.CommissionStatus  `gorm:"default:'pending'" json:"status,omitempty"`
	RevertsID         *uuid.UUID              `gorm:"type:uuid" json:"reverts_id,omitempty"`

	Employee *Employee        `gorm:"foreignKey:employee_id" json:"employee,omitempty"`
	Instance *ServiceInstance `gorm:"foreignKey:service_instance_id" json:"instance,omitempty"`

	types.Timestamps
}
