package models

import (
	"sbs/src/types"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	Name           string          `json:"name,omitempty"`
	Email          string          `json:"email,omitempty"`
	UID            string          `json:"uid,omitempty"`
	Role           string          `json:"role,omitempty"`
	Branch         string          `json:"branch,omitempty"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,4)" json:"commission_rate"`
	Active         bool            `gorm:"default:true" json:"active"`

	types.Timestamps
}

var commissionRoles = map[string]bool{
	"stylist":    true,
	"therapist":  true,
	"technician": true,
}

func (e *Employee) CommissionEligible() bool {
	return e.Active && commissionRoles[e.Role]
}
