package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

type BookingStatus string

const (
	BOOKING_PENDING     BookingStatus = "pending"
	BOOKING_CONFIRMED   BookingStatus = "confirmed"
	BOOKING_IN_PROGRESS BookingStatus = "in_progress"
	BOOKING_COMPLETED   BookingStatus = "completed"
	BOOKING_PAID        BookingStatus = "paid"
	BOOKING_CANCELLED   BookingStatus = "cancelled"
	BOOKING_NO_SHOW     BookingStatus = "no_show"
)

type InstanceStatus string

const (
	INSTANCE_UNCLAIMED InstanceStatus = "unclaimed"
	INSTANCE_CLAIMED   InstanceStatus = "claimed"
	INSTANCE_SERVED    InstanceStatus = "served"
)

type VoucherStatus string

const (
	VOUCHER_ACTIVE  VoucherStatus = "active"
	VOUCHER_USED    VoucherStatus = "used"
	VOUCHER_EXPIRED VoucherStatus = "expired"
)

type DiscountStatus string

const (
	DISCOUNT_ACTIVE    DiscountStatus = "active"
	DISCOUNT_EXPIRED   DiscountStatus = "expired"
	DISCOUNT_CANCELLED DiscountStatus = "cancelled"
)

type DiscountType string

const (
	DISCOUNT_PERCENTAGE DiscountType = "percentage"
	DISCOUNT_ABSOLUTE   DiscountType = "absolute"
)

type CommissionTxnType string

const (
	COMMISSION_ADD    CommissionTxnType = "add"
	COMMISSION_REVERT CommissionTxnType = "revert"
)

type CommissionStatus string

const (
	COMMISSION_PENDING  CommissionStatus = "pending"
	COMMISSION_APPLIED  CommissionStatus = "applied"
	COMMISSION_REVERTED CommissionStatus = "reverted"
)

type SessionStatus string

const (
	SESSION_IN_PROGRESS SessionStatus = "in_progress"
	SESSION_COMPLETED   SessionStatus = "completed"
)

type Environment string

const (
	Production Environment = "production"
	Test       Environment = "test"
	Local      Environment = "local"
)

type SelectionItem struct {
	ID  uint `json:"id" binding:"required"`
	Qty uint `json:"qty" binding:"required,min=1,max=10"`
}

type CreateBookingRequestBody struct {
	CustomerID      *uint           `json:"customer_id,omitempty"`
	CustomerName    string          `json:"customer_name,omitempty"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	AppointmentDate string          `json:"appointment_date" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Branch          string          `json:"branch" binding:"required"`
	Services        []SelectionItem `json:"services,omitempty" binding:"omitempty,max=10,dive"`
	ServiceSets     []SelectionItem `json:"service_sets,omitempty" binding:"omitempty,max=10,dive"`
	VoucherCode     *string         `json:"voucher_code,omitempty"`
	UseDiscount     bool            `json:"use_discount,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

type StepTemplateItem struct {
	ServiceID     uint   `json:"service_id" binding:"required"`
	DaysUntilNext uint   `json:"days_until_next"`
	Label         string `json:"label,omitempty"`
}

type CreateServiceRequestBody struct {
	Name     string             `json:"name" binding:"required"`
	Price    string             `json:"price" binding:"required"`
	Duration uint               `json:"duration" binding:"required"`
	Category string             `json:"category,omitempty"`
	Steps    []StepTemplateItem `json:"steps,omitempty" binding:"omitempty,dive"`
}

type ServiceSetItemBody struct {
	ServiceID     uint    `json:"service_id" binding:"required"`
	AdjustedPrice *string `json:"adjusted_price,omitempty"`
}

type CreateServiceSetRequestBody struct {
	Name  string               `json:"name" binding:"required"`
	Price string               `json:"price" binding:"required"`
	Items []ServiceSetItemBody `json:"items" binding:"required,min=1,dive"`
}

type CreateCustomerRequestBody struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email,omitempty" binding:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

type CreateVoucherRequestBody struct {
	Value      string  `json:"value" binding:"required"`
	CustomerID *uint   `json:"customer_id,omitempty"`
	ExpiresAt  *string `json:"expires_at,omitempty" binding:"omitempty,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
}

type CreateDiscountRequestBody struct {
	Type       DiscountType `json:"type" binding:"required,oneof=percentage absolute"`
	Value      string       `json:"value" binding:"required"`
	Branch     *string      `json:"branch,omitempty"`
	ServiceIDs []uint       `json:"service_ids,omitempty"`
	StartsAt   string       `json:"starts_at" binding:"required" time_format:"2006-01-02 15:04:05 -07:00"`
	EndsAt     string       `json:"ends_at" binding:"required,gtdate=StartsAt" time_format:"2006-01-02 15:04:05 -07:00"`
}

type FindOrCreateSessionRequestBody struct {
	CustomerID uint `json:"customer_id" binding:"required"`
	ServiceID  uint `json:"service_id" binding:"required"`
}

type LinkSessionBookingRequestBody struct {
	BookingID uint `json:"booking_id" binding:"required"`
	StepOrder uint `json:"step_order" binding:"required,min=1"`
}

type MarkAttendedRequestBody struct {
	BookingID uint `json:"booking_id" binding:"required"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	UID         string   `json:"uid"`
	jwt.RegisteredClaims
}

// Handler is the callback signature shared by the queue consumers.
type Handler func(payload string)

// ProcResult is the envelope returned by the store-side procedures
// (payroll accrual, commission batch apply/revert, sales summary).
type ProcResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    JSONB  `json:"data,omitempty"`
}

// RowChange is the at-least-once change notification published on every
// booking / service instance write. Consumers refetch the affected
// aggregate; the payload is never applied as a delta.
type RowChange struct {
	Table     string `json:"table"`
	Op        string `json:"op"`
	ID        uint   `json:"id"`
	BookingID uint   `json:"booking_id,omitempty"`
	Date      string `json:"date,omitempty"`
}
