package utils

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sbs/src/config"
	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
)

// SweepExpiredVouchers flips ACTIVE vouchers past their expiry to EXPIRED.
// Runs lazily before every voucher lookup and hourly from the scheduler.
func SweepExpiredVouchers(tx *gorm.DB) error {
	return tx.
		Model(&models.Voucher{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", types.VOUCHER_ACTIVE, time.Now()).
		Update("status", types.VOUCHER_EXPIRED).
		Error
}

// SweepExpiredDiscounts is the discount equivalent of the voucher sweep.
func SweepExpiredDiscounts(tx *gorm.DB) error {
	return tx.
		Model(&models.Discount{}).
		Where("status = ? AND ends_at IS NOT NULL AND ends_at < ?", types.DISCOUNT_ACTIVE, time.Now()).
		Update("status", types.DISCOUNT_EXPIRED).
		Error
}

// RunExpirySweeps is the hourly scheduler task keeping both tables clean.
func RunExpirySweeps() {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := SweepExpiredVouchers(tx); err != nil {
			return err
		}
		return SweepExpiredDiscounts(tx)
	})
	if err != nil {
		log.Printf("[sweep] Error expiring vouchers/discounts: %s\n", err.Error())
	}
}

// ValidateVoucher resolves a voucher by code after the lazy expiry sweep.
// A voucher past its expiry but still marked ACTIVE gets the expiry write
// and an ExpiredError.
func ValidateVoucher(tx *gorm.DB, code string) (*models.Voucher, error) {
	if err := SweepExpiredVouchers(tx); err != nil {
		return nil, &types.PersistenceError{Op: "voucher sweep", Err: err}
	}
	var voucher models.Voucher
	err := tx.Where(&models.Voucher{Code: code}).First(&voucher).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &types.InvalidVoucherError{Code: code, Reason: "not found"}
		}
		return nil, &types.PersistenceError{Op: "voucher lookup", Err: err}
	}
	if voucher.Status != types.VOUCHER_ACTIVE {
		return nil, &types.InvalidVoucherError{Code: code, Reason: string(voucher.Status)}
	}
	if voucher.ExpiresAt != nil && voucher.ExpiresAt.Before(time.Now()) {
		if err := tx.
			Model(&models.Voucher{}).
			Where(&models.Voucher{ID: voucher.ID}).
			Update("status", types.VOUCHER_EXPIRED).
			Error; err != nil {
			return nil, &types.PersistenceError{Op: "voucher expiry", Err: err}
		}
		return nil, &types.ExpiredError{Entity: "voucher", ID: code}
	}
	return &voucher, nil
}

// ActiveDiscount returns the single system-wide active discount applicable
// to the branch, or nil when none is in effect.
func ActiveDiscount(tx *gorm.DB, branch string) (*models.Discount, error) {
	if err := SweepExpiredDiscounts(tx); err != nil {
		return nil, &types.PersistenceError{Op: "discount sweep", Err: err}
	}
	now := time.Now()
	var discount models.Discount
	err := tx.
		Where("status = ?", types.DISCOUNT_ACTIVE).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Preload("Services").
		First(&discount).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, &types.PersistenceError{Op: "discount lookup", Err: err}
	}
	if discount.Branch != nil && *discount.Branch != branch {
		return nil, nil
	}
	return &discount, nil
}

// ClampDiscount keeps the reduction from ever exceeding the total.
func ClampDiscount(value decimal.Decimal, grandTotal decimal.Decimal) decimal.Decimal {
	if value.GreaterThan(grandTotal) {
		return grandTotal
	}
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// ComputeDiscount resolves a discount to an amount against the priced units.
// Percentage discounts apply to the eligible line total; scoped discounts only
// count units of in-scope services.
func ComputeDiscount(discount *models.Discount, result *PricingResult) decimal.Decimal {
	if discount == nil {
		return decimal.Zero
	}
	eligible := result.GrandTotal
	if len(discount.Services) > 0 {
		scope := map[uint]bool{}
		for _, s := range discount.Services {
			scope[s.ID] = true
		}
		eligible = decimal.Zero
		for _, unit := range result.Units {
			if scope[unit.ServiceID] {
				eligible = eligible.Add(unit.PriceAtBooking)
			}
		}
	}
	var amount decimal.Decimal
	switch discount.Type {
	case types.DISCOUNT_PERCENTAGE:
		amount = eligible.Mul(discount.Value).Div(decimal.NewFromInt(100))
	default:
		amount = discount.Value
	}
	return ClampDiscount(amount, result.GrandTotal)
}

func CreateNewVoucher(params *types.CreateVoucherRequestBody) (*models.Voucher, error) {
	value, err := decimal.NewFromString(params.Value)
	if err != nil || !value.IsPositive() {
		return nil, &types.ValidationError{Field: "value", Reason: "must be a positive amount"}
	}
	voucher := models.Voucher{
		Code:       GenerateVoucherCode(),
		Value:      value,
		Status:     types.VOUCHER_ACTIVE,
		CustomerID: params.CustomerID,
	}
	if params.ExpiresAt != nil {
		expiresAt, err := time.Parse(config.TIME_PARSE_FORMAT, *params.ExpiresAt)
		if err != nil {
			return nil, &types.ValidationError{Field: "expires_at", Reason: "unparseable date"}
		}
		voucher.ExpiresAt = &expiresAt
	}
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&voucher).Error
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "voucher create", Err: err}
	}
	return &voucher, nil
}

// CreateNewDiscount enforces the single-active-discount invariant inside the
// creating transaction.
func CreateNewDiscount(params *types.CreateDiscountRequestBody) (*models.Discount, error) {
	value, err := decimal.NewFromString(params.Value)
	if err != nil || !value.IsPositive() {
		return nil, &types.ValidationError{Field: "value", Reason: "must be a positive amount"}
	}
	if params.Type == types.DISCOUNT_PERCENTAGE && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &types.ValidationError{Field: "value", Reason: "percentage cannot exceed 100"}
	}
	startsAt, err := time.Parse(config.TIME_PARSE_FORMAT, params.StartsAt)
	if err != nil {
		return nil, &types.ValidationError{Field: "starts_at", Reason: "unparseable date"}
	}
	endsAt, err := time.Parse(config.TIME_PARSE_FORMAT, params.EndsAt)
	if err != nil {
		return nil, &types.ValidationError{Field: "ends_at", Reason: "unparseable date"}
	}

	discount := models.Discount{
		Type:     params.Type,
		Value:    value,
		Branch:   params.Branch,
		StartsAt: &startsAt,
		EndsAt:   &endsAt,
		Status:   types.DISCOUNT_ACTIVE,
	}
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := SweepExpiredDiscounts(tx); err != nil {
			return err
		}
		var count int64
		if err := tx.
			Model(&models.Discount{}).
			Where("status = ?", types.DISCOUNT_ACTIVE).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count > 0 {
			return &types.ConflictError{Entity: "discount", Reason: "an active discount already exists"}
		}
		if len(params.ServiceIDs) > 0 {
			var services []*models.Service
			if err := tx.Where("id IN (?)", params.ServiceIDs).Find(&services).Error; err != nil {
				return err
			}
			if len(services) != len(params.ServiceIDs) {
				return &types.NotFoundError{Entity: "service", ID: params.ServiceIDs}
			}
			discount.Services = services
		}
		return tx.Create(&discount).Error
	})
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// CancelDiscount flips an active discount to CANCELLED via a guarded update.
func CancelDiscount(id uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Discount{}).
			Where("id = ? AND status = ?", id, types.DISCOUNT_ACTIVE).
			Update("status", types.DISCOUNT_CANCELLED)
		if res.Error != nil {
			return &types.PersistenceError{Op: "discount cancel", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &types.NotFoundError{Entity: "active discount", ID: id}
		}
		return nil
	})
}
