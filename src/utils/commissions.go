package utils

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"

	"sbs/src/config"
	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
)

const CommissionEvalTopic = "CommissionsToEvaluate"

// ScheduleCommissionEvaluation enqueues a re-evaluation of the booking's
// commission eligibility once the debounce window has passed. Every serve
// schedules one; evaluation itself re-reads the instance rows, so stale or
// duplicate jobs are harmless.
func ScheduleCommissionEvaluation(bookingId uint) {
	runsAt := time.Now().Add(config.CommissionDebounce())
	jobTaskID := uuid.New()
	payloadId := jobTaskID.String()
	jobTask := models.JobTask{
		Name:      fmt.Sprintf("Booking_%d_CommissionEval", bookingId),
		JobType:   "OneTimeJobStartDateTime",
		RunsAt:    runsAt,
		PayloadID: payloadId,
		Payload: map[string]any{
			"payloadId":        payloadId,
			"id":               int64(bookingId),
			"producerClientId": "CommissionsToEvaluateProducer",
			"topic":            CommissionEvalTopic,
			"table":            "bookings",
		},
		Source: "Booking",
		Topic:  CommissionEvalTopic,
	}
	id, err := jobTask.CreateAndEnqueueJobTask(jobTask)
	if err != nil {
		log.Printf("Error creating commission job for Booking: id=%d error=%s\n", bookingId, err.Error())
		return
	}
	log.Printf("Created commission job for Booking[%d] with ID %s\n", bookingId, id)
}

// CommissionEligible reports whether every instance is served and has stayed
// served for at least the debounce window. The second return value is the
// earliest moment a re-check could succeed (zero when the booking is not
// fully served at all).
func CommissionEligible(instances []models.ServiceInstance, now time.Time, debounce time.Duration) (bool, time.Time) {
	if len(instances) == 0 {
		return false, time.Time{}
	}
	var latest time.Time
	for _, instance := range instances {
		if instance.Status != types.INSTANCE_SERVED || instance.ServedAt == nil {
			return false, time.Time{}
		}
		if instance.ServedAt.After(latest) {
			latest = *instance.ServedAt
		}
	}
	eligibleAt := latest.Add(debounce)
	if now.Before(eligibleAt) {
		return false, eligibleAt
	}
	return true, eligibleAt
}

// CommissionAmount is the ledger amount for one served unit: commission base
// times the employee's rate, at currency precision.
func CommissionAmount(base decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Round(2)
}

// EvaluateBookingCommissions applies commissions for a fully-served,
// debounce-settled booking. The whole batch is one transaction and the
// evaluation re-reads instance state, never trusting the caller. Applying is
// idempotent per instance: an existing non-reverted ADD short-circuits that
// unit.
func EvaluateBookingCommissions(bookingId uint) error {
	db := db.GetDb()
	var retryAt time.Time
	err := db.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.Where(&models.Booking{ID: bookingId}).First(&booking).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &types.NotFoundError{Entity: "booking", ID: bookingId}
			}
			return &types.PersistenceError{Op: "commission eval", Err: err}
		}
		if booking.Status == types.BOOKING_CANCELLED {
			return nil
		}
		var instances []models.ServiceInstance
		if err := tx.Where(&models.ServiceInstance{BookingID: bookingId}).Find(&instances).Error; err != nil {
			return &types.PersistenceError{Op: "commission eval", Err: err}
		}
		eligible, eligibleAt := CommissionEligible(instances, time.Now(), config.CommissionDebounce())
		if !eligible {
			if !eligibleAt.IsZero() {
				retryAt = eligibleAt
			}
			return nil
		}

		for _, instance := range instances {
			if instance.ClaimedBy == nil {
				continue
			}
			var employee models.Employee
			if err := tx.Where(&models.Employee{ID: *instance.ClaimedBy}).First(&employee).Error; err != nil {
				log.Printf("[commission] No employee record for claimant [%d], skipping instance [%d]\n", *instance.ClaimedBy, instance.ID)
				continue
			}
			if !employee.CommissionEligible() {
				continue
			}
			var count int64
			if err := tx.
				Model(&models.CommissionTransaction{}).
				Where("service_instance_id = ? AND type = ? AND status <> ?",
					instance.ID, types.COMMISSION_ADD, types.COMMISSION_REVERTED).
				Count(&count).
				Error; err != nil {
				return &types.PersistenceError{Op: "commission eval", Err: err}
			}
			if count > 0 {
				continue
			}
			txn := models.CommissionTransaction{
				EmployeeID:        employee.ID,
				ServiceInstanceID: instance.ID,
				BookingID:         bookingId,
				Amount:            CommissionAmount(instance.CommissionBase, employee.CommissionRate),
				PriceSnapshot:     instance.CommissionBase,
				RateSnapshot:      employee.CommissionRate,
				Type:              types.COMMISSION_ADD,
				Status:            types.COMMISSION_APPLIED,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return &types.PersistenceError{Op: "commission apply", Err: err}
			}
			log.Printf("[commission] Applied %s for employee [%d] instance [%d]\n", txn.Amount.String(), employee.ID, instance.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	// A unit was re-served inside the window; check again once it settles.
	if !retryAt.IsZero() && retryAt.After(time.Now()) {
		go ScheduleCommissionEvaluation(bookingId)
	}
	return nil
}

// RevertBookingCommissions writes one paired REVERT row per APPLIED ADD on
// the booking. Originals are never mutated beyond the status flip to
// REVERTED; the pair nets to zero for payroll.
func RevertBookingCommissions(bookingId uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		var adds []models.CommissionTransaction
		if err := tx.
			Where(&models.CommissionTransaction{
				BookingID: bookingId,
				Type:      types.COMMISSION_ADD,
				Status:    types.COMMISSION_APPLIED,
			}).
			Find(&adds).
			Error; err != nil {
			return &types.PersistenceError{Op: "commission revert", Err: err}
		}
		for _, add := range adds {
			addId := add.ID
			revert := models.CommissionTransaction{
				EmployeeID:        add.EmployeeID,
				ServiceInstanceID: add.ServiceInstanceID,
				BookingID:         add.BookingID,
				Amount:            add.Amount,
				PriceSnapshot:     add.PriceSnapshot,
				RateSnapshot:      add.RateSnapshot,
				Type:              types.COMMISSION_REVERT,
				Status:            types.COMMISSION_APPLIED,
				RevertsID:         &addId,
			}
			if err := tx.Create(&revert).Error; err != nil {
				return &types.PersistenceError{Op: "commission revert", Err: err}
			}
			if err := tx.
				Model(&models.CommissionTransaction{}).
				Where("id = ?", add.ID).
				Update("status", types.COMMISSION_REVERTED).
				Error; err != nil {
				return &types.PersistenceError{Op: "commission revert", Err: err}
			}
		}
		if len(adds) > 0 {
			log.Printf("[commission] Reverted %d transactions for booking [%d]\n", len(adds), bookingId)
		}
		return nil
	})
}

func ListEmployeeCommissions(employeeId uint, limit int) ([]models.CommissionTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var txns []models.CommissionTransaction
	db := db.GetDb()
	err := db.
		Where(&models.CommissionTransaction{EmployeeID: employeeId}).
		Order("created_at desc").
		Limit(limit).
		Find(&txns).
		Error
	if err != nil {
		return nil, &types.PersistenceError{Op: "commission list", Err: err}
	}
	return txns, nil
}

// PayrollSummary delegates the period aggregation to the store-side payroll
// procedure and parses its {success, error?, ...} envelope. REVERT-paired
// transactions are net zero inside the procedure.
func PayrollSummary(employeeId uint, from time.Time, to time.Time) (*types.ProcResult, error) {
	db := db.GetDb()
	var raw string
	err := db.
		Raw("SELECT compute_employee_payroll(?, ?, ?)::text", employeeId, from, to).
		Scan(&raw).
		Error
	if err != nil {
		return nil, &types.PersistenceError{Op: "payroll proc", Err: err}
	}
	return parseProcResult(raw)
}

// SalesSummary invokes the sales-summary procedure for one calendar day.
func SalesSummary(day time.Time) (*types.ProcResult, error) {
	db := db.GetDb()
	var raw string
	err := db.
		Raw("SELECT compute_sales_summary(?)::text", day.Format(config.DAY_FORMAT)).
		Scan(&raw).
		Error
	if err != nil {
		return nil, &types.PersistenceError{Op: "sales proc", Err: err}
	}
	return parseProcResult(raw)
}

func parseProcResult(raw string) (*types.ProcResult, error) {
	if !gjson.Valid(raw) {
		return nil, &types.PersistenceError{Op: "proc envelope", Err: fmt.Errorf("invalid envelope: %q", raw)}
	}
	result := types.ProcResult{
		Success: gjson.Get(raw, "success").Bool(),
		Error:   gjson.Get(raw, "error").String(),
	}
	data := gjson.Get(raw, "data")
	if data.Exists() && data.IsObject() {
		payload := types.JSONB{}
		for k, v := range data.Map() {
			payload[k] = v.Value()
		}
		result.Data = payload
	}
	if !result.Success && result.Error != "" {
		log.Printf("[proc] store procedure reported failure: %s\n", result.Error)
	}
	return &result, nil
}
