package utils

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sbs/src/config"
	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
)

// CreateBooking runs the whole booking transaction: resolve or create the
// customer, price the selection, validate the voucher, persist the booking
// and its service instances, flip the voucher to USED and bump the
// customer's cumulative spend. All of it happens inside one gorm
// transaction, so a failure at any step leaves nothing behind and the
// triggering error is surfaced unchanged.
func CreateBooking(params *types.CreateBookingRequestBody) (*models.Booking, error) {
	appointmentAt, err := time.Parse(config.TIME_PARSE_FORMAT, params.AppointmentDate)
	if err != nil {
		return nil, &types.ValidationError{Field: "appointment_date", Reason: "unparseable date"}
	}

	var booking models.Booking
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		customer, err := resolveCustomer(tx, params)
		if err != nil {
			return err
		}

		pricing, err := PriceSelection(tx, params.Services, params.ServiceSets)
		if err != nil {
			return err
		}

		var voucher *models.Voucher
		grandDiscount := decimal.Zero
		if params.VoucherCode != nil {
			voucher, err = ValidateVoucher(tx, *params.VoucherCode)
			if err != nil {
				return err
			}
			if voucher.CustomerID != nil && *voucher.CustomerID != customer.ID {
				return &types.InvalidVoucherError{Code: voucher.Code, Reason: "bound to another customer"}
			}
			grandDiscount = ClampDiscount(voucher.Value, pricing.GrandTotal)
		} else if params.UseDiscount {
			discount, err := ActiveDiscount(tx, params.Branch)
			if err != nil {
				return err
			}
			grandDiscount = ComputeDiscount(discount, pricing)
		}

		booking = models.Booking{
			CustomerID:    customer.ID,
			AppointmentAt: &appointmentAt,
			Duration:      pricing.Duration,
			Branch:        params.Branch,
			GrandTotal:    pricing.GrandTotal,
			GrandDiscount: grandDiscount,
			Status:        types.BOOKING_PENDING,
			Notes:         params.Notes,
		}
		if voucher != nil {
			booking.VoucherID = &voucher.ID
		}
		if err := tx.Create(&booking).Error; err != nil {
			return &types.PersistenceError{Op: "booking create", Err: err}
		}

		instances := make([]models.ServiceInstance, 0, len(pricing.Units))
		for _, unit := range pricing.Units {
			instances = append(instances, models.ServiceInstance{
				BookingID:      booking.ID,
				ServiceID:      unit.ServiceID,
				ServiceSetID:   unit.ServiceSetID,
				PriceAtBooking: unit.PriceAtBooking,
				CommissionBase: unit.CommissionBase,
				SequenceOrder:  unit.SequenceOrder,
				Status:         types.INSTANCE_UNCLAIMED,
			})
		}
		if err := tx.Create(&instances).Error; err != nil {
			return &types.PersistenceError{Op: "instance create", Err: err}
		}
		booking.Instances = instances

		// The USED flip happens only after booking and instances persisted.
		if voucher != nil {
			res := tx.
				Model(&models.Voucher{}).
				Where("id = ? AND status = ?", voucher.ID, types.VOUCHER_ACTIVE).
				Update("status", types.VOUCHER_USED)
			if res.Error != nil {
				return &types.PersistenceError{Op: "voucher redeem", Err: res.Error}
			}
			if res.RowsAffected == 0 {
				return &types.InvalidVoucherError{Code: voucher.Code, Reason: "already redeemed"}
			}
		}

		charge := pricing.GrandTotal.Sub(grandDiscount)
		now := time.Now()
		if err := tx.
			Model(&models.Customer{}).
			Where(&models.Customer{ID: customer.ID}).
			Updates(map[string]any{
				"total_spend":         gorm.Expr("total_spend + ?", charge),
				"last_transaction_at": now,
			}).Error; err != nil {
			return &types.PersistenceError{Op: "customer spend", Err: err}
		}
		return nil
	})
	if err != nil {
		log.Printf("[booking] CreateBooking failed: %s\n", err.Error())
		return nil, err
	}

	// Best-effort side effects never propagate to the caller.
	if appointmentAt.After(time.Now().Add(1 * time.Hour)) {
		go NotifyBookingConfirmed(booking.ID)
	}
	go scheduleBookingReminder(&booking)

	return &booking, nil
}

func resolveCustomer(tx *gorm.DB, params *types.CreateBookingRequestBody) (*models.Customer, error) {
	if params.CustomerID != nil {
		var customer models.Customer
		err := tx.Where(&models.Customer{ID: *params.CustomerID}).First(&customer).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, &types.NotFoundError{Entity: "customer", ID: *params.CustomerID}
			}
			return nil, &types.PersistenceError{Op: "customer lookup", Err: err}
		}
		return &customer, nil
	}
	if params.CustomerName == "" {
		return nil, &types.ValidationError{Field: "customer", Reason: "customer_id or customer_name is required"}
	}
	customer := models.Customer{
		Name:  CapitalizeWords(params.CustomerName),
		Email: params.CustomerEmail,
		Phone: params.CustomerPhone,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, &types.PersistenceError{Op: "customer create", Err: err}
	}
	return &customer, nil
}

// scheduleBookingReminder persists a one-time job that sends a reminder 24h
// before the appointment.
func scheduleBookingReminder(booking *models.Booking) {
	if booking.AppointmentAt == nil {
		return
	}
	runsAt := booking.AppointmentAt.Add(-24 * time.Hour)
	if runsAt.Before(time.Now()) {
		return
	}
	jobTaskID := uuid.New()
	payloadId := jobTaskID.String()
	jobTask := models.JobTask{
		Name:      fmt.Sprintf("Booking_%d_Reminder", booking.ID),
		JobType:   "OneTimeJobStartDateTime",
		RunsAt:    runsAt,
		PayloadID: payloadId,
		Payload: map[string]any{
			"payloadId":        payloadId,
			"id":               int64(booking.ID),
			"producerClientId": "BookingRemindersProducer",
			"topic":            "BookingReminders",
			"table":            "bookings",
		},
		Source: "Booking",
		Topic:  "BookingReminders",
	}
	id, err := jobTask.CreateAndEnqueueJobTask(jobTask)
	if err != nil {
		log.Printf("Error creating job for Booking: id=%d error=%s\n", booking.ID, err.Error())
		return
	}
	log.Printf("Created job for Booking[%d] with ID %s\n", booking.ID, id)
}

// UpdateBookingStatus flips a booking between workflow states with a guarded
// update keyed on the expected prior status. Cancellation has its own path
// (CancelBooking) so the commission revert always runs with it.
func UpdateBookingStatus(id uint, newStatus types.BookingStatus, oldStatus types.BookingStatus) error {
	if newStatus == types.BOOKING_CANCELLED {
		return CancelBooking(id)
	}
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": newStatus}
		now := time.Now()
		switch newStatus {
		case types.BOOKING_CONFIRMED:
			updates["confirmed_at"] = now
		case types.BOOKING_COMPLETED:
			updates["completed_at"] = now
		}
		res := tx.
			Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, oldStatus).
			Updates(updates)
		if res.Error != nil {
			return &types.PersistenceError{Op: "booking status", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &types.ConflictError{Entity: "booking", ID: id, Reason: fmt.Sprintf("not in %s state", oldStatus)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	// A booking pulled back out of a completed state is no longer
	// commission-eligible.
	if bookingStatusRegressed(oldStatus, newStatus) {
		go func() {
			if err := RevertBookingCommissions(id); err != nil {
				log.Printf("[commission] Error reverting for booking [%d]: %s\n", id, err.Error())
			}
		}()
	}
	go models.PublishRowChange("bookings", "update", id, id, nil)
	return nil
}

var bookingStatusRank = map[types.BookingStatus]int{
	types.BOOKING_PENDING:     0,
	types.BOOKING_NO_SHOW:     0,
	types.BOOKING_CONFIRMED:   1,
	types.BOOKING_IN_PROGRESS: 2,
	types.BOOKING_COMPLETED:   3,
	types.BOOKING_PAID:        4,
}

// bookingStatusRegressed reports a move back down the workflow. Reverting is
// a no-op when the booking never earned commissions, so false positives on
// early states cost nothing.
func bookingStatusRegressed(from types.BookingStatus, to types.BookingStatus) bool {
	return bookingStatusRank[to] < bookingStatusRank[from]
}

// CancelBooking cancels a booking from any non-terminal state and reverts
// any commissions it had produced.
func CancelBooking(id uint) error {
	db := db.GetDb()
	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.Booking{ID: id}).First(&booking).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &types.NotFoundError{Entity: "booking", ID: id}
			}
			return &types.PersistenceError{Op: "booking lookup", Err: err}
		}
		if booking.Status == types.BOOKING_PAID || booking.Status == types.BOOKING_CANCELLED {
			return &types.ConflictError{Entity: "booking", ID: id, Reason: fmt.Sprintf("cannot cancel a %s booking", booking.Status)}
		}
		now := time.Now()
		if err := tx.
			Model(&models.Booking{}).
			Where(&models.Booking{ID: id}).
			Updates(map[string]any{
				"status":       types.BOOKING_CANCELLED,
				"cancelled_at": now,
			}).Error; err != nil {
			return &types.PersistenceError{Op: "booking cancel", Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}
	go models.PublishRowChange("bookings", "update", id, id, booking.AppointmentAt)
	go func() {
		if err := RevertBookingCommissions(id); err != nil {
			log.Printf("[commission] Error reverting for booking [%d]: %s\n", id, err.Error())
		}
	}()
	return nil
}

func GetBooking(id uint) (*models.Booking, error) {
	var booking models.Booking
	db := db.GetDb()
	err := db.
		Where(&models.Booking{ID: id}).
		Preload("Customer").
		Preload("Voucher").
		Preload("Instances").
		First(&booking).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Entity: "booking", ID: id}
		}
		return nil, &types.PersistenceError{Op: "booking lookup", Err: err}
	}
	return &booking, nil
}

// GetDayBookings returns the full booking aggregates for one calendar day,
// the unit the realtime projection refetches.
func GetDayBookings(day time.Time) ([]models.Booking, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	var bookings []models.Booking
	db := db.GetDb()
	err := db.
		Where("appointment_at >= ? AND appointment_at < ?", start, end).
		Preload("Customer").
		Preload("Instances").
		Order("appointment_at asc").
		Find(&bookings).
		Error
	if err != nil {
		return nil, &types.PersistenceError{Op: "day view", Err: err}
	}
	return bookings, nil
}
