package utils

import (
	"time"

	"gorm.io/gorm"

	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
)

// FindOrCreateSession returns the customer's IN_PROGRESS session for a
// multi-visit service, creating one at step 1 when none exists. Services
// without a step template never get a session and return nil. The check and
// the create run in one transaction and the model carries a partial unique
// index, so two rapid calls can never spawn two concurrent sessions.
func FindOrCreateSession(customerId uint, serviceId uint) (*models.AppointmentSession, error) {
	db := db.GetDb()
	var session *models.AppointmentSession
	err := db.Transaction(func(tx *gorm.DB) error {
		var service models.Service
		err := tx.Where(&models.Service{ID: serviceId}).Preload("Steps").First(&service).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return &types.NotFoundError{Entity: "service", ID: serviceId}
			}
			return &types.PersistenceError{Op: "session lookup", Err: err}
		}
		if !service.RequiresSessions() {
			return nil
		}

		var existing models.AppointmentSession
		err = tx.
			Where(&models.AppointmentSession{
				CustomerID: customerId,
				ServiceID:  serviceId,
				Status:     types.SESSION_IN_PROGRESS,
			}).
			First(&existing).
			Error
		if err == nil {
			session = &existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return &types.PersistenceError{Op: "session lookup", Err: err}
		}

		var customer models.Customer
		if err := tx.Where(&models.Customer{ID: customerId}).First(&customer).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &types.NotFoundError{Entity: "customer", ID: customerId}
			}
			return &types.PersistenceError{Op: "session lookup", Err: err}
		}

		now := time.Now()
		totalSteps := uint(len(service.Steps))
		created := models.AppointmentSession{
			CustomerID:  customerId,
			ServiceID:   serviceId,
			CurrentStep: 1,
			TotalSteps:  &totalSteps,
			Status:      types.SESSION_IN_PROGRESS,
			StartedAt:   &now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return &types.PersistenceError{Op: "session create", Err: err}
		}
		session = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// LinkBookingToSession binds one booking to one step. Re-linking the same
// booking to the same step is an idempotent no-op; a different booking on a
// filled step is a conflict.
func LinkBookingToSession(sessionId uint, bookingId uint, stepOrder uint) (*models.AppointmentSessionBooking, error) {
	db := db.GetDb()
	var link models.AppointmentSessionBooking
	err := db.Transaction(func(tx *gorm.DB) error {
		var session models.AppointmentSession
		if err := tx.Where(&models.AppointmentSession{ID: sessionId}).First(&session).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &types.NotFoundError{Entity: "session", ID: sessionId}
			}
			return &types.PersistenceError{Op: "session link", Err: err}
		}
		created, err := LinkStepInTx(tx, sessionId, bookingId, stepOrder)
		if err != nil {
			return err
		}
		link = *created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// MarkAttended advances the session one step and completes it once the step
// counter passes the known total. Returns the new current step and whether
// the session just completed.
func MarkAttended(sessionId uint, bookingId uint) (uint, bool, error) {
	db := db.GetDb()
	var newStep uint
	var completed bool
	err := db.Transaction(func(tx *gorm.DB) error {
		var session models.AppointmentSession
		if err := tx.Where(&models.AppointmentSession{ID: sessionId}).First(&session).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &types.NotFoundError{Entity: "session", ID: sessionId}
			}
			return &types.PersistenceError{Op: "session attend", Err: err}
		}
		if session.Status != types.SESSION_IN_PROGRESS {
			return &types.ConflictError{Entity: "session", ID: sessionId, Reason: "session already completed"}
		}
		if _, err := LinkStepInTx(tx, sessionId, bookingId, session.CurrentStep); err != nil {
			return err
		}
		newStep = session.CurrentStep + 1
		updates := map[string]any{"current_step": newStep}
		if session.TotalSteps != nil && newStep > *session.TotalSteps {
			completed = true
			updates["status"] = types.SESSION_COMPLETED
		}
		if err := tx.
			Model(&models.AppointmentSession{}).
			Where(&models.AppointmentSession{ID: sessionId}).
			Updates(updates).
			Error; err != nil {
			return &types.PersistenceError{Op: "session attend", Err: err}
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return newStep, completed, nil
}

// LinkStepInTx is the in-transaction variant of LinkBookingToSession used by
// MarkAttended so the attendance link and the step advance commit together.
func LinkStepInTx(tx *gorm.DB, sessionId uint, bookingId uint, stepOrder uint) (*models.AppointmentSessionBooking, error) {
	var existing models.AppointmentSessionBooking
	err := tx.
		Where(&models.AppointmentSessionBooking{SessionID: sessionId, StepOrder: stepOrder}).
		First(&existing).
		Error
	if err == nil {
		if existing.BookingID == bookingId {
			return &existing, nil
		}
		return nil, &types.ConflictError{Entity: "session step", ID: stepOrder, Reason: "step already linked to another booking"}
	}
	if err != gorm.ErrRecordNotFound {
		return nil, &types.PersistenceError{Op: "session link", Err: err}
	}
	link := models.AppointmentSessionBooking{
		SessionID: sessionId,
		BookingID: bookingId,
		StepOrder: stepOrder,
	}
	if err := tx.Create(&link).Error; err != nil {
		return nil, &types.PersistenceError{Op: "session link", Err: err}
	}
	return &link, nil
}

// NextRecommendedDate projects the next visit: the step template's
// days-until-next added to the most recent attended date. Nil when no
// further step is defined or the session is done.
func NextRecommendedDate(sessionId uint) (*time.Time, error) {
	db := db.GetDb()
	var next *time.Time
	err := db.Transaction(func(tx *gorm.DB) error {
		var session models.AppointmentSession
		if err := tx.Where(&models.AppointmentSession{ID: sessionId}).First(&session).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &types.NotFoundError{Entity: "session", ID: sessionId}
			}
			return &types.PersistenceError{Op: "session next date", Err: err}
		}
		if session.Status != types.SESSION_IN_PROGRESS {
			return nil
		}
		if session.TotalSteps != nil && session.CurrentStep > *session.TotalSteps {
			return nil
		}
		var step models.ServiceAppointmentStep
		err := tx.
			Where(&models.ServiceAppointmentStep{ServiceID: session.ServiceID, StepOrder: session.CurrentStep}).
			First(&step).
			Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return &types.PersistenceError{Op: "session next date", Err: err}
		}

		// Anchor on the most recent attended visit, falling back to the
		// session start for a fresh session.
		anchor := session.StartedAt
		var lastLink models.AppointmentSessionBooking
		err = tx.
			Where(&models.AppointmentSessionBooking{SessionID: sessionId}).
			Order("step_order desc").
			Preload("Booking").
			First(&lastLink).
			Error
		if err == nil && lastLink.Booking != nil && lastLink.Booking.AppointmentAt != nil {
			anchor = lastLink.Booking.AppointmentAt
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return &types.PersistenceError{Op: "session next date", Err: err}
		}
		if anchor == nil {
			return nil
		}
		when := anchor.AddDate(0, 0, int(step.DaysUntilNext))
		next = &when
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}
