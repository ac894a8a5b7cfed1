package utils

import (
	"log"
	"time"

	"gorm.io/gorm"

	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
)

// Instance transitions are single conditional UPDATEs keyed on the expected
// prior status. Concurrent attempts race on RowsAffected, so exactly one
// claim wins and the loser gets ConflictError without any lock.

func ClaimInstance(id uint, actorId uint) (*models.ServiceInstance, error) {
	db := db.GetDb()
	var instance models.ServiceInstance
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.ServiceInstance{}).
			Where("id = ? AND status = ?", id, types.INSTANCE_UNCLAIMED).
			Updates(map[string]any{
				"status":     types.INSTANCE_CLAIMED,
				"claimed_by": actorId,
			})
		if res.Error != nil {
			return &types.PersistenceError{Op: "instance claim", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			if err := tx.Where(&models.ServiceInstance{ID: id}).First(&instance).Error; err != nil {
				return &types.NotFoundError{Entity: "service instance", ID: id}
			}
			return &types.ConflictError{Entity: "service instance", ID: id, Reason: "already claimed"}
		}
		return tx.Where(&models.ServiceInstance{ID: id}).First(&instance).Error
	})
	if err != nil {
		return nil, err
	}
	go models.PublishRowChange("service_instances", "update", instance.ID, instance.BookingID, nil)
	return &instance, nil
}

// ServeInstance marks a claimed unit served. Only the claimant may serve it
// unless the caller is an administrative override; the transition schedules
// a commission evaluation for the parent booking.
func ServeInstance(id uint, actorId uint, override bool) (*models.ServiceInstance, error) {
	db := db.GetDb()
	var instance models.ServiceInstance
	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		q := tx.
			Model(&models.ServiceInstance{}).
			Where("id = ? AND status = ?", id, types.INSTANCE_CLAIMED)
		if !override {
			q = q.Where("claimed_by = ?", actorId)
		}
		res := q.Updates(map[string]any{
			"status":    types.INSTANCE_SERVED,
			"served_at": now,
		})
		if res.Error != nil {
			return &types.PersistenceError{Op: "instance serve", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			if err := tx.Where(&models.ServiceInstance{ID: id}).First(&instance).Error; err != nil {
				return &types.NotFoundError{Entity: "service instance", ID: id}
			}
			return &types.ConflictError{Entity: "service instance", ID: id, Reason: "not claimed by actor"}
		}
		return tx.Where(&models.ServiceInstance{ID: id}).First(&instance).Error
	})
	if err != nil {
		return nil, err
	}
	go models.PublishRowChange("service_instances", "update", instance.ID, instance.BookingID, nil)
	go ScheduleCommissionEvaluation(instance.BookingID)
	return &instance, nil
}

func UnclaimInstance(id uint, actorId uint, override bool) (*models.ServiceInstance, error) {
	db := db.GetDb()
	var instance models.ServiceInstance
	err := db.Transaction(func(tx *gorm.DB) error {
		q := tx.
			Model(&models.ServiceInstance{}).
			Where("id = ? AND status = ?", id, types.INSTANCE_CLAIMED)
		if !override {
			q = q.Where("claimed_by = ?", actorId)
		}
		res := q.Updates(map[string]any{
			"status":     types.INSTANCE_UNCLAIMED,
			"claimed_by": nil,
		})
		if res.Error != nil {
			return &types.PersistenceError{Op: "instance unclaim", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			if err := tx.Where(&models.ServiceInstance{ID: id}).First(&instance).Error; err != nil {
				return &types.NotFoundError{Entity: "service instance", ID: id}
			}
			return &types.ConflictError{Entity: "service instance", ID: id, Reason: "not claimed by actor"}
		}
		return tx.Where(&models.ServiceInstance{ID: id}).First(&instance).Error
	})
	if err != nil {
		return nil, err
	}
	go models.PublishRowChange("service_instances", "update", instance.ID, instance.BookingID, nil)
	return &instance, nil
}

// UnserveInstance drops a unit back to claimed and reverts any commissions
// the booking had already earned. The regression is what matters here, not
// who unserves: a fully-served booking stops being commission-eligible the
// moment any unit is unserved.
func UnserveInstance(id uint, actorId uint, override bool) (*models.ServiceInstance, error) {
	db := db.GetDb()
	var instance models.ServiceInstance
	err := db.Transaction(func(tx *gorm.DB) error {
		q := tx.
			Model(&models.ServiceInstance{}).
			Where("id = ? AND status = ?", id, types.INSTANCE_SERVED)
		if !override {
			q = q.Where("claimed_by = ?", actorId)
		}
		res := q.Updates(map[string]any{
			"status":    types.INSTANCE_CLAIMED,
			"served_at": nil,
		})
		if res.Error != nil {
			return &types.PersistenceError{Op: "instance unserve", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			if err := tx.Where(&models.ServiceInstance{ID: id}).First(&instance).Error; err != nil {
				return &types.NotFoundError{Entity: "service instance", ID: id}
			}
			return &types.ConflictError{Entity: "service instance", ID: id, Reason: "not served by actor"}
		}
		return tx.Where(&models.ServiceInstance{ID: id}).First(&instance).Error
	})
	if err != nil {
		return nil, err
	}
	go models.PublishRowChange("service_instances", "update", instance.ID, instance.BookingID, nil)
	go func() {
		if err := RevertBookingCommissions(instance.BookingID); err != nil {
			log.Printf("[commission] Error reverting for booking [%d]: %s\n", instance.BookingID, err.Error())
		}
	}()
	return &instance, nil
}
