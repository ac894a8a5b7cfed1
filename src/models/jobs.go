package models

import (
	"log"
	"sbs/src/db"
	"sbs/src/lib"
	"sbs/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobTask is a persisted one-time job (commission re-evaluation at debounce
// expiry, booking reminders). Rows are recovered into the scheduler on boot
// so a restart does not lose pending work.
type JobTask struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	Name      string      `json:"-"`
	JobType   string      `json:"-"`
	RunsAt    time.Time   `json:"-"`
	PayloadID string      `json:"-"`
	Payload   types.JSONB `gorm:"type:jsonb" json:"-"`
	Source    string      `json:"-"`
	Status    string      `gorm:"default:'pending'" json:"-"`
	Topic     string      `json:"-"`
}

func (self *JobTask) CreateAndEnqueueJobTask(jobTask JobTask) (string, error) {
	var jobID string
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		sid, err := lib.ScheduleTopicMessage(jobTask.Name, jobTask.Topic, jobTask.RunsAt, jobTask.Payload)
		if err != nil {
			log.Printf("Error scheduling job [%s]: %s\n", jobTask.Name, err.Error())
			return err
		}
		jobID = sid.String()
		jobTask.ID = *sid
		jobTask.Payload["JobID"] = jobID
		if err := tx.Create(&jobTask).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Printf("Created schedule for job %s with name %s at %s\n", jobID, jobTask.Name, jobTask.RunsAt)
	return jobID, nil
}

// MarkJobTaskDone flips the persisted row once the consumer has handled the
// published payload.
func MarkJobTaskDone(payloadId string) {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&JobTask{PayloadID: payloadId}).Updates(&JobTask{Status: "done"}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("Error updating job task [%s]: %s\n", payloadId, err.Error())
	}
}
