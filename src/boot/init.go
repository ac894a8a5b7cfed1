package boot

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"sbs/src/common"
	"sbs/src/db"
	"sbs/src/lib"
	awslib "sbs/src/lib/aws"
	"sbs/src/models"
	"sbs/src/utils"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Customer{},
		&models.Employee{},
		&models.Service{},
		&models.ServiceAppointmentStep{},
		&models.ServiceSet{},
		&models.ServiceSetItem{},
		&models.Voucher{},
		&models.Discount{},
		&models.Booking{},
		&models.ServiceInstance{},
		&models.CommissionTransaction{},
		&models.AppointmentSession{},
		&models.AppointmentSessionBooking{},
		&models.JobTask{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitBroker wires the queue consumers. Local environments run everything
// over kafka; deployed environments listen on the SQS queues fed by SNS.
func InitBroker() {
	go RecoverQueuedJobs()
	go UpdateExpiredJobs()

	if os.Getenv("KAFKA_BROKER") != "" {
		go lib.KafkaCreateTopics(
			models.RowChangeTopic,
			utils.WithSuffix(utils.CommissionEvalTopic),
			utils.WithSuffix(utils.BookingConfirmationsTopic),
			utils.WithSuffix("BookingReminders"),
			utils.WithSuffix("EmailsToSend"),
		)
		go common.SubscribeRowChanges()
		go lib.KafkaSubscribe("commissions", []string{utils.WithSuffix(utils.CommissionEvalTopic)}, func(m *kafka.Message) {
			common.KafkaCommissionsToEvaluateConsumer(string(m.Value))
		})
		go lib.KafkaSubscribe("bookings", []string{utils.WithSuffix(utils.BookingConfirmationsTopic)}, func(m *kafka.Message) {
			common.KafkaBookingConfirmationsConsumer(string(m.Value))
		})
		go lib.KafkaSubscribe("reminders", []string{utils.WithSuffix("BookingReminders")}, func(m *kafka.Message) {
			common.KafkaBookingRemindersConsumer(string(m.Value))
		})
		go lib.KafkaSubscribe("emails", []string{utils.WithSuffix("EmailsToSend")}, func(m *kafka.Message) {
			common.KafkaEmailsToSendConsumer(string(m.Value))
		})
	}
	if !utils.IsLocal() {
		go subscribeQueuesToTopics(
			utils.WithSuffix(utils.CommissionEvalTopic),
			utils.WithSuffix(utils.BookingConfirmationsTopic),
			utils.WithSuffix("BookingReminders"),
			utils.WithSuffix("EmailsToSend"),
		)
		go common.CommissionsToEvaluateConsumer()
		go common.BookingConfirmationsConsumer()
		go common.BookingRemindersConsumer()
		go common.EmailsToSendConsumer()
	}
}

// subscribeQueuesToTopics binds each worker queue to its SNS topic so
// fan-out keeps working after fresh deploys. Re-subscribing is a no-op.
func subscribeQueuesToTopics(topics ...string) {
	prefix := os.Getenv("SQS_QUEUE_ARN_PREFIX")
	if prefix == "" {
		return
	}
	for _, topic := range topics {
		sub := awslib.NewSNSSubscriber(topic)
		if sub == nil {
			continue
		}
		if _, err := sub.Subscribe("sqs", fmt.Sprintf("%s:%s", prefix, topic)); err != nil {
			log.Printf("Error subscribing queue to topic [%s]: %s\n", topic, err.Error())
		}
	}
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(utils.RunExpirySweeps),
	)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	log.Printf("Job ID: %s %s\n", j.Name(), j.ID().String())
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}

// RecoverQueuedJobs reloads pending one-time jobs (commission re-evaluations,
// booking reminders) into the scheduler after a restart.
func RecoverQueuedJobs() error {
	sched, err := lib.GetScheduler()
	if err != nil {
		return err
	}
	db := db.GetDb()
	ss := db.Session(&gorm.Session{PrepareStmt: true})
	var jobTasks []models.JobTask
	today := time.Now()
	in1m := today.Add(1 * time.Minute)
	in3months := today.Add((24 * 30 * 3) * time.Hour)
	err = ss.
		Model(&models.JobTask{}).Select("id", "name", "payload", "runs_at", "topic").
		Where(&models.JobTask{Status: "pending", JobType: "OneTimeJobStartDateTime"}).
		Where("runs_at BETWEEN ? AND ?", in1m, in3months).
		Order("runs_at asc").
		Limit(100).
		Find(&jobTasks).
		Error
	if err != nil {
		log.Printf("Error retrieving jobs: %s\n", err.Error())
		return err
	}
	log.Printf("Found %d pending jobs", len(jobTasks))
	for _, jobTask := range jobTasks {
		log.Printf("Queueing: %s\n", jobTask.ID.String())
		jobDef := gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(jobTask.RunsAt))
		payload := jobTask.Payload
		jt := gocron.NewTask(func() {
			log.Println("Running scheduled task")
			err := lib.KafkaProduceMessage(payload["producerClientId"].(string), payload["topic"].(string), payload)
			if err != nil {
				log.Printf("Error on producing message: %s\n", err.Error())
				return
			}
		})
		job, err := sched.NewJob(
			jobDef,
			jt,
		)
		if err != nil {
			log.Printf("Failed to schedule job [%s]. Skipping: %s\n", jobTask.ID.String(), err.Error())
			continue
		}
		log.Printf("Added job to scheduler: name=%s id=%s job=%s\n", jobTask.Name, jobTask.ID.String(), job.ID().String())
	}

	return nil
}

func UpdateExpiredJobs() {
	db := db.GetDb()
	err := db.
		Transaction(func(tx *gorm.DB) error {
			err := tx.Model(&models.JobTask{}).
				Where("status", "pending").
				Where("runs_at < ?", time.Now()).
				Update("status", "expired").Error
			if err != nil {
				return err
			}
			return nil
		})
	if err != nil {
		log.Printf("Error while processing expired jobs: %s\n", err.Error())
	}
}
