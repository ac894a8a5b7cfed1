package common

import (
	"log"

	"github.com/tidwall/gjson"

	awslib "sbs/src/lib/aws"
	"sbs/src/models"
	"sbs/src/utils"
)

// KafkaCommissionsToEvaluateConsumer handles the debounce-expiry messages
// produced by the scheduler and re-runs the eligibility evaluation for the
// booking. Evaluation re-reads instance rows, so stale messages are safe.
func KafkaCommissionsToEvaluateConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("[CommissionsToEvaluate]: Received invalid json body. Aborting")
		return
	}
	bookingId := uint(gjson.Get(spayload, "id").Int())
	payloadId := gjson.Get(spayload, "payloadId").String()
	log.Printf("bookingId: %d\n", bookingId)
	go func() {
		if err := utils.EvaluateBookingCommissions(bookingId); err != nil {
			log.Printf("[commission] Evaluation failed for booking [%d]: %s\n", bookingId, err.Error())
			return
		}
		models.MarkJobTaskDone(payloadId)
	}()
}

func CommissionsToEvaluateConsumer() {
	qname := utils.WithSuffix(utils.CommissionEvalTopic)
	c := awslib.NewSQSConsumer(qname, func(body string) {
		if !gjson.Valid(body) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		msg := unwrapQueueMessage(body)
		bookingId := uint(gjson.Get(msg, "id").Int())
		payloadId := gjson.Get(msg, "payloadId").String()
		log.Printf("bookingId: %d\n", bookingId)
		go func() {
			if err := utils.EvaluateBookingCommissions(bookingId); err != nil {
				log.Printf("[commission] Evaluation failed for booking [%d]: %s\n", bookingId, err.Error())
				return
			}
			models.MarkJobTaskDone(payloadId)
		}()
	})
	c.Listen()
}
