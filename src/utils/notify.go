package utils

import (
	"encoding/json"
	"log"
	"os"

	"sbs/src/lib"
	"sbs/src/types"
)

const BookingConfirmationsTopic = "BookingConfirmations"

// NotifyBookingConfirmed queues a confirmation notification for the booking.
// Fire-and-forget: failures are logged and never reach the caller.
func NotifyBookingConfirmed(bookingId uint) {
	payload := types.JSONB{
		"id":    int64(bookingId),
		"topic": BookingConfirmationsTopic,
	}
	if os.Getenv("API_ENV") == "local" {
		if err := lib.KafkaProduceMessage("bookings", WithSuffix(BookingConfirmationsTopic), payload); err != nil {
			log.Printf("[notify] Error queueing confirmation for booking [%d]: %s\n", bookingId, err.Error())
		}
		return
	}
	body, err := json.Marshal(&payload)
	if err != nil {
		log.Printf("[notify] Error serializing confirmation for booking [%d]: %s\n", bookingId, err.Error())
		return
	}
	if err := lib.SNSPublishMessage(WithSuffix(BookingConfirmationsTopic), string(body)); err != nil {
		log.Printf("[notify] Error queueing confirmation for booking [%d]: %s\n", bookingId, err.Error())
	}
}
