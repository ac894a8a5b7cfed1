package common

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"firebase.google.com/go/v4/messaging"
	"github.com/tidwall/gjson"

	"sbs/src/config"
	"sbs/src/lib"
	awslib "sbs/src/lib/aws"
	"sbs/src/lib/mailer"
	"sbs/src/models"
	"sbs/src/utils"
)

// sendBookingNotification emails the customer and, when a device token is
// registered, pushes over FCM. Both paths are best-effort.
func sendBookingNotification(bookingId uint, subject string, intro string) {
	booking, err := utils.GetBooking(bookingId)
	if err != nil {
		log.Printf("[notify] Could not load booking [%d]: %s\n", bookingId, err.Error())
		return
	}
	if booking.Customer == nil {
		log.Printf("[notify] Booking [%d] has no customer record\n", bookingId)
		return
	}

	if booking.Customer.Email != "" {
		senderFrom := os.Getenv("SMTP_FROM")
		when := ""
		if booking.AppointmentAt != nil {
			when = booking.AppointmentAt.Format(config.TIME_PARSE_FORMAT)
		}
		input := &lib.SendMailInput{
			Subject:  subject,
			From:     senderFrom,
			FromName: "Salon Front Desk",
			To:       []string{booking.Customer.Email},
			Body: fmt.Sprintf(`
				<p>Hi %s,</p>
				<p>%s</p>
				<p>Booking Details</p>
				<p>When: %s</p>
				<p>Where: %s branch</p>
				<p>Services: %d</p>
				<p>Total due: %s</p>
				<p>This is a system-generated message. Do not reply to this email.</p>
				`,
				booking.Customer.Name,
				intro,
				when,
				booking.Branch,
				len(booking.Instances),
				booking.GrandTotal.Sub(booking.GrandDiscount).StringFixed(2),
			),
			Html: true,
		}
		if err := mailer.NewMailerMessage(input); err != nil {
			log.Printf("[mailer] Error sending message: %s\n", err.Error())
		}
	}

	go pushBookingNotification(booking, subject, intro)
}

// pushBookingNotification delivers an FCM push when the customer has a
// registered device token in redis.
func pushBookingNotification(booking *models.Booking, title string, body string) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	key := fmt.Sprintf("customer:%d:fcm", booking.CustomerID)
	token, err := rd.Get(context.Background(), key).Result()
	if err != nil || token == "" {
		return
	}
	ms, err := lib.GetFirebaseMessaging()
	if err != nil {
		log.Printf("[FCM] Error initializing client: %s\n", err.Error())
		return
	}
	id, err := ms.Send(context.Background(), &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"booking_id": fmt.Sprint(booking.ID),
		},
	})
	if err != nil {
		log.Printf("[FCM] Error sending message: %s\n", err.Error())
		return
	}
	log.Printf("[FCM] Sent message: %s\n", id)
}

func KafkaBookingConfirmationsConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("[BookingConfirmations]: Received invalid json body. Aborting")
		return
	}
	bookingId := uint(gjson.Get(spayload, "id").Int())
	log.Printf("bookingId: %d\n", bookingId)
	go sendBookingNotification(bookingId,
		"Your booking is confirmed",
		"Thank you for booking with us. Your appointment has been recorded.")
}

func BookingConfirmationsConsumer() {
	qname := utils.WithSuffix(utils.BookingConfirmationsTopic)
	c := awslib.NewSQSConsumer(qname, func(body string) {
		if !gjson.Valid(body) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		msg := unwrapQueueMessage(body)
		bookingId := uint(gjson.Get(msg, "id").Int())
		log.Printf("bookingId: %d\n", bookingId)
		go sendBookingNotification(bookingId,
			"Your booking is confirmed",
			"Thank you for booking with us. Your appointment has been recorded.")
	})
	c.Listen()
}

func KafkaBookingRemindersConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("[BookingReminders]: Received invalid json body. Aborting")
		return
	}
	bookingId := uint(gjson.Get(spayload, "id").Int())
	payloadId := gjson.Get(spayload, "payloadId").String()
	log.Printf("bookingId: %d\n", bookingId)
	go sendBookingNotification(bookingId,
		"Appointment reminder",
		"This is a reminder for your appointment tomorrow.")
	go models.MarkJobTaskDone(payloadId)
}

func BookingRemindersConsumer() {
	qname := utils.WithSuffix("BookingReminders")
	c := awslib.NewSQSConsumer(qname, func(body string) {
		if !gjson.Valid(body) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		msg := unwrapQueueMessage(body)
		bookingId := uint(gjson.Get(msg, "id").Int())
		payloadId := gjson.Get(msg, "payloadId").String()
		log.Printf("bookingId: %d\n", bookingId)
		go sendBookingNotification(bookingId,
			"Appointment reminder",
			"This is a reminder for your appointment tomorrow.")
		go models.MarkJobTaskDone(payloadId)
	})
	c.Listen()
}

// unwrapQueueMessage peels the SNS envelope off an SQS body when present.
func unwrapQueueMessage(body string) string {
	message := gjson.Get(body, "Message")
	if !message.Exists() {
		return body
	}
	inner := message.String()
	var check map[string]any
	if err := json.Unmarshal([]byte(inner), &check); err != nil {
		return body
	}
	return inner
}
