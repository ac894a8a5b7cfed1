package common

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/tidwall/gjson"
	"github.com/zishang520/socket.io/v2/socket"

	"sbs/src/config"
	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/utils"
)

// The day-view projection keeps front-desk clients consistent with the
// store. Change notifications are at-least-once and carry no authoritative
// state; every message triggers a full refetch of the affected day, which is
// then cached and pushed to subscribed clients.

var sockets *socket.Server

// NewSocketServer hands the projection the socket server built in main.
func NewSocketServer(s *socket.Server) {
	sockets = s
}

const dayViewCacheTTL = 10 * time.Minute

func dayViewCacheKey(date string) string {
	return fmt.Sprintf("dayview:%s", date)
}

// PublishDayView refetches the booking aggregates for one day, refreshes the
// redis cache and emits the snapshot to every client in that day's room.
func PublishDayView(date string) {
	day, err := time.Parse(config.DAY_FORMAT, date)
	if err != nil {
		log.Printf("[projection] Invalid day [%s]: %s\n", date, err.Error())
		return
	}
	bookings, err := utils.GetDayBookings(day)
	if err != nil {
		log.Printf("[projection] Error refetching day [%s]: %s\n", date, err.Error())
		return
	}
	raw, err := json.Marshal(bookings)
	if err != nil {
		log.Printf("[projection] Error serializing day [%s]: %s\n", date, err.Error())
		return
	}
	if rd := lib.GetRedisClient(); rd != nil {
		if err := rd.Set(context.Background(), dayViewCacheKey(date), raw, dayViewCacheTTL).Err(); err != nil {
			log.Printf("[projection] Error caching day [%s]: %s\n", date, err.Error())
		}
	}
	if sockets != nil {
		room := socket.Room(fmt.Sprintf("day:%s", date))
		sockets.Of("/dayview", nil).To(room).Emit("day-view", string(raw))
	}
	log.Printf("[projection] Published day view for %s (%d bookings)\n", date, len(bookings))
}

// CachedDayView serves the day view from redis when fresh, falling back to
// the store.
func CachedDayView(date string) ([]models.Booking, error) {
	if rd := lib.GetRedisClient(); rd != nil {
		val, err := rd.Get(context.Background(), dayViewCacheKey(date)).Result()
		if err == nil && val != "" {
			var bookings []models.Booking
			if err := json.Unmarshal([]byte(val), &bookings); err == nil {
				return bookings, nil
			}
		}
	}
	day, err := time.Parse(config.DAY_FORMAT, date)
	if err != nil {
		return nil, err
	}
	return utils.GetDayBookings(day)
}

// resolveChangeDate maps a change notification to the calendar day it
// affects, loading the parent booking when the payload has no date.
func resolveChangeDate(bookingId uint, date string) string {
	if date != "" {
		return date
	}
	if bookingId == 0 {
		return ""
	}
	booking, err := utils.GetBooking(bookingId)
	if err != nil || booking.AppointmentAt == nil {
		return ""
	}
	return booking.AppointmentAt.Format(config.DAY_FORMAT)
}

func KafkaRowChangesConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("[row-changes]: Received invalid json body. Aborting")
		return
	}
	table := gjson.Get(spayload, "table").String()
	op := gjson.Get(spayload, "op").String()
	bookingId := uint(gjson.Get(spayload, "booking_id").Int())
	date := gjson.Get(spayload, "date").String()
	log.Printf("[row-changes] %s/%s booking=%d\n", table, op, bookingId)
	day := resolveChangeDate(bookingId, date)
	if day == "" {
		return
	}
	go PublishDayView(day)
}

// SubscribeRowChanges starts the kafka consumer feeding the projection.
func SubscribeRowChanges() {
	lib.KafkaSubscribe("projection", []string{models.RowChangeTopic}, func(m *kafka.Message) {
		KafkaRowChangesConsumer(string(m.Value))
	})
}
