package models

import (
	"encoding/json"
	"log"
	"os"
	"sbs/src/config"
	"sbs/src/lib"
	"sbs/src/types"
	"time"
)

const RowChangeTopic = "row-changes"

// PublishRowChange emits an at-least-once change notification for the day
// view projection. Consumers refetch the booking aggregate, so a lost or
// duplicated message only costs a refetch. Row creation and deletion go
// through the model hooks; status transitions are guarded batch updates that
// bypass per-row hooks, so their call sites publish explicitly with the ids
// they already hold.
func PublishRowChange(table string, op string, id uint, bookingId uint, at *time.Time) {
	if os.Getenv("KAFKA_BROKER") == "" {
		return
	}
	change := types.RowChange{
		Table:     table,
		Op:        op,
		ID:        id,
		BookingID: bookingId,
	}
	if at != nil {
		change.Date = at.Format(config.DAY_FORMAT)
	}
	raw, err := json.Marshal(&change)
	if err != nil {
		log.Printf("[rowchange] Error serializing payload: %s\n", err.Error())
		return
	}
	var payload types.JSONB
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("[rowchange] Error building payload: %s\n", err.Error())
		return
	}
	if err := lib.KafkaProduceMessage("rowchange", RowChangeTopic, payload); err != nil {
		log.Printf("[rowchange] Error publishing %s/%s for [%d]: %s\n", table, op, id, err.Error())
	}
}
