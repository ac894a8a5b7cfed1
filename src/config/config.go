package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"
const DAY_FORMAT = "2006-01-02"

var API_ENV = os.Getenv("API_ENV")

// CommissionDebounce returns how long every instance of a booking must stay
// served before commissions apply. The 60s default guards against accidental
// serve/unserve taps, not business rules; override with
// COMMISSION_DEBOUNCE_SECONDS.
func CommissionDebounce() time.Duration {
	raw := os.Getenv("COMMISSION_DEBOUNCE_SECONDS")
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		secs = 60
	}
	return time.Duration(secs) * time.Second
}
