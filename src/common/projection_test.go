package common

import (
	"log"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sbs/src/config"
	"sbs/src/db"
)

func newMockDB() sqlmock.Sqlmock {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	db.NewDB(gormDB)
	return mock
}

func TestResolveChangeDate(t *testing.T) {
	t.Run("Carries an explicit date through untouched", func(t *testing.T) {
		assert.Equal(t, "2026-02-03", resolveChangeDate(9, "2026-02-03"))
	})

	t.Run("Resolves a dateless change through its booking", func(t *testing.T) {
		mock := newMockDB()
		appointmentAt := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "appointment_at"}).
				AddRow(4, 1, appointmentAt))
		mock.ExpectQuery(`SELECT (.+) FROM "customers"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(`SELECT (.+) FROM "service_instances"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "status"}))

		day := resolveChangeDate(4, "")
		assert.Equal(t, appointmentAt.Format(config.DAY_FORMAT), day)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Drops a change without ids", func(t *testing.T) {
		// a message that names no booking cannot be mapped to a day
		assert.Equal(t, "", resolveChangeDate(0, ""))
	})
}
