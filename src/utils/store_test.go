package utils

import (
	"log"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sbs/src/db"
	"sbs/src/types"
)

func newMockStore(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	db.NewDB(gormDB)
	return gormDB, mock
}

func TestClaimInstanceConflict(t *testing.T) {
	_, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "service_instances" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "service_instances"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "status", "claimed_by"}).
			AddRow(7, 4, "claimed", 2))
	mock.ExpectRollback()

	instance, err := ClaimInstance(7, 3)
	assert.Nil(t, instance)
	var conflictErr *types.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkBookingToSessionIdempotent(t *testing.T) {
	_, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "appointment_sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "service_id", "current_step", "status"}).
			AddRow(5, 1, 2, 2, "in_progress"))
	mock.ExpectQuery(`SELECT (.+) FROM "appointment_session_bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "booking_id", "step_order"}).
			AddRow(1, 5, 9, 2))
	mock.ExpectCommit()

	// re-linking the same booking to the same step returns the existing row
	// and writes nothing
	link, err := LinkBookingToSession(5, 9, 2)
	assert.Nil(t, err)
	assert.Equal(t, uint(9), link.BookingID)
	assert.Equal(t, uint(2), link.StepOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkBookingToSessionFilledStepConflict(t *testing.T) {
	_, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "appointment_sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "service_id", "current_step", "status"}).
			AddRow(5, 1, 2, 2, "in_progress"))
	mock.ExpectQuery(`SELECT (.+) FROM "appointment_session_bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "booking_id", "step_order"}).
			AddRow(1, 5, 8, 2))
	mock.ExpectRollback()

	link, err := LinkBookingToSession(5, 9, 2)
	assert.Nil(t, link)
	var conflictErr *types.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevertBookingCommissionsWritesPairedRow(t *testing.T) {
	_, mock := newMockStore(t)

	addId := uuid.NewString()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "commission_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "employee_id", "service_instance_id", "booking_id",
			"amount", "price_snapshot", "rate_snapshot", "type", "status",
		}).AddRow(addId, 2, 7, 4, "75", "750", "0.1", "add", "applied"))
	// the REVERT row is inserted before the ADD is flipped to reverted
	mock.ExpectQuery(`INSERT INTO "commission_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectExec(`UPDATE "commission_transactions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := RevertBookingCommissions(4)
	assert.Nil(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluateBookingCommissionsSkipsExistingAdd(t *testing.T) {
	_, mock := newMockStore(t)

	servedAt := time.Now().Add(-5 * time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(4, "confirmed"))
	mock.ExpectQuery(`SELECT (.+) FROM "service_instances"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "status", "served_at", "claimed_by", "commission_base",
		}).AddRow(7, 4, "served", servedAt, 2, "750"))
	mock.ExpectQuery(`SELECT (.+) FROM "employees"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "role", "active", "commission_rate"}).
			AddRow(2, "stylist", true, "0.1"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "commission_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	// an existing non-reverted ADD short-circuits the unit, so no INSERT runs
	err := EvaluateBookingCommissions(4)
	assert.Nil(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingRollsBackOnRedeemedVoucher(t *testing.T) {
	_, mock := newMockStore(t)

	customerId := uint(1)
	code := "GC-ROLL-BACK"
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "customers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Jane Doe"))
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "price", "duration", "active"}).
			AddRow(2, "500", 30, true))
	mock.ExpectExec(`UPDATE "vouchers" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "vouchers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "value", "status"}).
			AddRow(3, code, "100", "active"))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(`INSERT INTO "service_instances"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21).AddRow(22).AddRow(23))
	// another transaction redeemed the voucher first: the guarded flip
	// matches nothing and the whole booking rolls back
	mock.ExpectExec(`UPDATE "vouchers" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	booking, err := CreateBooking(&types.CreateBookingRequestBody{
		CustomerID:      &customerId,
		AppointmentDate: "2030-04-01 10:00:00 +08:00",
		Branch:          "main",
		Services:        []types.SelectionItem{{ID: 2, Qty: 3}},
		VoucherCode:     &code,
	})
	assert.Nil(t, booking)
	var voucherErr *types.InvalidVoucherError
	assert.ErrorAs(t, err, &voucherErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceSelectionExpandsQuantity(t *testing.T) {
	gormDB, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "price", "duration", "active"}).
			AddRow(2, "500", 30, true))

	result, err := PriceSelection(gormDB, []types.SelectionItem{{ID: 2, Qty: 3}}, nil)
	assert.Nil(t, err)
	assert.Len(t, result.Units, 3)
	for i, unit := range result.Units {
		assert.Equal(t, uint(i+1), unit.SequenceOrder)
		assert.True(t, unit.PriceAtBooking.Equal(decimal.NewFromInt(500)))
	}
	assert.True(t, result.GrandTotal.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, uint(90), result.Duration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceSelectionExpandsSetMembers(t *testing.T) {
	gormDB, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM "service_sets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "price", "active"}).
			AddRow(4, "1500", true))
	mock.ExpectQuery(`SELECT (.+) FROM "service_set_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "service_set_id", "service_id"}).
			AddRow(1, 4, 2).
			AddRow(2, 4, 3))
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "duration", "active"}).
			AddRow(2, 20, true).
			AddRow(3, 40, true))

	// 2 members x qty 3 = 6 instances, each carrying the even 750 share
	result, err := PriceSelection(gormDB, nil, []types.SelectionItem{{ID: 4, Qty: 3}})
	assert.Nil(t, err)
	assert.Len(t, result.Units, 6)
	share := decimal.NewFromInt(750)
	for i, unit := range result.Units {
		assert.Equal(t, uint(i+1), unit.SequenceOrder)
		assert.True(t, unit.CommissionBase.Equal(share), "got %s", unit.CommissionBase)
		assert.NotNil(t, unit.ServiceSetID)
	}
	assert.True(t, result.GrandTotal.Equal(decimal.NewFromInt(4500)))
	assert.Equal(t, uint(180), result.Duration)
	assert.NoError(t, mock.ExpectationsWereMet())
}
