package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sbs/src/db"
)

type TestSuite struct {
	suite.Suite
}

func (s *TestSuite) SetupSuite() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDateValidatorFunc)
		v.RegisterValidation("gtdate", gtfield)
	}
}

// newMockDB swaps the store singleton for a sqlmock-backed pool.
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

// stubAuthMiddleware stands in for the JWT middleware so handler validation
// paths can be exercised without a live employee record.
func stubAuthMiddleware(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("id", uint(1))
		ctx.Set("uid", "test-uid")
		ctx.Set("role", role)
	}
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestSecureHeaders() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(s.T(), "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestAuthRoutes() {
	router := setupRouter()
	guestAuthRoutes(router)

	w := httptest.NewRecorder()
	loginReq, _ := http.NewRequest("POST", "/api/v1/auth/login", nil)
	router.ServeHTTP(w, loginReq)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestDayViewDateValidation() {
	router := setupRouter()
	publicRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/day-view/notadate", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 400, w.Code)
	rbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	errMsg := gjson.Get(string(rbytes), "error").String()
	assert.Contains(s.T(), errMsg, "YYYY-MM-DD")
}

func (s *TestSuite) TestBookings() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(stubAuthMiddleware("receptionist"))
	bookingHandlers(apiv1)

	s.Run("Should reject an empty create request with 400", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.Greaterf(s.T(), len(rbytes), 0, "Empty response")
	})

	s.Run("Should reject a past appointment date with 400", func() {
		jbody := map[string]any{
			"appointment_date": "2020-01-01 10:00:00 +00:00",
			"branch":           "downtown",
			"customer_name":    "jane doe",
			"services":         []map[string]any{{"id": 1, "qty": 1}},
		}
		sbody, _ := json.Marshal(&jbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject an out-of-range quantity with 400", func() {
		jbody := map[string]any{
			"appointment_date": "2030-01-01 10:00:00 +00:00",
			"branch":           "downtown",
			"customer_name":    "jane doe",
			"services":         []map[string]any{{"id": 1, "qty": 99}},
		}
		sbody, _ := json.Marshal(&jbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a malformed status update with 400", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1/status", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject an unknown status value with 400", func() {
		jbody := map[string]any{"status": "bogus", "from": "pending"}
		sbody, _ := json.Marshal(&jbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1/status", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should run cancellation through the cancel flow", func() {
		// the cancel flow reads the booking first; the plain status flip
		// never does, so the expected SELECT pins the route
		mock := newMockDB()
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(1, "confirmed"))
		mock.ExpectExec(`UPDATE "bookings" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		jbody := map[string]any{"status": "cancelled", "from": "confirmed"}
		sbody, _ := json.Marshal(&jbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1/status", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Nil(s.T(), mock.ExpectationsWereMet())
	})

	s.Run("Should reject a malformed day with 400", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/day/tomorrow", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestInstances() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(stubAuthMiddleware("stylist"))
	instanceHandlers(apiv1)

	s.Run("Should reject a non-numeric instance id with 400", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/instances/abc/claim", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestSessions() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(stubAuthMiddleware("receptionist"))
	sessionHandlers(apiv1)

	s.Run("Should reject an empty find-or-create request with 400", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/sessions", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a link request without a booking with 400", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/sessions/1/link", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestCommissionAccess() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(stubAuthMiddleware("stylist"))
	commissionHandlers(apiv1)

	s.Run("Should forbid sales summary for non-managers", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/sales/2026-01-15", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("Should forbid another employee's payroll for non-managers", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/employees/2/payroll?from=2026-01-01&to=2026-01-31", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})
}

func (s *TestSuite) TestVouchers() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(stubAuthMiddleware("manager"))
	voucherHandlers(apiv1)
	discountHandlers(apiv1)

	s.Run("Should reject an empty voucher request with 400", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/vouchers", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a discount whose end precedes its start with 400", func() {
		jbody := map[string]any{
			"type":      "percentage",
			"value":     "10",
			"starts_at": "2030-02-01 00:00:00 +00:00",
			"ends_at":   "2030-01-01 00:00:00 +00:00",
		}
		sbody, _ := json.Marshal(&jbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/discounts", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
