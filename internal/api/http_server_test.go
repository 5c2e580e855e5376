package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"smartturf/internal/config"
	"smartturf/internal/database"
	"smartturf/internal/events"
	"smartturf/internal/models"
	"smartturf/internal/repository"
	"smartturf/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type queuedExport struct {
	Start, End time.Time
}

type stubExportQueue struct {
	tasks []queuedExport
	err   error
}

func (q *stubExportQueue) Enqueue(_ context.Context, start, end time.Time) error {
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, queuedExport{Start: start, End: end})
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.Path = "unused"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTLHours = 1
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Booking.OpenHour = 6
	cfg.Booking.CloseHour = 24
	cfg.Booking.MaxBookingDays = 365
	cfg.API.Port = 0
	cfg.API.RateLimit.UserRequests = 10000
	cfg.API.RateLimit.UserWindow = 60
	return cfg
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) (*HTTPServer, *database.DB, *stubExportQueue) {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache := repository.NewMemoryCacheRepository(time.Minute)
	bus := events.NewEventBus()
	exports := &stubExportQueue{}

	srv := NewHTTPServer(cfg, db, Services{
		Users:    service.NewUserService(db, cfg.Auth.BcryptCost),
		Bookings: service.NewBookingService(db, cache, bus, cfg.Booking, &logger),
		Matches:  service.NewMatchService(db, bus, &logger),
		Catalog:  service.NewCatalogService(db),
	}, cache, exports, &logger)

	return srv, db, exports
}

func newTestServer(t *testing.T) (*HTTPServer, *database.DB) {
	t.Helper()
	srv, db, _ := newTestServerWithConfig(t, testConfig())
	return srv, db
}

func doJSON(t *testing.T, srv *HTTPServer, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func registerUser(t *testing.T, srv *HTTPServer, email string) (string, *models.User) {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[authResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User
}

func createTurfViaAPI(t *testing.T, srv *HTTPServer, token string, price float64) *models.Turf {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/turfs", token, map[string]any{
		"name":           "API Turf",
		"location":       "Test City",
		"price_per_hour": price,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	turf := decodeBody[models.Turf](t, rec)
	return &turf
}

func tomorrowAt(hour int) time.Time {
	day := time.Now().UTC().AddDate(0, 0, 1)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
}

func TestRegisterAndLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	token, user := registerUser(t, srv, "asha@example.com")
	assert.NotEmpty(t, token)
	assert.Equal(t, "asha@example.com", user.Email)

	// Duplicate email conflicts.
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Imposter",
		"email":    "asha@example.com",
		"password": "othersecret",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "asha@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "asha@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_InvalidInput(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "NoEmail",
		"password": "supersecret",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTurfsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/turfs", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Creation requires auth.
	rec = doJSON(t, srv, http.MethodPost, "/api/turfs", "", map[string]any{
		"name": "X", "location": "Y", "price_per_hour": 100,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _ := registerUser(t, srv, "owner@example.com")
	turf := createTurfViaAPI(t, srv, token, 1200)
	assert.NotZero(t, turf.ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/turfs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	turfs := decodeBody[[]models.Turf](t, rec)
	assert.Len(t, turfs, 1)
}

func TestKitsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	token, user := registerUser(t, srv, "owner@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/kits", token, map[string]any{
		"name":           "Football Kit",
		"description":    "Ball and bibs",
		"price_per_hour": 150,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	kit := decodeBody[models.Kit](t, rec)
	assert.Equal(t, user.ID, kit.OwnerID)
	assert.True(t, kit.Available)

	rec = doJSON(t, srv, http.MethodGet, "/api/kits", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	kits := decodeBody[[]models.Kit](t, rec)
	assert.Len(t, kits, 1)
}

func TestSlotsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := registerUser(t, srv, "user@example.com")
	turf := createTurfViaAPI(t, srv, token, 1000)

	date := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/bookings/slots/%d?date=%s", turf.ID, date), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[struct {
		Slots []models.Slot `json:"slots"`
	}](t, rec)
	assert.Len(t, resp.Slots, 18)
	for _, slot := range resp.Slots {
		assert.True(t, slot.Available)
	}
}

func TestSlotsEndpoint_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := registerUser(t, srv, "user@example.com")
	turf := createTurfViaAPI(t, srv, token, 1000)

	// Missing date.
	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/bookings/slots/%d", turf.ID), "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed date.
	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/bookings/slots/%d?date=09-01-2026", turf.ID), "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Non-numeric turf id.
	rec = doJSON(t, srv, http.MethodGet, "/api/bookings/slots/abc?date=2026-09-01", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown turf.
	rec = doJSON(t, srv, http.MethodGet, "/api/bookings/slots/9999?date=2026-09-01", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBooking(t *testing.T) {
	srv, _ := newTestServer(t)
	token, user := registerUser(t, srv, "booker@example.com")
	turf := createTurfViaAPI(t, srv, token, 1200)

	start := tomorrowAt(10)
	rec := doJSON(t, srv, http.MethodPost, "/api/bookings", token, map[string]any{
		"turf_id":    turf.ID,
		"start_time": start.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	booking := decodeBody[models.Booking](t, rec)
	assert.Equal(t, user.ID, booking.UserID)
	assert.Equal(t, 1200.0, booking.TotalPrice)
	assert.Equal(t, models.StatusConfirmed, booking.Status)

	// The slot now shows as unavailable.
	date := start.Format("2006-01-02")
	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/bookings/slots/%d?date=%s", turf.ID, date), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[struct {
		Slots []models.Slot `json:"slots"`
	}](t, rec)
	for _, slot := range resp.Slots {
		if slot.FullTime == "10:00" {
			assert.False(t, slot.Available)
		}
	}
}

func TestCreateBooking_Conflict(t *testing.T) {
	srv, _ := newTestServer(t)
	tokenA, _ := registerUser(t, srv, "a@example.com")
	tokenB, _ := registerUser(t, srv, "b@example.com")
	turf := createTurfViaAPI(t, srv, tokenA, 1000)

	body := map[string]any{
		"turf_id":    turf.ID,
		"start_time": tomorrowAt(18).Format(time.RFC3339),
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/bookings", tokenA, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/bookings", tokenB, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBooking_Validation(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := registerUser(t, srv, "booker@example.com")
	turf := createTurfViaAPI(t, srv, token, 1000)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			"missing turf",
			map[string]any{"start_time": tomorrowAt(10).Format(time.RFC3339)},
			http.StatusBadRequest,
		},
		{
			"malformed time",
			map[string]any{"turf_id": turf.ID, "start_time": "tomorrow at ten"},
			http.StatusBadRequest,
		},
		{
			"not hour aligned",
			map[string]any{"turf_id": turf.ID, "start_time": tomorrowAt(10).Add(30 * time.Minute).Format(time.RFC3339)},
			http.StatusBadRequest,
		},
		{
			"outside window",
			map[string]any{"turf_id": turf.ID, "start_time": tomorrowAt(3).Format(time.RFC3339)},
			http.StatusBadRequest,
		},
		{
			"past day",
			map[string]any{"turf_id": turf.ID, "start_time": tomorrowAt(10).AddDate(0, 0, -5).Format(time.RFC3339)},
			http.StatusBadRequest,
		},
		{
			"unknown turf",
			map[string]any{"turf_id": 9999, "start_time": tomorrowAt(10).Format(time.RFC3339)},
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/bookings", token, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestMyBookings(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := registerUser(t, srv, "booker@example.com")
	other, _ := registerUser(t, srv, "other@example.com")
	turf := createTurfViaAPI(t, srv, token, 800)

	rec := doJSON(t, srv, http.MethodPost, "/api/bookings", token, map[string]any{
		"turf_id":    turf.ID,
		"start_time": tomorrowAt(9).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/bookings", other, map[string]any{
		"turf_id":    turf.ID,
		"start_time": tomorrowAt(11).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/my-bookings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	views := decodeBody[[]models.BookingView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, "API Turf", views[0].TurfName)
}

func TestMatchLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	organizer, _ := registerUser(t, srv, "organizer@example.com")
	joiner, _ := registerUser(t, srv, "joiner@example.com")
	third, _ := registerUser(t, srv, "third@example.com")
	turf := createTurfViaAPI(t, srv, organizer, 1000)

	rec := doJSON(t, srv, http.MethodPost, "/api/matches", organizer, map[string]any{
		"turf_id":                 turf.ID,
		"sport":                   "football",
		"match_time":              tomorrowAt(19).Format(time.RFC3339),
		"players_needed":          2,
		"contribution_per_person": 250,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	match := decodeBody[models.Match](t, rec)
	assert.Equal(t, models.MatchStatusOpen, match.Status)

	rec = doJSON(t, srv, http.MethodGet, "/api/matches", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	open := decodeBody[[]models.MatchView](t, rec)
	require.Len(t, open, 1)
	assert.Equal(t, int64(1), open[0].CurrentPlayers)

	// The joiner takes the last seat.
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/matches/%d/join", match.ID), joiner, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// A full match rejects further joins and leaves the open listing.
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/matches/%d/join", match.ID), third, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/matches", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	open = decodeBody[[]models.MatchView](t, rec)
	assert.Empty(t, open)
}

func TestJoinMatch_Duplicate(t *testing.T) {
	srv, _ := newTestServer(t)
	organizer, _ := registerUser(t, srv, "organizer@example.com")
	joiner, _ := registerUser(t, srv, "joiner@example.com")
	turf := createTurfViaAPI(t, srv, organizer, 1000)

	rec := doJSON(t, srv, http.MethodPost, "/api/matches", organizer, map[string]any{
		"turf_id":        turf.ID,
		"sport":          "cricket",
		"match_time":     tomorrowAt(17).Format(time.RFC3339),
		"players_needed": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	match := decodeBody[models.Match](t, rec)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/matches/%d/join", match.ID), joiner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/matches/%d/join", match.ID), joiner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestJoinMatch_BadPaths(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := registerUser(t, srv, "user@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/matches/abc/join", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/matches/1/leave", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/matches/9999/join", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateMatch_Validation(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := registerUser(t, srv, "organizer@example.com")
	turf := createTurfViaAPI(t, srv, token, 1000)

	rec := doJSON(t, srv, http.MethodPost, "/api/matches", token, map[string]any{
		"turf_id":        turf.ID,
		"sport":          "football",
		"match_time":     tomorrowAt(19).Format(time.RFC3339),
		"players_needed": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/matches", token, map[string]any{
		"turf_id":        turf.ID,
		"sport":          "football",
		"players_needed": 4,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	cfg := testConfig()
	srv, _, exports := newTestServerWithConfig(t, cfg)
	token, _ := registerUser(t, srv, "admin@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/admin/exports", token, map[string]string{
		"start_date": "2026-09-01",
		"end_date":   "2026-09-07",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, exports.tasks, 1)

	// The end date is inclusive: the queued range covers the whole last day.
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), exports.tasks[0].Start)
	assert.Equal(t, time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC), exports.tasks[0].End)

	rec = doJSON(t, srv, http.MethodPost, "/api/admin/exports", token, map[string]string{
		"start_date": "2026-09-07",
		"end_date":   "2026-09-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/admin/exports", "", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPerUserRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.API.RateLimit.UserRequests = 3
	cfg.API.RateLimit.UserWindow = 60
	srv, _, _ := newTestServerWithConfig(t, cfg)

	token, _ := registerUser(t, srv, "busy@example.com")

	var lastCode int
	for i := 0; i < 4; i++ {
		rec := doJSON(t, srv, http.MethodGet, "/api/my-bookings", token, nil)
		lastCode = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodDelete, "/api/turfs", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
