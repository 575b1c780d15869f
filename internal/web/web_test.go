package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripwhen/internal/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.Language = "EN"
	cfg.Activities = []config.ActivityConfig{
		{ID: "a1", Name: "City connection", LatestEnd: "18:00", DurationMinutes: 60},
	}
	return cfg
}

func testServer(cfg *config.Config, now time.Time) *Server {
	s := NewServer(cfg)
	s.now = func() time.Time { return now }
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlePlan(t *testing.T) {
	// Morning, well before the 16:00 threshold: today is the default.
	now := time.Date(2025, 5, 17, 10, 0, 0, 0, time.UTC)
	s := testServer(testConfig(), now)

	rec := get(t, s.Handler(), "/api/plan?activity=a1")
	require.Equal(t, http.StatusOK, rec.Code)

	var plan Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&plan))
	assert.Equal(t, "a1", plan.ActivityID)
	assert.Equal(t, "2025-05-17", plan.DefaultDate)
	assert.Equal(t, "2025-05-17", plan.TravelDate)
	assert.Equal(t, "17. May", plan.ShortDate)
	assert.Equal(t, "17. May 2025", plan.FullDate)
	assert.Equal(t, "18:00", plan.LatestEnd)
}

func TestHandlePlanRollsToTomorrowInEvening(t *testing.T) {
	now := time.Date(2025, 5, 17, 17, 30, 0, 0, time.UTC)
	s := testServer(testConfig(), now)

	rec := get(t, s.Handler(), "/api/plan?activity=a1")
	require.Equal(t, http.StatusOK, rec.Code)

	var plan Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&plan))
	assert.Equal(t, "2025-05-18", plan.TravelDate)
}

func TestHandlePlanHonorsOperatingDays(t *testing.T) {
	cfg := testConfig()
	cfg.Activities[0].OperatingDays = "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"

	// Saturday morning: selector says today, service runs Monday next.
	now := time.Date(2025, 5, 17, 10, 0, 0, 0, time.UTC)
	s := testServer(cfg, now)

	rec := get(t, s.Handler(), "/api/plan?activity=a1")
	require.Equal(t, http.StatusOK, rec.Code)

	var plan Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&plan))
	assert.Equal(t, "2025-05-17", plan.DefaultDate)
	assert.Equal(t, "2025-05-19", plan.TravelDate)
	assert.Equal(t, "19. May", plan.ShortDate)
}

func TestHandlePlanUnknownActivity(t *testing.T) {
	s := testServer(testConfig(), time.Now())
	rec := get(t, s.Handler(), "/api/plan?activity=nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDuration(t *testing.T) {
	s := testServer(testConfig(), time.Now())

	rec := get(t, s.Handler(), "/api/duration?start=2025-05-17T08:00:00Z&end=2025-05-17T10:05:00Z")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Text         string `json:"text"`
		TotalMinutes int    `json:"total_minutes"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "2:05 h", resp.Text)
	assert.Equal(t, 125, resp.TotalMinutes)
}

func TestHandleDurationMinutes(t *testing.T) {
	s := testServer(testConfig(), time.Now())

	rec := get(t, s.Handler(), "/api/duration?minutes=45")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "45 min")

	rec = get(t, s.Handler(), "/api/duration")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTimes(t *testing.T) {
	s := testServer(testConfig(), time.Now())

	rec := get(t, s.Handler(), "/api/times?a=08:05&b=07:50")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "08:05", resp["later"])
	assert.Equal(t, "07:50", resp["earlier"])
}

func TestHandleExport(t *testing.T) {
	s := testServer(testConfig(), time.Now())

	rec := get(t, s.Handler(),
		"/api/export.ics?activity=a1&depart=2025-05-17T08:00:00Z&arrive=2025-05-17T10:05:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, rec.Body.String(), "SUMMARY:City connection")

	rec = get(t, s.Handler(), "/api/export.ics?activity=a1&depart=bad&arrive=2025-05-17T10:05:00Z")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	cfg := testConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "widget", Password: "s3cret"}
	s := testServer(cfg, time.Date(2025, 5, 17, 10, 0, 0, 0, time.UTC))
	h := s.Handler()

	// /health stays open.
	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)

	// API requires credentials.
	rec := get(t, h, "/api/plan?activity=a1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/plan?activity=a1", nil)
	req.SetBasicAuth("widget", "s3cret")
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestPlanCacheExpiresAtDayBoundary(t *testing.T) {
	cfg := testConfig()
	s := testServer(cfg, time.Date(2025, 5, 17, 10, 0, 0, 0, time.UTC))

	rec := get(t, s.Handler(), "/api/plan?activity=a1")
	require.Equal(t, http.StatusOK, rec.Code)

	var first Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))
	assert.Equal(t, "2025-05-17", first.TravelDate)

	// The civil day rolls over; the cached plan must be recomputed.
	s.now = func() time.Time { return time.Date(2025, 5, 18, 9, 0, 0, 0, time.UTC) }

	rec = get(t, s.Handler(), "/api/plan?activity=a1")
	require.Equal(t, http.StatusOK, rec.Code)

	var second Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.Equal(t, "2025-05-18", second.TravelDate)
}
