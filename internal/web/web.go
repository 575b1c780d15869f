// Package web exposes the planning core over a small JSON/ICS HTTP API for
// the embedding widget. It keeps a per-activity plan cache so repeated
// widget opens do not redo zone math on every request.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tripwhen/internal/avail"
	"tripwhen/internal/config"
	"tripwhen/internal/ics"
	appLog "tripwhen/internal/log"
	"tripwhen/internal/when"
)

// Plan is the precomputed default-date answer for one activity.
type Plan struct {
	ActivityID   string `json:"activity_id"`
	ActivityName string `json:"activity_name"`

	// DefaultDate is the raw selector choice, TravelDate the operating-day
	// adjusted date actually offered to the user. Both yyyy-MM-dd.
	DefaultDate string `json:"default_date"`
	TravelDate  string `json:"travel_date"`

	ShortDate string `json:"short_date"` // "17. Mai"
	FullDate  string `json:"full_date"`  // "17. Mai 2025"
	LatestEnd string `json:"latest_end"` // "HH:mm" in the configured zone
}

type cachedPlan struct {
	plan Plan
	// day is the civil date (in the configured zone) the plan was computed
	// on; a cached plan is stale once the day rolls over.
	day when.CivilDate
}

// Server provides the HTTP API over the planning core.
type Server struct {
	cfg *config.Config
	tr  when.Translator
	mux *http.ServeMux

	// now is injected for tests; production servers use time.Now.
	now func() time.Time

	planMu sync.RWMutex
	plans  map[string]cachedPlan
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:   cfg,
		tr:    cfg.Translator(),
		mux:   http.NewServeMux(),
		now:   time.Now,
		plans: make(map[string]cachedPlan),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, with basic auth wrapped
// around all routes except /health when credentials are configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays reachable for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="tripwhen", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve runs the HTTP server on cfg.Listen and the cron-driven plan
// refresh until ctx is canceled.
func Serve(ctx context.Context, cfg *config.Config) error {
	s := NewServer(cfg)
	s.StartRefresh(ctx)

	srv := &http.Server{Addr: cfg.Listen, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// StartRefresh warms the plan cache and schedules recomputation on the
// configured cron expression until ctx is canceled.
func (s *Server) StartRefresh(ctx context.Context) {
	s.refreshPlans()

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.RefreshCron, s.refreshPlans); err != nil {
		appLog.Error("invalid refresh cron, cache refresh disabled", err, "refresh", s.cfg.RefreshCron)
		return
	}
	c.Start()
	appLog.Info("plan refresh scheduled", "refresh", s.cfg.RefreshCron, "activities", len(s.cfg.Activities))

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
}

func (s *Server) refreshPlans() {
	for _, a := range s.cfg.Activities {
		plan, day := s.computePlan(a)

		s.planMu.Lock()
		s.plans[a.ID] = cachedPlan{plan: plan, day: day}
		s.planMu.Unlock()

		appLog.Debug("plan refreshed", "activity", a.ID, "travel_date", plan.TravelDate)
	}
}

// computePlan runs the full pipeline for one activity: default-date
// selection, operating-day adjustment and display formatting.
func (s *Server) computePlan(a config.ActivityConfig) (Plan, when.CivilDate) {
	now := s.now()
	tz := s.cfg.Timezone
	lang := s.cfg.Language

	def := when.DefaultDate(now, tz, a.LatestEnd, a.DurationMinutes)

	travel := def
	rule, err := avail.Parse(a.OperatingDays, tz)
	if err != nil {
		appLog.Error("operating days unusable, assuming daily service", err, "activity", a.ID)
	} else if next, ok := rule.NextOperatingDay(def); ok {
		travel = next
	} else {
		appLog.Warn("no operating day found, keeping selector date", "activity", a.ID, "date", def.ISO())
	}

	midnight := when.UTCMidnight(travel.ISO(), tz, now)

	return Plan{
		ActivityID:   a.ID,
		ActivityName: a.Name,
		DefaultDate:  def.ISO(),
		TravelDate:   travel.ISO(),
		ShortDate:    when.LocalizedShortDate(midnight.Format(time.RFC3339), "utc", lang),
		FullDate:     when.LocalizedFullDate(midnight, lang),
		LatestEnd:    when.ConfigClockDisplay(a.LatestEnd, travel, tz),
	}, when.CivilDateOf(nowInZone(now, tz))
}

func nowInZone(now time.Time, timezone string) time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return now
	}
	return now.In(loc)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/plan", s.handlePlan)
	s.mux.HandleFunc("/api/duration", s.handleDuration)
	s.mux.HandleFunc("/api/times", s.handleTimes)
	s.mux.HandleFunc("/api/export.ics", s.handleExport)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("activity")
	a, err := s.cfg.Activity(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	today := when.CivilDateOf(nowInZone(s.now(), s.cfg.Timezone))

	s.planMu.RLock()
	cached, ok := s.plans[id]
	s.planMu.RUnlock()

	// Recompute when missing or computed on an earlier civil day.
	if !ok || cached.day != today {
		plan, day := s.computePlan(a)
		cached = cachedPlan{plan: plan, day: day}
		s.planMu.Lock()
		s.plans[id] = cached
		s.planMu.Unlock()
	}

	writeJSON(w, http.StatusOK, cached.plan)
}

func (s *Server) handleDuration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()

	// Either a start/end instant pair or a raw minute count.
	if minutes := q.Get("minutes"); minutes != "" {
		writeJSON(w, http.StatusOK, map[string]string{
			"text": when.FormatMinutesText(minutes, s.tr),
		})
		return
	}

	start, end := q.Get("start"), q.Get("end")
	if start == "" || end == "" {
		http.Error(w, "want start and end instants, or minutes", http.StatusBadRequest)
		return
	}
	text := when.InstantDiffDisplay(start, end, s.tr)
	writeJSON(w, http.StatusOK, map[string]any{
		"text":          text,
		"total_minutes": when.ParseDuration(text, s.tr),
	})
}

func (s *Server) handleTimes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	a, b := q.Get("a"), q.Get("b")
	writeJSON(w, http.StatusOK, map[string]string{
		"later":   when.LaterClock(a, b, s.cfg.Timezone),
		"earlier": when.EarlierClock(a, b, s.cfg.Timezone),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()

	a, err := s.cfg.Activity(q.Get("activity"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	depart, err := time.Parse(time.RFC3339, q.Get("depart"))
	if err != nil {
		http.Error(w, "bad depart instant", http.StatusBadRequest)
		return
	}
	arrive, err := time.Parse(time.RFC3339, q.Get("arrive"))
	if err != nil {
		http.Error(w, "bad arrive instant", http.StatusBadRequest)
		return
	}

	payload, err := ics.Encode(ics.Trip{
		UID:     fmt.Sprintf("%s-%s@tripwhen", a.ID, depart.UTC().Format("20060102T150405Z")),
		Summary: a.Name,
		Depart:  depart,
		Arrive:  arrive,
	}, s.tr)
	if err != nil {
		appLog.Error("ics export failed", err, "activity", a.ID)
		http.Error(w, "export failed", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trip.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("json encode failed", err)
	}
}
