// Package scheduler runs the periodic maintenance jobs and answers operator
// chat commands.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"StockDash/internal/notifier"
	"StockDash/internal/observability"
	"StockDash/internal/recorder"
	"StockDash/internal/store"
)

// DefaultRetention bounds how long forecast and fetch history is kept.
const DefaultRetention = 90 * 24 * time.Hour

// TokenPurger drops expired password reset tokens.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int, error)
}

// SessionPurger drops expired sign-in sessions.
type SessionPurger interface {
	Purge() int
	Len() int
}

// MoversRefresher reloads the gainers and losers boards.
type MoversRefresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Tokens    TokenPurger
	Sessions  SessionPurger
	Movers    MoversRefresher
	Recorder  recorder.Recorder
	Records   store.RecordStore
	Metrics   *observability.Metrics
	Retention time.Duration
	Ctx       context.Context

	// Viewers reports connected live viewers for /status.
	Viewers   func() int
	Provider  string
	StartedAt time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, tokens TokenPurger, sessions SessionPurger, movers MoversRefresher,
	rec recorder.Recorder, records store.RecordStore, m *observability.Metrics) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Tokens:    tokens,
		Sessions:  sessions,
		Movers:    movers,
		Recorder:  rec,
		Records:   records,
		Metrics:   m,
		Retention: DefaultRetention,
		Ctx:       ctx,
		StartedAt: time.Now(),
	}
}

// RegisterAll registers the cleanup, movers refresh and history prune jobs.
// An empty movers expression skips the refresh job.
func (s *Scheduler) RegisterAll(cleanupCron, moversCron, pruneCron string) error {
	if _, err := s.Cron.AddFunc(cleanupCron, s.cleanupTask); err != nil {
		return fmt.Errorf("register cleanup task: %w", err)
	}
	if moversCron != "" && s.Movers != nil {
		if _, err := s.Cron.AddFunc(moversCron, s.moversTask); err != nil {
			return fmt.Errorf("register movers task: %w", err)
		}
	}
	if _, err := s.Cron.AddFunc(pruneCron, s.pruneTask); err != nil {
		return fmt.Errorf("register prune task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RefreshMoversNow warms the movers cache (used on start).
func (s *Scheduler) RefreshMoversNow() {
	s.moversTask()
}

func (s *Scheduler) cleanupTask() {
	var err error
	defer func() { s.Metrics.RecordJob("cleanup", err) }()

	n, err := s.Tokens.PurgeExpiredTokens(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] purge reset tokens: %v", err)
		return
	}
	sessions := 0
	if s.Sessions != nil {
		sessions = s.Sessions.Purge()
	}
	if n > 0 || sessions > 0 {
		log.Printf("[INFO] cleanup removed %d reset tokens, %d sessions", n, sessions)
	}
}

func (s *Scheduler) moversTask() {
	var err error
	defer func() { s.Metrics.RecordJob("movers", err) }()

	ctx, cancel := context.WithTimeout(s.Ctx, 2*time.Minute)
	defer cancel()
	if err = s.Movers.Refresh(ctx); err != nil {
		log.Printf("[WARN] movers refresh: %v", err)
	}
}

func (s *Scheduler) pruneTask() {
	var err error
	defer func() { s.Metrics.RecordJob("prune", err) }()

	n, err := s.Recorder.Prune(s.Ctx, time.Now().Add(-s.Retention))
	if err != nil {
		log.Printf("[ERROR] prune history: %v", err)
		return
	}
	log.Printf("[INFO] pruned %d history rows", n)
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/reports":
		reports, err := s.Records.ListReports(ctx, 10)
		if err != nil {
			log.Printf("[ERROR] list reports: %v", err)
			return "❌ could not load problem reports"
		}
		return notifier.FormatReportList(reports)
	case "/support":
		reqs, err := s.Records.ListSupport(ctx, 10)
		if err != nil {
			log.Printf("[ERROR] list support requests: %v", err)
			return "❌ could not load support requests"
		}
		return notifier.FormatSupportList(reqs)
	case "/status":
		return notifier.FormatStatus(s.status(ctx))
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) status(ctx context.Context) notifier.Status {
	st := notifier.Status{StartedAt: s.StartedAt, Provider: s.Provider}
	if s.Viewers != nil {
		st.LiveViewers = s.Viewers()
	}
	if s.Sessions != nil {
		st.Sessions = s.Sessions.Len()
	}
	stats, err := s.Recorder.Stats(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		log.Printf("[WARN] history stats: %v", err)
	}
	st.ForecastRuns, st.FetchErrors = stats.ForecastRuns, stats.FetchFailures
	return st
}
