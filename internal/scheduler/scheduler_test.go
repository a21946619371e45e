package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"StockDash/internal/model"
	"StockDash/internal/recorder"
	"StockDash/internal/store/jsonfile"
)

type fakeTokens struct {
	n     int
	err   error
	calls int
}

func (f *fakeTokens) PurgeExpiredTokens(context.Context) (int, error) {
	f.calls++
	return f.n, f.err
}

type fakeSessions struct{ purged, live int }

func (f *fakeSessions) Purge() int {
	f.purged++
	return 1
}

func (f *fakeSessions) Len() int { return f.live }

type fakeMovers struct{ calls int }

func (f *fakeMovers) Refresh(context.Context) error {
	f.calls++
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *jsonfile.Store, *fakeTokens, *fakeSessions) {
	t.Helper()
	st, err := jsonfile.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tokens := &fakeTokens{n: 2}
	sessions := &fakeSessions{live: 3}
	s := NewScheduler(context.Background(), tokens, sessions, &fakeMovers{}, recorder.NewNoopRecorder(), st, nil)
	return s, st, tokens, sessions
}

func TestRegisterAll(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	if err := s.RegisterAll("0 0 * * * *", "0 */5 * * * *", "0 30 3 * * *"); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 3 {
		t.Errorf("entries = %d, want 3", n)
	}
	if err := s.RegisterAll("not a cron", "", "0 0 * * * *"); err == nil {
		t.Error("expected error for bad cron expression")
	}
}

func TestCleanupTask(t *testing.T) {
	s, _, tokens, sessions := newTestScheduler(t)
	s.cleanupTask()
	if tokens.calls != 1 || sessions.purged != 1 {
		t.Errorf("tokens %d, sessions %d", tokens.calls, sessions.purged)
	}

	tokens.err = errors.New("disk full")
	s.cleanupTask()
	if sessions.purged != 1 {
		t.Error("sessions purged after token purge failed")
	}
}

func TestMoversTask(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	s.RefreshMoversNow()
	if m := s.Movers.(*fakeMovers); m.calls != 1 {
		t.Errorf("refresh calls = %d", m.calls)
	}
}

func TestHandleCommand(t *testing.T) {
	s, st, _, _ := newTestScheduler(t)
	ctx := context.Background()
	s.Viewers = func() int { return 4 }
	s.Provider = "mock"

	if got := s.HandleCommand(ctx, "/reports"); got != "No problem reports yet." {
		t.Errorf("/reports empty = %q", got)
	}
	if err := st.AppendReport(ctx, &model.ProblemReport{ID: "1", Category: "Other", Description: "chart blank", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if got := s.HandleCommand(ctx, "/reports"); !strings.Contains(got, "chart blank") {
		t.Errorf("/reports = %q", got)
	}
	if err := st.AppendSupport(ctx, &model.SupportRequest{ID: "2", Email: "a@example.com", Subject: "login", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if got := s.HandleCommand(ctx, "/support"); !strings.Contains(got, "a@example.com") {
		t.Errorf("/support = %q", got)
	}

	status := s.HandleCommand(ctx, "/status")
	for _, want := range []string{"Live viewers: 4", "Signed-in sessions: 3", "Data source: mock"} {
		if !strings.Contains(status, want) {
			t.Errorf("/status missing %q:\n%s", want, status)
		}
	}
	if got := s.HandleCommand(ctx, "hello"); !strings.Contains(got, "/status") {
		t.Errorf("help = %q", got)
	}
}
