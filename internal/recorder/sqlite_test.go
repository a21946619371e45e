package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v6"
)

func openTestDB(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordAndListForecasts(t *testing.T) {
	r := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	runs := []*ForecastRun{
		{At: base, Symbol: "SPY", Horizon: 5, Seed: 7, R2: null.FloatFrom(0.91), MAE: 1.5, LastClose: 470, NextClose: 471, Duration: 12 * time.Millisecond},
		{At: base.Add(time.Hour), Symbol: "AAPL", Horizon: 5, Seed: 7},
		{At: base.Add(2 * time.Hour), Symbol: "SPY", Horizon: 10, Seed: 7},
	}
	for _, run := range runs {
		if err := r.RecordForecast(ctx, run); err != nil {
			t.Fatalf("RecordForecast: %v", err)
		}
		if run.ID == 0 {
			t.Error("ID not set")
		}
	}

	got, err := r.RecentForecasts(ctx, "SPY", 10)
	if err != nil {
		t.Fatalf("RecentForecasts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d runs, want 2", len(got))
	}
	if got[0].Horizon != 10 || got[1].Horizon != 5 {
		t.Errorf("not newest first: %+v", got)
	}
	if got[1].R2 != null.FloatFrom(0.91) || got[1].Duration != 12*time.Millisecond {
		t.Errorf("round trip mismatch: %+v", got[1])
	}
	if got[0].R2.Valid {
		t.Errorf("null R2 came back valid")
	}

	all, err := r.RecentForecasts(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("got %d runs, want 3", len(all))
	}
}

func TestStatsAndPrune(t *testing.T) {
	r := openTestDB(t)
	ctx := context.Background()
	now := time.Now()
	old := now.Add(-48 * time.Hour)

	for _, at := range []time.Time{old, now} {
		if err := r.RecordForecast(ctx, &ForecastRun{At: at, Symbol: "SPY"}); err != nil {
			t.Fatal(err)
		}
		if err := r.RecordFetchFailure(ctx, &FetchFailure{At: at, Provider: "yahoo", Op: "series", Symbol: "SPY", Error: "timeout"}); err != nil {
			t.Fatal(err)
		}
	}

	s, err := r.Stats(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.ForecastRuns != 1 || s.FetchFailures != 1 {
		t.Errorf("stats = %+v, want 1/1", s)
	}

	n, err := r.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 2 {
		t.Errorf("pruned %d rows, want 2", n)
	}
	s, _ = r.Stats(ctx, time.Unix(0, 0))
	if s.ForecastRuns != 1 || s.FetchFailures != 1 {
		t.Errorf("after prune stats = %+v", s)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordForecast(context.Background(), &ForecastRun{}); err != nil {
		t.Error(err)
	}
	if n, _ := r.Prune(context.Background(), time.Now()); n != 0 {
		t.Errorf("noop pruned %d", n)
	}
}
