// Package live implements the live refresh loop: an explicit session value
// advanced by a pure Tick function, a poller that drives it on a fixed
// interval, and a websocket hub that pushes the results to browsers.
package live

import (
	"fmt"
	"sort"
	"time"

	"github.com/guregu/null/v6"

	"StockDash/internal/model"
)

// State of a live session.
type State int

const (
	Idle State = iota
	Polling
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "polling":
		*s = Polling
	case "stopped":
		*s = Stopped
	default:
		return fmt.Errorf("unknown live state %q", b)
	}
	return nil
}

// Stop reasons.
const (
	ReasonUser     = "user"
	ReasonStagnant = "stagnant"
)

const (
	DefaultRange         = "1d"
	DefaultInterval      = "5m"
	DefaultStagnantAfter = 5 * time.Minute
)

// Session is the state of one viewer's live chart. It is owned by the
// caller and passed through Tick by value.
type Session struct {
	Symbol        string
	Range         string
	Interval      string
	State         State
	StopReason    string
	LastClose     null.Float
	StagnantSince time.Time
	LastUpdate    time.Time
	Bars          []model.OHLCV
}

// NewSession returns an Idle session for symbol. Empty range and interval
// fall back to one day of five minute bars.
func NewSession(symbol, rng, interval string) Session {
	if rng == "" {
		rng = DefaultRange
	}
	if interval == "" {
		interval = DefaultInterval
	}
	return Session{Symbol: symbol, Range: rng, Interval: interval, State: Idle}
}

// TickConfig holds the stagnation threshold.
type TickConfig struct {
	StagnantAfter time.Duration
}

// EventKind classifies the outcome of a tick.
type EventKind string

const (
	EventUpdate      EventKind = "update"
	EventUnchanged   EventKind = "unchanged"
	EventUnavailable EventKind = "unavailable"
	EventStopped     EventKind = "stopped"
	EventIgnored     EventKind = "ignored"
)

// Event is what a tick reports to the viewer.
type Event struct {
	Kind   EventKind     `json:"kind"`
	Symbol string        `json:"symbol"`
	State  State         `json:"state"`
	Close  null.Float    `json:"close"`
	Time   time.Time     `json:"time"`
	Bars   []model.OHLCV `json:"bars,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// Start moves an Idle or Stopped session to Polling and clears the stagnation timer.
func Start(s Session) Session {
	s.State = Polling
	s.StopReason = ""
	s.StagnantSince = time.Time{}
	return s
}

// Stop ends the session at the user's request.
func Stop(s Session) Session {
	s.State = Stopped
	s.StopReason = ReasonUser
	return s
}

// Tick applies one fetch result to the session.
//
// An unchanged latest close starts the stagnation timer on its first repeat;
// once the timer has run for StagnantAfter the session stops. Unavailable or
// empty fetches leave the last-known bars in place.
func Tick(s Session, fetched model.Series, now time.Time, cfg TickConfig) (Session, Event) {
	if cfg.StagnantAfter <= 0 {
		cfg.StagnantAfter = DefaultStagnantAfter
	}
	ev := Event{Symbol: s.Symbol, Time: now, Close: s.LastClose}
	if s.State != Polling {
		ev.Kind = EventIgnored
		ev.State = s.State
		return s, ev
	}

	last, ok := fetched.Last()
	if fetched.Unavailable || !ok {
		ev.Kind = EventUnavailable
		ev.Reason = fetched.Reason
		ev.State = s.State
		return s, ev
	}

	if s.LastClose.Valid && s.LastClose.Float64 == last.Close {
		if s.StagnantSince.IsZero() {
			s.StagnantSince = now
		} else if now.Sub(s.StagnantSince) >= cfg.StagnantAfter {
			s.State = Stopped
			s.StopReason = ReasonStagnant
			ev.Kind = EventStopped
			ev.Reason = ReasonStagnant
			ev.State = s.State
			return s, ev
		}
		ev.Kind = EventUnchanged
	} else {
		s.StagnantSince = time.Time{}
		ev.Kind = EventUpdate
	}

	s.LastClose = null.FloatFrom(last.Close)
	s.Bars = mergeBars(s.Bars, fetched.Bars)
	s.LastUpdate = now
	ev.Close = s.LastClose
	ev.Bars = s.Bars
	ev.State = s.State
	return s, ev
}

// mergeBars combines history with a fresh fetch, newest bar winning on equal timestamps.
func mergeBars(history, fresh []model.OHLCV) []model.OHLCV {
	byTime := make(map[int64]model.OHLCV, len(history)+len(fresh))
	for _, b := range history {
		byTime[b.Time.UnixNano()] = b
	}
	for _, b := range fresh {
		byTime[b.Time.UnixNano()] = b
	}
	out := make([]model.OHLCV, 0, len(byTime))
	for _, b := range byTime {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
