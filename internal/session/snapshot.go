package session

import (
	"fmt"
	"time"

	"github.com/verte-zerg/keyrush/internal/model"
)

// State is the lifecycle stage of a typing session.
type State int

const (
	NotStarted State = iota
	Active
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Active:
		return "active"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalText renders the state for JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{NotStarted, Active, Finished} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

// Snapshot is an immutable copy of the session with live metrics computed at read time.
type Snapshot struct {
	Version   uint64
	State     State
	Mode      model.Mode
	Target    string
	Input     string
	Mistakes  int
	StartedAt time.Time
	EndedAt   time.Time
	// Remaining is the countdown in seconds for time modes, 0 otherwise.
	Remaining int
	Author    string

	QuoteLoading bool
	QuoteErr     error

	WPM            int
	Accuracy       int
	ElapsedSeconds float64

	// Result is the recorded attempt once Finished, nil when the attempt was discarded.
	Result *model.Result
}

// EventKind classifies engine notifications.
type EventKind int

const (
	// EventChanged reports any state change, including countdown ticks.
	EventChanged EventKind = iota
	// EventFinished is sent once per finished session.
	EventFinished
	// EventQuote reports a quote load or failure.
	EventQuote
)

// Event is delivered to the engine's notifier after the transition completed.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
}
