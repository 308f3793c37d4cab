package session

import (
	"time"

	"github.com/tartampluch/go-saturdays/internal/engine"
)

// State is the complete view state of one scheduler session.
// Transitions are pure: each returns a new State and never aliases the receiver's Records.
type State struct {
	Records []engine.MonthSaturdayRecord

	Loading bool
	Saving  bool

	// Error and Notice are transient user-facing messages; at most one is set.
	Error  string
	Notice string
}

// Busy reports whether a network operation is in flight.
func (s State) Busy() bool {
	return s.Loading || s.Saving
}

// LoadStarted marks a fetch as in flight.
func (s State) LoadStarted() State {
	next := s.clone()
	next.Loading = true
	next.Error = ""
	return next
}

// LoadSucceeded replaces the collection wholesale with the backend's answer.
func (s State) LoadSucceeded(records []engine.MonthSaturdayRecord) State {
	next := s.clone()
	next.Records = engine.CloneRecords(records)
	if next.Records == nil {
		next.Records = []engine.MonthSaturdayRecord{}
	}
	next.Loading = false
	next.Error = ""
	return next
}

// LoadFailed keeps the previous collection and records the error message.
func (s State) LoadFailed(msg string) State {
	next := s.clone()
	next.Loading = false
	next.Error = msg
	next.Notice = ""
	return next
}

// Toggled applies the alternating rule to one month, creating its record when absent.
// It returns the new state and the month's resulting working set.
func (s State) Toggled(month time.Month, year, ordinal int, checked bool) (State, []int) {
	next := s.clone()

	current := []int(nil)
	if i := engine.FindRecord(next.Records, int(month), year); i >= 0 {
		current = next.Records[i].WorkingSaturdays
	}
	working := engine.ApplyToggle(current, ordinal, checked, engine.SaturdayCount(month, year))

	next.Records = engine.UpsertRecord(next.Records, int(month), year, working)
	next.Notice = ""
	return next, working
}

// SaveStarted marks a submit as in flight.
func (s State) SaveStarted() State {
	next := s.clone()
	next.Saving = true
	next.Error = ""
	next.Notice = ""
	return next
}

// SaveSucceeded clears the busy flag and shows the confirmation message.
func (s State) SaveSucceeded(msg string) State {
	next := s.clone()
	next.Saving = false
	next.Error = ""
	next.Notice = msg
	return next
}

// SaveFailed keeps the user's edits so the save can be retried.
func (s State) SaveFailed(msg string) State {
	next := s.clone()
	next.Saving = false
	next.Error = msg
	next.Notice = ""
	return next
}

func (s State) clone() State {
	next := s
	next.Records = engine.CloneRecords(s.Records)
	return next
}
