package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/engine"
)

// ErrBusy is returned when the same operation is already in flight.
var ErrBusy = errors.New(config.MsgBusy)

// Repository is the remote collection store. engine.Client implements it.
type Repository interface {
	Load(ctx context.Context) ([]engine.MonthSaturdayRecord, error)
	Replace(ctx context.Context, records []engine.MonthSaturdayRecord) error
}

// SaturdayView is one checkbox of the scheduler.
type SaturdayView struct {
	Ordinal int
	Date    time.Time
	Working bool
}

// MonthView is one row of the rolling window.
type MonthView struct {
	engine.MonthYear
	Saturdays []SaturdayView
}

// Session owns the in-memory collection of one user session and drives the
// load/toggle/save cycle against a Repository.
type Session struct {
	repo  Repository
	clock engine.Clock

	mu        sync.Mutex
	state     State
	listeners []func(State)

	// loadSeq numbers issued loads; only the latest one may update the state.
	// A save also bumps it so that loads issued before the save are discarded.
	loadSeq      uint64
	loadsPending int
}

// New creates an empty session. Call Refresh to populate it.
func New(repo Repository, clock engine.Clock) *Session {
	if clock == nil {
		clock = engine.RealClock{}
	}
	return &Session{
		repo:  repo,
		clock: clock,
		state: State{Records: []engine.MonthSaturdayRecord{}},
	}
}

// OnChange registers fn to be called with a snapshot after every transition.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Refresh fetches the collection and replaces the in-memory one on success.
// On failure the previous collection is kept and the state carries the error.
// It returns ErrBusy while another load is in flight.
func (s *Session) Refresh(ctx context.Context) error {
	return s.load(ctx, false)
}

// load performs one fetch. A forced load starts even when another is in flight
// and supersedes it.
func (s *Session) load(ctx context.Context, force bool) error {
	log := slog.With(config.LogKeyComponent, config.CompSession)

	var seq uint64
	if !s.transition(func(st State) (State, bool) {
		if st.Loading && !force {
			return st, false
		}
		s.loadSeq++
		seq = s.loadSeq
		s.loadsPending++
		return st.LoadStarted(), true
	}) {
		log.Debug(config.MsgBusy)
		return ErrBusy
	}

	log.Info(config.MsgLoadStarted)
	records, err := s.repo.Load(ctx)
	if err != nil {
		log.Warn(config.MsgLoadFailed, config.LogKeyError, err)
		msg := failureMessage(err, config.MsgLoadFailedGeneric)
		s.finishLoad(seq, func(st State) State { return st.LoadFailed(msg) })
		return err
	}

	if s.finishLoad(seq, func(st State) State { return st.LoadSucceeded(records) }) {
		log.Info(config.MsgLoadDone, config.LogKeyCount, len(records))
	} else {
		log.Debug(config.MsgLoadStale, config.LogKeyCount, len(records))
	}
	return nil
}

// finishLoad applies the outcome of load seq unless a newer load or a save superseded it.
// Loading stays set while any load is still pending.
func (s *Session) finishLoad(seq uint64, apply func(State) State) bool {
	applied := false
	s.transition(func(st State) (State, bool) {
		s.loadsPending--
		busy := s.loadsPending > 0

		if seq != s.loadSeq {
			if st.Loading == busy {
				return st, false
			}
			next := st.clone()
			next.Loading = busy
			return next, true
		}

		next := apply(st)
		next.Loading = busy
		applied = true
		return next, true
	})
	return applied
}

// Toggle applies the alternating rule to the month and returns its new working set.
func (s *Session) Toggle(month time.Month, year, ordinal int, checked bool) []int {
	var working []int
	s.transition(func(st State) (State, bool) {
		var next State
		next, working = st.Toggled(month, year, ordinal, checked)
		return next, true
	})

	slog.Debug(config.MsgToggle,
		config.LogKeyComponent, config.CompSession,
		config.LogKeyMonth, int(month),
		config.LogKeyYear, year,
		config.LogKeyOrdinal, ordinal,
		config.LogKeyChecked, checked,
		config.LogKeyWorking, working)
	return working
}

// Save sends the whole collection, then reconciles with exactly one Load so that
// server-assigned identifiers and timestamps are picked up.
// A failed save keeps the edited collection for a retry.
func (s *Session) Save(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompSession)

	var records []engine.MonthSaturdayRecord
	if !s.transition(func(st State) (State, bool) {
		if st.Saving {
			return st, false
		}
		records = engine.CloneRecords(st.Records)
		s.loadSeq++
		return st.SaveStarted(), true
	}) {
		log.Debug(config.MsgBusy)
		return ErrBusy
	}

	log.Info(config.MsgSaveStarted, config.LogKeyCount, len(records))
	if err := s.repo.Replace(ctx, records); err != nil {
		log.Warn(config.MsgSaveFailed, config.LogKeyError, err)
		msg := failureMessage(err, config.MsgSaveFailedGeneric)
		s.transition(func(st State) (State, bool) { return st.SaveFailed(msg), true })
		return err
	}

	log.Info(config.MsgSaveDone)
	s.transition(func(st State) (State, bool) { return st.SaveSucceeded(config.MsgSaved), true })

	return s.Reconcile(ctx)
}

// Reconcile reloads the collection after a successful save. Unlike Refresh it
// never reports ErrBusy: a load already in flight predates the save and is discarded.
func (s *Session) Reconcile(ctx context.Context) error {
	slog.Debug(config.MsgReconcile, config.LogKeyComponent, config.CompSession)
	return s.load(ctx, true)
}

// Window returns the rolling 12-month view starting at the clock's current month.
func (s *Session) Window() []MonthView {
	st := s.Snapshot()

	months := engine.WindowFrom(s.clock)
	views := make([]MonthView, 0, len(months))
	for _, my := range months {
		var record engine.MonthSaturdayRecord
		if i := engine.FindRecord(st.Records, int(my.Month), my.Year); i >= 0 {
			record = st.Records[i]
		}

		saturdays := engine.SaturdaysInMonth(my.Month, my.Year)
		view := MonthView{MonthYear: my, Saturdays: make([]SaturdayView, len(saturdays))}
		for i, d := range saturdays {
			view.Saturdays[i] = SaturdayView{
				Ordinal: i + 1,
				Date:    d,
				Working: engine.IsWorking(record, i+1),
			}
		}
		views = append(views, view)
	}
	return views
}

// transition applies fn under the lock and notifies listeners when it reports a change.
func (s *Session) transition(fn func(State) (State, bool)) bool {
	s.mu.Lock()
	next, changed := fn(s.state)
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.state = next
	snapshot := next.clone()
	listeners := append([]func(State){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return true
}

// failureMessage prefers the backend's own message over the generic one.
func failureMessage(err error, generic string) string {
	var apiErr *engine.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return generic
}
