package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"geoint-analysis-service/models"
)

// Store serializes access to one session's state and tracks a request
// generation. The generation bumps whenever the transient analysis context
// changes (mode switch, image load/clear); an in-flight AI response that
// was started against an older generation is detected and discarded instead
// of silently overwriting newer state.
type Store struct {
	mu     sync.Mutex
	state  State
	gen    uint64
	limits Limits
}

// NewStore returns a store at the boot state.
func NewStore(limits Limits) *Store {
	return &Store{state: NewState(), limits: limits}
}

// Snapshot returns a copy of the current state.
func (st *Store) Snapshot() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Generation returns the current request generation. Callers capture it
// before starting an external call and pass it back to DispatchIfCurrent.
func (st *Store) Generation() uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.gen
}

// SnapshotWithGen returns the state together with the generation it was
// observed under, in a single lock acquisition. Callers that analyze the
// snapshot pass the paired generation back to DispatchIfCurrent so an
// image swap between the two reads cannot slip through.
func (st *Store) SnapshotWithGen() (State, uint64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state, st.gen
}

// Dispatch applies an event unconditionally.
func (st *Store) Dispatch(ev Event) State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.apply(ev)
}

// DispatchIfCurrent applies an event only if gen is still the active
// generation. It reports whether the event was applied.
func (st *Store) DispatchIfCurrent(gen uint64, ev Event) (State, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if gen != st.gen {
		return st.state, false
	}
	return st.apply(ev), true
}

func (st *Store) apply(ev Event) State {
	before := st.state
	st.state = Reduce(st.state, ev, st.limits)
	switch ev.(type) {
	case SwitchMode:
		if st.state.Mode != before.Mode {
			st.gen++
		}
	case LoadImage, ClearImage:
		st.gen++
	}
	return st.state
}

// AppendLog adds one operator-visible activity entry with a locale-style
// wall-clock timestamp.
func (st *Store) AppendLog(message, kind string) {
	entry := models.SystemLog{
		ID:        uuid.New().String(),
		Timestamp: time.Now().Format("15:04:05"),
		Message:   message,
		Type:      kind,
	}
	st.Dispatch(LogAppended{Entry: entry})
}
