package session

import (
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager(Limits{LogCapacity: 10, ChatCapacity: 5}, 10*time.Millisecond)
}

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	a := m.GetOrCreate("ops-1")
	b := m.GetOrCreate("ops-1")
	if a != b {
		t.Error("same id should return the same session")
	}
	if a.ID != "ops-1" {
		t.Errorf("ID = %q, want %q", a.ID, "ops-1")
	}
}

func TestGetOrCreateEmptyIDGetsFreshSession(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	a := m.GetOrCreate("")
	b := m.GetOrCreate("")
	if a.ID == "" || b.ID == "" {
		t.Fatal("empty id should be replaced with a generated one")
	}
	if a == b || a.ID == b.ID {
		t.Error("each empty-id call should create a distinct session")
	}
}

func TestNewSessionStartsWithInitLog(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	s := m.GetOrCreate("ops-1")
	logs := s.Store.Snapshot().Logs
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	if logs[0].Message != "System initialized. Version 2.0. Ready." {
		t.Errorf("unexpected init log: %q", logs[0].Message)
	}
}

func TestDropRemovesSession(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	a := m.GetOrCreate("ops-1")
	a.Store.Dispatch(SwitchMode{Mode: a.Store.Snapshot().Mode})
	m.Drop("ops-1")

	b := m.GetOrCreate("ops-1")
	if a == b {
		t.Error("dropped id should yield a fresh session")
	}
	// Dropping an unknown id is a no-op.
	m.Drop("never-seen")
}
