package session

import (
	"testing"

	"geoint-analysis-service/models"
)

func TestGenerationBumpsOnContextChange(t *testing.T) {
	st := NewStore(testLimits)
	gen := st.Generation()

	st.Dispatch(LoadImage{Slot: SlotAnomaly, Image: models.ImagePayload{Data: []byte("x")}})
	if st.Generation() == gen {
		t.Error("loading an image must bump the generation")
	}

	gen = st.Generation()
	st.Dispatch(SwitchMode{Mode: models.ModeChangeTracker})
	if st.Generation() == gen {
		t.Error("switching mode must bump the generation")
	}

	gen = st.Generation()
	st.Dispatch(SwitchMode{Mode: models.ModeChangeTracker})
	if st.Generation() != gen {
		t.Error("a no-op mode switch must not bump the generation")
	}

	gen = st.Generation()
	st.Dispatch(AnomalySucceeded{Result: &models.AnomalyResponse{Summary: "s"}})
	st.AppendLog("note", models.LogInfo)
	if st.Generation() != gen {
		t.Error("result and log events must not bump the generation")
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	st := NewStore(testLimits)
	st.Dispatch(LoadImage{Slot: SlotAnomaly, Image: models.ImagePayload{Data: []byte("x")}})

	// An analysis starts against this generation...
	gen := st.Generation()

	// ...but the operator switches mode while it is in flight.
	st.Dispatch(SwitchMode{Mode: models.ModeChangeTracker})

	if _, applied := st.DispatchIfCurrent(gen, AnomalySucceeded{Result: &models.AnomalyResponse{Summary: "stale"}}); applied {
		t.Fatal("a stale in-flight response must be discarded")
	}
	if st.Snapshot().AnomalyResult != nil {
		t.Error("stale result leaked into state")
	}

	// A response from the live generation still lands.
	if _, applied := st.DispatchIfCurrent(st.Generation(), ChangeSucceeded{Result: &models.ChangeResponse{Summary: "fresh"}}); !applied {
		t.Error("a current-generation response must be applied")
	}
}

func TestSnapshotWithGenPairsStateAndGeneration(t *testing.T) {
	st := NewStore(testLimits)
	st.Dispatch(LoadImage{Slot: SlotAnomaly, Image: models.ImagePayload{Data: []byte("v1")}})

	snap, gen := st.SnapshotWithGen()
	if gen != st.Generation() {
		t.Fatalf("paired generation = %d, Generation() = %d", gen, st.Generation())
	}
	if string(snap.AnomalyImage.Data) != "v1" {
		t.Fatalf("snapshot image = %q, want v1", snap.AnomalyImage.Data)
	}

	// A result started against the paired generation lands while the
	// context is unchanged...
	if _, applied := st.DispatchIfCurrent(gen, AnomalySucceeded{Result: &models.AnomalyResponse{Summary: "v1"}}); !applied {
		t.Error("a response paired with the live generation must be applied")
	}

	// ...but not after the image is swapped behind the snapshot's back.
	snap, gen = st.SnapshotWithGen()
	st.Dispatch(LoadImage{Slot: SlotAnomaly, Image: models.ImagePayload{Data: []byte("v2")}})
	if _, applied := st.DispatchIfCurrent(gen, AnomalySucceeded{Result: &models.AnomalyResponse{Summary: string(snap.AnomalyImage.Data)}}); applied {
		t.Error("a response analyzed from a replaced image must be discarded")
	}
}

func TestAppendLogFormatsEntry(t *testing.T) {
	st := NewStore(testLimits)
	st.AppendLog("System initialized.", models.LogSuccess)

	logs := st.Snapshot().Logs
	if len(logs) != 1 {
		t.Fatalf("log length = %d, want 1", len(logs))
	}
	entry := logs[0]
	if entry.ID == "" || entry.Timestamp == "" {
		t.Error("log entries carry an id and a formatted timestamp")
	}
	if entry.Message != "System initialized." || entry.Type != models.LogSuccess {
		t.Errorf("entry = %+v", entry)
	}
}
