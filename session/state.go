// Package session is the single source of truth for one operator session:
// mode, images, results, chat, activity log, and in-flight flags. State is
// an immutable value transitioned by a pure reducer over a closed event set,
// so every transition is unit-testable without a rendering layer.
package session

import (
	"geoint-analysis-service/models"
)

// Slot names an image position. The anomaly slot belongs to ANOMALY_HUNTER;
// before/after belong to CHANGE_TRACKER.
type Slot string

const (
	SlotAnomaly Slot = "anomaly"
	SlotBefore  Slot = "before"
	SlotAfter   Slot = "after"
)

// State is a point-in-time value of the whole session. Slices are treated
// as immutable: reducers copy-on-write, never mutate in place.
type State struct {
	Mode     models.Mode             `json:"mode"`
	Metadata models.AnalysisMetadata `json:"metadata"`

	AnomalyImage  models.ImagePayload     `json:"-"`
	AnomalyResult *models.AnomalyResponse `json:"anomalyResult,omitempty"`

	ImageBefore  models.ImagePayload    `json:"-"`
	ImageAfter   models.ImagePayload    `json:"-"`
	ChangeResult *models.ChangeResponse `json:"changeResult,omitempty"`

	Chat []models.ChatMessage `json:"chat"`
	Logs []models.SystemLog   `json:"logs"`

	Loading        bool   `json:"loading"`
	LoadingMessage string `json:"loadingMessage,omitempty"`
	AudioPlaying   bool   `json:"audioPlaying"`
	Verifying      bool   `json:"verifying"`
}

// Limits bound the append-only sequences. The original browser app left
// these unbounded and relied on short tab lifetimes; a long-lived process
// evicts from the front instead.
type Limits struct {
	LogCapacity  int
	ChatCapacity int
}

// Event is one element of the transition tagged union.
type Event interface{ isEvent() }

type SwitchMode struct{ Mode models.Mode }

type EditMetadata struct{ Metadata models.AnalysisMetadata }

type LoadImage struct {
	Slot  Slot
	Image models.ImagePayload
}

type ClearImage struct{ Slot Slot }

type AnomalySucceeded struct{ Result *models.AnomalyResponse }

type ChangeSucceeded struct{ Result *models.ChangeResponse }

// AnalysisFailed records a failed attempt. No partial result is ever
// stored; the event exists so failures flow through the same pipeline.
type AnalysisFailed struct{ Kind string }

// VerificationMerged adds the grounding verdict to an existing anomaly
// result without re-running the primary analysis. This is the one place a
// result is mutated after creation.
type VerificationMerged struct{ Text string }

type ChatAppended struct{ Message models.ChatMessage }

type ChatCleared struct{}

type LogAppended struct{ Entry models.SystemLog }

type SetLoading struct {
	Active  bool
	Message string
}

type SetAudioPlaying struct{ Playing bool }

type SetVerifying struct{ Active bool }

func (SwitchMode) isEvent()         {}
func (EditMetadata) isEvent()       {}
func (LoadImage) isEvent()          {}
func (ClearImage) isEvent()         {}
func (AnomalySucceeded) isEvent()   {}
func (ChangeSucceeded) isEvent()    {}
func (AnalysisFailed) isEvent()     {}
func (VerificationMerged) isEvent() {}
func (ChatAppended) isEvent()       {}
func (ChatCleared) isEvent()        {}
func (LogAppended) isEvent()        {}
func (SetLoading) isEvent()         {}
func (SetAudioPlaying) isEvent()    {}
func (SetVerifying) isEvent()       {}

// NewState returns the boot state: anomaly-hunter mode, everything empty.
func NewState() State {
	return State{Mode: models.ModeAnomalyHunter}
}

// Reduce applies one event to a state value and returns the successor.
// Unknown modes and slots are ignored rather than panicking: events arrive
// from the HTTP surface and validation happens there.
func Reduce(s State, ev Event, lim Limits) State {
	switch e := ev.(type) {
	case SwitchMode:
		if e.Mode == s.Mode || !e.Mode.Valid() {
			return s
		}
		s.Mode = e.Mode
		s.AnomalyResult = nil
		s.ChangeResult = nil
		s.Chat = nil
		s.AudioPlaying = false
		return s

	case EditMetadata:
		s.Metadata = e.Metadata
		return s

	case LoadImage:
		switch e.Slot {
		case SlotAnomaly:
			s.AnomalyImage = e.Image
			s.AnomalyResult = nil
		case SlotBefore:
			s.ImageBefore = e.Image
			s.ChangeResult = nil
		case SlotAfter:
			s.ImageAfter = e.Image
			s.ChangeResult = nil
		default:
			return s
		}
		s.Chat = nil
		return s

	case ClearImage:
		switch e.Slot {
		case SlotAnomaly:
			s.AnomalyImage = models.ImagePayload{}
			s.AnomalyResult = nil
		case SlotBefore:
			s.ImageBefore = models.ImagePayload{}
			s.ChangeResult = nil
		case SlotAfter:
			s.ImageAfter = models.ImagePayload{}
			s.ChangeResult = nil
		}
		return s

	case AnomalySucceeded:
		s.AnomalyResult = e.Result
		return s

	case ChangeSucceeded:
		s.ChangeResult = e.Result
		return s

	case AnalysisFailed:
		return s

	case VerificationMerged:
		if s.AnomalyResult == nil {
			return s
		}
		merged := *s.AnomalyResult
		merged.Verification = e.Text
		s.AnomalyResult = &merged
		return s

	case ChatAppended:
		s.Chat = appendBounded(s.Chat, e.Message, lim.ChatCapacity)
		return s

	case ChatCleared:
		s.Chat = nil
		return s

	case LogAppended:
		s.Logs = appendBounded(s.Logs, e.Entry, lim.LogCapacity)
		return s

	case SetLoading:
		s.Loading = e.Active
		s.LoadingMessage = e.Message
		if !e.Active {
			s.LoadingMessage = ""
		}
		return s

	case SetAudioPlaying:
		s.AudioPlaying = e.Playing
		return s

	case SetVerifying:
		s.Verifying = e.Active
		return s
	}
	return s
}

// appendBounded appends copy-on-write and evicts from the front once the
// capacity is exceeded. Capacity <= 0 means unbounded.
func appendBounded[T any](seq []T, item T, capacity int) []T {
	out := make([]T, len(seq), len(seq)+1)
	copy(out, seq)
	out = append(out, item)
	if capacity > 0 && len(out) > capacity {
		out = out[len(out)-capacity:]
	}
	return out
}

// CurrentResult returns the result object selected by the active mode, or
// nil when none is current.
func (s State) CurrentResult() any {
	switch s.Mode {
	case models.ModeAnomalyHunter:
		if s.AnomalyResult != nil {
			return s.AnomalyResult
		}
	case models.ModeChangeTracker:
		if s.ChangeResult != nil {
			return s.ChangeResult
		}
	}
	return nil
}

// HasImagesForAnalysis reports whether the active mode's image slots are
// all filled.
func (s State) HasImagesForAnalysis() bool {
	switch s.Mode {
	case models.ModeAnomalyHunter:
		return !s.AnomalyImage.IsZero()
	case models.ModeChangeTracker:
		return !s.ImageBefore.IsZero() && !s.ImageAfter.IsZero()
	}
	return false
}
