// Package orchestrator issues the external AI calls and folds their
// outcomes into session state. Every operation is a single best-effort
// attempt: no retry, no backoff. Alerting the user is the caller's job.
package orchestrator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"geoint-analysis-service/llm"
	"geoint-analysis-service/metrics"
	"geoint-analysis-service/models"
	"geoint-analysis-service/parser"
	"geoint-analysis-service/session"
)

// Fixed reply strings, part of the external contract.
const (
	VerifyMissingCoordinates = "Verification failed: Coordinates required for Google Maps grounding."
	VerifyUnavailable        = "Verification unavailable."
	VerifyNoData             = "No verification data found."
	FallbackNoAnswer         = "I could not generate an answer."
	FallbackNoAnalysis       = "Please run an analysis first."
	ChatTransportFailure     = "Error connecting to mainframe."
)

var (
	// ErrNoImage means the active mode's image slots are not all filled.
	ErrNoImage = errors.New("no image loaded for analysis")
	// ErrStale means the response arrived after the session context moved
	// on (mode switch or new image); the result was discarded.
	ErrStale = errors.New("analysis context changed while request was in flight")
)

// Orchestrator mediates between session stores and the model provider.
type Orchestrator struct {
	client llm.Client
}

func New(client llm.Client) *Orchestrator {
	return &Orchestrator{client: client}
}

// SourceName exposes the provider label for status surfaces.
func (o *Orchestrator) SourceName() string {
	return o.client.SourceName()
}

// RunAnomalyAnalysis analyzes the anomaly-slot image and stores the
// structured result. A response that lands after the session context has
// changed is discarded.
func (o *Orchestrator) RunAnomalyAnalysis(st *session.Store) (*models.AnomalyResponse, error) {
	snap, gen := st.SnapshotWithGen()
	if snap.AnomalyImage.IsZero() {
		return nil, ErrNoImage
	}

	st.Dispatch(session.SetLoading{Active: true, Message: "GEMINI VISION: SCANNING TOPOLOGY FOR ANOMALIES..."})
	defer st.Dispatch(session.SetLoading{})
	st.AppendLog("Sending image data to AI core...", models.LogInfo)

	start := time.Now()
	metrics.AnalysisInFlight.Inc()
	text, err := o.client.AnalyzeAnomaly(snap.AnomalyImage, FormatMetadata(snap.Metadata))
	metrics.AnalysisInFlight.Dec()

	result, err := finishAnalysis("anomaly", start, text, err, parser.ParseAnomalyResponse)
	if err != nil {
		st.AppendLog("Processing aborted by user or timeout.", models.LogError)
		st.Dispatch(session.AnalysisFailed{Kind: "anomaly"})
		return nil, err
	}

	if _, applied := st.DispatchIfCurrent(gen, session.AnomalySucceeded{Result: result}); !applied {
		st.AppendLog("Discarded stale analysis response.", models.LogWarning)
		return nil, ErrStale
	}
	st.AppendLog(fmt.Sprintf("Scan complete. Detected %d anomalous signatures.", len(result.Anomalies)), models.LogSuccess)
	return result, nil
}

// RunChangeAnalysis compares the before/after pair and stores the result.
func (o *Orchestrator) RunChangeAnalysis(st *session.Store) (*models.ChangeResponse, error) {
	snap, gen := st.SnapshotWithGen()
	if snap.ImageBefore.IsZero() || snap.ImageAfter.IsZero() {
		return nil, ErrNoImage
	}

	st.Dispatch(session.SetLoading{Active: true, Message: "GEMINI VISION: CALCULATING TEMPORAL DELTAS..."})
	defer st.Dispatch(session.SetLoading{})
	st.AppendLog("Processing temporal differential vectors...", models.LogInfo)

	start := time.Now()
	metrics.AnalysisInFlight.Inc()
	text, err := o.client.AnalyzeChange(snap.ImageBefore, snap.ImageAfter, FormatMetadata(snap.Metadata))
	metrics.AnalysisInFlight.Dec()

	result, err := finishAnalysis("change", start, text, err, parser.ParseChangeResponse)
	if err != nil {
		st.AppendLog("Processing aborted.", models.LogError)
		st.Dispatch(session.AnalysisFailed{Kind: "change"})
		return nil, err
	}

	if _, applied := st.DispatchIfCurrent(gen, session.ChangeSucceeded{Result: result}); !applied {
		st.AppendLog("Discarded stale analysis response.", models.LogWarning)
		return nil, ErrStale
	}
	st.AppendLog(fmt.Sprintf("Comparison complete. %d change vectors identified.", len(result.Changes)), models.LogSuccess)
	return result, nil
}

// AskFollowUp appends the user's question and the model's single-turn
// answer to the chat. Without a current result no AI call is made and a
// fixed refusal is recorded instead.
func (o *Orchestrator) AskFollowUp(st *session.Store, question string) (string, error) {
	st.Dispatch(session.ChatAppended{Message: chatMessage("user", question)})
	st.AppendLog("Transmitting user query...", models.LogInfo)

	snap := st.Snapshot()
	var answer string
	var err error
	switch {
	case snap.Mode == models.ModeAnomalyHunter && !snap.AnomalyImage.IsZero() && snap.AnomalyResult != nil:
		answer, err = o.client.AskAboutImage(snap.AnomalyImage, question, snap.AnomalyResult.Summary)
	case snap.Mode == models.ModeChangeTracker && !snap.ImageBefore.IsZero() && !snap.ImageAfter.IsZero() && snap.ChangeResult != nil:
		answer, err = o.client.AskAboutChange(snap.ImageBefore, snap.ImageAfter, question, snap.ChangeResult.Summary)
	default:
		answer = FallbackNoAnalysis
	}

	if err != nil {
		log.WithError(err).Warn("follow-up question failed")
		st.Dispatch(session.ChatAppended{Message: chatMessage("model", ChatTransportFailure)})
		st.AppendLog("Communication failure.", models.LogError)
		return "", err
	}
	if answer == "" {
		answer = FallbackNoAnswer
	}

	st.Dispatch(session.ChatAppended{Message: chatMessage("model", answer)})
	st.AppendLog("AI Response received.", models.LogSuccess)
	return answer, nil
}

// VerifyLocation asks the map-grounded model to confirm visible landmarks
// at the metadata coordinates and merges the verdict into the existing
// anomaly result. Failures come back as stated strings, not errors.
func (o *Orchestrator) VerifyLocation(st *session.Store) (string, error) {
	snap, gen := st.SnapshotWithGen()
	if snap.AnomalyImage.IsZero() {
		return "", ErrNoImage
	}
	lat, latErr := strconv.ParseFloat(snap.Metadata.Latitude, 64)
	lng, lngErr := strconv.ParseFloat(snap.Metadata.Longitude, 64)
	if !snap.Metadata.HasCoordinates() || latErr != nil || lngErr != nil {
		st.AppendLog("Verification requires Image and Coordinates.", models.LogWarning)
		return VerifyMissingCoordinates, nil
	}

	st.Dispatch(session.SetVerifying{Active: true})
	defer st.Dispatch(session.SetVerifying{})
	st.AppendLog("Contacting Google Maps Grounding API...", models.LogInfo)

	answer, citations, err := o.client.VerifyLocation(snap.AnomalyImage, lat, lng)
	if err != nil {
		log.WithError(err).Warn("location grounding failed")
		st.AppendLog("Verification failed.", models.LogError)
		return VerifyUnavailable, nil
	}
	if answer == "" {
		answer = VerifyNoData
	}
	if len(citations) > 0 {
		answer += "\n\nMap References Found: " + strings.Join(citations, ", ")
	}

	if _, applied := st.DispatchIfCurrent(gen, session.VerificationMerged{Text: answer}); !applied {
		st.AppendLog("Discarded stale verification response.", models.LogWarning)
		return "", ErrStale
	}
	st.AppendLog("Grounding Verification Complete.", models.LogSuccess)
	return answer, nil
}

// SynthesizeBriefing renders text to raw audio bytes.
func (o *Orchestrator) SynthesizeBriefing(text string) ([]byte, error) {
	pcm, err := o.client.SynthesizeBriefing(text)
	if err != nil {
		metrics.AudioSynthesisTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.AudioSynthesisTotal.WithLabelValues("ok").Inc()
	return pcm, nil
}

// finishAnalysis folds transport and parse outcomes into one result and
// records metrics per kind.
func finishAnalysis[T any](kind string, start time.Time, text string, callErr error, parse func(string) (*T, error)) (*T, error) {
	if callErr != nil {
		metrics.ObserveAnalysis(kind, "error", time.Since(start))
		return nil, callErr
	}
	result, err := parse(text)
	if err != nil {
		metrics.ObserveAnalysis(kind, "parse_error", time.Since(start))
		return nil, err
	}
	metrics.ObserveAnalysis(kind, "ok", time.Since(start))
	return result, nil
}

func chatMessage(role, text string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// FormatMetadata renders the metadata block injected ahead of every
// analysis prompt. Absent fields get the fixed placeholders the model was
// tuned against.
func FormatMetadata(meta models.AnalysisMetadata) string {
	region := meta.RegionName
	if region == "" {
		region = "Unknown Region"
	}
	lat := meta.Latitude
	if lat == "" {
		lat = "N/A"
	}
	lng := meta.Longitude
	if lng == "" {
		lng = "N/A"
	}
	date := meta.Date
	if date == "" {
		date = "Unknown"
	}
	sensor := meta.SensorType
	if sensor == "" {
		sensor = "Standard Optical"
	}
	return fmt.Sprintf(`METADATA CONTEXT:
- Location: %s (%s, %s)
- Date: %s
- Sensor Type: %s

Use this metadata to ground your analysis (e.g., if Sensor is 'Infrared', interpret red as vegetation/heat).`,
		region, lat, lng, date, sensor)
}
