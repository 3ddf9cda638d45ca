package orchestrator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoint-analysis-service/models"
	"geoint-analysis-service/session"
	"geoint-analysis-service/stubllm"
)

var testLimits = session.Limits{LogCapacity: 50, ChatCapacity: 20}

// failingClient errors on every call, for exercising failure paths.
type failingClient struct{}

func (failingClient) SourceName() string { return "failing" }
func (failingClient) AnalyzeAnomaly(models.ImagePayload, string) (string, error) {
	return "", errors.New("upstream unavailable")
}
func (failingClient) AnalyzeChange(_, _ models.ImagePayload, _ string) (string, error) {
	return "", errors.New("upstream unavailable")
}
func (failingClient) AskAboutImage(models.ImagePayload, string, string) (string, error) {
	return "", errors.New("upstream unavailable")
}
func (failingClient) AskAboutChange(_, _ models.ImagePayload, _, _ string) (string, error) {
	return "", errors.New("upstream unavailable")
}
func (failingClient) VerifyLocation(models.ImagePayload, float64, float64) (string, []string, error) {
	return "", nil, errors.New("upstream unavailable")
}
func (failingClient) SynthesizeBriefing(string) ([]byte, error) {
	return nil, errors.New("upstream unavailable")
}

func testImage(tag string) models.ImagePayload {
	return models.ImagePayload{MimeType: "image/jpeg", Data: []byte(tag)}
}

func storeWithAnomalyImage(t *testing.T) *session.Store {
	t.Helper()
	st := session.NewStore(testLimits)
	st.Dispatch(session.LoadImage{Slot: session.SlotAnomaly, Image: testImage("anomaly")})
	return st
}

func TestRunAnomalyAnalysisStoresResult(t *testing.T) {
	st := storeWithAnomalyImage(t)
	o := New(stubllm.NewClient())

	result, err := o.RunAnomalyAnalysis(st)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Summary)
	assert.NotEmpty(t, result.Anomalies)

	snap := st.Snapshot()
	require.NotNil(t, snap.AnomalyResult)
	assert.Equal(t, result.Summary, snap.AnomalyResult.Summary)
	assert.False(t, snap.Loading)
}

func TestRunAnomalyAnalysisRequiresImage(t *testing.T) {
	st := session.NewStore(testLimits)
	o := New(stubllm.NewClient())

	_, err := o.RunAnomalyAnalysis(st)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestRunAnomalyAnalysisFailureClearsLoading(t *testing.T) {
	st := storeWithAnomalyImage(t)
	o := New(failingClient{})

	_, err := o.RunAnomalyAnalysis(st)
	require.Error(t, err)

	snap := st.Snapshot()
	assert.Nil(t, snap.AnomalyResult)
	assert.False(t, snap.Loading)
}

func TestRunAnomalyAnalysisDiscardedWhenContextChanges(t *testing.T) {
	st := storeWithAnomalyImage(t)
	// A client that swaps the image mid-call, as if the user uploaded a
	// replacement while the request was in flight.
	o := New(&racingClient{inner: stubllm.NewClient(), st: st})

	_, err := o.RunAnomalyAnalysis(st)
	assert.ErrorIs(t, err, ErrStale)
	assert.Nil(t, st.Snapshot().AnomalyResult)
}

type racingClient struct {
	inner *stubllm.Client
	st    *session.Store
}

func (r *racingClient) SourceName() string { return r.inner.SourceName() }
func (r *racingClient) AnalyzeAnomaly(image models.ImagePayload, metadataContext string) (string, error) {
	r.st.Dispatch(session.LoadImage{Slot: session.SlotAnomaly, Image: testImage("replacement")})
	return r.inner.AnalyzeAnomaly(image, metadataContext)
}
func (r *racingClient) AnalyzeChange(before, after models.ImagePayload, metadataContext string) (string, error) {
	return r.inner.AnalyzeChange(before, after, metadataContext)
}
func (r *racingClient) AskAboutImage(image models.ImagePayload, question, priorSummary string) (string, error) {
	return r.inner.AskAboutImage(image, question, priorSummary)
}
func (r *racingClient) AskAboutChange(before, after models.ImagePayload, question, priorSummary string) (string, error) {
	return r.inner.AskAboutChange(before, after, question, priorSummary)
}
func (r *racingClient) VerifyLocation(image models.ImagePayload, latitude, longitude float64) (string, []string, error) {
	return r.inner.VerifyLocation(image, latitude, longitude)
}
func (r *racingClient) SynthesizeBriefing(text string) ([]byte, error) {
	return r.inner.SynthesizeBriefing(text)
}

func TestRunChangeAnalysisStoresResult(t *testing.T) {
	st := session.NewStore(testLimits)
	st.Dispatch(session.SwitchMode{Mode: models.ModeChangeTracker})
	st.Dispatch(session.LoadImage{Slot: session.SlotBefore, Image: testImage("before")})
	st.Dispatch(session.LoadImage{Slot: session.SlotAfter, Image: testImage("after")})
	o := New(stubllm.NewClient())

	result, err := o.RunChangeAnalysis(st)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Changes)
	require.NotNil(t, st.Snapshot().ChangeResult)
}

func TestRunChangeAnalysisRequiresBothImages(t *testing.T) {
	st := session.NewStore(testLimits)
	st.Dispatch(session.SwitchMode{Mode: models.ModeChangeTracker})
	st.Dispatch(session.LoadImage{Slot: session.SlotBefore, Image: testImage("before")})
	o := New(stubllm.NewClient())

	_, err := o.RunChangeAnalysis(st)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestAskFollowUpWithoutResultRefusesLocally(t *testing.T) {
	st := storeWithAnomalyImage(t)
	// The failing client proves no network call is made: a call would error.
	o := New(failingClient{})

	answer, err := o.AskFollowUp(st, "what is this?")
	require.NoError(t, err)
	assert.Equal(t, FallbackNoAnalysis, answer)

	chat := st.Snapshot().Chat
	require.Len(t, chat, 2)
	assert.Equal(t, "user", chat[0].Role)
	assert.Equal(t, "what is this?", chat[0].Text)
	assert.Equal(t, "model", chat[1].Role)
	assert.Equal(t, FallbackNoAnalysis, chat[1].Text)
}

func TestAskFollowUpAfterAnalysis(t *testing.T) {
	st := storeWithAnomalyImage(t)
	o := New(stubllm.NewClient())
	_, err := o.RunAnomalyAnalysis(st)
	require.NoError(t, err)

	answer, err := o.AskFollowUp(st, "explain the thermal signature")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)

	chat := st.Snapshot().Chat
	require.Len(t, chat, 2)
	assert.Equal(t, answer, chat[1].Text)
}

func TestAskFollowUpTransportFailure(t *testing.T) {
	st := storeWithAnomalyImage(t)
	ok := New(stubllm.NewClient())
	_, err := ok.RunAnomalyAnalysis(st)
	require.NoError(t, err)

	o := New(failingClient{})
	_, err = o.AskFollowUp(st, "still there?")
	require.Error(t, err)

	chat := st.Snapshot().Chat
	require.Len(t, chat, 2)
	assert.Equal(t, ChatTransportFailure, chat[1].Text)
}

func TestVerifyLocationRequiresCoordinates(t *testing.T) {
	st := storeWithAnomalyImage(t)
	// The failing client proves the refusal happens before any call.
	o := New(failingClient{})

	answer, err := o.VerifyLocation(st)
	require.NoError(t, err)
	assert.Equal(t, VerifyMissingCoordinates, answer)
}

func TestVerifyLocationRejectsUnparseableCoordinates(t *testing.T) {
	st := storeWithAnomalyImage(t)
	st.Dispatch(session.EditMetadata{Metadata: models.AnalysisMetadata{Latitude: "north-ish", Longitude: "12.5"}})
	o := New(failingClient{})

	answer, err := o.VerifyLocation(st)
	require.NoError(t, err)
	assert.Equal(t, VerifyMissingCoordinates, answer)
}

func TestVerifyLocationMergesIntoResult(t *testing.T) {
	st := storeWithAnomalyImage(t)
	st.Dispatch(session.EditMetadata{Metadata: models.AnalysisMetadata{Latitude: "14.5684", Longitude: "175.4726"}})
	o := New(stubllm.NewClient())
	_, err := o.RunAnomalyAnalysis(st)
	require.NoError(t, err)

	answer, err := o.VerifyLocation(st)
	require.NoError(t, err)
	assert.Contains(t, answer, "Map References Found: ")

	snap := st.Snapshot()
	require.NotNil(t, snap.AnomalyResult)
	assert.Equal(t, answer, snap.AnomalyResult.Verification)
	assert.False(t, snap.Verifying)
}

func TestVerifyLocationUpstreamFailureReturnsStatedString(t *testing.T) {
	st := storeWithAnomalyImage(t)
	st.Dispatch(session.EditMetadata{Metadata: models.AnalysisMetadata{Latitude: "1.0", Longitude: "2.0"}})
	o := New(failingClient{})

	answer, err := o.VerifyLocation(st)
	require.NoError(t, err)
	assert.Equal(t, VerifyUnavailable, answer)
}

func TestSynthesizeBriefing(t *testing.T) {
	o := New(stubllm.NewClient())
	pcm, err := o.SynthesizeBriefing("three anomalies detected")
	require.NoError(t, err)
	assert.NotEmpty(t, pcm)

	_, err = New(failingClient{}).SynthesizeBriefing("text")
	assert.Error(t, err)
}

func TestFormatMetadata(t *testing.T) {
	full := FormatMetadata(models.AnalysisMetadata{
		RegionName: "Sector 7G",
		Latitude:   "14.5684",
		Longitude:  "175.4726",
		Date:       "2024-08-15",
		SensorType: "Infrared",
	})
	assert.True(t, strings.HasPrefix(full, "METADATA CONTEXT:"))
	assert.Contains(t, full, "- Location: Sector 7G (14.5684, 175.4726)")
	assert.Contains(t, full, "- Date: 2024-08-15")
	assert.Contains(t, full, "- Sensor Type: Infrared")

	empty := FormatMetadata(models.AnalysisMetadata{})
	assert.Contains(t, empty, "- Location: Unknown Region (N/A, N/A)")
	assert.Contains(t, empty, "- Date: Unknown")
	assert.Contains(t, empty, "- Sensor Type: Standard Optical")
}
