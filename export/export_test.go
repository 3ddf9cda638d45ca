package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoint-analysis-service/models"
	"geoint-analysis-service/session"
)

func anomalyState() session.State {
	return session.State{
		Mode: models.ModeAnomalyHunter,
		Metadata: models.AnalysisMetadata{
			RegionName: "Gusev Crater",
			Latitude:   "-14.5684",
			Longitude:  "175.4726",
			Date:       "2024-08-15",
			SensorType: "Infrared",
		},
		AnomalyImage: models.ImagePayload{MimeType: "image/jpeg", Data: []byte("frame")},
		AnomalyResult: &models.AnomalyResponse{
			Summary: "Two thermal signatures near the crater rim.",
			Anomalies: []models.Anomaly{
				{Label: "Thermal Vent", Description: "Localized heat bloom", ScientificCause: "Geothermal activity", Confidence: 88, Box2D: []float64{100, 200, 300, 400}},
				{Label: "Debris Field", Description: "Scattered high-albedo objects", ScientificCause: "Impact ejecta", Confidence: 61},
			},
			Verification: "Confirmed: crater rim matches map reference.",
		},
	}
}

func changeState() session.State {
	return session.State{
		Mode:        models.ModeChangeTracker,
		ImageBefore: models.ImagePayload{MimeType: "image/png", Data: []byte("t0")},
		ImageAfter:  models.ImagePayload{MimeType: "image/png", Data: []byte("t1")},
		ChangeResult: &models.ChangeResponse{
			Summary: "Glacier front retreated significantly.",
			Changes: []models.ChangeEvent{
				{Area: "North terminus", ChangeType: "Glacial Retreat", Description: "Ice front moved inland", Impact: "Sea level contribution", PossibleReason: "Warming trend", EstimatedScale: "Large", Confidence: 93},
			},
		},
	}
}

func TestMarshalResultRoundTrip(t *testing.T) {
	state := anomalyState()
	data, err := MarshalResult(state)
	require.NoError(t, err)

	var decoded models.AnomalyResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	// The file holds exactly the result object; parsing it back yields the
	// in-memory value.
	assert.Equal(t, *state.AnomalyResult, decoded)
}

func TestMarshalResultExportsActiveModeOnly(t *testing.T) {
	s := anomalyState()
	s.ChangeResult = &models.ChangeResponse{Summary: "other mode"}
	data, err := MarshalResult(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "other mode")

	s.Mode = models.ModeChangeTracker
	data, err = MarshalResult(s)
	require.NoError(t, err)

	var decoded models.ChangeResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "other mode", decoded.Summary)
}

func TestMarshalResultChangeRoundTrip(t *testing.T) {
	state := changeState()
	data, err := MarshalResult(state)
	require.NoError(t, err)

	var decoded models.ChangeResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *state.ChangeResult, decoded)
}

func TestMarshalResultWithoutResult(t *testing.T) {
	_, err := MarshalResult(session.State{Mode: models.ModeAnomalyHunter})
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestFilename(t *testing.T) {
	now := time.UnixMilli(1756728000000)
	assert.Equal(t, "analysis_report_1756728000000.json", Filename(now))
}

func TestRenderPrintableAnomaly(t *testing.T) {
	out, err := RenderPrintable(anomalyState(), time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, out, "UNCLASSIFIED")
	assert.Contains(t, out, "Gusev Crater")
	assert.Contains(t, out, "-14.5684, 175.4726")
	assert.Contains(t, out, "Thermal Vent")
	assert.Contains(t, out, "88%")
	assert.Contains(t, out, "Confirmed: crater rim matches map reference.")
	// Image embedded inline, no external fetches.
	assert.Contains(t, out, "data:image/jpeg;base64,")
	assert.NotContains(t, out, "http://")
}

func TestRenderPrintableChange(t *testing.T) {
	out, err := RenderPrintable(changeState(), time.Now())
	require.NoError(t, err)

	assert.Contains(t, out, "Baseline (T0)")
	assert.Contains(t, out, "Current (T1)")
	assert.Contains(t, out, "Glacial Retreat")
	assert.Equal(t, 2, strings.Count(out, "data:image/png;base64,"))
	// No verification section in change mode.
	assert.NotContains(t, out, "Location Verification")
}

func TestRenderPrintableEscapesContent(t *testing.T) {
	s := anomalyState()
	s.AnomalyResult.Summary = `<script>alert("x")</script>`
	out, err := RenderPrintable(s, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderPrintableWithoutResult(t *testing.T) {
	_, err := RenderPrintable(session.State{Mode: models.ModeChangeTracker}, time.Now())
	assert.ErrorIs(t, err, ErrNoResult)
}
