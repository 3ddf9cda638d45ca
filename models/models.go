package models

import (
	"time"
)

// Mode selects which image slots, result type, and prompt/schema pair is active.
type Mode string

const (
	ModeAnomalyHunter Mode = "ANOMALY_HUNTER"
	ModeChangeTracker Mode = "CHANGE_TRACKER"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeAnomalyHunter || m == ModeChangeTracker
}

// AnalysisMetadata is optional user-supplied context attached to every
// outbound analysis request. The service never infers any of these fields.
type AnalysisMetadata struct {
	Latitude   string `json:"latitude,omitempty"`
	Longitude  string `json:"longitude,omitempty"`
	Date       string `json:"date,omitempty"`
	SensorType string `json:"sensorType,omitempty"` // e.g. Optical, SAR, Infrared
	RegionName string `json:"regionName,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (m AnalysisMetadata) HasCoordinates() bool {
	return m.Latitude != "" && m.Longitude != ""
}

// Anomaly is a single detected feature of interest in an image.
// Box2D, when present, is [ymin, xmin, ymax, xmax] on a 0-1000 scale.
// A missing or malformed box means "unlocated, do not render an overlay".
type Anomaly struct {
	Label           string    `json:"label"`
	Description     string    `json:"description"`
	ScientificCause string    `json:"scientificCause"`
	Confidence      float64   `json:"confidence"` // 0-100
	Box2D           []float64 `json:"box_2d,omitempty"`
}

// AnomalyResponse is the structured result of a single-image analysis.
// Verification is merged in later by a separate grounding call; it is the
// only field mutated after the response is received.
type AnomalyResponse struct {
	Summary      string    `json:"summary"`
	Anomalies    []Anomaly `json:"anomalies"`
	Verification string    `json:"verification,omitempty"`
}

// ChangeEvent is a single detected difference between two images taken at
// different times.
type ChangeEvent struct {
	Area           string  `json:"area"`
	ChangeType     string  `json:"change_type"`
	Description    string  `json:"description"`
	Impact         string  `json:"impact"`
	PossibleReason string  `json:"possibleReason"`
	EstimatedScale string  `json:"estimated_scale"` // Small | Medium | Large
	Confidence     float64 `json:"confidence"`      // 0-100
}

// ChangeResponse is the structured result of a two-image comparison.
type ChangeResponse struct {
	Summary string        `json:"summary"`
	Changes []ChangeEvent `json:"changes"`
}

// ChatMessage is one turn of the follow-up Q&A, scoped to the current
// analysis.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user | model
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemLog is a single operator-visible activity log entry.
type SystemLog struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Type      string `json:"type"` // info | success | warning | error
}

const (
	LogInfo    = "info"
	LogSuccess = "success"
	LogWarning = "warning"
	LogError   = "error"
)
