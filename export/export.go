// Package export serializes a session's findings for download: a JSON
// file for machine consumption and a printable HTML dossier for
// briefings.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"geoint-analysis-service/session"
)

// ErrNoResult is returned when the active mode has nothing to export.
var ErrNoResult = fmt.Errorf("no analysis result to export")

// MarshalResult renders the active mode's result object as indented JSON.
// The file holds the result and nothing else, so parsing it back yields
// the in-memory result exactly.
func MarshalResult(s session.State) ([]byte, error) {
	result := s.CurrentResult()
	if result == nil {
		return nil, ErrNoResult
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return data, nil
}

// Filename returns the canonical download name for a report generated at
// the given instant.
func Filename(now time.Time) string {
	return fmt.Sprintf("analysis_report_%d.json", now.UnixMilli())
}
