package parser

import (
	"encoding/json"
	"errors"
	"strings"

	"geoint-analysis-service/models"
)

// ExtractJSONFromMarkdown strips optional markdown code-fence wrapping from
// a model reply, returning the JSON body.
func ExtractJSONFromMarkdown(response string) string {
	// Look for JSON code blocks with ``` markers
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	// Find the end of the first code block
	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	// Extract content between the markers
	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// ParseAnomalyResponse decodes the single-image analysis reply. Empty text
// or undecodable JSON is an error. A missing or short box_2d is preserved
// as-is; consumers treat it as an unlocated finding.
func ParseAnomalyResponse(response string) (*models.AnomalyResponse, error) {
	cleaned := strings.TrimSpace(response)
	if cleaned == "" {
		return nil, errors.New("empty response text")
	}

	jsonContent := ExtractJSONFromMarkdown(cleaned)

	var result models.AnomalyResponse
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return nil, errors.New("failed to parse JSON response: " + err.Error())
	}
	if result.Summary == "" {
		return nil, errors.New("summary is required")
	}
	return &result, nil
}

// ParseChangeResponse decodes the two-image comparison reply under the same
// contract as ParseAnomalyResponse.
func ParseChangeResponse(response string) (*models.ChangeResponse, error) {
	cleaned := strings.TrimSpace(response)
	if cleaned == "" {
		return nil, errors.New("empty response text")
	}

	jsonContent := ExtractJSONFromMarkdown(cleaned)

	var result models.ChangeResponse
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return nil, errors.New("failed to parse JSON response: " + err.Error())
	}
	if result.Summary == "" {
		return nil, errors.New("summary is required")
	}
	return &result, nil
}
