package parser

import (
	"testing"
)

func TestParseAnomalyResponse(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantErr   bool
		summary   string
		anomalies int
	}{
		{
			name: "valid JSON response",
			response: `{
				"summary": "The scene shows a heavily cratered highland region with a prominent central peak structure.",
				"anomalies": [
					{
						"label": "Central Peak Crater",
						"description": "A complex crater with an uplifted central peak and terraced walls.",
						"scientificCause": "Hypervelocity impact into crystalline bedrock.",
						"confidence": 92,
						"box_2d": [120, 340, 560, 780]
					},
					{
						"label": "Dune Field",
						"description": "Regularly spaced transverse dunes on the crater floor.",
						"scientificCause": "Aeolian transport of basaltic sand.",
						"confidence": 75,
						"box_2d": [600, 100, 750, 400]
					}
				]
			}`,
			wantErr:   false,
			summary:   "The scene shows a heavily cratered highland region with a prominent central peak structure.",
			anomalies: 2,
		},
		{
			name:      "fenced json code block",
			response:  "```json\n{\"summary\": \"Fenced summary.\", \"anomalies\": []}\n```",
			wantErr:   false,
			summary:   "Fenced summary.",
			anomalies: 0,
		},
		{
			name:      "fence without language tag",
			response:  "```\n{\"summary\": \"Bare fence.\", \"anomalies\": []}\n```",
			wantErr:   false,
			summary:   "Bare fence.",
			anomalies: 0,
		},
		{
			name:      "surrounding prose",
			response:  "Here is the analysis you requested: {\"summary\": \"Inline.\", \"anomalies\": []} Hope this helps.",
			wantErr:   false,
			summary:   "Inline.",
			anomalies: 0,
		},
		{
			name:     "empty text",
			response: "   ",
			wantErr:  true,
		},
		{
			name:     "not JSON at all",
			response: "I am unable to analyze this image.",
			wantErr:  true,
		},
		{
			name:     "missing summary",
			response: `{"anomalies": []}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseAnomalyResponse(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAnomalyResponse() expected error, got %+v", result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAnomalyResponse() unexpected error: %v", err)
			}
			if result.Summary != tt.summary {
				t.Errorf("summary = %q, want %q", result.Summary, tt.summary)
			}
			if len(result.Anomalies) != tt.anomalies {
				t.Errorf("anomalies = %d, want %d", len(result.Anomalies), tt.anomalies)
			}
		})
	}
}

func TestParseAnomalyResponsePreservesMissingBox(t *testing.T) {
	result, err := ParseAnomalyResponse(`{
		"summary": "Low quality imagery.",
		"anomalies": [
			{"label": "Unlocated Haze", "description": "Diffuse brightening.", "scientificCause": "Atmospheric dust.", "confidence": 40}
		]
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Anomalies[0].Box2D != nil {
		t.Errorf("box_2d = %v, want nil for unlocated finding", result.Anomalies[0].Box2D)
	}
}

func TestParseChangeResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
		changes  int
	}{
		{
			name: "valid JSON response",
			response: `{
				"summary": "The glacier terminus has retreated dramatically between the two acquisitions.",
				"changes": [
					{
						"area": "Glacier Terminus",
						"change_type": "Glacial Melt",
						"description": "Ice front replaced by open water across the upper half of the frame.",
						"impact": "Loss of freshwater reserve and habitat displacement.",
						"possibleReason": "Sustained regional warming.",
						"estimated_scale": "Large",
						"confidence": 95
					}
				]
			}`,
			wantErr: false,
			changes: 1,
		},
		{
			name:     "no structural changes",
			response: `{"summary": "No structural changes detected.", "changes": []}`,
			wantErr:  false,
			changes:  0,
		},
		{
			name:     "empty text",
			response: "",
			wantErr:  true,
		},
		{
			name:     "missing summary",
			response: `{"changes": []}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseChangeResponse(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseChangeResponse() expected error, got %+v", result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseChangeResponse() unexpected error: %v", err)
			}
			if len(result.Changes) != tt.changes {
				t.Errorf("changes = %d, want %d", len(result.Changes), tt.changes)
			}
		})
	}
}

func TestExtractJSONFromMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain JSON passes through",
			input:    `{"summary": "x"}`,
			expected: `{"summary": "x"}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "no braces returns input",
			input:    "nothing here",
			expected: "nothing here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONFromMarkdown(tt.input); got != tt.expected {
				t.Errorf("ExtractJSONFromMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
