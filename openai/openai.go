// Package openai is the alternate analysis provider. It speaks the chat
// completions API with vision inputs and the speech API for briefings.
// Unlike Gemini there is no maps grounding tool, so location verification
// runs on the model's world knowledge and returns no citations.
package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"geoint-analysis-service/config"
	"geoint-analysis-service/llm"
	"geoint-analysis-service/models"
)

const (
	chatEndpoint   = "https://api.openai.com/v1/chat/completions"
	speechEndpoint = "https://api.openai.com/v1/audio/speech"
)

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imageURL struct {
	URL string `json:"url"`
}

type imageContent struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	Seed           int             `json:"seed"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Client represents an OpenAI API client.
type Client struct {
	apiKey   string
	model    string
	ttsModel string
	ttsVoice string
	http     *http.Client
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKey:   cfg.OpenAIAPIKey,
		model:    cfg.OpenAIModel,
		ttsModel: cfg.OpenAITTSModel,
		ttsVoice: cfg.OpenAITTSVoice,
		http:     &http.Client{},
	}
}

// SourceName identifies this provider in status surfaces.
func (c *Client) SourceName() string {
	return "OpenAI"
}

// jsonSchemaHint describes the expected reply shape in prose. The chat
// API's json_object mode guarantees valid JSON but not a shape, so the
// shape rides in the system prompt.
const anomalyShapeHint = `
Reply with a JSON object: {"summary": string, "anomalies": [{"label": string, "description": string, "scientificCause": string, "confidence": number 0-100, "box_2d": [ymin, xmin, ymax, xmax] on a 0-1000 scale}]}. Omit box_2d when a feature cannot be localized.`

const changeShapeHint = `
Reply with a JSON object: {"summary": string, "changes": [{"area": string, "change_type": string, "description": string, "impact": string, "possibleReason": string, "estimated_scale": "Small"|"Medium"|"Large", "confidence": number 0-100}]}.`

func (c *Client) AnalyzeAnomaly(image models.ImagePayload, metadataContext string) (string, error) {
	return c.chat(chatRequest{
		Model:          c.model,
		Temperature:    0,
		Seed:           42,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []message{
			{Role: "system", Content: llm.AnomalySystemInstruction + anomalyShapeHint},
			{Role: "user", Content: []any{
				imagePart(image),
				textPart(metadataContext + "\n\n" + llm.AnomalyTaskPrompt),
			}},
		},
	})
}

func (c *Client) AnalyzeChange(before, after models.ImagePayload, metadataContext string) (string, error) {
	return c.chat(chatRequest{
		Model:          c.model,
		Temperature:    0,
		Seed:           42,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []message{
			{Role: "system", Content: llm.ChangeSystemInstruction + changeShapeHint},
			{Role: "user", Content: []any{
				textPart("Image 1 (BEFORE):"),
				imagePart(before),
				textPart("Image 2 (AFTER):"),
				imagePart(after),
				textPart(metadataContext + "\n\n" + llm.ChangeTaskPrompt),
			}},
		},
	})
}

func (c *Client) AskAboutImage(image models.ImagePayload, question, priorSummary string) (string, error) {
	return c.chat(chatRequest{
		Model:       c.model,
		Temperature: 0,
		Seed:        42,
		Messages: []message{
			{Role: "user", Content: []any{
				imagePart(image),
				textPart(fmt.Sprintf("Context: Previous analysis summary: \"%s\".\n\nUser question: \"%s\"\n\nAnswer concisely as a geospatial expert.", priorSummary, question)),
			}},
		},
	})
}

func (c *Client) AskAboutChange(before, after models.ImagePayload, question, priorSummary string) (string, error) {
	return c.chat(chatRequest{
		Model:       c.model,
		Temperature: 0,
		Seed:        42,
		Messages: []message{
			{Role: "user", Content: []any{
				textPart("Image 1 (BEFORE):"),
				imagePart(before),
				textPart("Image 2 (AFTER):"),
				imagePart(after),
				textPart(fmt.Sprintf("Context: Previous change analysis summary: \"%s\".\n\nUser question: \"%s\"\n\nAnswer concisely as a geospatial expert.", priorSummary, question)),
			}},
		},
	})
}

// VerifyLocation has no grounding tool here; the model answers from world
// knowledge and the citation list is always empty.
func (c *Client) VerifyLocation(image models.ImagePayload, latitude, longitude float64) (string, []string, error) {
	answer, err := c.chat(chatRequest{
		Model:       c.model,
		Temperature: 0,
		Seed:        42,
		Messages: []message{
			{Role: "user", Content: []any{
				imagePart(image),
				textPart(fmt.Sprintf("%s Coordinates: (%f, %f).", llm.VerifyLocationPrompt, latitude, longitude)),
			}},
		},
	})
	if err != nil {
		return "", nil, err
	}
	return answer, nil, nil
}

// SynthesizeBriefing returns raw 24kHz 16-bit mono PCM, the same framing
// the Gemini TTS endpoint produces.
func (c *Client) SynthesizeBriefing(text string) ([]byte, error) {
	body, err := json.Marshal(speechRequest{
		Model:          c.ttsModel,
		Input:          text,
		Voice:          c.ttsVoice,
		ResponseFormat: "pcm",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speech request: %w", err)
	}

	req, err := http.NewRequest("POST", speechEndpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech API returned status %d: %s", resp.StatusCode, string(data))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no audio generated")
	}
	return data, nil
}

func (c *Client) chat(reqBody chatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", chatEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}

func textPart(text string) textContent {
	return textContent{Type: "text", Text: text}
}

func imagePart(image models.ImagePayload) imageContent {
	return imageContent{Type: "image_url", ImageURL: imageURL{URL: image.DataURL()}}
}
