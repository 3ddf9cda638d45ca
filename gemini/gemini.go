package gemini

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"geoint-analysis-service/config"
	"geoint-analysis-service/llm"
	"geoint-analysis-service/models"
)

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type speechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voice_name"`
		} `json:"prebuilt_voice_config"`
	} `json:"voice_config"`
}

type generationConfig struct {
	ResponseMimeType   string          `json:"response_mime_type,omitempty"`
	ResponseSchema     json.RawMessage `json:"response_schema,omitempty"`
	Temperature        *float64        `json:"temperature,omitempty"`
	Seed               *int            `json:"seed,omitempty"`
	ResponseModalities []string        `json:"response_modalities,omitempty"`
	SpeechConfig       *speechConfig   `json:"speech_config,omitempty"`
}

type tool struct {
	GoogleMaps *struct{} `json:"google_maps,omitempty"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type retrievalConfig struct {
	LatLng latLng `json:"lat_lng"`
}

type toolConfig struct {
	RetrievalConfig *retrievalConfig `json:"retrieval_config,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *content          `json:"system_instruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	Tools             []tool            `json:"tools,omitempty"`
	ToolConfig        *toolConfig       `json:"tool_config,omitempty"`
	Contents          []content         `json:"contents"`
}

type candidate struct {
	Content struct {
		Parts []struct {
			Text       string `json:"text,omitempty"`
			InlineData *struct {
				MimeType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData,omitempty"`
		} `json:"parts"`
	} `json:"content"`
	GroundingMetadata *struct {
		GroundingChunks []struct {
			Maps *struct {
				Title string `json:"title"`
			} `json:"maps,omitempty"`
		} `json:"groundingChunks"`
	} `json:"groundingMetadata,omitempty"`
}

type geminiResponse struct {
	Candidates []candidate `json:"candidates"`
}

// Client talks to the Gemini generateContent REST API.
type Client struct {
	apiKey         string
	model          string
	groundingModel string
	ttsModel       string
	ttsVoice       string
	http           *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKey:         cfg.GeminiAPIKey,
		model:          cfg.GeminiModel,
		groundingModel: cfg.GroundingModel,
		ttsModel:       cfg.TTSModel,
		ttsVoice:       cfg.TTSVoice,
		http:           &http.Client{},
	}
}

func (c *Client) SourceName() string {
	return "Gemini"
}

// deterministicConfig pins sampling so repeated analyses of the same image
// stay consistent.
func deterministicConfig(schema string) *generationConfig {
	temperature := 0.0
	seed := 42
	return &generationConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   json.RawMessage(schema),
		Temperature:      &temperature,
		Seed:             &seed,
	}
}

func imagePart(img models.ImagePayload) part {
	return part{
		InlineData: &inlineData{
			MimeType: img.MimeType,
			Data:     img.Base64(),
		},
	}
}

func (c *Client) AnalyzeAnomaly(image models.ImagePayload, metadataContext string) (string, error) {
	req := geminiRequest{
		SystemInstruction: &content{Parts: []part{{Text: llm.AnomalySystemInstruction}}},
		GenerationConfig:  deterministicConfig(anomalySchema),
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					imagePart(image),
					{Text: metadataContext},
					{Text: llm.AnomalyTaskPrompt},
				},
			},
		},
	}

	cand, err := c.generate(c.model, req)
	if err != nil {
		return "", err
	}
	return firstText(cand)
}

func (c *Client) AnalyzeChange(before, after models.ImagePayload, metadataContext string) (string, error) {
	req := geminiRequest{
		SystemInstruction: &content{Parts: []part{{Text: llm.ChangeSystemInstruction}}},
		GenerationConfig:  deterministicConfig(changeSchema),
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					imagePart(before),
					{Text: "This is the first image (older)."},
					imagePart(after),
					{Text: "This is the second image (newer)."},
					{Text: metadataContext},
					{Text: llm.ChangeTaskPrompt},
				},
			},
		},
	}

	cand, err := c.generate(c.model, req)
	if err != nil {
		return "", err
	}
	return firstText(cand)
}

func (c *Client) AskAboutImage(image models.ImagePayload, question, priorSummary string) (string, error) {
	if priorSummary == "" {
		priorSummary = "None"
	}
	req := geminiRequest{
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					imagePart(image),
					{Text: fmt.Sprintf("Context from previous analysis: %s", priorSummary)},
					{Text: fmt.Sprintf("User Question: %s. Answer concisely and scientifically based ONLY on the visual evidence in the image.", question)},
				},
			},
		},
	}

	cand, err := c.generate(c.model, req)
	if err != nil {
		return "", err
	}
	text, _ := firstText(cand)
	return text, nil
}

func (c *Client) AskAboutChange(before, after models.ImagePayload, question, priorSummary string) (string, error) {
	req := geminiRequest{
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					imagePart(before),
					{Text: "Image 1 (Before)"},
					imagePart(after),
					{Text: "Image 2 (After)"},
					{Text: fmt.Sprintf("Context: %s", priorSummary)},
					{Text: fmt.Sprintf("User Question: %s. Answer concisely regarding the changes based ONLY on visual evidence.", question)},
				},
			},
		},
	}

	cand, err := c.generate(c.model, req)
	if err != nil {
		return "", err
	}
	text, _ := firstText(cand)
	return text, nil
}

// VerifyLocation runs on the grounding-capable model with the Maps tool
// pinned to the supplied coordinates.
func (c *Client) VerifyLocation(image models.ImagePayload, latitude, longitude float64) (string, []string, error) {
	req := geminiRequest{
		Tools: []tool{{GoogleMaps: &struct{}{}}},
		ToolConfig: &toolConfig{
			RetrievalConfig: &retrievalConfig{
				LatLng: latLng{Latitude: latitude, Longitude: longitude},
			},
		},
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					imagePart(image),
					{Text: llm.VerifyLocationPrompt},
				},
			},
		},
	}

	cand, err := c.generate(c.groundingModel, req)
	if err != nil {
		return "", nil, err
	}

	text, _ := firstText(cand)

	var citations []string
	if cand.GroundingMetadata != nil {
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Maps != nil && chunk.Maps.Title != "" {
				citations = append(citations, chunk.Maps.Title)
			}
		}
	}
	return text, citations, nil
}

func (c *Client) SynthesizeBriefing(text string) ([]byte, error) {
	cfg := &generationConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig:       &speechConfig{},
	}
	cfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = c.ttsVoice

	req := geminiRequest{
		GenerationConfig: cfg,
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: text}},
			},
		},
	}

	cand, err := c.generate(c.ttsModel, req)
	if err != nil {
		return nil, err
	}

	for _, p := range cand.Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			audio, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode audio payload: %w", err)
			}
			return audio, nil
		}
	}
	return nil, fmt.Errorf("no audio generated")
}

func (c *Client) generate(model string, body geminiRequest) (*candidate, error) {
	// try v1beta first, then v1
	endpoints := []string{
		fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", model, c.apiKey),
		fmt.Sprintf("https://generativelanguage.googleapis.com/v1/models/%s:generateContent?key=%s", model, c.apiKey),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for _, ep := range endpoints {
		req, err := http.NewRequest("POST", ep, bytes.NewBuffer(data))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to send request: %w", err)
			continue
		}
		bodyBytes, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
			// retry next endpoint if available
			continue
		}
		var gr geminiResponse
		if err := json.Unmarshal(bodyBytes, &gr); err != nil {
			lastErr = fmt.Errorf("failed to parse response: %w", err)
			continue
		}
		if len(gr.Candidates) == 0 {
			lastErr = fmt.Errorf("no candidates in response")
			continue
		}
		return &gr.Candidates[0], nil
	}
	return nil, lastErr
}

func firstText(cand *candidate) (string, error) {
	for _, p := range cand.Content.Parts {
		if p.Text != "" {
			return p.Text, nil
		}
	}
	return "", fmt.Errorf("no text part in response")
}
