package llm

import "geoint-analysis-service/models"

// Client abstracts the multimodal model provider used by the orchestrator.
// Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// AnalyzeAnomaly takes one image plus a formatted metadata context and
	// returns a single JSON string per the anomaly schema.
	AnalyzeAnomaly(image models.ImagePayload, metadataContext string) (string, error)
	// AnalyzeChange takes a before/after pair and returns a single JSON
	// string per the change schema.
	AnalyzeChange(before, after models.ImagePayload, metadataContext string) (string, error)
	// AskAboutImage answers a single free-text question grounded only in
	// the image and the prior analysis summary.
	AskAboutImage(image models.ImagePayload, question, priorSummary string) (string, error)
	// AskAboutChange answers a single free-text question about the pair.
	AskAboutChange(before, after models.ImagePayload, question, priorSummary string) (string, error)
	// VerifyLocation asks the map-grounded model which real-world landmarks
	// at the coordinates match the image. Citations are the titles of any
	// grounding references the provider returned.
	VerifyLocation(image models.ImagePayload, latitude, longitude float64) (answer string, citations []string, err error)
	// SynthesizeBriefing renders text to raw audio bytes from the fixed
	// voice profile.
	SynthesizeBriefing(text string) ([]byte, error)
	// SourceName returns a short provider label (e.g., "Gemini", "Stub").
	SourceName() string
}
