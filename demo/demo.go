// Package demo loads the built-in demonstration scenarios: a Mars
// surface frame for anomaly hunting and a Muir Glacier pair for change
// tracking. Images are fetched from public mirrors at load time.
package demo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"geoint-analysis-service/config"
	"geoint-analysis-service/models"
)

const maxImageBytes = 16 << 20

// Preset metadata that accompanies the demo imagery.
var (
	AnomalyMetadata = models.AnalysisMetadata{
		RegionName: "Gusev Crater, Mars",
		SensorType: "Optical",
	}
	ChangeMetadata = models.AnalysisMetadata{
		RegionName: "Muir Glacier, Alaska",
		Date:       "2004-08-01",
		SensorType: "Optical",
	}
)

// Loader fetches demo imagery over HTTP.
type Loader struct {
	cfg  *config.Config
	http *http.Client
}

func NewLoader(cfg *config.Config) *Loader {
	return &Loader{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// AnomalyScene fetches the single-frame anomaly demo image.
func (l *Loader) AnomalyScene(ctx context.Context) (models.ImagePayload, error) {
	return l.fetch(ctx, l.cfg.DemoAnomalyURL)
}

// ChangeScene fetches the before/after demo pair.
func (l *Loader) ChangeScene(ctx context.Context) (before, after models.ImagePayload, err error) {
	before, err = l.fetch(ctx, l.cfg.DemoChangeBeforeURL)
	if err != nil {
		return models.ImagePayload{}, models.ImagePayload{}, err
	}
	after, err = l.fetch(ctx, l.cfg.DemoChangeAfterURL)
	if err != nil {
		return models.ImagePayload{}, models.ImagePayload{}, err
	}
	return before, after, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (models.ImagePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.ImagePayload{}, fmt.Errorf("failed to build demo image request: %w", err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return models.ImagePayload{}, fmt.Errorf("failed to fetch demo image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ImagePayload{}, fmt.Errorf("demo image fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return models.ImagePayload{}, fmt.Errorf("failed to read demo image: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return models.ImagePayload{MimeType: mimeType, Data: data}, nil
}
