package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"geoint-analysis-service/models"
	"geoint-analysis-service/session"
)

// RenderPrintable renders a self-contained HTML dossier suitable for
// printing. Images are embedded as data URLs so the page has no external
// fetches.
func RenderPrintable(s session.State, now time.Time) (string, error) {
	result := s.CurrentResult()
	if result == nil {
		return "", ErrNoResult
	}

	var imagesSection, findingsSection, summary, verification string
	switch s.Mode {
	case models.ModeAnomalyHunter:
		imagesSection = imageBlock("Surveillance Frame", s.AnomalyImage)
		findingsSection = anomalyFindings(s.AnomalyResult)
		summary = s.AnomalyResult.Summary
		verification = s.AnomalyResult.Verification
	case models.ModeChangeTracker:
		imagesSection = imageBlock("Baseline (T0)", s.ImageBefore) + imageBlock("Current (T1)", s.ImageAfter)
		findingsSection = changeFindings(s.ChangeResult)
		summary = s.ChangeResult.Summary
	}

	verificationSection := ""
	if verification != "" {
		verificationSection = fmt.Sprintf(`
    <div class="section">
        <h2>Location Verification</h2>
        <p class="verification">%s</p>
    </div>`, html.EscapeString(verification))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Analysis Dossier: %s</title>
    <style>
        body { font-family: 'Courier New', monospace; color: #1a1a1a; margin: 40px; }
        .banner { text-align: center; font-weight: bold; letter-spacing: 4px; border: 2px solid #1a1a1a; padding: 6px; margin-bottom: 24px; }
        .header { border-bottom: 3px double #1a1a1a; padding-bottom: 12px; margin-bottom: 24px; }
        .header h1 { margin: 0; font-size: 1.4em; }
        .meta-grid { display: grid; grid-template-columns: repeat(2, 1fr); gap: 8px; margin: 16px 0; }
        .meta-item { border: 1px solid #999; padding: 8px; }
        .meta-label { font-size: 0.75em; text-transform: uppercase; color: #666; }
        .section { margin: 24px 0; page-break-inside: avoid; }
        .section h2 { font-size: 1.1em; border-bottom: 1px solid #999; padding-bottom: 4px; }
        table { width: 100%%; border-collapse: collapse; font-size: 0.85em; }
        th, td { border: 1px solid #999; padding: 6px; text-align: left; vertical-align: top; }
        th { background: #e8e8e8; text-transform: uppercase; font-size: 0.8em; }
        .image-block { margin: 12px 0; }
        .image-block img { max-width: 100%%; border: 1px solid #1a1a1a; }
        .image-caption { font-size: 0.8em; color: #666; margin-top: 4px; }
        .verification { white-space: pre-wrap; }
    </style>
</head>
<body>
    <div class="banner">UNCLASSIFIED // FOR EXERCISE USE ONLY</div>
    <div class="header">
        <h1>GEOSPATIAL ANALYSIS DOSSIER</h1>
        <p>Mode: %s &middot; Generated: %s</p>
    </div>

    <div class="meta-grid">
        <div class="meta-item"><div class="meta-label">Region</div>%s</div>
        <div class="meta-item"><div class="meta-label">Coordinates</div>%s</div>
        <div class="meta-item"><div class="meta-label">Capture Date</div>%s</div>
        <div class="meta-item"><div class="meta-label">Sensor</div>%s</div>
    </div>

    %s

    <div class="section">
        <h2>Executive Summary</h2>
        <p>%s</p>
    </div>

    %s
    %s
</body>
</html>`,
		html.EscapeString(orDefault(s.Metadata.RegionName, "Unknown Region")),
		html.EscapeString(string(s.Mode)),
		now.UTC().Format("2006-01-02 15:04 MST"),
		html.EscapeString(orDefault(s.Metadata.RegionName, "Unknown Region")),
		html.EscapeString(coordinates(s.Metadata)),
		html.EscapeString(orDefault(s.Metadata.Date, "Unknown")),
		html.EscapeString(orDefault(s.Metadata.SensorType, "Standard Optical")),
		imagesSection,
		html.EscapeString(summary),
		findingsSection,
		verificationSection), nil
}

func anomalyFindings(result *models.AnomalyResponse) string {
	if len(result.Anomalies) == 0 {
		return `
    <div class="section">
        <h2>Detected Anomalies</h2>
        <p>No anomalous signatures detected.</p>
    </div>`
	}

	var rows strings.Builder
	for _, a := range result.Anomalies {
		rows.WriteString(fmt.Sprintf(`
            <tr>
                <td>%s</td>
                <td>%s</td>
                <td>%s</td>
                <td>%.0f%%</td>
            </tr>`,
			html.EscapeString(a.Label),
			html.EscapeString(a.Description),
			html.EscapeString(a.ScientificCause),
			a.Confidence))
	}
	return fmt.Sprintf(`
    <div class="section">
        <h2>Detected Anomalies</h2>
        <table>
            <tr><th>Label</th><th>Description</th><th>Assessed Cause</th><th>Confidence</th></tr>%s
        </table>
    </div>`, rows.String())
}

func changeFindings(result *models.ChangeResponse) string {
	if len(result.Changes) == 0 {
		return `
    <div class="section">
        <h2>Change Events</h2>
        <p>No significant changes identified.</p>
    </div>`
	}

	var rows strings.Builder
	for _, c := range result.Changes {
		rows.WriteString(fmt.Sprintf(`
            <tr>
                <td>%s</td>
                <td>%s</td>
                <td>%s</td>
                <td>%s</td>
                <td>%s</td>
                <td>%.0f%%</td>
            </tr>`,
			html.EscapeString(c.Area),
			html.EscapeString(c.ChangeType),
			html.EscapeString(c.Description),
			html.EscapeString(c.Impact),
			html.EscapeString(c.EstimatedScale),
			c.Confidence))
	}
	return fmt.Sprintf(`
    <div class="section">
        <h2>Change Events</h2>
        <table>
            <tr><th>Area</th><th>Type</th><th>Description</th><th>Impact</th><th>Scale</th><th>Confidence</th></tr>%s
        </table>
    </div>`, rows.String())
}

func imageBlock(caption string, image models.ImagePayload) string {
	if image.IsZero() {
		return ""
	}
	return fmt.Sprintf(`
    <div class="image-block">
        <img src="%s" alt="%s">
        <div class="image-caption">%s</div>
    </div>`, image.DataURL(), html.EscapeString(caption), html.EscapeString(caption))
}

func coordinates(meta models.AnalysisMetadata) string {
	if !meta.HasCoordinates() {
		return "N/A"
	}
	return meta.Latitude + ", " + meta.Longitude
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
