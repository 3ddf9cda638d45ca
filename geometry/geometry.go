// Package geometry converts bounding boxes from the model's normalized
// 0-1000 coordinate space into proportional layout rectangles and heatmap
// glow regions for overlay rendering.
package geometry

// ViewMode selects how overlays are presented. Switching modes does not
// alter the underlying data, only presentation.
type ViewMode string

const (
	ViewBox     ViewMode = "box"
	ViewHeatmap ViewMode = "heatmap"
)

// Rect is a rectangle expressed as percentages (0-100 scale) of the
// rendering container's respective axes.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
}

// HeatmapRegion is a radial glow centered on a box, sized so it reads as a
// circle regardless of the container's pixel aspect ratio.
type HeatmapRegion struct {
	CenterX float64 `json:"centerX"` // percent
	CenterY float64 `json:"centerY"` // percent
	Width   float64 `json:"width"`   // percent of container width
	Height  float64 `json:"height"`  // percent of container height
	Opacity float64 `json:"opacity"` // 0-1
}

// HasBox reports whether box is a renderable [ymin, xmin, ymax, xmax]
// quadruple. Anything else is unlocated and gets no overlay.
func HasBox(box []float64) bool {
	return len(box) == 4
}

// BoxRect maps [ymin, xmin, ymax, xmax] in 0-1000 units to container
// percentages. No clamping: out-of-range or inverted model output
// propagates as negative or >100% rectangles, trusting upstream.
func BoxRect(box []float64) Rect {
	ymin, xmin, ymax, xmax := box[0], box[1], box[2], box[3]
	return Rect{
		Top:    ymin / 1000 * 100,
		Left:   xmin / 1000 * 100,
		Height: (ymax - ymin) / 1000 * 100,
		Width:  (xmax - xmin) / 1000 * 100,
	}
}

// HeatmapFor builds the glow region for a box. The glow diameter is 1.5x
// the larger box dimension; the vertical extent is corrected by the
// container's current pixel aspect ratio (width/height) so the rendered
// gradient stays circular. Opacity is confidence mapped from 0-100 to 0-1.
func HeatmapFor(box []float64, confidence, containerAspect float64) HeatmapRegion {
	r := BoxRect(box)
	size := r.Width
	if r.Height > size {
		size = r.Height
	}
	size *= 1.5
	return HeatmapRegion{
		CenterX: r.Left + r.Width/2,
		CenterY: r.Top + r.Height/2,
		Width:   size,
		Height:  size * containerAspect,
		Opacity: confidence / 100,
	}
}
