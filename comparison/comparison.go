// Package comparison holds the before/after presentation state machine: a
// draggable reveal slider and a timed alternating flicker view.
package comparison

import (
	"sync"
	"time"
)

// ViewMode is the top-level comparison mode.
type ViewMode string

const (
	ModeSlider  ViewMode = "slider"
	ModeFlicker ViewMode = "flicker"
)

// ContainerRect is the rendered container's bounding rectangle in client
// pixels. Only the horizontal extent matters for the reveal divider.
type ContainerRect struct {
	Left  float64
	Width float64
}

// State is a point-in-time snapshot of the renderer.
type State struct {
	Mode           ViewMode `json:"mode"`
	SliderPosition float64  `json:"sliderPosition"` // 0-100 percent
	Dragging       bool     `json:"dragging"`
	ShowNewer      bool     `json:"showNewer"` // which image is opaque in flicker mode
}

// Renderer presents two images under either a reveal slider or a timed
// flicker. Transitions between the two are pure toggles; no data is lost.
type Renderer struct {
	mu       sync.Mutex
	mode     ViewMode
	position float64
	dragging bool
	interval time.Duration
	flicker  *flicker
}

// NewRenderer returns a slider-mode renderer with the divider centered.
func NewRenderer(interval time.Duration) *Renderer {
	return &Renderer{
		mode:     ModeSlider,
		position: 50,
		interval: interval,
	}
}

// SetFlicker toggles between flicker and slider mode. Entering flicker
// starts the alternation timer; leaving it cancels the timer immediately.
func (r *Renderer) SetFlicker(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if on == (r.mode == ModeFlicker) {
		return
	}
	if on {
		r.mode = ModeFlicker
		r.dragging = false
		r.flicker = startFlicker(r.interval)
		return
	}
	r.mode = ModeSlider
	r.flicker.stop()
	r.flicker = nil
}

// BeginDrag starts a pointer-down drag gesture. Ignored in flicker mode.
func (r *Renderer) BeginDrag() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode == ModeFlicker {
		return
	}
	r.dragging = true
}

// MoveTo updates the divider from a pointer or touch clientX while a drag
// is active. The position is the pointer offset within the container,
// clamped to its bounds and expressed as a percentage.
func (r *Renderer) MoveTo(clientX float64, rect ContainerRect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dragging || r.mode == ModeFlicker || rect.Width <= 0 {
		return
	}
	x := clientX - rect.Left
	if x < 0 {
		x = 0
	}
	if x > rect.Width {
		x = rect.Width
	}
	r.position = x / rect.Width * 100
}

// EndDrag stops the active drag gesture. Pointer release and pointer-leave
// both route here.
func (r *Renderer) EndDrag() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dragging = false
}

// Snapshot returns the current renderer state.
func (r *Renderer) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := State{
		Mode:           r.mode,
		SliderPosition: r.position,
		Dragging:       r.dragging,
	}
	if r.flicker != nil {
		s.ShowNewer = r.flicker.showNewer()
	}
	return s
}

// Close releases the flicker timer if one is running. Safe to call on a
// renderer that was never flickered.
func (r *Renderer) Close() {
	r.SetFlicker(false)
}

// flicker alternates which image is opaque on a fixed interval.
type flicker struct {
	mu      sync.Mutex
	newer   bool
	toggles int
	quit    chan struct{}
	done    chan struct{}
}

func startFlicker(interval time.Duration) *flicker {
	f := &flicker{
		newer: true,
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go f.run(interval)
	return f
}

func (f *flicker) run(interval time.Duration) {
	defer close(f.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.toggle()
		case <-f.quit:
			return
		}
	}
}

func (f *flicker) toggle() {
	f.mu.Lock()
	f.newer = !f.newer
	f.toggles++
	f.mu.Unlock()
}

func (f *flicker) showNewer() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newer
}

func (f *flicker) toggleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toggles
}

// stop cancels the timer and waits for the run loop to exit, so no toggle
// can fire after stop returns.
func (f *flicker) stop() {
	close(f.quit)
	<-f.done
}
