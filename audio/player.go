// Package audio renders synthesized briefings. The Gemini TTS endpoint
// returns raw 16-bit little-endian PCM at 24 kHz mono; Player tracks the
// single active playback stream and WAV framing makes the bytes servable.
package audio

import (
	"sync"
	"time"
)

const (
	sampleRate    = 24000
	numChannels   = 1
	bitsPerSample = 16

	bytesPerSecond = sampleRate * numChannels * bitsPerSample / 8
)

// Player owns the exclusive playback resource. Starting a briefing while
// another is active stops the previous one first; at most one stream is
// open at a time, and it is closed on stop, completion, or teardown.
type Player struct {
	mu      sync.Mutex
	current *stream
}

type stream struct {
	timer  *time.Timer
	onDone func()
}

func NewPlayer() *Player {
	return &Player{}
}

// Play starts playback of a PCM briefing. onDone fires exactly once when
// the stream runs to completion; it does not fire when playback is
// superseded or stopped.
func (p *Player) Play(pcm []byte, onDone func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	s := &stream{onDone: onDone}
	s.timer = time.AfterFunc(Duration(pcm), func() {
		p.complete(s)
	})
	p.current = s
}

// Stop closes the active stream. Calling Stop when idle is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Playing reports whether a stream is currently open.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Close releases the player on session teardown.
func (p *Player) Close() {
	p.Stop()
}

func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	p.current.timer.Stop()
	p.current = nil
}

func (p *Player) complete(s *stream) {
	p.mu.Lock()
	if p.current != s {
		// Superseded or stopped before the timer fired.
		p.mu.Unlock()
		return
	}
	p.current = nil
	onDone := s.onDone
	p.mu.Unlock()
	if onDone != nil {
		onDone()
	}
}

// Duration is the wall-clock length of a raw PCM briefing.
func Duration(pcm []byte) time.Duration {
	return time.Duration(len(pcm)) * time.Second / bytesPerSecond
}
