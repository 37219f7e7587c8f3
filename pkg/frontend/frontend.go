// Package frontend defines the Audio Frontend contract (spec.md §4.8):
// whatever owns the OS-side audio callback, negotiates sample rate and
// buffer size, and drives the Engine's process_chunk exactly once per
// audio period.
package frontend

import "time"

// Config carries the frontend-independent settings every variant needs
// at Init time.
type Config struct {
	SampleRate      float64
	FramesPerBuffer int
	Channels        int
}

// Frontend is the trait spec.md §6 requires every audio frontend
// implement: init/run/cleanup/pause/set_output_latency.
type Frontend interface {
	Name() string
	Init(cfg Config) error
	Run() error
	Cleanup() error
	// Pause ramps output to silence across one chunk, then outputs
	// silence without calling processors until resumed (spec.md §4.8).
	Pause(paused bool)
	SetOutputLatency(latency time.Duration)
}

// RampState tracks the one-chunk fade a paused frontend must apply
// before it starts emitting pure silence, shared across every variant.
type RampState struct {
	paused  bool
	ramping bool
}

// SetPaused transitions into or out of the pause ramp. Transitioning
// into pause arms one ramp-out chunk; transitioning out of pause takes
// effect immediately (no ramp-in requirement in spec.md §4.8).
func (r *RampState) SetPaused(paused bool) {
	if paused && !r.paused {
		r.ramping = true
	}
	if !paused {
		r.ramping = false
	}
	r.paused = paused
}

func (r *RampState) Paused() bool { return r.paused }

// ShouldProcessChunk reports whether the caller should still invoke the
// Engine this chunk. True when running, and true for exactly the first
// chunk after a pause transition (so that chunk's real output can be
// faded rather than replaced outright); false for every following
// chunk while still paused, per spec.md §4.8's "then output silence
// without calling processors".
func (r *RampState) ShouldProcessChunk() bool {
	if !r.paused {
		return true
	}
	if r.ramping {
		r.ramping = false
		return true
	}
	return false
}

// FadeToSilence fades channels to zero in place. Call on the chunk
// immediately after Engine.ProcessChunk when Paused() is true, to ramp
// that chunk's real output to silence across its length (spec.md §4.8:
// "ramp output to zero across one chunk").
func (r *RampState) FadeToSilence(channels [][]float32) {
	n := 0
	if len(channels) > 0 {
		n = len(channels[0])
	}
	for _, ch := range channels {
		for i := range ch {
			if n <= 1 {
				ch[i] = 0
				continue
			}
			ch[i] *= float32(n-i-1) / float32(n-1)
		}
	}
}
