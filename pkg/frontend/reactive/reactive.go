// Package reactive implements the externally-driven Audio Frontend
// variant (spec.md §4.8): the frontend itself is passive, and a host
// application drives ProcessAudio at its own cadence instead of this
// package owning a callback or a file-reading loop. Used when the
// engine is embedded inside another audio host.
//
// Grounded on the offline and device variants' buffer-conversion and
// ramp-gating shape, adapted from "this package drives the call" to
// "the host drives the call, we just expose it".
package reactive

import (
	"time"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/frontend"
)

// Frontend exposes ProcessAudio for an embedding host to call directly;
// Run is a no-op since the host, not this package, owns the call
// cadence.
type Frontend struct {
	eng *engine.Engine

	cfg  frontend.Config
	ramp frontend.RampState

	in  *buffer.Buffer
	out *buffer.Buffer
}

// New constructs a reactive Frontend bound to eng.
func New(eng *engine.Engine) *Frontend {
	return &Frontend{eng: eng}
}

func (f *Frontend) Name() string { return "reactive" }

// Init allocates the chunk-sized conversion buffers and attaches to the
// Engine; it does not open any device or file.
func (f *Frontend) Init(cfg frontend.Config) error {
	f.cfg = cfg
	f.in = buffer.NewOwning(cfg.Channels)
	f.out = buffer.NewOwning(cfg.Channels)
	return f.eng.AttachFrontend(f).Err()
}

// Run enables realtime processing and returns immediately; the host is
// responsible for calling ProcessAudio on its own thread and cadence.
func (f *Frontend) Run() error {
	f.eng.EnableRealtime(true)
	return nil
}

// Cleanup disables realtime processing and detaches from the Engine.
func (f *Frontend) Cleanup() error {
	f.eng.EnableRealtime(false)
	f.eng.DetachFrontend()
	return nil
}

func (f *Frontend) Pause(paused bool) { f.ramp.SetPaused(paused) }

func (f *Frontend) SetOutputLatency(time.Duration) {
	// The embedding host owns hardware latency reporting, if any.
}

// ProcessAudio is the host-facing entry point (spec.md §4.8:
// "process_audio(in_buffer, out_buffer, sample_count, timestamp)"). It
// converts the interleaved in/out buffers in buffer.ChunkSize-frame
// slices, driving the Engine once per slice, honoring the pause ramp
// exactly like the offline and device variants.
//
// inBuffer and outBuffer are interleaved float32 samples,
// sampleCount*channels long. The host must size both to a multiple of
// buffer.ChunkSize frames; a partial final chunk is zero-padded on
// input and truncated on output.
func (f *Frontend) ProcessAudio(inBuffer, outBuffer []float32, sampleCount uint64, timestamp time.Time) {
	channels := f.cfg.Channels
	frames := int(sampleCount)

	for offset := 0; offset < frames; offset += buffer.ChunkSize {
		n := buffer.ChunkSize
		if offset+n > frames {
			n = frames - offset
		}

		f.fillChunkInput(inBuffer, offset, n, channels)

		if f.ramp.ShouldProcessChunk() {
			f.eng.ProcessChunk(f.in, f.out, timestamp, uint64(offset))
			if f.ramp.Paused() {
				f.ramp.FadeToSilence(channelsOf(f.out))
			}
		} else {
			f.out.Clear()
		}

		f.drainChunkOutput(outBuffer, offset, n, channels)
	}
}

func (f *Frontend) fillChunkInput(in []float32, offset, n, channels int) {
	f.in.Clear()
	for ch := 0; ch < channels; ch++ {
		dst := f.in.Channel(ch)
		for i := 0; i < n; i++ {
			dst[i] = in[(offset+i)*channels+ch]
		}
	}
}

func (f *Frontend) drainChunkOutput(out []float32, offset, n, channels int) {
	for ch := 0; ch < channels; ch++ {
		src := f.out.Channel(ch)
		for i := 0; i < n; i++ {
			out[(offset+i)*channels+ch] = src[i]
		}
	}
}

func channelsOf(b *buffer.Buffer) [][]float32 {
	chans := make([][]float32, b.NumChannels())
	for i := range chans {
		chans[i] = b.Channel(i)
	}
	return chans
}
