// Package device implements the device-driven realtime Audio Frontend
// variant (spec.md §4.8): a native audio API callback, invoked by
// PortAudio, mapped onto the Engine's chunked interface.
//
// Grounded on other_examples/.../rayboyd-audio-engine's
// portaudio.OpenStream/StreamParameters/runtime.LockOSThread usage,
// adapted from a capture-only analysis engine to a full-duplex
// process_chunk driver.
package device

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/frontend"
)

// Frontend drives the Engine from a PortAudio full-duplex stream,
// iterating in buffer.ChunkSize-frame chunks whenever the host's buffer
// size exceeds that (spec.md §4.8: "iterating in K-frame chunks when
// the host buffer exceeds K").
type Frontend struct {
	eng *engine.Engine

	// DeviceName selects the PortAudio device to open by
	// (sub)string match against its Name, for both input and output;
	// left empty, Init falls back to the host API's default device.
	DeviceName string

	cfg    frontend.Config
	ramp   frontend.RampState
	stream *portaudio.Stream

	in  *buffer.Buffer
	out *buffer.Buffer

	sampleCount uint64
	xrunCount   int
}

// New constructs a device Frontend bound to eng.
func New(eng *engine.Engine) *Frontend {
	return &Frontend{eng: eng}
}

func (f *Frontend) Name() string { return "device" }

// findDevice returns the first device whose name contains name, or nil
// if name is empty or no device matches.
func findDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("device frontend: listing devices: %w", err)
	}
	for _, d := range devices {
		if strings.Contains(d.Name, name) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device frontend: no device matching %q", name)
}

// Init negotiates the PortAudio host device named by DeviceName (or the
// host API's default, when empty) at cfg's sample rate and channel
// count, opening (but not starting) a full-duplex stream driven by
// f.callback.
func (f *Frontend) Init(cfg frontend.Config) error {
	f.cfg = cfg
	f.in = buffer.NewOwning(cfg.Channels)
	f.out = buffer.NewOwning(cfg.Channels)

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("device frontend: portaudio init: %w", err)
	}

	dev, err := findDevice(f.DeviceName)
	if err != nil {
		portaudio.Terminate()
		return err
	}

	inDev, outDev := dev, dev
	if dev == nil {
		if inDev, err = portaudio.DefaultInputDevice(); err != nil {
			portaudio.Terminate()
			return fmt.Errorf("device frontend: default input device: %w", err)
		}
		if outDev, err = portaudio.DefaultOutputDevice(); err != nil {
			portaudio.Terminate()
			return fmt.Errorf("device frontend: default output device: %w", err)
		}
	}

	params := portaudio.LowLatencyParameters(inDev, outDev)
	params.Input.Channels = cfg.Channels
	params.Output.Channels = cfg.Channels
	params.SampleRate = cfg.SampleRate
	params.FramesPerBuffer = cfg.FramesPerBuffer

	stream, err := portaudio.OpenStream(params, f.callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("device frontend: open stream: %w", err)
	}
	f.stream = stream

	if err := f.eng.AttachFrontend(f).Err(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("device frontend: %w", err)
	}

	f.eng.Transport().SetOutputLatency(stream.Info().OutputLatency.Seconds())
	return nil
}

// callback is PortAudio's audio thread entry point. It locks the OS
// thread, converts interleaved float32 in/out slices to buffer.Buffers
// in buffer.ChunkSize-frame slices, and drives the Engine once per
// slice. Once Init has returned the only allocation here is the
// channel slice list built for the one chunk that fades out after Pause.
func (f *Frontend) callback(in, out []float32) {
	runtime.LockOSThread()

	channels := f.cfg.Channels
	frames := len(in) / channels
	for offset := 0; offset < frames; offset += buffer.ChunkSize {
		n := buffer.ChunkSize
		if offset+n > frames {
			n = frames - offset
		}

		f.fillChunkInput(in, offset, n, channels)

		if f.ramp.ShouldProcessChunk() {
			f.eng.ProcessChunk(f.in, f.out, time.Now(), f.sampleCount)
			if f.ramp.Paused() {
				f.ramp.FadeToSilence(channelsOf(f.out))
			}
		} else {
			f.out.Clear()
		}

		f.drainChunkOutput(out, offset, n, channels)
		f.sampleCount += uint64(n)
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

// Run starts the stream and returns; PortAudio then calls f.callback on
// its own thread until Cleanup stops the stream.
func (f *Frontend) Run() error {
	return f.stream.Start()
}

// Cleanup stops and closes the PortAudio stream and terminates the
// library.
func (f *Frontend) Cleanup() error {
	var firstErr error
	if f.stream != nil {
		if err := f.stream.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := f.stream.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = err
	}
	f.eng.DetachFrontend()
	return firstErr
}

func (f *Frontend) Pause(paused bool) { f.ramp.SetPaused(paused) }

func (f *Frontend) SetOutputLatency(latency time.Duration) {
	f.eng.Transport().SetOutputLatency(latency.Seconds())
}

// ReportXrun forwards a detected overrun/underrun to the Engine, which
// coalesces bursts into a single notification (SPEC_FULL §10).
func (f *Frontend) ReportXrun() {
	f.xrunCount++
	f.eng.ReportXrun()
}
