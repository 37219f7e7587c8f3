// Package track implements an ordered chain of Processors sharing I/O
// routing, gain, pan, timing and its own RT event inbox.
package track

import (
	"math"
	"sync/atomic"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp"
	"github.com/elk-audio/sushi-go/pkg/dsp/analysis"
	"github.com/elk-audio/sushi-go/pkg/dsp/utility"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
	"github.com/elk-audio/sushi-go/pkg/rtqueue"
)

// dcBlockCutoffHz is the DC-blocking highpass cutoff applied to every
// track's chain output before gain/pan, once EnableMetering has set a
// sample rate: low enough to leave audible content untouched while
// still removing the DC buildup a feedback delay or asymmetric
// waveshaper can introduce upstream.
const dcBlockCutoffHz = 10.0

// softClipThreshold is the level above which applyGainAndPan rounds a
// clipped sample off via dsp.SoftClip rather than leaving it hard-cut;
// below it a clipped channel's untouched samples pass straight through.
const softClipThreshold = 0.95

// Kind is the track's role in the engine's per-chunk pass, per spec.md
// §3/§4.3.
type Kind int

const (
	KindRegular Kind = iota
	KindPre
	KindPost
)

// Track owns an ordered Processor chain and the buffers it needs to run
// that chain without allocating in ProcessChunk.
type Track struct {
	id       uint32
	name     string
	kind     Kind
	channels int

	processors []processor.Processor
	stageBufs  []*buffer.Buffer // one extra buffer per processor boundary

	input  *buffer.Buffer
	output *buffer.Buffer

	inbox *rtqueue.Queue

	gainNormalized atomic.Uint64 // float64 bits, linear domain
	pan            atomic.Uint64 // float64 bits, -1..1

	clipped atomic.Bool

	cpuNanosEWMA atomic.Uint64 // float64 bits

	// peakMeter is nil until EnableMetering is called; ProcessChunk
	// skips metering entirely in that case so a track can opt out of
	// the conversion-and-decay cost.
	peakMeter   *analysis.PeakMeter
	peakScratch []float64

	// dcBlocker is nil until EnableMetering is called, same as peakMeter.
	dcBlocker *utility.DCBlocker
}

// New constructs a Track with the given id, kind and channel count. The
// input/output working buffers and one stage buffer per processor slot
// are pre-allocated up front so Track.ProcessChunk never allocates.
func New(id uint32, name string, kind Kind, channels int, inboxCapacity int) *Track {
	t := &Track{
		id:       id,
		name:     name,
		kind:     kind,
		channels: channels,
		input:    buffer.NewOwning(channels),
		output:   buffer.NewOwning(channels),
		inbox:    rtqueue.New(inboxCapacity),
	}
	t.SetGain(1.0)
	t.SetPan(0)
	return t
}

func (t *Track) ID() uint32     { return t.id }
func (t *Track) Name() string   { return t.name }
func (t *Track) Kind() Kind     { return t.kind }
func (t *Track) Channels() int  { return t.channels }
func (t *Track) Inbox() *rtqueue.Queue { return t.inbox }

// SetGain sets the track's linear gain (not normalized dB - a plain
// multiplier), RT-safe via atomic store.
func (t *Track) SetGain(linear float64) {
	t.gainNormalized.Store(math.Float64bits(linear))
}

// Gain returns the track's current linear gain.
func (t *Track) Gain() float64 {
	return math.Float64frombits(t.gainNormalized.Load())
}

// SetPan sets the track's pan position in [-1,1], RT-safe via atomic
// store.
func (t *Track) SetPan(pan float64) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	t.pan.Store(math.Float64bits(pan))
}

// Pan returns the track's current pan position.
func (t *Track) Pan() float64 {
	return math.Float64frombits(t.pan.Load())
}

// Clipped reports whether any sample's magnitude exceeded 1.0 since the
// last call to ResetClipped (spec.md SPEC_FULL §10: clip detection
// flag).
func (t *Track) Clipped() bool {
	return t.clipped.Load()
}

// ResetClipped clears the clip-detected flag.
func (t *Track) ResetClipped() {
	t.clipped.Store(false)
}

// CPUNanos returns a rolling-average per-chunk processing time in
// nanoseconds (SPEC_FULL §10: CPU timing per track).
func (t *Track) CPUNanos() float64 {
	return math.Float64frombits(t.cpuNanosEWMA.Load())
}

// EnableMetering attaches a peak/hold meter (pkg/dsp/analysis.PeakMeter)
// and a DC-blocking highpass (pkg/dsp/utility.DCBlocker) to this track,
// both sized to the engine's sample rate. Not RT-safe: call once from
// the non-RT thread before the track is added to a running graph.
func (t *Track) EnableMetering(sampleRate float64) {
	t.peakMeter = analysis.NewPeakMeter(sampleRate)
	t.peakScratch = make([]float64, buffer.ChunkSize)
	t.dcBlocker = utility.NewDCBlocker(t.channels, dcBlockCutoffHz, sampleRate)
}

// PeakDB returns the track's current peak output level in dB, or
// -Inf if EnableMetering was never called.
func (t *Track) PeakDB() float64 {
	if t.peakMeter == nil {
		return math.Inf(-1)
	}
	return t.peakMeter.GetPeakDB()
}

// PeakHoldDB returns the track's held peak level in dB (decays back to
// the live peak after the meter's hold time elapses).
func (t *Track) PeakHoldDB() float64 {
	if t.peakMeter == nil {
		return math.Inf(-1)
	}
	return t.peakMeter.GetHoldDB()
}

// AddProcessor appends a processor to the chain and grows the
// pre-allocated stage buffers to match. Not RT-safe: callers must only
// invoke this while the track is not concurrently being processed.
// Engine.AddProcessorToTrack calls it directly from the non-RT thread,
// without going through the RT event queue.
func (t *Track) AddProcessor(p processor.Processor) {
	t.processors = append(t.processors, p)
	t.stageBufs = append(t.stageBufs, buffer.NewOwning(t.channels))
}

// RemoveProcessor detaches a processor by id, returning it (or nil if
// not found) so the caller can hand it to the deletion queue.
func (t *Track) RemoveProcessor(id uint32) processor.Processor {
	for i, p := range t.processors {
		if p.ID() == id {
			removed := p
			t.processors = append(t.processors[:i], t.processors[i+1:]...)
			t.stageBufs = append(t.stageBufs[:i], t.stageBufs[i+1:]...)
			return removed
		}
	}
	return nil
}

// Processors returns the track's processor chain in order.
func (t *Track) Processors() []processor.Processor {
	return t.processors
}

// ProcessChunk runs the track's per-chunk algorithm (spec.md §4.3):
// drain the inbox, copy input into the chain head, run each processor in
// order, sum/apply gain and pan, and track CPU timing and clip state.
// input is copied into the track's own input buffer so callers may reuse
// their buffer immediately after this call returns.
func (t *Track) ProcessChunk(input *buffer.Buffer, startNanos func() int64, endNanos func(int64) int64) {
	var started int64
	if startNanos != nil {
		started = startNanos()
	}

	t.inbox.DrainUpTo(t.inbox.Capacity(), func(e rtevent.Event) bool {
		t.dispatchEvent(e)
		return true
	})

	for ch := 0; ch < t.channels && ch < input.NumChannels(); ch++ {
		buffer.Copy(t.input.Channel(ch), input.Channel(ch))
	}

	cur := t.input
	for i, p := range t.processors {
		dst := t.stageBufs[i]
		if p.Bypassed() {
			for ch := 0; ch < t.channels; ch++ {
				buffer.Copy(dst.Channel(ch), cur.Channel(ch))
			}
		} else {
			p.ProcessAudio(cur, dst)
		}
		cur = dst
	}

	if t.dcBlocker != nil {
		for ch := 0; ch < t.channels; ch++ {
			t.dcBlocker.ProcessBuffer(cur.Channel(ch), ch)
		}
	}

	t.applyGainAndPan(cur, t.output)
	t.updatePeakMeter()

	if endNanos != nil {
		elapsed := endNanos(started)
		t.updateCPUEWMA(float64(elapsed))
	}
}

// Output returns the track's final per-chunk output buffer.
func (t *Track) Output() *buffer.Buffer {
	return t.output
}

func (t *Track) dispatchEvent(e rtevent.Event) {
	switch e.Kind {
	case rtevent.KindNoteOn, rtevent.KindNoteOff, rtevent.KindAftertouch, rtevent.KindController:
		// Keyboard-style events address the track as a whole; forward to
		// every processor (a synth further downstream will react, earlier
		// stages will ignore kinds they don't recognize).
		for _, p := range t.processors {
			p.ProcessEvent(e)
		}
	default:
		for _, p := range t.processors {
			p.ProcessEvent(e)
		}
	}
}

func (t *Track) applyGainAndPan(src, dst *buffer.Buffer) {
	gain := t.Gain()
	pan := t.Pan()

	// Equal-power pan only applies to a stereo pair; anything else is
	// passed through with gain only, per spec.md §4.3 step 4.
	if t.channels == 2 {
		leftGain, rightGain := equalPowerPan(pan)
		clipped := false
		l, r := src.Channel(0), src.Channel(1)
		ol, or := dst.Channel(0), dst.Channel(1)
		for i := range l {
			ol[i] = l[i] * float32(gain*leftGain)
			or[i] = r[i] * float32(gain*rightGain)
			if abs32(ol[i]) > 1 || abs32(or[i]) > 1 {
				clipped = true
			}
		}
		if clipped {
			t.clipped.Store(true)
			dsp.SoftClip(ol, softClipThreshold)
			dsp.SoftClip(or, softClipThreshold)
		}
		return
	}

	clipped := false
	for ch := 0; ch < t.channels; ch++ {
		in := src.Channel(ch)
		out := dst.Channel(ch)
		for i := range in {
			out[i] = in[i] * float32(gain)
			if abs32(out[i]) > 1 {
				clipped = true
			}
		}
		if clipped {
			dsp.SoftClip(out, softClipThreshold)
		}
	}
	if clipped {
		t.clipped.Store(true)
	}
}

func equalPowerPan(pan float64) (left, right float64) {
	// pan in [-1,1], 0 centered; quarter-sine equal-power law normalized
	// by sqrt(2) so center pan is unity gain on both channels.
	angle := (pan + 1) * math.Pi / 4
	return math.Sqrt2 * math.Cos(angle), math.Sqrt2 * math.Sin(angle)
}

// updatePeakMeter feeds this chunk's output into the peak meter, taking
// the per-sample max across channels so a multichannel track still
// reports one peak curve. No-op (and no allocation) when metering was
// never enabled.
func (t *Track) updatePeakMeter() {
	if t.peakMeter == nil {
		return
	}
	n := t.output.NumChannels()
	for i := range t.peakScratch {
		var m float32
		for ch := 0; ch < n; ch++ {
			v := abs32(t.output.Channel(ch)[i])
			if v > m {
				m = v
			}
		}
		t.peakScratch[i] = float64(m)
	}
	t.peakMeter.Process(t.peakScratch)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

const ewmaAlpha = 0.1

func (t *Track) updateCPUEWMA(sampleNanos float64) {
	prev := t.CPUNanos()
	next := prev + ewmaAlpha*(sampleNanos-prev)
	t.cpuNanosEWMA.Store(math.Float64bits(next))
}
