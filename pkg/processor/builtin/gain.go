// Package builtin provides the internal (code-defined) Processor
// variants used to exercise the engine in tests and as minimal
// reference plugins, grounded on the teacher's own example plugins
// (examples/gain, examples/smoothed_gain) and pkg/dsp/gain/gain.go.
package builtin

import (
	"fmt"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/gain"
	"github.com/elk-audio/sushi-go/pkg/param"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

const (
	// ParamGain is the gain processor's only parameter id.
	ParamGain uint32 = 1

	minDB = -24.0
	maxDB = 24.0
)

// Gain is a two-channel gain stage: a single "gain" parameter, normalized
// 0.5 linearly mapped to +/-24dB so 0.5 means 0dB (unity), matching
// spec.md §8 scenario 1 ("gain = 0.5 normalized, linear-mapped to +/-24dB
// giving 0 dB").
type Gain struct {
	processor.Base
}

// NewGain constructs a stereo Gain processor with the given id.
func NewGain(id uint32) *Gain {
	g := &Gain{Base: processor.NewBase(id, "Gain", "Dynamics", 2, 2)}
	p := param.New(ParamGain, "Gain", "dB", param.TypeFloat, minDB, maxDB, 0.5)
	p.DomainMap = param.Linear{}
	p.SetFormatter(func(plain float64) string {
		if plain <= minDB {
			return "-inf dB"
		}
		return fmt.Sprintf("%.2f dB", plain)
	}, nil)
	g.Parameters().Add(p)
	return g
}

// silenceFloorDB is the effective floor applied when the normalized
// value sits at (or within epsilon of) zero: spec.md §8 scenario 3 reads
// "gain id = 0.0 (meaning -inf dB, but clamped to -120 dB ~= factor
// 1e-6)", which the plain linear [-24,24] domain alone cannot produce
// (that domain's floor at normalized 0 is -24dB). Resolved per DESIGN.md:
// normalized 0 is treated as the conventional "knob at hard left = off"
// sentinel and maps to silenceFloorDB regardless of the domain's literal
// endpoint, while every other normalized value follows the linear
// +/-24dB mapping used for automation.
const silenceFloorDB = -120.0
const silenceEpsilon = 1e-9

// ProcessAudio applies the current gain parameter value uniformly across
// the chunk. Parameter changes are applied at chunk start per the
// Processor contract (spec.md §4.2, "apply in order at chunk boundary"),
// so ProcessAudio itself does not interpolate within the chunk — any
// audible smoothing across parameter changes is the Track's job (spec.md
// §4.3 step 4: "Apply per-Track gain (smoothed across the chunk if
// changed)"), not every individual processor's.
func (g *Gain) ProcessAudio(input, output *buffer.Buffer) {
	p := g.Parameters().Get(ParamGain)
	normalized := p.GetValue()
	targetDB := p.GetPlainValue()
	if normalized <= silenceEpsilon {
		targetDB = silenceFloorDB
	}
	linear := gain.DbToLinear32(float32(targetDB))

	n := input.NumChannels()
	if output.NumChannels() < n {
		n = output.NumChannels()
	}
	for ch := 0; ch < n; ch++ {
		gain.ApplyBufferTo(input.Channel(ch), linear, output.Channel(ch))
	}
}

// ProcessEvent delegates to Base for parameter/property/bypass handling.
func (g *Gain) ProcessEvent(e rtevent.Event) {
	g.Base.ProcessEvent(e)
}

// State serializes the gain parameter using the shared processor state
// format.
func (g *Gain) State() ([]byte, error) {
	return processor.SaveStateBytes(g.Parameters(), g.CurrentProgram(), g.Bypassed(), nil)
}

// SetState restores from a blob produced by State. sync is accepted for
// interface compliance; this processor's restore only touches atomics so
// it is always RT-safe regardless.
func (g *Gain) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, g.Parameters())
}
