package builtin

import (
	"fmt"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/pan"
	"github.com/elk-audio/sushi-go/pkg/param"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

const (
	// ParamAutoPanRate and ParamAutoPanDepth are the AutoPanner
	// processor's parameters.
	ParamAutoPanRate  uint32 = 1
	ParamAutoPanDepth uint32 = 2

	minAutoPanHz = 0.05
	maxAutoPanHz = 10.0
)

// AutoPanner sweeps a mono-summed input across the stereo field with a
// sine LFO, grounded on pkg/dsp/pan.AutoPan. Unlike Track's own
// per-chunk equal-power pan (pkg/track/track.go), this is a regular
// two-in/two-out effect processor: it sums its stereo input to mono
// before handing it to the LFO panner, so it is meant to sit in a
// track's processor chain rather than replace the track's own pan law.
type AutoPanner struct {
	processor.Base

	lfo        *pan.AutoPan
	sampleRate float64
	mono       []float32
}

// NewAutoPanner constructs a stereo AutoPanner at sampleRate.
func NewAutoPanner(id uint32, sampleRate float64) *AutoPanner {
	a := &AutoPanner{
		Base:       processor.NewBase(id, "AutoPanner", "Modulation", 2, 2),
		lfo:        pan.NewAutoPan(1.0, 1.0, pan.ConstantPower),
		sampleRate: sampleRate,
		mono:       make([]float32, buffer.ChunkSize),
	}

	rate := param.New(ParamAutoPanRate, "Rate", "Hz", param.TypeFloat, minAutoPanHz, maxAutoPanHz, 0.3)
	rate.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.2f Hz", plain) }, nil)
	a.Parameters().Add(rate)

	depth := param.New(ParamAutoPanDepth, "Depth", "", param.TypeFloat, 0.0, 1.0, 1.0)
	depth.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.0f%%", plain*100) }, nil)
	a.Parameters().Add(depth)

	return a
}

// ProcessAudio sums the stereo input to mono, then re-spreads it across
// the stereo field following the LFO's current rate/depth, reusing the
// pre-allocated mono scratch buffer so no per-chunk allocation occurs.
func (a *AutoPanner) ProcessAudio(input, output *buffer.Buffer) {
	a.lfo.SetRate(float32(a.Parameters().Get(ParamAutoPanRate).GetPlainValue()))
	a.lfo.SetDepth(float32(a.Parameters().Get(ParamAutoPanDepth).GetPlainValue()))

	if input.NumChannels() < 2 || output.NumChannels() < 2 {
		return
	}

	l, r := input.Channel(0), input.Channel(1)
	mono := a.mono[:len(l)]
	for i := range mono {
		mono[i] = (l[i] + r[i]) * 0.5
	}
	a.lfo.Process(mono, float32(a.sampleRate), output.Channel(0), output.Channel(1))
}

func (a *AutoPanner) ProcessEvent(e rtevent.Event) { a.Base.ProcessEvent(e) }

func (a *AutoPanner) State() ([]byte, error) {
	return processor.SaveStateBytes(a.Parameters(), a.CurrentProgram(), a.Bypassed(), nil)
}

func (a *AutoPanner) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, a.Parameters())
}
