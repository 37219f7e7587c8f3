package builtin

import (
	"fmt"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/filter"
	"github.com/elk-audio/sushi-go/pkg/param"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

const (
	// ParamFilterCutoff and ParamFilterResonance are the Filter
	// processor's two parameters.
	ParamFilterCutoff    uint32 = 1
	ParamFilterResonance uint32 = 2

	minCutoffHz = 20.0
	maxCutoffHz = 20000.0
	minQ        = 0.5
	maxQ        = 8.0
)

// Filter is a two-channel resonant lowpass, grounded on
// pkg/dsp/filter/biquad.go's coefficient-setting Direct-Form-I
// implementation. Coefficients are recomputed once per chunk from the
// current parameter values, at chunk start, matching every other
// processor's "no within-chunk interpolation" contract.
type Filter struct {
	processor.Base

	sampleRate float64
	biquad     *filter.Biquad
}

// NewFilter constructs a stereo lowpass Filter at sampleRate.
func NewFilter(id uint32, sampleRate float64) *Filter {
	f := &Filter{
		Base:       processor.NewBase(id, "Filter", "Filter", 2, 2),
		sampleRate: sampleRate,
		biquad:     filter.NewBiquad(2),
	}

	cutoff := param.New(ParamFilterCutoff, "Cutoff", "Hz", param.TypeFloat, minCutoffHz, maxCutoffHz, 1.0)
	cutoff.DomainMap = param.Logarithmic{}
	cutoff.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.0f Hz", plain) }, nil)
	f.Parameters().Add(cutoff)

	q := param.New(ParamFilterResonance, "Resonance", "Q", param.TypeFloat, minQ, maxQ, 0.2)
	q.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.2f", plain) }, nil)
	f.Parameters().Add(q)

	return f
}

// ProcessAudio recomputes the lowpass coefficients from the current
// parameter values, then filters every channel in place.
func (f *Filter) ProcessAudio(input, output *buffer.Buffer) {
	cutoff := f.Parameters().Get(ParamFilterCutoff).GetPlainValue()
	q := f.Parameters().Get(ParamFilterResonance).GetPlainValue()
	f.biquad.SetLowpass(f.sampleRate, cutoff, q)

	n := input.NumChannels()
	if output.NumChannels() < n {
		n = output.NumChannels()
	}
	for ch := 0; ch < n; ch++ {
		in := input.Channel(ch)
		out := output.Channel(ch)
		copy(out, in)
		f.biquad.Process(out, ch)
	}
}

func (f *Filter) ProcessEvent(e rtevent.Event) { f.Base.ProcessEvent(e) }

func (f *Filter) State() ([]byte, error) {
	return processor.SaveStateBytes(f.Parameters(), f.CurrentProgram(), f.Bypassed(), nil)
}

func (f *Filter) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, f.Parameters())
}
