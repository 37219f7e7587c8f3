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
	// ParamMorphCutoff, ParamMorphResonance and ParamMorphShape are the
	// MorphFilter processor's parameters.
	ParamMorphCutoff    uint32 = 1
	ParamMorphResonance uint32 = 2
	ParamMorphShape     uint32 = 3
)

// MorphFilter is a two-channel state-variable filter whose response
// sweeps continuously from lowpass through bandpass, highpass and
// notch as Shape moves from 0 to 1, grounded on
// pkg/dsp/filter/svf.go's MultiModeSVF. Unlike Filter's Biquad, a
// single SVF instance already tracks every channel's state
// internally, so MorphFilter runs each channel through the same
// instance by index rather than owning one Biquad per channel.
type MorphFilter struct {
	processor.Base

	sampleRate float64
	svf        *filter.MultiModeSVF
}

// NewMorphFilter constructs a stereo MorphFilter at sampleRate.
func NewMorphFilter(id uint32, sampleRate float64) *MorphFilter {
	m := &MorphFilter{
		Base:       processor.NewBase(id, "MorphFilter", "Filter", 2, 2),
		sampleRate: sampleRate,
		svf:        filter.NewMultiModeSVF(2),
	}

	cutoff := param.New(ParamMorphCutoff, "Cutoff", "Hz", param.TypeFloat, minCutoffHz, maxCutoffHz, 1.0)
	cutoff.DomainMap = param.Logarithmic{}
	cutoff.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.0f Hz", plain) }, nil)
	m.Parameters().Add(cutoff)

	q := param.New(ParamMorphResonance, "Resonance", "Q", param.TypeFloat, minQ, maxQ, 0.2)
	q.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.2f", plain) }, nil)
	m.Parameters().Add(q)

	shape := param.New(ParamMorphShape, "Shape", "", param.TypeFloat, 0.0, 1.0, 0.0)
	shape.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.0f%%", plain*100) }, nil)
	m.Parameters().Add(shape)

	return m
}

// ProcessAudio recomputes frequency, Q and morph shape from the current
// parameter values once per chunk, then runs each channel through the
// shared SVF in place.
func (m *MorphFilter) ProcessAudio(input, output *buffer.Buffer) {
	cutoff := m.Parameters().Get(ParamMorphCutoff).GetPlainValue()
	q := m.Parameters().Get(ParamMorphResonance).GetPlainValue()
	shape := m.Parameters().Get(ParamMorphShape).GetPlainValue()

	m.svf.SetFrequencyAndQ(m.sampleRate, cutoff, q)
	m.svf.SetMode(shape)

	n := input.NumChannels()
	if output.NumChannels() < n {
		n = output.NumChannels()
	}
	for ch := 0; ch < n; ch++ {
		in := input.Channel(ch)
		out := output.Channel(ch)
		copy(out, in)
		m.svf.Process(out, ch)
	}
}

func (m *MorphFilter) ProcessEvent(e rtevent.Event) { m.Base.ProcessEvent(e) }

func (m *MorphFilter) State() ([]byte, error) {
	return processor.SaveStateBytes(m.Parameters(), m.CurrentProgram(), m.Bypassed(), nil)
}

func (m *MorphFilter) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, m.Parameters())
}
