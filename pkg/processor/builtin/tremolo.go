package builtin

import (
	"fmt"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/modulation"
	"github.com/elk-audio/sushi-go/pkg/param"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

const (
	// ParamTremoloRate and ParamTremoloDepth are the Tremolo processor's
	// parameters; waveform and stereo phase are fixed at construction.
	ParamTremoloRate  uint32 = 1
	ParamTremoloDepth uint32 = 2
)

// Tremolo is a stereo amplitude-modulation effect, grounded on
// pkg/dsp/modulation.Tremolo's sine-LFO gain modulation. One shared
// Tremolo instance drives both channels via ProcessStereoBuffer so the
// two sides stay in the fixed phase relationship the dsp type already
// tracks internally.
type Tremolo struct {
	processor.Base

	trem *modulation.Tremolo
}

// NewTremolo constructs a stereo Tremolo at sampleRate.
func NewTremolo(id uint32, sampleRate float64) *Tremolo {
	t := &Tremolo{
		Base: processor.NewBase(id, "Tremolo", "Modulation", 2, 2),
		trem: modulation.NewTremolo(sampleRate),
	}

	rate := param.New(ParamTremoloRate, "Rate", "Hz", param.TypeFloat, 0.1, 20.0, 0.245)
	rate.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.2f Hz", plain) }, nil)
	t.Parameters().Add(rate)

	depth := param.New(ParamTremoloDepth, "Depth", "", param.TypeFloat, 0.0, 1.0, 0.5)
	depth.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.0f%%", plain*100) }, nil)
	t.Parameters().Add(depth)

	return t
}

// ProcessAudio reads rate/depth once per chunk, then modulates both
// channels' amplitude in lockstep through the shared LFO.
func (t *Tremolo) ProcessAudio(input, output *buffer.Buffer) {
	t.trem.SetRate(t.Parameters().Get(ParamTremoloRate).GetPlainValue())
	t.trem.SetDepth(t.Parameters().Get(ParamTremoloDepth).GetPlainValue())

	if input.NumChannels() < 2 || output.NumChannels() < 2 {
		n := input.NumChannels()
		if output.NumChannels() < n {
			n = output.NumChannels()
		}
		for ch := 0; ch < n; ch++ {
			t.trem.ProcessBuffer(input.Channel(ch), output.Channel(ch))
		}
		return
	}

	t.trem.ProcessStereoBuffer(input.Channel(0), input.Channel(1), output.Channel(0), output.Channel(1))
}

func (t *Tremolo) ProcessEvent(e rtevent.Event) { t.Base.ProcessEvent(e) }

func (t *Tremolo) State() ([]byte, error) {
	return processor.SaveStateBytes(t.Parameters(), t.CurrentProgram(), t.Bypassed(), nil)
}

func (t *Tremolo) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, t.Parameters())
}
