package builtin

import (
	"fmt"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/dynamics"
	"github.com/elk-audio/sushi-go/pkg/param"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

const (
	// ParamCompressorThreshold, ParamCompressorRatio,
	// ParamCompressorAttack, ParamCompressorRelease and
	// ParamCompressorMakeup are the Compressor processor's parameters.
	ParamCompressorThreshold uint32 = 1
	ParamCompressorRatio     uint32 = 2
	ParamCompressorAttack    uint32 = 3
	ParamCompressorRelease   uint32 = 4
	ParamCompressorMakeup    uint32 = 5
)

// Compressor is a stereo feed-forward dynamics processor, grounded on
// pkg/dsp/dynamics.Compressor's soft-knee peak detector. Both channels
// share one Compressor instance via ProcessStereo so the gain reduction
// tracks the louder of the two, matching how a stereo bus compressor
// is normally linked.
type Compressor struct {
	processor.Base

	comp *dynamics.Compressor
}

// NewCompressor constructs a stereo Compressor at sampleRate.
func NewCompressor(id uint32, sampleRate float64) *Compressor {
	c := &Compressor{
		Base: processor.NewBase(id, "Compressor", "Dynamics", 2, 2),
		comp: dynamics.NewCompressor(sampleRate),
	}

	threshold := param.New(ParamCompressorThreshold, "Threshold", "dB", param.TypeFloat, -60.0, 0.0, 40.0/60.0)
	threshold.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.1f dB", plain) }, nil)
	c.Parameters().Add(threshold)

	ratio := param.New(ParamCompressorRatio, "Ratio", ":1", param.TypeFloat, 1.0, 20.0, 3.0/19.0)
	c.Parameters().Add(ratio)

	attack := param.New(ParamCompressorAttack, "Attack", "ms", param.TypeFloat, 0.1, 100.0, 4.9/99.9)
	attack.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.1f ms", plain) }, nil)
	c.Parameters().Add(attack)

	release := param.New(ParamCompressorRelease, "Release", "ms", param.TypeFloat, 1.0, 1000.0, 49.0/999.0)
	release.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.0f ms", plain) }, nil)
	c.Parameters().Add(release)

	makeup := param.New(ParamCompressorMakeup, "Makeup", "dB", param.TypeFloat, 0.0, 24.0, 0.0)
	c.Parameters().Add(makeup)

	return c
}

// ProcessAudio pushes the current parameter values into the wrapped
// compressor once per chunk, then compresses the stereo pair in place.
func (c *Compressor) ProcessAudio(input, output *buffer.Buffer) {
	c.comp.SetThreshold(c.Parameters().Get(ParamCompressorThreshold).GetPlainValue())
	c.comp.SetRatio(c.Parameters().Get(ParamCompressorRatio).GetPlainValue())
	c.comp.SetAttack(c.Parameters().Get(ParamCompressorAttack).GetPlainValue() / 1000.0)
	c.comp.SetRelease(c.Parameters().Get(ParamCompressorRelease).GetPlainValue() / 1000.0)
	c.comp.SetMakeupGain(c.Parameters().Get(ParamCompressorMakeup).GetPlainValue())

	if input.NumChannels() < 2 || output.NumChannels() < 2 {
		n := input.NumChannels()
		if output.NumChannels() < n {
			n = output.NumChannels()
		}
		for ch := 0; ch < n; ch++ {
			c.comp.ProcessBuffer(input.Channel(ch), output.Channel(ch))
		}
		return
	}

	c.comp.ProcessStereo(input.Channel(0), input.Channel(1), output.Channel(0), output.Channel(1))
}

func (c *Compressor) ProcessEvent(e rtevent.Event) { c.Base.ProcessEvent(e) }

func (c *Compressor) State() ([]byte, error) {
	return processor.SaveStateBytes(c.Parameters(), c.CurrentProgram(), c.Bypassed(), nil)
}

func (c *Compressor) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, c.Parameters())
}
