package builtin

import (
	"fmt"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/delay"
	mixpkg "github.com/elk-audio/sushi-go/pkg/dsp/mix"
	"github.com/elk-audio/sushi-go/pkg/param"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

const (
	// ParamDelayTime, ParamDelayFeedback and ParamDelayMix are the Delay
	// processor's parameters.
	ParamDelayTime     uint32 = 1
	ParamDelayFeedback uint32 = 2
	ParamDelayMix      uint32 = 3

	minDelayMs = 1.0
	maxDelayMs = 2000.0
	maxDelaySeconds = maxDelayMs / 1000.0
)

// Delay is a two-channel feedback delay line, one pkg/dsp/delay.Line per
// channel so each side of a stereo signal keeps its own write position.
type Delay struct {
	processor.Base

	lines []*delay.Line

	// wet is pre-allocated scratch shared by every channel's pass: each
	// channel's wet tap is collected into it before crossfading against
	// the dry input via pkg/dsp/mix.DryWetBufferTo.
	wet []float32
}

// NewDelay constructs a stereo Delay processor at sampleRate.
func NewDelay(id uint32, sampleRate float64) *Delay {
	d := &Delay{
		Base: processor.NewBase(id, "Delay", "Delay", 2, 2),
		lines: []*delay.Line{
			delay.New(maxDelaySeconds, sampleRate),
			delay.New(maxDelaySeconds, sampleRate),
		},
		wet: make([]float32, buffer.ChunkSize),
	}

	t := param.New(ParamDelayTime, "Time", "ms", param.TypeFloat, minDelayMs, maxDelayMs, 0.2)
	t.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.0f ms", plain) }, nil)
	d.Parameters().Add(t)

	fb := param.New(ParamDelayFeedback, "Feedback", "", param.TypeFloat, 0.0, 0.95, 0.3)
	d.Parameters().Add(fb)

	mix := param.New(ParamDelayMix, "Mix", "", param.TypeFloat, 0.0, 1.0, 0.3)
	d.Parameters().Add(mix)

	return d
}

// ProcessAudio reads the delay/feedback/mix parameters once per chunk
// and runs each channel through its own delay line with feedback.
func (d *Delay) ProcessAudio(input, output *buffer.Buffer) {
	delayMs := d.Parameters().Get(ParamDelayTime).GetPlainValue()
	feedback := float32(d.Parameters().Get(ParamDelayFeedback).GetPlainValue())
	mix := float32(d.Parameters().Get(ParamDelayMix).GetPlainValue())

	n := input.NumChannels()
	if output.NumChannels() < n {
		n = output.NumChannels()
	}
	if n > len(d.lines) {
		n = len(d.lines)
	}
	for ch := 0; ch < n; ch++ {
		in := input.Channel(ch)
		out := output.Channel(ch)
		line := d.lines[ch]
		wetBuf := d.wet[:len(in)]
		for i, sample := range in {
			tap := line.ReadMs(delayMs)
			line.Write(sample + tap*feedback)
			wetBuf[i] = tap
		}
		mixpkg.DryWetBufferTo(in, wetBuf, mix, out)
	}
}

func (d *Delay) ProcessEvent(e rtevent.Event) { d.Base.ProcessEvent(e) }

func (d *Delay) State() ([]byte, error) {
	return processor.SaveStateBytes(d.Parameters(), d.CurrentProgram(), d.Bypassed(), nil)
}

func (d *Delay) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, d.Parameters())
}
