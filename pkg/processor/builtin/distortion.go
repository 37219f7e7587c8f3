package builtin

import (
	"fmt"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/distortion"
	"github.com/elk-audio/sushi-go/pkg/param"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

const (
	// ParamDistortionDrive and ParamDistortionMix are the Distortion
	// processor's parameters; the curve itself is fixed at construction.
	ParamDistortionDrive uint32 = 1
	ParamDistortionMix   uint32 = 2
)

// Distortion wraps pkg/dsp/distortion.Waveshaper, one instance per
// channel since a Waveshaper carries no per-sample state beyond its
// drive/mix settings but the dsp package models it as an owned value
// per signal path.
type Distortion struct {
	processor.Base

	shapers []*distortion.Waveshaper
}

// NewDistortion constructs a stereo soft-clip Distortion processor.
func NewDistortion(id uint32) *Distortion {
	d := &Distortion{
		Base: processor.NewBase(id, "Distortion", "Dynamics", 2, 2),
		shapers: []*distortion.Waveshaper{
			distortion.NewWaveshaper(distortion.CurveSoftClip),
			distortion.NewWaveshaper(distortion.CurveSoftClip),
		},
	}

	drive := param.New(ParamDistortionDrive, "Drive", "", param.TypeFloat, 1.0, 20.0, 0.1)
	drive.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.1fx", plain) }, nil)
	d.Parameters().Add(drive)

	mix := param.New(ParamDistortionMix, "Mix", "", param.TypeFloat, 0.0, 1.0, 1.0)
	d.Parameters().Add(mix)

	return d
}

// ProcessAudio reads drive/mix once per chunk, applies it to every
// shaper, then runs each channel's samples through its own shaper.
func (d *Distortion) ProcessAudio(input, output *buffer.Buffer) {
	drive := d.Parameters().Get(ParamDistortionDrive).GetPlainValue()
	mix := d.Parameters().Get(ParamDistortionMix).GetPlainValue()

	n := input.NumChannels()
	if output.NumChannels() < n {
		n = output.NumChannels()
	}
	if n > len(d.shapers) {
		n = len(d.shapers)
	}
	for ch := 0; ch < n; ch++ {
		shaper := d.shapers[ch]
		shaper.SetDrive(drive)
		shaper.SetMix(mix)

		in := input.Channel(ch)
		out := output.Channel(ch)
		for i, sample := range in {
			out[i] = float32(shaper.Process(float64(sample)))
		}
	}
}

func (d *Distortion) ProcessEvent(e rtevent.Event) { d.Base.ProcessEvent(e) }

func (d *Distortion) State() ([]byte, error) {
	return processor.SaveStateBytes(d.Parameters(), d.CurrentProgram(), d.Bypassed(), nil)
}

func (d *Distortion) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, d.Parameters())
}
