package builtin

import (
	"fmt"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/mix"
	"github.com/elk-audio/sushi-go/pkg/dsp/reverb"
	"github.com/elk-audio/sushi-go/pkg/param"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

const (
	// ParamReverbRoomSize, ParamReverbDamping and ParamReverbMix are the
	// Reverb processor's parameters.
	ParamReverbRoomSize uint32 = 1
	ParamReverbDamping  uint32 = 2
	ParamReverbMix      uint32 = 3
)

// Reverb is a stereo Freeverb-algorithm reverb, grounded on
// pkg/dsp/reverb.Freeverb's comb/allpass network. Mix is applied here
// rather than via Freeverb's own wet/dry levels so automating it
// behaves like every other processor's linear 0..1 mix parameter.
type Reverb struct {
	processor.Base

	fv *reverb.Freeverb

	// wetL/wetR are pre-allocated scratch so ProcessAudio can collect a
	// full chunk of wet output before crossfading it against the dry
	// input via pkg/dsp/mix.DryWetBufferTo, rather than allocating a
	// fresh slice per chunk.
	wetL, wetR []float32
}

// NewReverb constructs a stereo Reverb processor at sampleRate.
func NewReverb(id uint32, sampleRate float64) *Reverb {
	r := &Reverb{
		Base: processor.NewBase(id, "Reverb", "Modulation", 2, 2),
		fv:   reverb.NewFreeverb(sampleRate),
		wetL: make([]float32, buffer.ChunkSize),
		wetR: make([]float32, buffer.ChunkSize),
	}
	r.fv.SetDryLevel(0) // dry signal is mixed in ProcessAudio, not by Freeverb itself
	r.fv.SetWetLevel(1)

	roomSize := param.New(ParamReverbRoomSize, "Room Size", "", param.TypeFloat, 0.0, 1.0, 0.5)
	r.Parameters().Add(roomSize)

	damping := param.New(ParamReverbDamping, "Damping", "", param.TypeFloat, 0.0, 1.0, 0.5)
	r.Parameters().Add(damping)

	mix := param.New(ParamReverbMix, "Mix", "", param.TypeFloat, 0.0, 1.0, 0.3)
	mix.SetFormatter(func(plain float64) string { return fmt.Sprintf("%.0f%%", plain*100) }, nil)
	r.Parameters().Add(mix)

	return r
}

// ProcessAudio feeds the stereo pair through Freeverb sample by sample
// (ProcessStereo carries the comb/allpass state forward one sample at a
// time) into the wet scratch buffers, then crossfades wet against dry
// by Mix via pkg/dsp/mix.DryWetBufferTo.
func (r *Reverb) ProcessAudio(input, output *buffer.Buffer) {
	r.fv.SetRoomSize(r.Parameters().Get(ParamReverbRoomSize).GetPlainValue())
	r.fv.SetDamping(r.Parameters().Get(ParamReverbDamping).GetPlainValue())
	wetAmount := float32(r.Parameters().Get(ParamReverbMix).GetPlainValue())

	if input.NumChannels() < 2 || output.NumChannels() < 2 {
		n := input.NumChannels()
		if output.NumChannels() < n {
			n = output.NumChannels()
		}
		for ch := 0; ch < n; ch++ {
			buffer.Copy(output.Channel(ch), input.Channel(ch))
		}
		return
	}

	inL, inR := input.Channel(0), input.Channel(1)
	outL, outR := output.Channel(0), output.Channel(1)
	for i := range inL {
		r.wetL[i], r.wetR[i] = r.fv.ProcessStereo(inL[i], inR[i])
	}
	mix.DryWetBufferTo(inL, r.wetL[:len(inL)], wetAmount, outL)
	mix.DryWetBufferTo(inR, r.wetR[:len(inR)], wetAmount, outR)
}

func (r *Reverb) ProcessEvent(e rtevent.Event) { r.Base.ProcessEvent(e) }

func (r *Reverb) State() ([]byte, error) {
	return processor.SaveStateBytes(r.Parameters(), r.CurrentProgram(), r.Bypassed(), nil)
}

func (r *Reverb) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, r.Parameters())
}
