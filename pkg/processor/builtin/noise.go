package builtin

import (
	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/utility"
	"github.com/elk-audio/sushi-go/pkg/param"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

const (
	// ParamNoiseType selects among utility.WhiteNoise..utility.VioletNoise
	// (rounded to the nearest integer) and ParamNoiseLevel is the linear
	// output gain, smoothed to avoid a zipper click on level changes.
	ParamNoiseType  uint32 = 1
	ParamNoiseLevel uint32 = 2

	levelSmoothingSeconds = 0.02
)

// Noise is a two-channel test-signal generator, grounded on
// pkg/dsp/utility.NoiseGenerator. Each channel owns its own generator
// instance so stereo output is decorrelated rather than the same noise
// panned to both sides, and a shared utility.SmoothParameter ramps
// level changes instead of jumping instantly.
type Noise struct {
	processor.Base

	gens  []*utility.NoiseGenerator
	level *utility.SmoothParameter

	// levelScratch holds one chunk's worth of smoothed level values,
	// computed once per chunk and shared across channels so the
	// smoother doesn't advance once per channel per sample.
	levelScratch []float32
}

// NewNoise constructs a stereo Noise processor at sampleRate.
func NewNoise(id uint32, sampleRate float64) *Noise {
	n := &Noise{
		Base: processor.NewBase(id, "Noise", "Generator", 0, 2),
		gens: []*utility.NoiseGenerator{
			utility.NewNoiseGenerator(utility.WhiteNoise),
			utility.NewNoiseGenerator(utility.WhiteNoise),
		},
		level:        utility.NewSmoothParameter(levelSmoothingSeconds, sampleRate),
		levelScratch: make([]float32, buffer.ChunkSize),
	}
	n.level.SetImmediate(0.0)

	noiseType := param.New(ParamNoiseType, "Type", "", param.TypeFloat, 0.0, float64(utility.VioletNoise), 0.0)
	n.Parameters().Add(noiseType)

	level := param.New(ParamNoiseLevel, "Level", "", param.TypeFloat, 0.0, 1.0, 0.2)
	n.Parameters().Add(level)

	return n
}

// ProcessAudio pushes the current type/level parameters into the
// generators once per chunk, then fills every output channel sample by
// sample with its own generator scaled by the smoothed level.
func (n *Noise) ProcessAudio(_, output *buffer.Buffer) {
	noiseType := utility.NoiseType(int(n.Parameters().Get(ParamNoiseType).GetPlainValue() + 0.5))
	n.level.SetTarget(n.Parameters().Get(ParamNoiseLevel).GetPlainValue())

	nCh := output.NumChannels()
	if nCh > len(n.gens) {
		nCh = len(n.gens)
	}
	if nCh == 0 {
		return
	}

	levels := n.levelScratch[:len(output.Channel(0))]
	for i := range levels {
		levels[i] = float32(n.level.Process())
	}

	for ch := 0; ch < nCh; ch++ {
		gen := n.gens[ch]
		gen.SetType(noiseType)
		out := output.Channel(ch)
		for i := range out {
			out[i] = gen.Next() * levels[i]
		}
	}
}

func (n *Noise) ProcessEvent(e rtevent.Event) { n.Base.ProcessEvent(e) }

func (n *Noise) State() ([]byte, error) {
	return processor.SaveStateBytes(n.Parameters(), n.CurrentProgram(), n.Bypassed(), nil)
}

func (n *Noise) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, n.Parameters())
}
