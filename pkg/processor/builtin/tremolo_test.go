package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/buffer"
)

func TestTremoloStateRoundTrip(t *testing.T) {
	tr := NewTremolo(1, 48000)
	tr.Parameters().Set(ParamTremoloRate, 0.4)
	tr.Parameters().Set(ParamTremoloDepth, 0.9)

	data, err := tr.State()
	require.NoError(t, err)

	tr2 := NewTremolo(1, 48000)
	require.NoError(t, tr2.SetState(data, true))
	assert.InDelta(t, 0.4, tr2.Parameters().Get(ParamTremoloRate).GetValue(), 1e-9)
	assert.InDelta(t, 0.9, tr2.Parameters().Get(ParamTremoloDepth).GetValue(), 1e-9)
}

func TestTremoloModulatesAmplitude(t *testing.T) {
	tr := NewTremolo(1, 48000)
	tr.Parameters().Set(ParamTremoloDepth, 1.0)

	in := buffer.NewOwning(2)
	out := buffer.NewOwning(2)
	for ch := 0; ch < 2; ch++ {
		for i := range in.Channel(ch) {
			in.Channel(ch)[i] = 1.0
		}
	}

	tr.ProcessAudio(in, out)

	min, max := out.Channel(0)[0], out.Channel(0)[0]
	for _, v := range out.Channel(0) {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	assert.LessOrEqual(t, max, float32(1.0+1e-6))
	assert.GreaterOrEqual(t, min, float32(-1e-6))
}
