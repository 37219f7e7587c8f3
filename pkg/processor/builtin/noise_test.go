package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/buffer"
)

func TestNoiseStateRoundTrip(t *testing.T) {
	n := NewNoise(1, 48000)
	n.Parameters().Set(ParamNoiseType, 1.0)
	n.Parameters().Set(ParamNoiseLevel, 0.7)

	data, err := n.State()
	require.NoError(t, err)

	n2 := NewNoise(1, 48000)
	require.NoError(t, n2.SetState(data, true))
	assert.InDelta(t, 1.0, n2.Parameters().Get(ParamNoiseType).GetValue(), 1e-9)
	assert.InDelta(t, 0.7, n2.Parameters().Get(ParamNoiseLevel).GetValue(), 1e-9)
}

func TestNoiseStaysWithinLevelBoundAfterSettling(t *testing.T) {
	n := NewNoise(1, 48000)
	n.Parameters().Set(ParamNoiseLevel, 0.5)

	out := buffer.NewOwning(2)
	for i := 0; i < 50; i++ {
		n.ProcessAudio(nil, out)
	}

	for ch := 0; ch < 2; ch++ {
		for _, v := range out.Channel(ch) {
			assert.LessOrEqual(t, abs32(v), float32(0.55))
		}
	}
}

func TestNoiseZeroLevelIsSilent(t *testing.T) {
	n := NewNoise(1, 48000)
	n.Parameters().Set(ParamNoiseLevel, 0.0)

	out := buffer.NewOwning(2)
	for i := 0; i < 50; i++ {
		n.ProcessAudio(nil, out)
	}

	for ch := 0; ch < 2; ch++ {
		for _, v := range out.Channel(ch) {
			assert.InDelta(t, 0.0, v, 1e-6)
		}
	}
}
