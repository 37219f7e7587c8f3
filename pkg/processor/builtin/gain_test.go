package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

func fillConstant(b *buffer.Buffer, values ...float32) {
	for ch, v := range values {
		for i := range b.Channel(ch) {
			b.Channel(ch)[i] = v
		}
	}
}

// TestSilenceInSilenceOut is spec.md §8 scenario 1.
func TestSilenceInSilenceOut(t *testing.T) {
	g := NewGain(1)
	in := buffer.NewOwning(2)
	out := buffer.NewOwning(2)

	g.ProcessAudio(in, out)

	for ch := 0; ch < 2; ch++ {
		for _, s := range out.Channel(ch) {
			require.Equal(t, float32(0), s)
		}
	}
}

// TestUnityGainPassThrough is spec.md §8 scenario 2: bit-exact
// pass-through at normalized gain 0.5 (0dB).
func TestUnityGainPassThrough(t *testing.T) {
	g := NewGain(1)
	in := buffer.NewOwning(2)
	fillConstant(in, 0.5, -0.25)
	out := buffer.NewOwning(2)

	g.ProcessAudio(in, out)

	for i := 0; i < buffer.ChunkSize; i++ {
		assert.Equal(t, float32(0.5), out.Channel(0)[i])
		assert.Equal(t, float32(-0.25), out.Channel(1)[i])
	}
}

// TestParameterChangeMidStream is spec.md §8 scenario 3.
func TestParameterChangeMidStream(t *testing.T) {
	g := NewGain(1)
	in := buffer.NewOwning(2)
	fillConstant(in, 1.0, 1.0)
	out := buffer.NewOwning(2)

	// Chunk N-1: still at default 0.5 (0dB).
	g.ProcessAudio(in, out)
	for ch := 0; ch < 2; ch++ {
		for _, s := range out.Channel(ch) {
			require.GreaterOrEqual(t, s, float32(0.95))
		}
	}

	// Before chunk N: parameter change to 0.0.
	g.ProcessEvent(rtevent.NewParameterChange(1, ParamGain, 0.0))

	// Chunk N.
	g.ProcessAudio(in, out)
	for ch := 0; ch < 2; ch++ {
		for _, s := range out.Channel(ch) {
			abs := s
			if abs < 0 {
				abs = -abs
			}
			require.Less(t, abs, float32(1e-5))
		}
	}
}

func TestGainStateRoundTrip(t *testing.T) {
	g := NewGain(1)
	g.Parameters().Set(ParamGain, 0.75)

	data, err := g.State()
	require.NoError(t, err)

	g2 := NewGain(1)
	require.NoError(t, g2.SetState(data, true))
	assert.Equal(t, 0.75, g2.Parameters().Get(ParamGain).GetValue())
}
