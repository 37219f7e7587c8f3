package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/buffer"
)

func TestMorphFilterAttenuatesAboveCutoffAtLowpassShape(t *testing.T) {
	m := NewMorphFilter(1, 48000.0)
	m.Parameters().Set(ParamMorphCutoff, 0.0) // near minCutoffHz
	m.Parameters().Set(ParamMorphShape, 0.0)  // pure lowpass

	in := buffer.NewOwning(2)
	out := buffer.NewOwning(2)
	for ch := 0; ch < 2; ch++ {
		for i := range in.Channel(ch) {
			if i%2 == 0 {
				in.Channel(ch)[i] = 1
			} else {
				in.Channel(ch)[i] = -1
			}
		}
	}

	for i := 0; i < 20; i++ {
		m.ProcessAudio(in, out)
	}

	for ch := 0; ch < 2; ch++ {
		last := out.Channel(ch)[buffer.ChunkSize-1]
		assert.Less(t, abs32(last), float32(0.5))
	}
}

func TestMorphFilterStateRoundTrip(t *testing.T) {
	m := NewMorphFilter(1, 48000)
	m.Parameters().Set(ParamMorphCutoff, 0.3)
	m.Parameters().Set(ParamMorphResonance, 0.6)
	m.Parameters().Set(ParamMorphShape, 0.5)

	data, err := m.State()
	require.NoError(t, err)

	m2 := NewMorphFilter(1, 48000)
	require.NoError(t, m2.SetState(data, true))
	assert.InDelta(t, 0.3, m2.Parameters().Get(ParamMorphCutoff).GetValue(), 1e-9)
	assert.InDelta(t, 0.6, m2.Parameters().Get(ParamMorphResonance).GetValue(), 1e-9)
	assert.InDelta(t, 0.5, m2.Parameters().Get(ParamMorphShape).GetValue(), 1e-9)
}
