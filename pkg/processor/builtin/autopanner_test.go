package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/buffer"
)

func TestAutoPannerStateRoundTrip(t *testing.T) {
	a := NewAutoPanner(1, 48000)
	a.Parameters().Set(ParamAutoPanRate, 0.5)
	a.Parameters().Set(ParamAutoPanDepth, 0.7)

	data, err := a.State()
	require.NoError(t, err)

	a2 := NewAutoPanner(1, 48000)
	require.NoError(t, a2.SetState(data, true))
	assert.InDelta(t, 0.5, a2.Parameters().Get(ParamAutoPanRate).GetValue(), 1e-9)
	assert.InDelta(t, 0.7, a2.Parameters().Get(ParamAutoPanDepth).GetValue(), 1e-9)
}

func TestAutoPannerSumsToMonoThenRespreads(t *testing.T) {
	a := NewAutoPanner(1, 48000)

	in := buffer.NewOwning(2)
	out := buffer.NewOwning(2)
	for i := range in.Channel(0) {
		in.Channel(0)[i] = 1
		in.Channel(1)[i] = 1
	}

	a.ProcessAudio(in, out)

	for i := range out.Channel(0) {
		sum := out.Channel(0)[i] + out.Channel(1)[i]
		assert.Greater(t, sum, float32(0))
	}
}
