package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/buffer"
)

func TestDelayZeroMixPassesDrySignalUnchanged(t *testing.T) {
	d := NewDelay(1, 48000)
	d.Parameters().Set(ParamDelayMix, 0.0)

	in := buffer.NewOwning(2)
	fillConstant(in, 0.5, -0.5)
	out := buffer.NewOwning(2)

	d.ProcessAudio(in, out)

	for ch := 0; ch < 2; ch++ {
		for _, s := range out.Channel(ch) {
			assert.InDelta(t, in.Channel(ch)[0], s, 1e-6)
		}
	}
}

func TestDelayFullMixProducesSilenceOnFirstChunk(t *testing.T) {
	d := NewDelay(1, 48000)
	d.Parameters().Set(ParamDelayMix, 1.0)

	in := buffer.NewOwning(2)
	fillConstant(in, 1.0, 1.0)
	out := buffer.NewOwning(2)

	// The delay line starts empty, so the very first read is silence
	// regardless of delay time.
	d.ProcessAudio(in, out)

	assert.InDelta(t, 0.0, out.Channel(0)[0], 1e-6)
}

func TestDelayStateRoundTrip(t *testing.T) {
	d := NewDelay(1, 48000)
	d.Parameters().Set(ParamDelayTime, 0.5)
	d.Parameters().Set(ParamDelayFeedback, 0.4)

	data, err := d.State()
	require.NoError(t, err)

	d2 := NewDelay(1, 48000)
	require.NoError(t, d2.SetState(data, true))
	assert.InDelta(t, 0.5, d2.Parameters().Get(ParamDelayTime).GetValue(), 1e-9)
	assert.InDelta(t, 0.4, d2.Parameters().Get(ParamDelayFeedback).GetValue(), 1e-9)
}
