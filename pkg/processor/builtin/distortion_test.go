package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/buffer"
)

func TestDistortionZeroMixPassesDrySignalUnchanged(t *testing.T) {
	d := NewDistortion(1)
	d.Parameters().Set(ParamDistortionMix, 0.0)

	in := buffer.NewOwning(2)
	fillConstant(in, 0.3, -0.3)
	out := buffer.NewOwning(2)

	d.ProcessAudio(in, out)

	for ch := 0; ch < 2; ch++ {
		for _, s := range out.Channel(ch) {
			assert.InDelta(t, in.Channel(ch)[0], s, 1e-6)
		}
	}
}

func TestDistortionFullDriveClampsTowardUnity(t *testing.T) {
	d := NewDistortion(1)
	d.Parameters().Set(ParamDistortionDrive, 1.0) // maximum drive
	d.Parameters().Set(ParamDistortionMix, 1.0)   // fully wet

	in := buffer.NewOwning(2)
	fillConstant(in, 0.8, 0.8)
	out := buffer.NewOwning(2)

	d.ProcessAudio(in, out)

	for ch := 0; ch < 2; ch++ {
		for _, s := range out.Channel(ch) {
			assert.Less(t, abs32(s), float32(1.01))
			assert.Greater(t, s, float32(0))
		}
	}
}

func TestDistortionStateRoundTrip(t *testing.T) {
	d := NewDistortion(1)
	d.Parameters().Set(ParamDistortionDrive, 0.6)
	d.Parameters().Set(ParamDistortionMix, 0.5)

	data, err := d.State()
	require.NoError(t, err)

	d2 := NewDistortion(1)
	require.NoError(t, d2.SetState(data, true))
	assert.InDelta(t, 0.6, d2.Parameters().Get(ParamDistortionDrive).GetValue(), 1e-9)
	assert.InDelta(t, 0.5, d2.Parameters().Get(ParamDistortionMix).GetValue(), 1e-9)
}
