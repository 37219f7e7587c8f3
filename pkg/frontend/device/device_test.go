package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/track"
)

// callback is invoked directly in these tests rather than through a real
// PortAudio stream: Init opens a live device, which is unavailable in CI,
// so these exercise the chunking/ramp logic against the Frontend struct
// in isolation.

func newTestFrontend(t *testing.T) (*Frontend, *engine.Engine) {
	t.Helper()
	eng := engine.New(48000, 2, 2, 64, 64)
	fe := New(eng)
	fe.cfg.Channels = 2
	fe.cfg.SampleRate = 48000
	fe.in = buffer.NewOwning(2)
	fe.out = buffer.NewOwning(2)

	// The engine only passes audio through routed tracks: one unity
	// stereo track wired input to output.
	require.True(t, eng.AddTrack(track.New(1, "main", track.KindRegular, 2, 16)).IsOK())
	eng.SetInputRoutes([]engine.InputRoute{
		{EngineChannel: 0, TrackID: 1, TrackChannel: 0},
		{EngineChannel: 1, TrackID: 1, TrackChannel: 1},
	})
	eng.SetOutputRoutes([]engine.OutputRoute{
		{TrackID: 1, TrackChannel: 0, EngineChannel: 0},
		{TrackID: 1, TrackChannel: 1, EngineChannel: 1},
	})

	require.NoError(t, eng.AttachFrontend(fe).Err())
	eng.EnableRealtime(true)
	return fe, eng
}

func TestCallbackRoutesInputToOutput(t *testing.T) {
	fe, eng := newTestFrontend(t)
	defer eng.EnableRealtime(false)

	frames := buffer.ChunkSize
	in := make([]float32, frames*2)
	for i := range in {
		in[i] = 0.5
	}
	out := make([]float32, frames*2)

	fe.callback(in, out)

	assert.InDelta(t, 0.5, out[0], 1e-4)
	assert.Equal(t, uint64(frames), fe.sampleCount)
}

func TestCallbackHandlesMultipleChunksInOneHostBuffer(t *testing.T) {
	fe, eng := newTestFrontend(t)
	defer eng.EnableRealtime(false)

	frames := buffer.ChunkSize * 3
	in := make([]float32, frames*2)
	for i := range in {
		in[i] = 0.25
	}
	out := make([]float32, frames*2)

	fe.callback(in, out)

	assert.Equal(t, uint64(frames), fe.sampleCount)
	assert.InDelta(t, 0.25, out[0], 1e-4)
	assert.InDelta(t, 0.25, out[(frames-1)*2], 1e-4)
}

func TestCallbackPausedProducesSilenceAfterRampChunk(t *testing.T) {
	fe, eng := newTestFrontend(t)
	defer eng.EnableRealtime(false)

	fe.Pause(true)

	frames := buffer.ChunkSize * 2
	in := make([]float32, frames*2)
	for i := range in {
		in[i] = 1.0
	}
	out := make([]float32, frames*2)

	fe.callback(in, out)

	lastFrame := frames - 1
	assert.InDelta(t, 0.0, out[lastFrame*2], 1e-4)
}

func TestReportXrunForwardsToEngine(t *testing.T) {
	fe, eng := newTestFrontend(t)
	defer eng.EnableRealtime(false)

	fe.ReportXrun()
	assert.Equal(t, 1, fe.xrunCount)
	eng.FlushXrunWindow()
}

func TestFindDeviceWithEmptyNameSkipsLookup(t *testing.T) {
	dev, err := findDevice("")
	require.NoError(t, err)
	assert.Nil(t, dev)
}
