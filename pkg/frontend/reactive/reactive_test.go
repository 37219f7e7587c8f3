package reactive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/frontend"
	"github.com/elk-audio/sushi-go/pkg/track"
)

// routeThroughTrack wires one unity stereo track from engine input to
// engine output; the engine only passes audio through routed tracks.
func routeThroughTrack(t *testing.T, eng *engine.Engine) {
	t.Helper()
	require.True(t, eng.AddTrack(track.New(1, "main", track.KindRegular, 2, 16)).IsOK())
	eng.SetInputRoutes([]engine.InputRoute{
		{EngineChannel: 0, TrackID: 1, TrackChannel: 0},
		{EngineChannel: 1, TrackID: 1, TrackChannel: 1},
	})
	eng.SetOutputRoutes([]engine.OutputRoute{
		{TrackID: 1, TrackChannel: 0, EngineChannel: 0},
		{TrackID: 1, TrackChannel: 1, EngineChannel: 1},
	})
}

func TestProcessAudioRoutesInputToOutput(t *testing.T) {
	eng := engine.New(48000, 2, 2, 64, 64)
	routeThroughTrack(t, eng)
	fe := New(eng)
	require.NoError(t, fe.Init(frontend.Config{SampleRate: 48000, FramesPerBuffer: 64, Channels: 2}))
	require.NoError(t, fe.Run())
	defer fe.Cleanup()

	frames := buffer.ChunkSize
	in := make([]float32, frames*2)
	for i := range in {
		in[i] = 0.5
	}
	out := make([]float32, frames*2)

	fe.ProcessAudio(in, out, uint64(frames), time.Now())

	assert.InDelta(t, 0.5, out[0], 1e-4)
}

func TestProcessAudioHandlesMultipleChunks(t *testing.T) {
	eng := engine.New(48000, 2, 2, 64, 64)
	routeThroughTrack(t, eng)
	fe := New(eng)
	require.NoError(t, fe.Init(frontend.Config{SampleRate: 48000, FramesPerBuffer: 64, Channels: 2}))
	require.NoError(t, fe.Run())
	defer fe.Cleanup()

	frames := buffer.ChunkSize * 3
	in := make([]float32, frames*2)
	for i := range in {
		in[i] = 0.25
	}
	out := make([]float32, frames*2)

	fe.ProcessAudio(in, out, uint64(frames), time.Now())

	assert.InDelta(t, 0.25, out[0], 1e-4)
	assert.InDelta(t, 0.25, out[(frames-1)*2], 1e-4)
}

func TestProcessAudioPausedRampsThenSilent(t *testing.T) {
	eng := engine.New(48000, 2, 2, 64, 64)
	fe := New(eng)
	require.NoError(t, fe.Init(frontend.Config{SampleRate: 48000, FramesPerBuffer: 64, Channels: 2}))
	require.NoError(t, fe.Run())
	defer fe.Cleanup()

	fe.Pause(true)

	frames := buffer.ChunkSize * 2
	in := make([]float32, frames*2)
	for i := range in {
		in[i] = 1.0
	}
	out := make([]float32, frames*2)

	fe.ProcessAudio(in, out, uint64(frames), time.Now())

	lastFrame := frames - 1
	assert.InDelta(t, 0.0, out[lastFrame*2], 1e-4)
}

func TestRunIsNonBlockingAndReturnsImmediately(t *testing.T) {
	eng := engine.New(48000, 2, 2, 64, 64)
	fe := New(eng)
	require.NoError(t, fe.Init(frontend.Config{SampleRate: 48000, FramesPerBuffer: 64, Channels: 2}))

	done := make(chan struct{})
	go func() {
		_ = fe.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run blocked")
	}
}
