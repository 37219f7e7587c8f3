package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/processor/builtin"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
	"github.com/elk-audio/sushi-go/pkg/track"
)

func fillConstant(b *buffer.Buffer, value float32) {
	for ch := 0; ch < b.NumChannels(); ch++ {
		c := b.Channel(ch)
		for i := range c {
			c[i] = value
		}
	}
}

type fakeFrontend struct{ name string }

func (f fakeFrontend) Name() string { return f.name }

func TestAttachFrontendRejectsSecond(t *testing.T) {
	e := New(48000, 2, 2, 64, 64)
	assert.True(t, e.AttachFrontend(fakeFrontend{"first"}).IsOK())
	s := e.AttachFrontend(fakeFrontend{"second"})
	assert.False(t, s.IsOK())

	e.DetachFrontend()
	assert.True(t, e.AttachFrontend(fakeFrontend{"second"}).IsOK())
}

func TestEnableRealtimeDrivesStateMachine(t *testing.T) {
	e := New(48000, 2, 2, 64, 64)
	assert.Equal(t, Stopped, e.State())

	e.EnableRealtime(true)
	assert.Equal(t, Running, e.State())

	e.EnableRealtime(false)
	assert.Equal(t, Stopped, e.State())
}

func TestAddTrackRejectsDuplicateID(t *testing.T) {
	e := New(48000, 2, 2, 64, 64)
	tr := e.CreateTrack(1, "main", track.KindRegular, 2, 16)
	assert.True(t, e.AddTrack(tr).IsOK())

	tr2 := e.CreateTrack(1, "dup", track.KindRegular, 2, 16)
	assert.False(t, e.AddTrack(tr2).IsOK())
}

func TestRemoveTrackNotFound(t *testing.T) {
	e := New(48000, 2, 2, 64, 64)
	_, s := e.RemoveTrack(99)
	assert.Equal(t, "NOT_FOUND", s.Code.String())
}

func TestProcessChunkRoutesInputThroughTrackToOutput(t *testing.T) {
	e := New(48000, 2, 2, 64, 64)
	tr := e.CreateTrack(1, "main", track.KindRegular, 2, 16)
	tr.AddProcessor(builtin.NewGain(1))
	e.AddTrack(tr)

	e.SetInputRoutes([]InputRoute{
		{EngineChannel: 0, TrackID: 1, TrackChannel: 0},
		{EngineChannel: 1, TrackID: 1, TrackChannel: 1},
	})
	e.SetOutputRoutes([]OutputRoute{
		{TrackID: 1, TrackChannel: 0, EngineChannel: 0},
		{TrackID: 1, TrackChannel: 1, EngineChannel: 1},
	})

	in := buffer.NewOwning(2)
	fillConstant(in, 0.5)
	out := buffer.NewOwning(2)

	e.ProcessChunk(in, out, time.Now(), 0)

	assert.InDelta(t, 0.5, out.Channel(0)[0], 1e-6)
	assert.InDelta(t, 0.5, out.Channel(1)[0], 1e-6)
}

func TestProcessChunkDispatchesParameterChangeBeforeAudio(t *testing.T) {
	e := New(48000, 2, 2, 64, 64)
	tr := e.CreateTrack(1, "main", track.KindRegular, 2, 16)
	g := builtin.NewGain(1)
	tr.AddProcessor(g)
	e.AddTrack(tr)

	e.SetInputRoutes([]InputRoute{
		{EngineChannel: 0, TrackID: 1, TrackChannel: 0},
		{EngineChannel: 1, TrackID: 1, TrackChannel: 1},
	})
	e.SetOutputRoutes([]OutputRoute{
		{TrackID: 1, TrackChannel: 0, EngineChannel: 0},
		{TrackID: 1, TrackChannel: 1, EngineChannel: 1},
	})

	e.ToRTQueue().Push(rtevent.NewParameterChange(1, builtin.ParamGain, 0.0))

	in := buffer.NewOwning(2)
	fillConstant(in, 1.0)
	out := buffer.NewOwning(2)

	e.ProcessChunk(in, out, time.Now(), 0)

	assert.Less(t, out.Channel(0)[0], float32(1e-5))
}

func TestStoppedTransientRampsToSilence(t *testing.T) {
	e := New(48000, 2, 2, 64, 64)
	tr := e.CreateTrack(1, "main", track.KindRegular, 2, 16)
	e.AddTrack(tr)
	e.SetInputRoutes([]InputRoute{{EngineChannel: 0, TrackID: 1, TrackChannel: 0}})
	e.EnableRealtime(true)

	in := buffer.NewOwning(2)
	fillConstant(in, 1.0)
	out := buffer.NewOwning(2)
	e.ProcessChunk(in, out, time.Now(), 0)

	e.EnableRealtime(false)
	assert.Equal(t, Stopped, e.State())

	// The track's last output was faded from its start down to zero.
	ch := tr.Output().Channel(0)
	assert.Greater(t, ch[0], float32(0.5))
	assert.InDelta(t, 0.0, ch[len(ch)-1], 1e-6)
}
