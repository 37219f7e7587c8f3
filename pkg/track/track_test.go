package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/processor/builtin"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

func fillConstant(b *buffer.Buffer, value float32) {
	for ch := 0; ch < b.NumChannels(); ch++ {
		c := b.Channel(ch)
		for i := range c {
			c[i] = value
		}
	}
}

func TestProcessChunkRunsChainInOrder(t *testing.T) {
	tr := New(1, "main", KindRegular, 2, 16)
	tr.AddProcessor(builtin.NewGain(1))

	in := buffer.NewOwning(2)
	fillConstant(in, 0.5)

	tr.ProcessChunk(in, nil, nil)

	out := tr.Output()
	// default gain param is 0.5 normalized => unity (0dB); track gain/pan
	// are also unity/center by default, so output should equal input.
	assert.InDelta(t, 0.5, out.Channel(0)[0], 1e-6)
	assert.InDelta(t, 0.5, out.Channel(1)[0], 1e-6)
}

func TestProcessChunkAppliesTrackGain(t *testing.T) {
	tr := New(1, "main", KindRegular, 2, 16)
	tr.SetGain(0.5)

	in := buffer.NewOwning(2)
	fillConstant(in, 1.0)

	tr.ProcessChunk(in, nil, nil)

	out := tr.Output()
	assert.InDelta(t, 0.5, out.Channel(0)[0], 1e-6)
	assert.InDelta(t, 0.5, out.Channel(1)[0], 1e-6)
}

func TestProcessChunkHardPanSilencesOppositeChannel(t *testing.T) {
	tr := New(1, "main", KindRegular, 2, 16)
	tr.SetPan(-1) // hard left

	in := buffer.NewOwning(2)
	fillConstant(in, 1.0)

	tr.ProcessChunk(in, nil, nil)

	out := tr.Output()
	assert.Greater(t, out.Channel(0)[0], float32(0.9))
	assert.Less(t, out.Channel(1)[0], float32(1e-6))
}

func TestProcessChunkDetectsClip(t *testing.T) {
	tr := New(1, "main", KindRegular, 1, 16)
	tr.SetGain(2.0)

	in := buffer.NewOwning(1)
	fillConstant(in, 1.0)

	assert.False(t, tr.Clipped())
	tr.ProcessChunk(in, nil, nil)
	assert.True(t, tr.Clipped())

	tr.ResetClipped()
	assert.False(t, tr.Clipped())
}

func TestInboxEventsReachProcessorsBeforeAudio(t *testing.T) {
	tr := New(1, "main", KindRegular, 2, 16)
	synth := builtin.NewSynth(1, 48000, 4)
	tr.AddProcessor(synth)

	tr.Inbox().Push(rtevent.NewNoteOn(1, 0, 60, 1.0, 0))

	in := buffer.NewOwning(0)
	tr.ProcessChunk(in, nil, nil)

	assert.Equal(t, 1, synth.ActiveVoiceCount())
	assert.Greater(t, buffer.Peak(tr.Output().Channel(0)), float32(0))
}

func TestRemoveProcessorDetaches(t *testing.T) {
	tr := New(1, "main", KindRegular, 2, 16)
	g := builtin.NewGain(7)
	tr.AddProcessor(g)
	assert.Len(t, tr.Processors(), 1)

	removed := tr.RemoveProcessor(7)
	assert.NotNil(t, removed)
	assert.Len(t, tr.Processors(), 0)
	assert.Nil(t, tr.RemoveProcessor(7))
}

func TestPeakDBReflectsProcessedOutput(t *testing.T) {
	tr := New(1, "main", KindRegular, 2, 16)
	assert.True(t, math.IsInf(tr.PeakDB(), -1), "metering disabled until EnableMetering is called")

	tr.EnableMetering(48000)
	in := buffer.NewOwning(2)
	fillConstant(in, 1.0)

	tr.ProcessChunk(in, nil, nil)
	assert.Greater(t, tr.PeakDB(), -1.0)
	assert.Greater(t, tr.PeakHoldDB(), -1.0)
}

func TestBypassedProcessorPassesThrough(t *testing.T) {
	tr := New(1, "main", KindRegular, 2, 16)
	g := builtin.NewGain(1)
	g.SetBypassed(true)
	tr.AddProcessor(g)

	in := buffer.NewOwning(2)
	fillConstant(in, 0.25)

	tr.ProcessChunk(in, nil, nil)

	out := tr.Output()
	assert.InDelta(t, 0.25, out.Channel(0)[0], 1e-6)
}
