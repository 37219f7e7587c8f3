package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

func TestSynthNoteOnProducesAudio(t *testing.T) {
	s := NewSynth(1, 48000, 4)
	in := buffer.NewOwning(0)
	out := buffer.NewOwning(2)

	s.ProcessEvent(rtevent.NewNoteOn(1, 0, 60, 0.787, 0))
	s.ProcessAudio(in, out)

	assert.Greater(t, buffer.Peak(out.Channel(0)), float32(0))
	assert.Equal(t, 1, s.ActiveVoiceCount())
}

func TestSynthNoteOffStopsEventually(t *testing.T) {
	s := NewSynth(1, 48000, 4)
	in := buffer.NewOwning(0)
	out := buffer.NewOwning(2)

	s.ProcessEvent(rtevent.NewNoteOn(1, 0, 60, 1.0, 0))
	s.ProcessEvent(rtevent.NewNoteOff(1, 0, 60, 0, 0))

	for i := 0; i < 200; i++ {
		s.ProcessAudio(in, out)
	}
	assert.Equal(t, 0, s.ActiveVoiceCount())
}
