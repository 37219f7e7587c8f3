package mididispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

func TestNoteOnRoutesToTrackKeyboard(t *testing.T) {
	d := New(1, 1)
	d.Connect(InputConnection{Port: 0, Kind: KindNoteOn, Target: TargetTrackKeyboard, TrackID: 5})
	d.Connect(InputConnection{Port: 0, Kind: KindNoteOff, Target: TargetTrackKeyboard, TrackID: 5})

	events := d.Resolve(Message{Port: 0, Kind: KindNoteOn, Note: 60, Velocity: 100}, 3)
	if assert.Len(t, events, 1) {
		assert.Equal(t, rtevent.KindNoteOn, events[0].Kind)
		assert.Equal(t, uint32(5), events[0].Note.TrackID)
		assert.Equal(t, uint8(60), events[0].Note.Note)
		assert.Equal(t, int32(3), events[0].SampleOffset)
	}
}

func TestControlChangeMapsToParameterRange(t *testing.T) {
	d := New(1, 1)
	d.Connect(InputConnection{
		Port: 0, Kind: KindControlChange, Controller: 74,
		Target: TargetProcessorParameter, ProcessorID: 1, ParameterID: 1,
		ValueRange: RangeMapping{InMin: 0, InMax: 127, OutMin: 0, OutMax: 1},
	})

	events := d.Resolve(Message{Port: 0, Kind: KindControlChange, Controller: 74, Value: 127}, 0)
	if assert.Len(t, events, 1) {
		assert.Equal(t, rtevent.KindParameterChange, events[0].Kind)
		assert.InDelta(t, 1.0, events[0].ParameterChange.Normalized, 1e-9)
	}
}

func TestUnmatchedMessageIsDropped(t *testing.T) {
	d := New(1, 1)
	d.Connect(InputConnection{Port: 0, Kind: KindControlChange, Controller: 74, Target: TargetProcessorParameter})

	events := d.Resolve(Message{Port: 0, Kind: KindControlChange, Controller: 1, Value: 64}, 0)
	assert.Empty(t, events)
}

func TestChannelFilterRestrictsMatch(t *testing.T) {
	d := New(1, 1)
	d.Connect(InputConnection{Port: 0, Channel: 2, Kind: KindNoteOn, Target: TargetTrackKeyboard, TrackID: 1})

	assert.Empty(t, d.Resolve(Message{Port: 0, Channel: 1, Kind: KindNoteOn, Note: 60}, 0))
	assert.Len(t, d.Resolve(Message{Port: 0, Channel: 2, Kind: KindNoteOn, Note: 60}, 0), 1)
}

func TestResolveOutgoingReversesNoteOn(t *testing.T) {
	d := New(1, 1)
	d.ConnectOutput(OutputConnection{SourceEventKind: rtevent.KindNoteOn, SourceID: 7, Port: 0, Channel: 1})

	msgs := d.ResolveOutgoing(rtevent.NewNoteOn(7, 0, 64, 1.0, 0), 7)
	if assert.Len(t, msgs, 1) {
		assert.Equal(t, KindNoteOn, msgs[0].Kind)
		assert.Equal(t, uint8(64), msgs[0].Note)
	}
}
