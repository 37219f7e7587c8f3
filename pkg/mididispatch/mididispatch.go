// Package mididispatch implements the MIDI Dispatcher (spec.md §4.7):
// N virtual MIDI inputs and M virtual outputs, a connection table
// mapping incoming messages to RT events, and the reverse mapping for
// outgoing notifications.
//
// Grounded on the teacher's pkg/midi/events.go message-kind vocabulary
// (kept close to verbatim for the raw message shape and the note/CC
// constants) generalized from plugin-local event handling to a
// connection table resolved against arbitrary tracks and processors.
package mididispatch

import (
	"time"

	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

// MessageKind tags an incoming/outgoing MIDI message, mirroring the
// teacher's midi.EventType vocabulary plus clock messages this
// dispatcher also needs to reverse-map.
type MessageKind uint8

const (
	KindNoteOn MessageKind = iota
	KindNoteOff
	KindControlChange
	KindProgramChange
	KindPitchBend
	KindClock
)

// Message is a raw, already-parsed MIDI message arriving on or leaving
// through a virtual port.
type Message struct {
	Port       int
	Channel    uint8
	Kind       MessageKind
	Note       uint8 // valid for NoteOn/NoteOff
	Velocity   uint8 // valid for NoteOn/NoteOff
	Controller uint8 // valid for ControlChange
	Value      uint8 // valid for ControlChange/PitchBend/ProgramChange
	Timestamp  time.Time
}

// TargetKind selects what an input connection drives.
type TargetKind int

const (
	TargetTrackKeyboard TargetKind = iota
	TargetProcessorParameter
	TargetProcessorProgram
)

// RangeMapping linearly maps a MIDI 0-127 value onto a normalized
// [0,1] parameter range; InMin/InMax let a connection restrict which
// raw values are even accepted (e.g. only CC values 40-80 matter).
type RangeMapping struct {
	InMin, InMax   uint8
	OutMin, OutMax float64
}

func (r RangeMapping) apply(raw uint8) (float64, bool) {
	if raw < r.InMin || raw > r.InMax {
		return 0, false
	}
	span := float64(r.InMax) - float64(r.InMin)
	if span == 0 {
		return r.OutMin, true
	}
	t := (float64(raw) - float64(r.InMin)) / span
	return r.OutMin + t*(r.OutMax-r.OutMin), true
}

// InputConnection matches incoming messages on a virtual input port and
// routes them to one of three target kinds.
type InputConnection struct {
	Port    int
	Channel uint8 // 0 means "any channel"
	Kind    MessageKind

	// Controller/NoteMin/NoteMax narrow matching for ControlChange / note
	// messages; zero values with Kind != ControlChange/Note*, are ignored.
	Controller uint8
	NoteMin    uint8
	NoteMax    uint8

	Target TargetKind

	TrackID     uint32
	ProcessorID uint32
	ParameterID uint32
	Program     int32
	ValueRange  RangeMapping

	RawPassthrough bool
}

func (c InputConnection) matches(m Message) bool {
	if c.Port != m.Port || c.Kind != m.Kind {
		return false
	}
	if c.Channel != 0 && c.Channel != m.Channel {
		return false
	}
	switch c.Kind {
	case KindControlChange:
		return c.Controller == m.Controller
	case KindNoteOn, KindNoteOff:
		if c.NoteMax == 0 {
			return true
		}
		return m.Note >= c.NoteMin && m.Note <= c.NoteMax
	default:
		return true
	}
}

// OutputConnection reverse-maps an outgoing RT event kind to a virtual
// output port/channel.
type OutputConnection struct {
	SourceEventKind rtevent.Kind
	SourceID        uint32
	Port            int
	Channel         uint8
}

// Dispatcher owns the MIDI connection tables and resolves messages
// against them, per spec.md §4.7.
type Dispatcher struct {
	numInputs  int
	numOutputs int

	inputs  []InputConnection
	outputs []OutputConnection
}

// New constructs a Dispatcher with the given virtual input/output port
// counts and empty connection tables.
func New(numInputs, numOutputs int) *Dispatcher {
	return &Dispatcher{numInputs: numInputs, numOutputs: numOutputs}
}

func (d *Dispatcher) NumInputs() int  { return d.numInputs }
func (d *Dispatcher) NumOutputs() int { return d.numOutputs }

// Connect adds an input connection to the table.
func (d *Dispatcher) Connect(c InputConnection) {
	d.inputs = append(d.inputs, c)
}

// ConnectOutput adds an output connection to the table.
func (d *Dispatcher) ConnectOutput(c OutputConnection) {
	d.outputs = append(d.outputs, c)
}

// Connections returns the current input connection table.
func (d *Dispatcher) Connections() []InputConnection {
	return d.inputs
}

// OutputConnections returns the current output connection table.
func (d *Dispatcher) OutputConnections() []OutputConnection {
	return d.outputs
}

// Resolve matches an incoming message against the connection table in
// order (O(table size), per spec.md §4.7) and emits the corresponding RT
// events. A message matching no connection produces no events ("dropped,
// not forwarded"). A message may match more than one connection (e.g. a
// raw-passthrough connection plus a parameter-mapped one); all matches
// fire.
func (d *Dispatcher) Resolve(m Message, sampleOffset int32) []rtevent.Event {
	var events []rtevent.Event
	for _, c := range d.inputs {
		if !c.matches(m) {
			continue
		}
		if e, ok := d.buildEvent(c, m, sampleOffset); ok {
			events = append(events, e)
		}
	}
	return events
}

func (d *Dispatcher) buildEvent(c InputConnection, m Message, offset int32) (rtevent.Event, bool) {
	switch c.Target {
	case TargetTrackKeyboard:
		switch m.Kind {
		case KindNoteOn:
			return rtevent.NewNoteOn(c.TrackID, m.Channel, m.Note, float32(m.Velocity)/127.0, offset), true
		case KindNoteOff:
			return rtevent.NewNoteOff(c.TrackID, m.Channel, m.Note, float32(m.Velocity)/127.0, offset), true
		default:
			return rtevent.Event{}, false
		}
	case TargetProcessorParameter:
		var raw uint8
		switch m.Kind {
		case KindControlChange:
			raw = m.Value
		case KindPitchBend:
			raw = m.Value
		default:
			return rtevent.Event{}, false
		}
		normalized, ok := c.ValueRange.apply(raw)
		if !ok {
			return rtevent.Event{}, false
		}
		return rtevent.NewParameterChange(c.ProcessorID, c.ParameterID, normalized), true
	case TargetProcessorProgram:
		if m.Kind != KindProgramChange {
			return rtevent.Event{}, false
		}
		return rtevent.Event{
			Kind:          rtevent.KindProgramChange,
			SampleOffset:  offset,
			Timestamp:     m.Timestamp,
			ProgramChange: rtevent.ProgramChangePayload{ProcessorID: c.ProcessorID, Program: c.Program},
		}, true
	}
	return rtevent.Event{}, false
}

// ResolveOutgoing reverse-maps an outbound RT event into zero or more
// raw MIDI messages to send on the matching output connections.
func (d *Dispatcher) ResolveOutgoing(e rtevent.Event, sourceID uint32) []Message {
	var out []Message
	for _, c := range d.outputs {
		if c.SourceEventKind != e.Kind || c.SourceID != sourceID {
			continue
		}
		if m, ok := outgoingMessage(c, e); ok {
			out = append(out, m)
		}
	}
	return out
}

func outgoingMessage(c OutputConnection, e rtevent.Event) (Message, bool) {
	switch e.Kind {
	case rtevent.KindNoteOn:
		return Message{Port: c.Port, Channel: c.Channel, Kind: KindNoteOn, Note: e.Note.Note, Velocity: uint8(e.Note.Velocity * 127), Timestamp: e.Timestamp}, true
	case rtevent.KindNoteOff:
		return Message{Port: c.Port, Channel: c.Channel, Kind: KindNoteOff, Note: e.Note.Note, Velocity: uint8(e.Note.Velocity * 127), Timestamp: e.Timestamp}, true
	case rtevent.KindParameterChange:
		return Message{Port: c.Port, Channel: c.Channel, Kind: KindControlChange, Value: uint8(e.ParameterChange.Normalized * 127), Timestamp: e.Timestamp}, true
	default:
		return Message{}, false
	}
}
