// Package rtevent defines the tagged, sample-offset-carrying event type
// applied by the real-time thread at chunk boundaries.
package rtevent

import "time"

// Kind tags the payload carried by an Event.
type Kind uint8

const (
	KindNoteOn Kind = iota
	KindNoteOff
	KindAftertouch
	KindController
	KindParameterChange
	KindPropertyChange
	KindBypass
	KindProgramChange
	KindProcessorState
	KindAsyncWorkRequest
	KindAsyncWorkCompletion
	KindAddProcessor
	KindMoveProcessor
	KindRemoveProcessor
	KindAddTrack
	KindRemoveTrack
	KindTransportChange
	KindStopEngine
)

func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "NoteOn"
	case KindNoteOff:
		return "NoteOff"
	case KindAftertouch:
		return "Aftertouch"
	case KindController:
		return "Controller"
	case KindParameterChange:
		return "ParameterChange"
	case KindPropertyChange:
		return "PropertyChange"
	case KindBypass:
		return "Bypass"
	case KindProgramChange:
		return "ProgramChange"
	case KindProcessorState:
		return "ProcessorState"
	case KindAsyncWorkRequest:
		return "AsyncWorkRequest"
	case KindAsyncWorkCompletion:
		return "AsyncWorkCompletion"
	case KindAddProcessor:
		return "AddProcessor"
	case KindMoveProcessor:
		return "MoveProcessor"
	case KindRemoveProcessor:
		return "RemoveProcessor"
	case KindAddTrack:
		return "AddTrack"
	case KindRemoveTrack:
		return "RemoveTrack"
	case KindTransportChange:
		return "TransportChange"
	case KindStopEngine:
		return "StopEngine"
	default:
		return "Unknown"
	}
}

// NotePayload carries note on/off/aftertouch data.
type NotePayload struct {
	TrackID  uint32
	Channel  uint8
	Note     uint8
	Velocity float32 // normalized 0-1
}

// ControllerPayload carries a MIDI-style controller value.
type ControllerPayload struct {
	TrackID    uint32
	Channel    uint8
	Controller uint8
	Value      float32 // normalized 0-1
}

// ParameterChangePayload targets a (processor, parameter) pair.
type ParameterChangePayload struct {
	ProcessorID uint32
	ParameterID uint32
	Normalized  float64
}

// PropertyChangePayload targets a (processor, property) pair.
type PropertyChangePayload struct {
	ProcessorID uint32
	PropertyID  uint32
	Value       string
}

// BypassPayload toggles a processor's bypass state.
type BypassPayload struct {
	ProcessorID uint32
	Bypassed    bool
}

// ProgramChangePayload selects a processor's program.
type ProgramChangePayload struct {
	ProcessorID uint32
	Program     int32
}

// StatePayload carries an opaque processor state blob.
type StatePayload struct {
	ProcessorID uint32
	Data        []byte
	Sync        bool // true: must be applied RT-safely, no allocation
}

// AsyncWorkPayload requests or completes off-thread work on behalf of a
// processor that cannot finish something RT-safely (e.g. non-sync state
// load).
type AsyncWorkPayload struct {
	ProcessorID uint32
	RequestID   uint64
	Err         error
}

// GraphPayload carries a prepared (already allocated, non-RT-constructed)
// graph mutation; the RT thread only swaps pointers/updates indices.
type GraphPayload struct {
	TrackID     uint32
	ProcessorID uint32
	FromIndex   int
	ToIndex     int
}

// TransportChangePayload carries a transport field change.
type TransportChangePayload struct {
	Tempo           float64
	TimeSigNum      int32
	TimeSigDenom    int32
	PlayingMode     int32
	SyncMode        int32
	PositionSource  int32
	CurrentBeats    float64
	CurrentBarBeats float64
	HasTempo        bool
	HasTimeSig      bool
	HasPlayingMode  bool
	HasSyncMode     bool
	HasPosition     bool
}

// Event is the RT-thread-applied, sample-accurate action. SampleOffset
// must be in [0, buffer.ChunkSize). Exactly one payload field is set,
// selected by Kind.
type Event struct {
	Kind         Kind
	SampleOffset int32
	Timestamp    time.Time

	Note            NotePayload
	Controller      ControllerPayload
	ParameterChange ParameterChangePayload
	PropertyChange  PropertyChangePayload
	Bypass          BypassPayload
	ProgramChange   ProgramChangePayload
	State           StatePayload
	AsyncWork       AsyncWorkPayload
	Graph           GraphPayload
	Transport       TransportChangePayload
}

// NewNoteOn builds a sample-accurate note-on Event.
func NewNoteOn(trackID uint32, channel, note uint8, velocity float32, offset int32) Event {
	return Event{
		Kind:         KindNoteOn,
		SampleOffset: offset,
		Timestamp:    time.Now(),
		Note:         NotePayload{TrackID: trackID, Channel: channel, Note: note, Velocity: velocity},
	}
}

// NewNoteOff builds a sample-accurate note-off Event.
func NewNoteOff(trackID uint32, channel, note uint8, velocity float32, offset int32) Event {
	return Event{
		Kind:         KindNoteOff,
		SampleOffset: offset,
		Timestamp:    time.Now(),
		Note:         NotePayload{TrackID: trackID, Channel: channel, Note: note, Velocity: velocity},
	}
}

// NewParameterChange builds a parameter-change Event targeting offset 0
// (events are applied at chunk start, before ProcessAudio).
func NewParameterChange(processorID, parameterID uint32, normalized float64) Event {
	return Event{
		Kind:      KindParameterChange,
		Timestamp: time.Now(),
		ParameterChange: ParameterChangePayload{
			ProcessorID: processorID,
			ParameterID: parameterID,
			Normalized:  normalized,
		},
	}
}

// NewStopEngine builds a shutdown Event.
func NewStopEngine() Event {
	return Event{Kind: KindStopEngine, Timestamp: time.Now()}
}
