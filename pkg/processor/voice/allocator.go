// Package voice provides polyphonic voice allocation for internal synth
// Processors. It reacts to rtevent.Event note on/off rather than a raw
// MIDI event type, since MIDI has already been translated into RT
// events by the MIDI Dispatcher before it ever reaches a Processor.
package voice

import "github.com/elk-audio/sushi-go/pkg/rtevent"

// Mode selects how incoming notes are distributed across voices.
type Mode int

const (
	ModePoly Mode = iota
	ModeMono
	ModeLegato
)

// StealMode selects which active voice is reassigned when all voices are
// busy and a new note arrives.
type StealMode int

const (
	StealOldest StealMode = iota
	StealQuietest
	StealHighest
	StealLowest
	StealNone
)

// Voice is a single synthesis voice.
type Voice interface {
	IsActive() bool
	Note() uint8
	Amplitude() float64
	Age() int64
	TriggerNote(note uint8, velocity float32)
	ReleaseNote()
	Stop()
	Process(output []float32)
}

// Allocator distributes incoming note events across a fixed pool of
// voices per spec.md's MIDI-to-processor mapping (§4.7, scenario 5 in
// §8: "a note-on RT event arrives at that processor").
type Allocator struct {
	voices        []Voice
	mode          Mode
	stealMode     StealMode
	maxVoices     int
	noteToVoice   map[uint8][]int
	lastTriggered int
	sustainPedal  bool
	sustained     map[uint8]bool
	currentNote   uint8
}

// NewAllocator creates an Allocator over the given voice pool.
func NewAllocator(voices []Voice) *Allocator {
	return &Allocator{
		voices:      voices,
		mode:        ModePoly,
		stealMode:   StealOldest,
		maxVoices:   len(voices),
		noteToVoice: make(map[uint8][]int),
		sustained:   make(map[uint8]bool),
	}
}

// SetMode changes the allocation mode, resetting all voices.
func (a *Allocator) SetMode(mode Mode) {
	a.mode = mode
	a.Reset()
}

// SetStealMode changes which voice is stolen when the pool is full.
func (a *Allocator) SetStealMode(mode StealMode) {
	a.stealMode = mode
}

// ProcessEvent applies a note on/off/controller RT event to the voice
// pool. Events of any other kind are ignored.
func (a *Allocator) ProcessEvent(e rtevent.Event) {
	switch e.Kind {
	case rtevent.KindNoteOn:
		if e.Note.Velocity > 0 {
			a.NoteOn(e.Note.Note, e.Note.Velocity)
		} else {
			a.NoteOff(e.Note.Note)
		}
	case rtevent.KindNoteOff:
		a.NoteOff(e.Note.Note)
	case rtevent.KindController:
		const ccSustain = 64
		if e.Controller.Controller == ccSustain {
			a.SetSustainPedal(e.Controller.Value >= 0.5)
		}
	}
}

// NoteOn triggers a note according to the current allocation mode.
func (a *Allocator) NoteOn(note uint8, velocity float32) {
	switch a.mode {
	case ModeMono, ModeLegato:
		a.noteOnMono(note, velocity)
	default:
		a.noteOnPoly(note, velocity)
	}
}

// NoteOff releases a note, or defers release if the sustain pedal is
// held.
func (a *Allocator) NoteOff(note uint8) {
	if a.sustainPedal {
		a.sustained[note] = true
		return
	}
	if a.mode == ModePoly {
		a.noteOffPoly(note)
		return
	}
	if note == a.currentNote {
		a.voices[0].ReleaseNote()
		delete(a.noteToVoice, note)
		a.currentNote = 0
	}
}

// SetSustainPedal holds or releases all notes pending release.
func (a *Allocator) SetSustainPedal(on bool) {
	a.sustainPedal = on
	if on {
		return
	}
	for note := range a.sustained {
		delete(a.sustained, note)
		a.NoteOff(note)
	}
}

// Reset stops every voice and clears allocation state.
func (a *Allocator) Reset() {
	for _, v := range a.voices {
		v.Stop()
	}
	a.noteToVoice = make(map[uint8][]int)
	a.sustained = make(map[uint8]bool)
	a.sustainPedal = false
	a.currentNote = 0
}

// ActiveVoiceCount returns how many voices are currently sounding.
func (a *Allocator) ActiveVoiceCount() int {
	count := 0
	for _, v := range a.voices[:a.maxVoices] {
		if v.IsActive() {
			count++
		}
	}
	return count
}

func (a *Allocator) noteOnPoly(note uint8, velocity float32) {
	if voices, exists := a.noteToVoice[note]; exists && len(voices) > 0 {
		for _, idx := range voices {
			a.voices[idx].TriggerNote(note, velocity)
		}
		return
	}
	idx := a.findFreeVoice()
	if idx == -1 {
		idx = a.stealVoice()
		if idx == -1 {
			return
		}
	}
	a.voices[idx].TriggerNote(note, velocity)
	a.noteToVoice[note] = []int{idx}
}

func (a *Allocator) noteOffPoly(note uint8) {
	if voices, exists := a.noteToVoice[note]; exists {
		for _, idx := range voices {
			a.voices[idx].ReleaseNote()
		}
		delete(a.noteToVoice, note)
	}
}

func (a *Allocator) noteOnMono(note uint8, velocity float32) {
	if a.mode == ModeLegato && a.currentNote != 0 {
		a.currentNote = note
		a.noteToVoice = map[uint8][]int{note: {0}}
		return
	}
	if a.voices[0].IsActive() {
		a.voices[0].Stop()
	}
	a.currentNote = note
	a.voices[0].TriggerNote(note, velocity)
	a.noteToVoice = map[uint8][]int{note: {0}}
}

func (a *Allocator) findFreeVoice() int {
	start := a.lastTriggered
	for i := 0; i < a.maxVoices; i++ {
		idx := (start + i + 1) % a.maxVoices
		if !a.voices[idx].IsActive() {
			a.lastTriggered = idx
			return idx
		}
	}
	return -1
}

func (a *Allocator) stealVoice() int {
	if a.stealMode == StealNone {
		return -1
	}
	bestIdx := -1
	var bestValue float64
	for i := 0; i < a.maxVoices; i++ {
		if !a.voices[i].IsActive() {
			continue
		}
		var v float64
		switch a.stealMode {
		case StealOldest:
			v = float64(a.voices[i].Age())
		case StealQuietest:
			v = -a.voices[i].Amplitude()
		case StealHighest:
			v = float64(a.voices[i].Note())
		case StealLowest:
			v = -float64(a.voices[i].Note())
		}
		if bestIdx == -1 || v > bestValue {
			bestIdx = i
			bestValue = v
		}
	}
	if bestIdx == -1 {
		return -1
	}
	stolenNote := a.voices[bestIdx].Note()
	if voices, exists := a.noteToVoice[stolenNote]; exists {
		for i, idx := range voices {
			if idx == bestIdx {
				a.noteToVoice[stolenNote] = append(voices[:i], voices[i+1:]...)
				if len(a.noteToVoice[stolenNote]) == 0 {
					delete(a.noteToVoice, stolenNote)
				}
				break
			}
		}
	}
	a.voices[bestIdx].Stop()
	return bestIdx
}
