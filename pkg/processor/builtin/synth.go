package builtin

import (
	"math"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/oscillator"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/processor/voice"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

// sineVoice is a minimal additive-free sine voice, enough to exercise
// the Allocator and prove note-on/off RT events reach a processor. Its
// waveform comes from oscillator.Oscillator; the voice itself only owns
// the note/velocity/amplitude-envelope bookkeeping around it.
type sineVoice struct {
	osc       *oscillator.Oscillator
	note      uint8
	velocity  float32
	active    bool
	releasing bool
	amp       float64
	age       int64
}

func newSineVoice(sampleRate float64) *sineVoice {
	return &sineVoice{osc: oscillator.New(sampleRate)}
}

func (v *sineVoice) IsActive() bool     { return v.active }
func (v *sineVoice) Note() uint8        { return v.note }
func (v *sineVoice) Amplitude() float64 { return v.amp }
func (v *sineVoice) Age() int64         { return v.age }

func (v *sineVoice) TriggerNote(note uint8, velocity float32) {
	v.note = note
	v.velocity = velocity
	v.osc.SetFrequency(noteToFrequency(note))
	v.osc.Reset()
	v.active = true
	v.releasing = false
	v.amp = float64(velocity)
	v.age = 0
}

func (v *sineVoice) ReleaseNote() {
	v.releasing = true
}

func (v *sineVoice) Stop() {
	v.active = false
	v.releasing = false
	v.amp = 0
}

func (v *sineVoice) Process(output []float32) {
	if !v.active {
		return
	}
	const releaseDecay = 0.999
	for i := range output {
		output[i] += v.osc.Sine() * float32(v.amp)
		if v.releasing {
			v.amp *= releaseDecay
			if v.amp < 1e-4 {
				v.active = false
				break
			}
		}
	}
	v.age += int64(len(output))
}

func noteToFrequency(note uint8) float64 {
	return 440.0 * math.Pow(2, (float64(note)-69.0)/12.0)
}

// Synth is a minimal polyphonic internal Processor that converts note
// on/off RT events into audible sine tones, grounded on the teacher's
// examples/simplesynth shape but driven entirely by rtevent.Event instead
// of a VST3 host callback.
type Synth struct {
	processor.Base

	allocator *voice.Allocator
	voices    []voice.Voice
}

// NewSynth constructs an N-voice polyphonic Synth at the given sample
// rate, with zero input channels (it is a source) and two output
// channels.
func NewSynth(id uint32, sampleRate float64, numVoices int) *Synth {
	voices := make([]voice.Voice, numVoices)
	rawVoices := make([]*sineVoice, numVoices)
	for i := range voices {
		rawVoices[i] = newSineVoice(sampleRate)
		voices[i] = rawVoices[i]
	}
	s := &Synth{
		Base:      processor.NewBase(id, "Synth", "Generator", 0, 2),
		allocator: voice.NewAllocator(voices),
		voices:    voices,
	}
	return s
}

// ProcessEvent forwards note/controller events to the voice allocator in
// addition to the common parameter/property/bypass handling.
func (s *Synth) ProcessEvent(e rtevent.Event) {
	s.Base.ProcessEvent(e)
	s.allocator.ProcessEvent(e)
}

// ProcessAudio sums every active voice into both output channels.
func (s *Synth) ProcessAudio(_, output *buffer.Buffer) {
	output.Clear()
	mono := output.Channel(0)
	for _, v := range s.voices {
		v.Process(mono)
	}
	if output.NumChannels() > 1 {
		copy(output.Channel(1), mono)
	}
}

// State reports UNSUPPORTED_OPERATION-equivalent: Synth has no
// persistable parameters of its own beyond the empty registry inherited
// from Base, so it serializes to the shared empty-state format.
func (s *Synth) State() ([]byte, error) {
	return processor.SaveStateBytes(s.Parameters(), s.CurrentProgram(), s.Bypassed(), nil)
}

// SetState restores from a blob produced by State.
func (s *Synth) SetState(data []byte, sync bool) error {
	return processor.LoadStateBytes(data, s.Parameters())
}

// ActiveVoiceCount exposes the allocator's active voice count for tests
// and CPU-timing-style introspection.
func (s *Synth) ActiveVoiceCount() int {
	return s.allocator.ActiveVoiceCount()
}
