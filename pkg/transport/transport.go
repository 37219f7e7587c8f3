// Package transport implements the sample clock, tempo, time signature,
// playing mode and sync source, and the per-chunk beat computation
// every Processor may read from. Every field is atomic-backed so it can
// be read from the RT thread without locking while being writable from
// a non-RT control thread.
package transport

import (
	"math"
	"sync/atomic"

	"github.com/elk-audio/sushi-go/pkg/buffer"
)

// PlayingMode is the transport's run state.
type PlayingMode int32

const (
	Stopped PlayingMode = iota
	Playing
	Recording
)

func (m PlayingMode) String() string {
	switch m {
	case Stopped:
		return "STOPPED"
	case Playing:
		return "PLAYING"
	case Recording:
		return "RECORDING"
	default:
		return "UNKNOWN"
	}
}

// SyncMode selects where tempo/beat advance comes from.
type SyncMode int32

const (
	SyncInternal SyncMode = iota
	SyncMIDI
	SyncGate
	SyncLink
)

func (m SyncMode) String() string {
	switch m {
	case SyncInternal:
		return "INTERNAL"
	case SyncMIDI:
		return "MIDI"
	case SyncGate:
		return "GATE"
	case SyncLink:
		return "LINK"
	default:
		return "UNKNOWN"
	}
}

// PositionSource selects who advances current_beats/current_bar_beats.
type PositionSource int32

const (
	PositionCalculated PositionSource = iota
	PositionExternal
)

func (s PositionSource) String() string {
	switch s {
	case PositionCalculated:
		return "CALCULATED"
	case PositionExternal:
		return "EXTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Transport owns the engine-wide musical time model. Every field except
// the fixed sampleRate is atomic: the sample clock and beat position are
// written per chunk by the RT thread (their sole writer while running,
// per spec.md §5), and the fields a non-RT thread may also write (tempo,
// time signature, playing/sync mode, output latency) can be changed by a
// control thread without taking a lock.
type Transport struct {
	sampleRate float64

	samplesSinceStart atomic.Uint64

	tempoBits atomic.Uint64 // float64 bits, beats per minute

	timeSigNum   atomic.Int32
	timeSigDenom atomic.Int32

	playingMode atomic.Int32
	syncMode    atomic.Int32
	posSource   atomic.Int32

	outputLatencyNanos atomic.Int64

	// currentBeats/currentBarBeats are written once per chunk by the
	// single RT thread driving Tick, and read by Processors and
	// non-RT query paths; they share the same single-writer-many-reader
	// discipline as the rest of the running engine's graph state.
	currentBeatsBits    atomic.Uint64
	currentBarBeatsBits atomic.Uint64

	// midiClockTicks counts MIDI clock pulses received since the last
	// beat boundary, used only in SyncMIDI (24 ticks per quarter note).
	midiClockTicks atomic.Int32
}

// New constructs a Transport at the given sample rate, stopped, synced
// internally, with tempo 120 BPM and a 4/4 time signature.
func New(sampleRate float64) *Transport {
	t := &Transport{sampleRate: sampleRate}
	t.tempoBits.Store(math.Float64bits(120.0))
	t.timeSigNum.Store(4)
	t.timeSigDenom.Store(4)
	t.playingMode.Store(int32(Stopped))
	t.syncMode.Store(int32(SyncInternal))
	t.posSource.Store(int32(PositionCalculated))
	return t
}

func (t *Transport) SampleRate() float64 { return t.sampleRate }

// SamplesSinceStart is monotonically non-decreasing while the engine is
// running, per spec.md §4.4's invariant.
func (t *Transport) SamplesSinceStart() uint64 { return t.samplesSinceStart.Load() }

func (t *Transport) Tempo() float64 {
	return math.Float64frombits(t.tempoBits.Load())
}

// SetTempo is safe to call from a non-RT control thread at any time; it
// takes effect starting with the next Tick, per spec.md §4.4 ("changing
// sync mode is not sample-accurate; it takes effect at the next chunk
// boundary" applies identically to tempo pushed from outside INTERNAL).
func (t *Transport) SetTempo(bpm float64) {
	t.tempoBits.Store(math.Float64bits(bpm))
}

func (t *Transport) TimeSignature() (numerator, denominator int32) {
	return t.timeSigNum.Load(), t.timeSigDenom.Load()
}

func (t *Transport) SetTimeSignature(numerator, denominator int32) {
	t.timeSigNum.Store(numerator)
	t.timeSigDenom.Store(denominator)
}

func (t *Transport) PlayingMode() PlayingMode {
	return PlayingMode(t.playingMode.Load())
}

// SetPlayingMode changes state; spec.md §4.4 says the transition itself
// is sample-accurate at chunk boundary, which the Engine achieves by
// only calling this between chunks (never mid-Tick).
func (t *Transport) SetPlayingMode(mode PlayingMode) {
	t.playingMode.Store(int32(mode))
}

func (t *Transport) SyncMode() SyncMode {
	return SyncMode(t.syncMode.Load())
}

func (t *Transport) SetSyncMode(mode SyncMode) {
	t.syncMode.Store(int32(mode))
	t.midiClockTicks.Store(0)
}

func (t *Transport) PositionSource() PositionSource {
	return PositionSource(t.posSource.Load())
}

func (t *Transport) SetPositionSource(src PositionSource) {
	t.posSource.Store(int32(src))
}

func (t *Transport) OutputLatency() float64 {
	return float64(t.outputLatencyNanos.Load()) / 1e9
}

func (t *Transport) SetOutputLatency(seconds float64) {
	t.outputLatencyNanos.Store(int64(seconds * 1e9))
}

func (t *Transport) CurrentBeats() float64 {
	return math.Float64frombits(t.currentBeatsBits.Load())
}

func (t *Transport) CurrentBarBeats() float64 {
	return math.Float64frombits(t.currentBarBeatsBits.Load())
}

// ReceiveMIDIClockTick advances tempo-linked state by one MIDI clock
// pulse (24 per quarter note), used only when SyncMode is SyncMIDI.
func (t *Transport) ReceiveMIDIClockTick() {
	t.midiClockTicks.Add(1)
}

// SetExternalPosition pushes current_beats/current_bar_beats in from
// outside; only meaningful when PositionSource is PositionExternal, in
// which case Tick will not advance them itself (spec.md §4.4).
func (t *Transport) SetExternalPosition(beats, barBeats float64) {
	t.currentBeatsBits.Store(math.Float64bits(beats))
	t.currentBarBeatsBits.Store(math.Float64bits(barBeats))
}

// Tick advances the transport by one chunk: bumps samples_since_start
// and, unless PositionSource is EXTERNAL, advances current_beats and
// current_bar_beats for the chunk that just started. Called exactly
// once per chunk by the Engine; it takes no timestamp or sample count
// and advances the sample clock by buffer.ChunkSize. Returns true if a beat boundary falls within the chunk just advanced
// over, for components that subscribe to beat ticks.
func (t *Transport) Tick() (beatBoundaryCrossed bool) {
	t.samplesSinceStart.Add(buffer.ChunkSize)

	if t.PlayingMode() != Playing && t.PlayingMode() != Recording {
		return false
	}
	if t.PositionSource() == PositionExternal {
		return false
	}

	beatsBefore := t.CurrentBeats()
	var beatsPerChunk float64

	switch t.SyncMode() {
	case SyncMIDI:
		ticks := t.midiClockTicks.Swap(0)
		beatsPerChunk = float64(ticks) / 24.0
	default:
		// INTERNAL, GATE and LINK all fall back to sample-clock-derived
		// advance here; a GATE/LINK-aware frontend can instead call
		// SetExternalPosition per chunk and flip PositionSource to
		// EXTERNAL if it wants full control.
		secondsPerChunk := buffer.ChunkSize / t.sampleRate
		beatsPerChunk = secondsPerChunk * (t.Tempo() / 60.0)
	}

	beatsAfter := beatsBefore + beatsPerChunk
	t.currentBeatsBits.Store(math.Float64bits(beatsAfter))

	num, _ := t.TimeSignature()
	barBeats := math.Mod(beatsAfter, float64(num))
	t.currentBarBeatsBits.Store(math.Float64bits(barBeats))

	return math.Floor(beatsAfter) > math.Floor(beatsBefore)
}

// Reset zeroes the sample clock and beat position; used when the Engine
// transitions STOPPED_TRANSIENT -> STOPPED.
func (t *Transport) Reset() {
	t.samplesSinceStart.Store(0)
	t.currentBeatsBits.Store(0)
	t.currentBarBeatsBits.Store(0)
	t.midiClockTicks.Store(0)
}
