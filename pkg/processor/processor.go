// Package processor defines the Processor contract (spec.md §4.2): an
// abstract DSP unit with parameters, properties, programs, state and a
// process method. Internal (code-defined) and external (adapted
// plugin-format) processors are both Processors; the Engine only depends
// on this interface.
package processor

import (
	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/param"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
	"github.com/elk-audio/sushi-go/pkg/status"
)

// Processor is the contract every DSP unit implements.
type Processor interface {
	// ID returns the process-wide unique identifier assigned at creation.
	ID() uint32
	// Name returns the processor's display name.
	Name() string
	// Label returns a short category label (e.g. "Dynamics", "Filter").
	Label() string

	// ChannelsIn and ChannelsOut report the negotiated channel counts.
	ChannelsIn() int
	ChannelsOut() int

	// Parameters returns the processor's parameter registry.
	Parameters() *param.Registry
	// Properties returns the processor's property registry.
	Properties() *param.PropertyRegistry

	// Programs returns the processor's program names, or nil if it
	// doesn't support programs.
	Programs() []string
	// CurrentProgram returns the active program index, or -1.
	CurrentProgram() int32
	// SetProgram selects a program by index.
	SetProgram(index int32) status.Status

	// Bypassed reports whether the processor is currently bypassed.
	Bypassed() bool
	// SetBypassed toggles bypass. RT-safe: a single bool write.
	SetBypassed(bypassed bool)

	// ProcessEvent handles one sample-accurate RT event whose offset
	// falls within the current chunk. Called zero or more times per
	// chunk, strictly before ProcessAudio. Unrecognized event kinds are
	// silently ignored.
	ProcessEvent(e rtevent.Event)

	// ProcessAudio consumes ChunkSize frames from input and produces
	// ChunkSize frames into output. Must be deterministic, must not
	// allocate, must not block, and has no error return by design: it
	// must always succeed, falling back to silence internally on any
	// unrecoverable internal condition.
	ProcessAudio(input, output *buffer.Buffer)

	// State serializes program, bypass, parameter and property values,
	// plus any opaque processor-defined blob.
	State() ([]byte, error)
	// SetState restores from a previously captured blob. When sync is
	// true the restore must be RT-safe (no allocation); callers that
	// cannot guarantee that should route the call through an async-work
	// RT event instead of calling SetState directly from the RT thread.
	SetState(data []byte, sync bool) error
}

// Base provides the bookkeeping common to every internal Processor:
// identity, channel counts, parameter/property tables, bypass. Internal
// processor implementations embed Base and implement ProcessAudio (and
// optionally override ProcessEvent, State/SetState, Programs).
type Base struct {
	id          uint32
	name        string
	label       string
	channelsIn  int
	channelsOut int
	bypassed    bool

	params     *param.Registry
	properties *param.PropertyRegistry
}

// NewBase constructs the common Processor bookkeeping.
func NewBase(id uint32, name, label string, channelsIn, channelsOut int) Base {
	return Base{
		id:          id,
		name:        name,
		label:       label,
		channelsIn:  channelsIn,
		channelsOut: channelsOut,
		params:      param.NewRegistry(),
		properties:  param.NewPropertyRegistry(),
	}
}

func (b *Base) ID() uint32                         { return b.id }
func (b *Base) Name() string                       { return b.name }
func (b *Base) Label() string                      { return b.label }
func (b *Base) ChannelsIn() int                     { return b.channelsIn }
func (b *Base) ChannelsOut() int                    { return b.channelsOut }
func (b *Base) Parameters() *param.Registry         { return b.params }
func (b *Base) Properties() *param.PropertyRegistry { return b.properties }
func (b *Base) Bypassed() bool                      { return b.bypassed }
func (b *Base) SetBypassed(bypassed bool)           { b.bypassed = bypassed }

// Programs returns nil: processors embedding Base have no programs
// unless they override this method.
func (b *Base) Programs() []string { return nil }

// CurrentProgram returns -1: no active program by default.
func (b *Base) CurrentProgram() int32 { return -1 }

// SetProgram reports UNSUPPORTED_OPERATION by default, per spec.md §7
// ("processor doesn't expose that capability (e.g., programs on a
// non-preset plugin)").
func (b *Base) SetProgram(int32) status.Status {
	return status.New(status.UnsupportedOperation, "processor %s does not support programs", b.name)
}

// ProcessEvent applies the common RT event kinds (parameter change,
// property change, bypass) and silently ignores the rest; processors
// with their own event handling (e.g. synths reacting to note on/off)
// should call Base.ProcessEvent from their own override for the common
// kinds before handling the rest themselves.
func (b *Base) ProcessEvent(e rtevent.Event) {
	switch e.Kind {
	case rtevent.KindParameterChange:
		if e.ParameterChange.ProcessorID == b.id {
			b.params.Set(e.ParameterChange.ParameterID, e.ParameterChange.Normalized)
		}
	case rtevent.KindPropertyChange:
		if e.PropertyChange.ProcessorID == b.id {
			if p := b.properties.Get(e.PropertyChange.PropertyID); p != nil {
				p.SetValue(e.PropertyChange.Value)
			}
		}
	case rtevent.KindBypass:
		if e.Bypass.ProcessorID == b.id {
			b.bypassed = e.Bypass.Bypassed
		}
	}
}

// External is a stub documenting the seam for processors adapting a
// binary plugin surface (VST3/LV2/...). Its ABI is explicitly out of
// scope for this specification (spec.md §1 Non-goals: "the bit layout of
// any third-party plugin API"); a concrete External implementation would
// embed a platform-specific adapter here and forward Processor calls to
// it, refusing to load on failure per spec.md §7 ("a plugin that crashes
// on load is refused").
type External struct {
	Base
	adapter any // platform-specific plugin adapter, out of scope
}
