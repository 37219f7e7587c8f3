// Package engine implements the Audio Engine (spec.md §4.5): the graph
// of Tracks, the audio connection tables, the per-chunk algorithm, graph
// mutation, and the STOPPED/RUNNING/STOPPED_TRANSIENT state machine.
//
// Grounded on the teacher's pkg/plugin/wrapper.go /
// wrapper_audio.go / wrapper_controller.go for the "one entry point
// drives everything" shape, generalized from a single VST3 component's
// process callback to a multi-track graph; the step-by-step per-chunk
// order and state machine semantics come from
// _examples/original_source/src/engine/audio_engine.h (semantics only,
// no C++ carried over).
package engine

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/dsp/debug"
	"github.com/elk-audio/sushi-go/pkg/obslog"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
	"github.com/elk-audio/sushi-go/pkg/rtqueue"
	"github.com/elk-audio/sushi-go/pkg/status"
	"github.com/elk-audio/sushi-go/pkg/track"
	"github.com/elk-audio/sushi-go/pkg/transport"
)

// State is the Engine's run state machine (spec.md §4.5).
type State int32

const (
	Stopped State = iota
	Running
	StoppedTransient
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Running:
		return "RUNNING"
	case StoppedTransient:
		return "STOPPED_TRANSIENT"
	default:
		return "UNKNOWN"
	}
}

// RTThreadHints carries realtime scheduling hints a device frontend may
// apply via runtime.LockOSThread and a best-effort priority bump.
// Platform-dependent, never required for correctness (SPEC_FULL §10).
type RTThreadHints struct {
	Priority  int
	PinToCore int
}

// InputRoute maps an engine input channel to a (track, track channel)
// sink (spec.md §4.5 step 5).
type InputRoute struct {
	EngineChannel int
	TrackID       uint32
	TrackChannel  int
}

// OutputRoute maps a Track output channel to an engine output channel
// (spec.md §4.5 step 7); multiple routes may target the same engine
// channel, in which case their contributions are summed.
type OutputRoute struct {
	TrackID       uint32
	TrackChannel  int
	EngineChannel int
}

// Notification is one item on the from-RT outbound queue (spec.md §4.5
// step 9): CPU timings, track/processor changes, parameter values,
// xrun/clip notices. Kind is one of "cpu", "clip", "xrun", "transport",
// "track change", "processor change", "parameter update" or "property
// update"; each carries only the fields relevant to its own Kind.
type Notification struct {
	Kind      string
	TrackID   uint32
	CPUNanos  float64
	Clipped   bool
	XrunCount int

	ProcessorID    uint32
	ParameterID    uint32
	ParameterValue float64
	PropertyID     uint32
	PropertyValue  string

	Added bool // track change / processor change: true = added, false = removed

	Timestamp time.Time
}

// Frontend is the minimal surface the Engine needs from whatever drives
// it, enough to enforce "exactly one Audio Frontend owns the engine's RT
// callback at a time" (SPEC_FULL §10) without importing pkg/frontend
// (which in turn depends on pkg/engine for its process_chunk target).
type Frontend interface {
	Name() string
}

// Engine owns the Track graph and drives the per-chunk algorithm.
// Its RT-facing methods (ProcessChunk) are safe to call from exactly
// one thread at a time, per spec.md §5's "Exactly one real-time audio
// thread" model; all other methods are non-RT control operations.
type Engine struct {
	sampleRate float64
	channelsIn int
	channelsOut int

	state atomic.Int32

	transport *transport.Transport

	mu         sync.RWMutex
	preTracks  []*track.Track
	regular    []*track.Track
	postTracks []*track.Track

	inputRoutes  []InputRoute
	outputRoutes []OutputRoute

	// sinkBuffers holds one pre-allocated input buffer per REGULAR track,
	// built by PrepareSinkBuffers once the graph is stable so
	// ProcessChunk never allocates.
	sinkBuffers map[uint32]*buffer.Buffer

	toRT   *rtqueue.Queue
	fromRT *rtqueue.Queue

	notifications chan Notification

	engineIn  *buffer.Buffer
	engineOut *buffer.Buffer

	realtimeEnabled atomic.Bool

	frontendMu sync.Mutex
	frontend   Frontend

	xrunMu       sync.Mutex
	xrunCount    int
	xrunWindowAt time.Time

	rtHints RTThreadHints

	log *obslog.Logger
}

const xrunCoalesceWindow = 500 * time.Millisecond

// New constructs an Engine at the given sample rate and engine-level
// channel counts. toRTCapacity/fromRTCapacity size the lock-free queues
// coupling this Engine to non-RT control and notification consumers
// (spec.md §5: "all queues are sized at startup").
func New(sampleRate float64, channelsIn, channelsOut, toRTCapacity, fromRTCapacity int) *Engine {
	e := &Engine{
		sampleRate:  sampleRate,
		channelsIn:  channelsIn,
		channelsOut: channelsOut,
		transport:   transport.New(sampleRate),
		toRT:        rtqueue.New(toRTCapacity),
		fromRT:      rtqueue.New(fromRTCapacity),
		notifications: make(chan Notification, fromRTCapacity),
		engineIn:    buffer.NewOwning(channelsIn),
		engineOut:   buffer.NewOwning(channelsOut),
		log:         obslog.Named("engine"),
	}
	e.state.Store(int32(Stopped))
	return e
}

func (e *Engine) SampleRate() float64    { return e.sampleRate }
func (e *Engine) Transport() *transport.Transport { return e.transport }
func (e *Engine) State() State           { return State(e.state.Load()) }
func (e *Engine) ToRTQueue() *rtqueue.Queue   { return e.toRT }
func (e *Engine) FromRTQueue() *rtqueue.Queue { return e.fromRT }
func (e *Engine) Notifications() <-chan Notification { return e.notifications }

// AttachFrontend registers f as the engine's sole RT-callback owner.
// Returns a status.Error if another frontend is already attached,
// enforcing SPEC_FULL §10's "exactly one Audio Frontend at a time".
func (e *Engine) AttachFrontend(f Frontend) status.Status {
	e.frontendMu.Lock()
	defer e.frontendMu.Unlock()
	if e.frontend != nil {
		return status.New(status.Error, "frontend %q already attached, cannot attach %q", e.frontend.Name(), f.Name())
	}
	e.frontend = f
	return status.Ok
}

// DetachFrontend releases the current frontend so another may attach.
func (e *Engine) DetachFrontend() {
	e.frontendMu.Lock()
	defer e.frontendMu.Unlock()
	e.frontend = nil
}

// SetRTThreadHints stores scheduling hints a device frontend may later
// read and apply.
func (e *Engine) SetRTThreadHints(h RTThreadHints) { e.rtHints = h }
func (e *Engine) RTThreadHints() RTThreadHints     { return e.rtHints }

// EnableRealtime drives the Engine's state machine: true -> RUNNING,
// and false from RUNNING -> STOPPED_TRANSIENT (every track's output
// buffer faded to zero, transport clock reset) -> STOPPED. The flag is
// stored but no mutation path reads it: AddTrack, RemoveTrack and the
// processor methods apply their changes directly in either state.
func (e *Engine) EnableRealtime(enabled bool) {
	e.realtimeEnabled.Store(enabled)
	if enabled {
		e.state.Store(int32(Running))
		return
	}
	if e.State() == Running {
		e.state.Store(int32(StoppedTransient))
		e.rampToSilence()
		e.transport.Reset()
		e.state.Store(int32(Stopped))
	}
}

func (e *Engine) rampToSilence() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, t := range e.allTracks() {
		fadeTrackGainToZero(t)
	}
}

func fadeTrackGainToZero(t *track.Track) {
	out := t.Output()
	for ch := 0; ch < out.NumChannels(); ch++ {
		c := out.Channel(ch)
		n := len(c)
		for i := range c {
			c[i] *= float32(n-i-1) / float32(n)
		}
	}
}

func (e *Engine) allTracks() []*track.Track {
	all := make([]*track.Track, 0, len(e.preTracks)+len(e.regular)+len(e.postTracks))
	all = append(all, e.preTracks...)
	all = append(all, e.regular...)
	all = append(all, e.postTracks...)
	return all
}

// CreateTrack builds a new Track of the given kind and channel count,
// with metering enabled at the engine's sample rate. It only constructs
// and returns the Track; AddTrack registers it in the graph.
func (e *Engine) CreateTrack(id uint32, name string, kind track.Kind, channels int, inboxCapacity int) *track.Track {
	t := track.New(id, name, kind, channels, inboxCapacity)
	t.EnableMetering(e.sampleRate)
	return t
}

// AddTrack registers a freshly constructed Track into the graph under
// the graph's write lock. Must only be called from the non-RT thread;
// the RT event dispatch has no AddTrack handling, so an AddTrack RT
// event does not add a track.
func (e *Engine) AddTrack(t *track.Track) status.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.allTracks() {
		if existing.ID() == t.ID() {
			return status.New(status.InvalidArguments, "track id %d already exists", t.ID())
		}
	}
	switch t.Kind() {
	case track.KindPre:
		e.preTracks = append(e.preTracks, t)
	case track.KindPost:
		e.postTracks = append(e.postTracks, t)
	default:
		e.regular = append(e.regular, t)
	}
	e.rebuildSinkBuffersLocked()
	e.publishNotification(Notification{Kind: "track change", TrackID: t.ID(), Added: true, Timestamp: time.Now()})
	return status.Ok
}

// RemoveTrack detaches a track by id and returns it so the caller can
// hand it to a deletion queue on a non-RT thread (spec.md §4.5: "the RT
// thread only swaps pointers... removal events... hand the object back
// to a deletion queue").
func (e *Engine) RemoveTrack(id uint32) (*track.Track, status.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, list := range []*[]*track.Track{&e.preTracks, &e.regular, &e.postTracks} {
		for i, t := range *list {
			if t.ID() == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				e.rebuildSinkBuffersLocked()
				e.publishNotification(Notification{Kind: "track change", TrackID: id, Added: false, Timestamp: time.Now()})
				return t, status.Ok
			}
		}
	}
	return nil, status.New(status.NotFound, "track id %d not found", id)
}

// FindTrack returns the track with the given id, or nil.
func (e *Engine) FindTrack(id uint32) *track.Track {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, t := range e.allTracks() {
		if t.ID() == id {
			return t
		}
	}
	return nil
}

// Tracks returns a snapshot of every track currently in the graph.
func (e *Engine) Tracks() []*track.Track {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.allTracks()
}

// AddProcessorToTrack appends a processor to the given track's chain.
func (e *Engine) AddProcessorToTrack(trackID uint32, p processor.Processor) status.Status {
	t := e.FindTrack(trackID)
	if t == nil {
		return status.New(status.NotFound, "track id %d not found", trackID)
	}
	t.AddProcessor(p)
	e.publishNotification(Notification{Kind: "processor change", TrackID: trackID, ProcessorID: p.ID(), Added: true, Timestamp: time.Now()})
	return status.Ok
}

// RemoveProcessorFromTrack detaches a processor by id from the given
// track and returns it for deletion-queue handoff.
func (e *Engine) RemoveProcessorFromTrack(trackID, processorID uint32) (processor.Processor, status.Status) {
	t := e.FindTrack(trackID)
	if t == nil {
		return nil, status.New(status.NotFound, "track id %d not found", trackID)
	}
	p := t.RemoveProcessor(processorID)
	if p == nil {
		return nil, status.New(status.NotFound, "processor id %d not found on track %d", processorID, trackID)
	}
	e.publishNotification(Notification{Kind: "processor change", TrackID: trackID, ProcessorID: processorID, Added: false, Timestamp: time.Now()})
	return p, status.Ok
}

// SetInputRoutes replaces the engine input connection table.
func (e *Engine) SetInputRoutes(routes []InputRoute) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputRoutes = routes
}

// SetOutputRoutes replaces the engine output connection table.
func (e *Engine) SetOutputRoutes(routes []OutputRoute) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outputRoutes = routes
}

// ReportXrun is called by an Audio Frontend when it detects a missed
// deadline. Consecutive xruns within xrunCoalesceWindow are coalesced
// into a single notification with a count (SPEC_FULL §10).
func (e *Engine) ReportXrun() {
	e.xrunMu.Lock()
	now := time.Now()
	if e.xrunWindowAt.IsZero() || now.Sub(e.xrunWindowAt) > xrunCoalesceWindow {
		if e.xrunCount > 0 {
			e.publishNotification(Notification{Kind: "xrun", XrunCount: e.xrunCount, Timestamp: e.xrunWindowAt})
		}
		e.xrunWindowAt = now
		e.xrunCount = 1
	} else {
		e.xrunCount++
	}
	e.xrunMu.Unlock()
}

// FlushXrunWindow publishes any pending coalesced xrun count. Called
// periodically by whatever drains notifications (e.g. the Controller).
func (e *Engine) FlushXrunWindow() {
	e.xrunMu.Lock()
	defer e.xrunMu.Unlock()
	if e.xrunCount > 0 && time.Since(e.xrunWindowAt) > xrunCoalesceWindow {
		e.publishNotification(Notification{Kind: "xrun", XrunCount: e.xrunCount, Timestamp: e.xrunWindowAt})
		e.xrunCount = 0
	}
}

func (e *Engine) publishNotification(n Notification) {
	select {
	case e.notifications <- n:
	default:
		// Notification channel full: drop rather than block the RT path
		// that may be calling this indirectly via ProcessChunk.
	}
}

// ProcessChunk is the engine's single RT entry point (spec.md §4.5): it
// runs the full nine-step per-chunk algorithm against one Buffer worth
// of engine input and writes one Buffer worth of engine output. Must be
// called exactly once per audio period by the attached Frontend.
func (e *Engine) ProcessChunk(input *buffer.Buffer, output *buffer.Buffer, timestamp time.Time, sampleCount uint64) {
	start := time.Now()

	// Step 1: advance the Transport by one chunk. Tick counts
	// buffer.ChunkSize samples itself; timestamp and sampleCount are
	// not read.
	e.transport.Tick()

	// The RT thread is the graph's sole owner while running (spec.md §5);
	// this RLock only guards against a concurrent non-RT reader (e.g. a
	// Controller query) observing a torn track list, never against
	// another writer, so it is held for the rest of this call including
	// event dispatch.
	e.mu.RLock()
	defer e.mu.RUnlock()

	// Step 2: drain to-RT queue, dispatching to tracks or engine state.
	e.toRT.DrainUpTo(e.toRT.Capacity(), func(ev rtevent.Event) bool {
		e.dispatchRTEvent(ev)
		return true
	})

	// Steps 3-8 are the per-chunk audio hot path: under a 'debug' build
	// tag, track allocations across it and log if any slipped in. A
	// plain build compiles debug.StartFrame/EndFrame to no-ops.
	debug.StartFrame()

	// Step 3: zero the engine-internal output buffer.
	e.engineOut.Clear()

	// Step 4: execute PRE tracks (fed from engine input directly).
	for _, t := range e.preTracks {
		t.ProcessChunk(input, nil, nil)
	}

	// Step 5: route engine input channels to configured track sinks.
	e.routeInputs(input)

	// Step 6: execute REGULAR tracks in registration order (single-core;
	// spec.md's multi-core worker partitioning is out of scope here).
	for _, t := range e.regular {
		t.ProcessChunk(e.trackSinkBuffer(t), nil, nil)
	}

	// Step 7: route track outputs to engine output channels, summing.
	e.routeOutputs(e.engineOut)

	// Step 8: execute POST tracks on the summed output.
	for _, t := range e.postTracks {
		t.ProcessChunk(e.engineOut, nil, nil)
		copyTrackOutputBack(t, e.engineOut)
	}

	copyEngineOutput(e.engineOut, output)

	if allocs, bytes := debug.EndFrame(); allocs > 0 {
		e.log.Warn("allocation in audio hot path", "allocations", allocs, "bytes", bytes)
	}

	// Step 9: publish outbound notifications.
	e.publishPerChunkNotifications(time.Since(start))
}

// trackSinkBuffer returns the REGULAR track's pre-built input buffer
// from sinkBuffers, filled by routeInputs before step 6 runs, or the
// track's own output buffer if it has none.
func (e *Engine) trackSinkBuffer(t *track.Track) *buffer.Buffer {
	if buf, ok := e.sinkBuffers[t.ID()]; ok {
		return buf
	}
	return t.Output()
}

func (e *Engine) routeInputs(input *buffer.Buffer) {
	if e.sinkBuffers == nil {
		return
	}
	for _, buf := range e.sinkBuffers {
		buf.Clear()
	}
	for _, r := range e.inputRoutes {
		if r.EngineChannel >= input.NumChannels() {
			continue
		}
		buf, ok := e.sinkBuffers[r.TrackID]
		if !ok || r.TrackChannel >= buf.NumChannels() {
			continue
		}
		buffer.Add(buf.Channel(r.TrackChannel), input.Channel(r.EngineChannel))
	}
}

func (e *Engine) routeOutputs(engineOut *buffer.Buffer) {
	for _, r := range e.outputRoutes {
		t := e.findTrackLocked(r.TrackID)
		if t == nil || r.EngineChannel >= engineOut.NumChannels() {
			continue
		}
		out := t.Output()
		if r.TrackChannel >= out.NumChannels() {
			continue
		}
		buffer.Add(engineOut.Channel(r.EngineChannel), out.Channel(r.TrackChannel))
	}
}

func (e *Engine) findTrackLocked(id uint32) *track.Track {
	for _, t := range e.allTracks() {
		if t.ID() == id {
			return t
		}
	}
	return nil
}

func copyTrackOutputBack(t *track.Track, engineOut *buffer.Buffer) {
	out := t.Output()
	n := out.NumChannels()
	if engineOut.NumChannels() < n {
		n = engineOut.NumChannels()
	}
	for ch := 0; ch < n; ch++ {
		buffer.Copy(engineOut.Channel(ch), out.Channel(ch))
	}
}

func copyEngineOutput(src, dst *buffer.Buffer) {
	n := src.NumChannels()
	if dst.NumChannels() < n {
		n = dst.NumChannels()
	}
	for ch := 0; ch < n; ch++ {
		buffer.Copy(dst.Channel(ch), src.Channel(ch))
	}
}

func (e *Engine) publishPerChunkNotifications(elapsed time.Duration) {
	for _, t := range e.allTracks() {
		if t.Clipped() {
			e.publishNotification(Notification{Kind: "clip", TrackID: t.ID(), Clipped: true, Timestamp: time.Now()})
		}
	}
	e.publishNotification(Notification{Kind: "cpu", CPUNanos: float64(elapsed.Nanoseconds()), Timestamp: time.Now()})
}

func (e *Engine) dispatchRTEvent(ev rtevent.Event) {
	switch ev.Kind {
	case rtevent.KindTransportChange:
		e.applyTransportChange(ev.Transport)
	case rtevent.KindStopEngine:
		e.state.Store(int32(StoppedTransient))
	case rtevent.KindParameterChange:
		e.publishNotification(Notification{
			Kind:           "parameter update",
			ProcessorID:    ev.ParameterChange.ProcessorID,
			ParameterID:    ev.ParameterChange.ParameterID,
			ParameterValue: ev.ParameterChange.Normalized,
			Timestamp:      time.Now(),
		})
		if targetTrack := e.trackForEvent(ev); targetTrack != nil {
			targetTrack.Inbox().Push(ev)
		}
	case rtevent.KindPropertyChange:
		e.publishNotification(Notification{
			Kind:          "property update",
			ProcessorID:   ev.PropertyChange.ProcessorID,
			PropertyID:    ev.PropertyChange.PropertyID,
			PropertyValue: ev.PropertyChange.Value,
			Timestamp:     time.Now(),
		})
		if targetTrack := e.trackForEvent(ev); targetTrack != nil {
			targetTrack.Inbox().Push(ev)
		}
	default:
		if targetTrack := e.trackForEvent(ev); targetTrack != nil {
			targetTrack.Inbox().Push(ev)
		}
	}
}

func (e *Engine) trackForEvent(ev rtevent.Event) *track.Track {
	var trackID uint32
	switch ev.Kind {
	case rtevent.KindNoteOn, rtevent.KindNoteOff, rtevent.KindAftertouch:
		trackID = ev.Note.TrackID
	case rtevent.KindController:
		trackID = ev.Controller.TrackID
	default:
		// Processor-addressed events (parameter/property/bypass/program)
		// are broadcast to every track; each processor filters by its own
		// id, matching pkg/processor.Base.ProcessEvent's discipline.
		for _, t := range e.allTracks() {
			t.Inbox().Push(ev)
		}
		return nil
	}
	return e.findTrackLocked(trackID)
}

func (e *Engine) applyTransportChange(p rtevent.TransportChangePayload) {
	if p.HasTempo {
		e.transport.SetTempo(p.Tempo)
	}
	if p.HasTimeSig {
		e.transport.SetTimeSignature(p.TimeSigNum, p.TimeSigDenom)
	}
	if p.HasPlayingMode {
		e.transport.SetPlayingMode(transport.PlayingMode(p.PlayingMode))
	}
	if p.HasSyncMode {
		e.transport.SetSyncMode(transport.SyncMode(p.SyncMode))
	}
	if p.HasPosition {
		e.transport.SetExternalPosition(p.CurrentBeats, p.CurrentBarBeats)
	}
	e.publishNotification(Notification{Kind: "transport", Timestamp: time.Now()})
}

// PrepareSinkBuffers (re)allocates the per-track input buffers used by
// routeInputs/trackSinkBuffer. AddTrack/RemoveTrack call this
// automatically; exported so a caller restoring a whole session can
// batch several mutations and rebuild once at the end instead.
func (e *Engine) PrepareSinkBuffers() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rebuildSinkBuffersLocked()
}

func (e *Engine) rebuildSinkBuffersLocked() {
	e.sinkBuffers = make(map[uint32]*buffer.Buffer, len(e.regular))
	for _, t := range e.regular {
		e.sinkBuffers[t.ID()] = buffer.NewOwning(t.Channels())
	}
}

// LockRTThread pins the calling OS thread, for use by a device frontend
// before it begins invoking ProcessChunk from its audio callback.
func LockRTThread(hints RTThreadHints) {
	runtime.LockOSThread()
	_ = hints.PinToCore // platform-dependent core pinning is out of scope beyond this hook
}

func (e *Engine) String() string {
	return fmt.Sprintf("Engine{state=%s, tracks=%d}", e.State(), len(e.allTracks()))
}
