// Package controller implements the Controller facade (spec.md §4.9):
// the structured read/write surface a control frontend (gRPC, OSC, an
// embedding host) drives instead of touching the Engine directly.
// Mutations are translated into posted Events and returned without
// waiting for RT application; completions are signaled through
// subscriptions. Session save/restore walks the graph into a
// serializable snapshot and replays it as an ordered mutation sequence.
//
// Grounded on the teacher's pkg/plugin/wrapper_controller.go for the
// "translate structured calls into internal operations, return a status
// immediately" shape, generalized from a single VST3 component's
// parameter surface to the full track/processor graph;
// _examples/original_source/rpc_interface/src/control_service.cpp for
// the operation surface (semantics only, wire format out of scope).
package controller

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/elk-audio/sushi-go/pkg/dispatch"
	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/rtevent"
	"github.com/elk-audio/sushi-go/pkg/status"
	"github.com/elk-audio/sushi-go/pkg/track"
	"github.com/elk-audio/sushi-go/pkg/transport"
)

// enginePoster is the Dispatcher poster id reserved for forwarding
// Controller-originated Events onto the Engine's RT inbound queue,
// matching spec.md §9's "Controller → Event Dispatcher → RT event FIFO"
// control flow.
const enginePoster dispatch.PosterID = 0

// TrackInfo is the read-only view of a Track returned by queries.
type TrackInfo struct {
	ID       uint32
	Name     string
	Kind     track.Kind
	Channels int
	Gain     float64
	Pan      float64
}

// ProcessorInfo is the read-only view of a Processor returned by
// queries.
type ProcessorInfo struct {
	ID          uint32
	Name        string
	Label       string
	ChannelsIn  int
	ChannelsOut int
	Bypassed    bool
	Programs    []string
}

// ParameterInfo is the read-only view of a Parameter returned by
// queries.
type ParameterInfo struct {
	ID         uint32
	Name       string
	Unit       string
	Normalized float64
	Plain      float64
}

// Controller is the structured facade over an Engine. Zero value is not
// usable; construct with New.
type Controller struct {
	eng  *engine.Engine
	disp *dispatch.Dispatcher

	nextSubID atomic.Uint32

	router *notifyRouter
}

// New constructs a Controller bound to eng, registering the Dispatcher's
// engine-sink poster so mutation calls can be posted through disp
// instead of touching eng's RT queue directly.
func New(eng *engine.Engine, disp *dispatch.Dispatcher) *Controller {
	disp.Register(enginePoster, func(e rtevent.Event) {
		eng.ToRTQueue().Push(e)
	})
	return &Controller{
		eng:    eng,
		disp:   disp,
		router: newNotifyRouter(),
	}
}

// Run drains the Engine's outbound Notification channel and fans each
// one out to subscribed callbacks, honoring their filters and the
// per-subscriber FIFO + round-robin fairness described in spec.md §9.
// Blocks until Stop is called; run it on its own goroutine.
func (c *Controller) Run() {
	for n := range c.eng.Notifications() {
		c.router.publish(n)
	}
}

// Stop drops every subscriber and its queued notifications, so later
// notifications reach no handler. It does not end Run's loop, which
// returns only once the Engine closes its Notifications channel.
func (c *Controller) Stop() {
	c.router.stop()
}

// --- Query operations (direct, synchronous reads; spec.md §4.9) ---

// GetAllTracks returns every track in the graph, in Engine registration
// order within each Kind bucket.
func (c *Controller) GetAllTracks() []TrackInfo {
	tracks := c.eng.Tracks()
	out := make([]TrackInfo, len(tracks))
	for i, t := range tracks {
		out[i] = trackInfoOf(t)
	}
	return out
}

// GetTrackInfo looks up one track by id.
func (c *Controller) GetTrackInfo(trackID uint32) (TrackInfo, status.Status) {
	t := c.eng.FindTrack(trackID)
	if t == nil {
		return TrackInfo{}, status.New(status.NotFound, "no track with id %d", trackID)
	}
	return trackInfoOf(t), status.Ok
}

func trackInfoOf(t *track.Track) TrackInfo {
	return TrackInfo{
		ID:       t.ID(),
		Name:     t.Name(),
		Kind:     t.Kind(),
		Channels: t.Channels(),
		Gain:     t.Gain(),
		Pan:      t.Pan(),
	}
}

// GetTrackProcessors lists the processor chain of one track, in chain
// order.
func (c *Controller) GetTrackProcessors(trackID uint32) ([]ProcessorInfo, status.Status) {
	t := c.eng.FindTrack(trackID)
	if t == nil {
		return nil, status.New(status.NotFound, "no track with id %d", trackID)
	}
	procs := t.Processors()
	out := make([]ProcessorInfo, len(procs))
	for i, p := range procs {
		out[i] = processorInfoOf(p)
	}
	return out, status.Ok
}

func processorInfoOf(p processor.Processor) ProcessorInfo {
	return ProcessorInfo{
		ID:          p.ID(),
		Name:        p.Name(),
		Label:       p.Label(),
		ChannelsIn:  p.ChannelsIn(),
		ChannelsOut: p.ChannelsOut(),
		Bypassed:    p.Bypassed(),
		Programs:    p.Programs(),
	}
}

// GetProcessorParameters lists every parameter on the processor
// identified by processorID, searching every track's chain.
func (c *Controller) GetProcessorParameters(processorID uint32) ([]ParameterInfo, status.Status) {
	p, st := c.findProcessor(processorID)
	if !st.IsOK() {
		return nil, st
	}
	params := p.Parameters().All()
	out := make([]ParameterInfo, len(params))
	for i, prm := range params {
		out[i] = ParameterInfo{
			ID:         prm.ID,
			Name:       prm.Name,
			Unit:       prm.Unit,
			Normalized: prm.GetValue(),
			Plain:      prm.GetPlainValue(),
		}
	}
	return out, status.Ok
}

// GetParameterValue reads one parameter's current normalized value
// directly, without going through the Dispatcher: reads never need to
// wait on RT application.
func (c *Controller) GetParameterValue(processorID, parameterID uint32) (float64, status.Status) {
	p, st := c.findProcessor(processorID)
	if !st.IsOK() {
		return 0, st
	}
	prm := p.Parameters().Get(parameterID)
	if prm == nil {
		return 0, status.New(status.OutOfRange, "unknown parameter id %d on processor %d", parameterID, processorID)
	}
	return prm.GetValue(), status.Ok
}

func (c *Controller) findProcessor(processorID uint32) (processor.Processor, status.Status) {
	for _, t := range c.eng.Tracks() {
		for _, p := range t.Processors() {
			if p.ID() == processorID {
				return p, status.Ok
			}
		}
	}
	return nil, status.New(status.NotFound, "no processor with id %d", processorID)
}

// --- Mutation operations (validated synchronously, applied async) ---

// SetParameterValue validates range and existence synchronously (the
// same checks param.Registry.Set performs) and, if valid, posts a
// parameter-change Event through the Dispatcher to the Engine's RT
// queue. The value is not guaranteed applied by the time this returns;
// subscribe to parameter-update notifications for a completion signal.
func (c *Controller) SetParameterValue(processorID, parameterID uint32, normalized float64) status.Status {
	if normalized < 0 || normalized > 1 {
		return status.New(status.InvalidArguments, "parameter %d value %f outside [0,1]", parameterID, normalized)
	}
	p, st := c.findProcessor(processorID)
	if !st.IsOK() {
		return st
	}
	if p.Parameters().Get(parameterID) == nil {
		return status.New(status.OutOfRange, "unknown parameter id %d on processor %d", parameterID, processorID)
	}
	c.post(rtevent.NewParameterChange(processorID, parameterID, normalized))
	return status.Ok
}

// SetPropertyValue validates existence and posts a property-change
// Event.
func (c *Controller) SetPropertyValue(processorID, propertyID uint32, value string) status.Status {
	p, st := c.findProcessor(processorID)
	if !st.IsOK() {
		return st
	}
	if p.Properties().Get(propertyID) == nil {
		return status.New(status.OutOfRange, "unknown property id %d on processor %d", propertyID, processorID)
	}
	c.post(rtevent.Event{
		Kind:           rtevent.KindPropertyChange,
		PropertyChange: rtevent.PropertyChangePayload{ProcessorID: processorID, PropertyID: propertyID, Value: value},
	})
	return status.Ok
}

// SetBypassed posts a bypass-toggle Event for processorID.
func (c *Controller) SetBypassed(processorID uint32, bypassed bool) status.Status {
	if _, st := c.findProcessor(processorID); !st.IsOK() {
		return st
	}
	c.post(rtevent.Event{
		Kind:   rtevent.KindBypass,
		Bypass: rtevent.BypassPayload{ProcessorID: processorID, Bypassed: bypassed},
	})
	return status.Ok
}

// SetProgram posts a program-change Event for processorID after
// validating the processor supports programs and the index is in
// range.
func (c *Controller) SetProgram(processorID uint32, program int32) status.Status {
	p, st := c.findProcessor(processorID)
	if !st.IsOK() {
		return st
	}
	programs := p.Programs()
	if programs == nil {
		return status.New(status.UnsupportedOperation, "processor %d does not support programs", processorID)
	}
	if program < 0 || int(program) >= len(programs) {
		return status.New(status.OutOfRange, "program index %d out of range [0,%d)", program, len(programs))
	}
	c.post(rtevent.Event{
		Kind:          rtevent.KindProgramChange,
		ProgramChange: rtevent.ProgramChangePayload{ProcessorID: processorID, Program: program},
	})
	return status.Ok
}

// SendNoteOn posts a note-on Event targeting trackID.
func (c *Controller) SendNoteOn(trackID uint32, channel, note uint8, velocity float32) status.Status {
	if c.eng.FindTrack(trackID) == nil {
		return status.New(status.NotFound, "no track with id %d", trackID)
	}
	c.post(rtevent.NewNoteOn(trackID, channel, note, velocity, 0))
	return status.Ok
}

// SendNoteOff posts a note-off Event targeting trackID.
func (c *Controller) SendNoteOff(trackID uint32, channel, note uint8, velocity float32) status.Status {
	if c.eng.FindTrack(trackID) == nil {
		return status.New(status.NotFound, "no track with id %d", trackID)
	}
	c.post(rtevent.NewNoteOff(trackID, channel, note, velocity, 0))
	return status.Ok
}

// SendController posts a MIDI-style controller Event targeting
// trackID.
func (c *Controller) SendController(trackID uint32, channel, controllerNum uint8, value float32) status.Status {
	if c.eng.FindTrack(trackID) == nil {
		return status.New(status.NotFound, "no track with id %d", trackID)
	}
	c.post(rtevent.Event{
		Kind:       rtevent.KindController,
		Controller: rtevent.ControllerPayload{TrackID: trackID, Channel: channel, Controller: controllerNum, Value: value},
	})
	return status.Ok
}

// SetTempo posts a transport-change Event carrying the new tempo.
func (c *Controller) SetTempo(bpm float64) status.Status {
	if bpm <= 0 {
		return status.New(status.InvalidArguments, "tempo %f must be positive", bpm)
	}
	c.post(rtevent.Event{
		Kind:      rtevent.KindTransportChange,
		Transport: rtevent.TransportChangePayload{HasTempo: true, Tempo: bpm},
	})
	return status.Ok
}

// SetTimeSignature posts a transport-change Event carrying the new time
// signature.
func (c *Controller) SetTimeSignature(numerator, denominator int32) status.Status {
	if numerator <= 0 || denominator <= 0 {
		return status.New(status.InvalidArguments, "time signature %d/%d must be positive", numerator, denominator)
	}
	c.post(rtevent.Event{
		Kind:      rtevent.KindTransportChange,
		Transport: rtevent.TransportChangePayload{HasTimeSig: true, TimeSigNum: numerator, TimeSigDenom: denominator},
	})
	return status.Ok
}

// SetPlayingMode posts a transport-change Event selecting a new
// PlayingMode (spec.md §4.4).
func (c *Controller) SetPlayingMode(mode transport.PlayingMode) status.Status {
	c.post(rtevent.Event{
		Kind:      rtevent.KindTransportChange,
		Transport: rtevent.TransportChangePayload{HasPlayingMode: true, PlayingMode: int32(mode)},
	})
	return status.Ok
}

// SetSyncMode posts a transport-change Event selecting a new SyncMode.
func (c *Controller) SetSyncMode(mode transport.SyncMode) status.Status {
	c.post(rtevent.Event{
		Kind:      rtevent.KindTransportChange,
		Transport: rtevent.TransportChangePayload{HasSyncMode: true, SyncMode: int32(mode)},
	})
	return status.Ok
}

func (c *Controller) post(e rtevent.Event) {
	c.disp.Post(enginePoster, e, time.Time{})
}

// --- Graph mutation (spec.md §4.5: direct, not RT-queued; the Engine
// owns its track lists under a mutex and is the sole place that swaps
// graph pointers, so these calls go straight to it rather than through
// the RT event queue) ---

// CreateTrack builds and registers a new Track.
func (c *Controller) CreateTrack(id uint32, name string, kind track.Kind, channels, inboxCapacity int) status.Status {
	t := c.eng.CreateTrack(id, name, kind, channels, inboxCapacity)
	return c.eng.AddTrack(t)
}

// RemoveTrack deletes a track and its processor chain from the graph.
func (c *Controller) RemoveTrack(trackID uint32) status.Status {
	_, st := c.eng.RemoveTrack(trackID)
	return st
}

// AddProcessorToTrack appends p to trackID's processor chain.
func (c *Controller) AddProcessorToTrack(trackID uint32, p processor.Processor) status.Status {
	return c.eng.AddProcessorToTrack(trackID, p)
}

// RemoveProcessorFromTrack detaches the processor identified by
// processorID from trackID's chain.
func (c *Controller) RemoveProcessorFromTrack(trackID, processorID uint32) status.Status {
	_, st := c.eng.RemoveProcessorFromTrack(trackID, processorID)
	return st
}

// --- Session save/restore (spec.md §4.9, §6) ---

// TrackSnapshot is the persistable shape of one Track: enough to
// recreate it and its processor chain. pkg/session wraps this in the
// broader engine/MIDI/OSC session document and handles YAML encoding.
type TrackSnapshot struct {
	ID         uint32
	Name       string
	Kind       track.Kind
	Channels   int
	Gain       float64
	Pan        float64
	Processors []ProcessorSnapshot
}

// ProcessorSnapshot is the persistable shape of one Processor: its
// identity plus the opaque state blob returned by Processor.State.
type ProcessorSnapshot struct {
	ID       uint32
	Name     string
	Label    string
	Bypassed bool
	State    []byte
}

// GraphSnapshot is the full persistable track/processor graph, the
// "tracks" portion of spec.md §6's session state document.
type GraphSnapshot struct {
	Tracks []TrackSnapshot
}

// SaveGraph walks the current graph and captures it as a GraphSnapshot.
// Per-processor state blobs are captured via Processor.State, which may
// allocate and is not RT-safe; call this from the non-RT control path
// only, matching the rest of Controller.
func (c *Controller) SaveGraph() (GraphSnapshot, error) {
	tracks := c.eng.Tracks()
	snap := GraphSnapshot{Tracks: make([]TrackSnapshot, len(tracks))}
	for i, t := range tracks {
		procs := t.Processors()
		procSnaps := make([]ProcessorSnapshot, len(procs))
		for j, p := range procs {
			data, err := p.State()
			if err != nil {
				return GraphSnapshot{}, err
			}
			procSnaps[j] = ProcessorSnapshot{
				ID:       p.ID(),
				Name:     p.Name(),
				Label:    p.Label(),
				Bypassed: p.Bypassed(),
				State:    data,
			}
		}
		snap.Tracks[i] = TrackSnapshot{
			ID:         t.ID(),
			Name:       t.Name(),
			Kind:       t.Kind(),
			Channels:   t.Channels(),
			Gain:       t.Gain(),
			Pan:        t.Pan(),
			Processors: procSnaps,
		}
	}
	return snap, nil
}

// ProcessorFactory reconstructs a Processor by the name recorded in a
// ProcessorSnapshot, since the Controller has no registry of concrete
// processor constructors itself (that lives with whatever assembles the
// graph, e.g. cmd/sushi's plugin loader).
type ProcessorFactory func(name string, id uint32) (processor.Processor, error)

// RestoreGraph replays snap as an ordered mutation sequence per spec.md
// §4.9: delete the current graph, create tracks, add processors to
// tracks in order, then apply per-processor state bytes, all with
// realtime processing disabled and re-enabled only once every mutation
// has completed.
func (c *Controller) RestoreGraph(snap GraphSnapshot, newProcessor ProcessorFactory) error {
	c.eng.EnableRealtime(false)
	defer c.eng.EnableRealtime(true)

	for _, existing := range c.eng.Tracks() {
		if _, st := c.eng.RemoveTrack(existing.ID()); !st.IsOK() {
			return st.Err()
		}
	}

	for _, ts := range snap.Tracks {
		t := c.eng.CreateTrack(ts.ID, ts.Name, ts.Kind, ts.Channels, defaultInboxCapacity)
		t.SetGain(ts.Gain)
		t.SetPan(ts.Pan)
		if st := c.eng.AddTrack(t); !st.IsOK() {
			return st.Err()
		}
		for _, ps := range ts.Processors {
			p, err := newProcessor(ps.Name, ps.ID)
			if err != nil {
				return err
			}
			p.SetBypassed(ps.Bypassed)
			if len(ps.State) > 0 {
				if err := p.SetState(ps.State, false); err != nil {
					return err
				}
			}
			if st := c.eng.AddProcessorToTrack(ts.ID, p); !st.IsOK() {
				return st.Err()
			}
		}
	}
	return nil
}

// defaultInboxCapacity sizes a restored track's RT event inbox; large
// enough for a burst of control input between chunks without growing
// further (the inbox never grows after creation).
const defaultInboxCapacity = 256

// --- Subscriptions ---

// NotificationFilter narrows which Notifications a subscriber receives.
// A nil/zero field matches everything for that dimension.
type NotificationFilter struct {
	Kinds   []string // e.g. "clip", "cpu"; nil matches every kind
	TrackID *uint32  // nil matches every track
}

func (f NotificationFilter) matches(n engine.Notification) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if k == n.Kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.TrackID != nil && *f.TrackID != n.TrackID {
		return false
	}
	return true
}

// SubscriberID identifies a registered notification subscriber.
type SubscriberID uint32

// Subscribe registers handler to receive Notifications matching filter,
// delivered in FIFO order relative to other notifications for this
// subscriber, with cooperative round-robin fairness against other
// subscribers (spec.md §9's "PUSH_TO_BACK" behavior, reused from the
// Event Dispatcher's fairness shape but specialized to the Engine's
// outbound Notification type, which is not an rtevent.Event).
func (c *Controller) Subscribe(filter NotificationFilter, handler func(engine.Notification)) SubscriberID {
	id := SubscriberID(c.nextSubID.Add(1))
	c.router.register(id, filter, handler)
	return id
}

// Unsubscribe deregisters a subscriber; notifications already queued
// for it are dropped (spec.md §4.9: "in-flight notifications to a
// removed subscriber are dropped").
func (c *Controller) Unsubscribe(id SubscriberID) {
	c.router.deregister(id)
}

// notifyRouter fans out Engine Notifications to filtered subscribers
// with the same per-subscriber-FIFO, round-robin-across-subscribers
// shape as dispatch.Dispatcher, adapted to Notification instead of
// rtevent.Event since the two producers/consumers differ: mutation
// Events flow Controller->Engine, Notifications flow Engine->Controller.
type notifyRouter struct {
	mu       sync.Mutex
	subs     map[SubscriberID]subscriberEntry
	order    []SubscriberID
	queues   map[SubscriberID][]engine.Notification
	stopOnce sync.Once
}

type subscriberEntry struct {
	filter  NotificationFilter
	handler func(engine.Notification)
}

func newNotifyRouter() *notifyRouter {
	return &notifyRouter{
		subs:   make(map[SubscriberID]subscriberEntry),
		queues: make(map[SubscriberID][]engine.Notification),
	}
}

func (r *notifyRouter) register(id SubscriberID, filter NotificationFilter, handler func(engine.Notification)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[id] = subscriberEntry{filter: filter, handler: handler}
	r.order = append(r.order, id)
}

func (r *notifyRouter) deregister(id SubscriberID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
	delete(r.queues, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *notifyRouter) publish(n engine.Notification) {
	r.mu.Lock()
	for _, id := range r.order {
		entry := r.subs[id]
		if entry.filter.matches(n) {
			r.queues[id] = append(r.queues[id], n)
		}
	}
	r.mu.Unlock()
	r.deliverRoundRobin()
}

func (r *notifyRouter) deliverRoundRobin() {
	for {
		r.mu.Lock()
		order := append([]SubscriberID(nil), r.order...)
		r.mu.Unlock()

		delivered := false
		for _, id := range order {
			r.mu.Lock()
			q := r.queues[id]
			entry, ok := r.subs[id]
			if !ok || len(q) == 0 {
				r.mu.Unlock()
				continue
			}
			n := q[0]
			r.queues[id] = q[1:]
			r.mu.Unlock()

			entry.handler(n)
			delivered = true
		}
		if !delivered {
			return
		}
	}
}

func (r *notifyRouter) stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.subs = make(map[SubscriberID]subscriberEntry)
		r.order = nil
		r.queues = make(map[SubscriberID][]engine.Notification)
	})
}
