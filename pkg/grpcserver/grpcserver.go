// Package grpcserver is the gRPC control-plane boundary: it decodes
// requests into Controller calls and encodes responses back out. The
// wire message schema itself is out of scope (spec.md §1's non-goals
// exclude wire/bit-layout work), so every request/response is carried
// as a google.golang.org/protobuf/types/known/structpb.Struct — a real,
// already-compiled protobuf message, letting the service plug into any
// future .proto-defined schema without this package owning generated
// code.
//
// Grounded on other_examples/.../nupi-ai-plugin-vad-local-silero's
// Server type (cfg + logger + one constructor, per-call validation
// before touching engine state) and tphakala-birdnet-go's gRPC service
// registration shape.
package grpcserver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/elk-audio/sushi-go/pkg/controller"
	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/obslog"
	"github.com/elk-audio/sushi-go/pkg/status"
)

// Server implements the control-plane gRPC service over a Controller.
type Server struct {
	ctrl *controller.Controller
	log  *obslog.Logger
}

// New returns a Server backed by ctrl.
func New(ctrl *controller.Controller) *Server {
	return &Server{ctrl: ctrl, log: obslog.Named("grpcserver")}
}

// Register attaches the service to s using a hand-rolled ServiceDesc,
// the same shape protoc-gen-go-grpc emits, since there is no .proto
// source to generate one from.
func Register(s *grpc.Server, srv *Server) {
	s.RegisterService(&serviceDesc, srv)
}

func toStatusError(st status.Status) error {
	if st.IsOK() {
		return nil
	}
	var code grpccodes.Code
	switch st.Code {
	case status.NotFound:
		code = grpccodes.NotFound
	case status.InvalidArguments:
		code = grpccodes.InvalidArgument
	case status.OutOfRange:
		code = grpccodes.OutOfRange
	case status.UnsupportedOperation:
		code = grpccodes.Unimplemented
	default:
		code = grpccodes.Internal
	}
	return grpcstatus.Error(code, st.Message)
}

func mustStruct(fields map[string]any) *structpb.Struct {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		// Only reachable if fields contains a value structpb can't
		// represent; every call site here builds fields from plain
		// numbers, strings and bools.
		panic(fmt.Sprintf("grpcserver: building response struct: %v", err))
	}
	return s
}

func numberField(req *structpb.Struct, name string) (float64, bool) {
	f, ok := req.Fields[name]
	if !ok {
		return 0, false
	}
	return f.GetNumberValue(), true
}

func stringField(req *structpb.Struct, name string) (string, bool) {
	f, ok := req.Fields[name]
	if !ok {
		return "", false
	}
	return f.GetStringValue(), true
}

// GetTrackInfo looks up one track by "track_id".
func (s *Server) getTrackInfo(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, ok := numberField(req, "track_id")
	if !ok {
		return nil, grpcstatus.Error(grpccodes.InvalidArgument, "missing track_id")
	}
	info, st := s.ctrl.GetTrackInfo(uint32(id))
	if err := toStatusError(st); err != nil {
		return nil, err
	}
	return mustStruct(map[string]any{
		"id":       float64(info.ID),
		"name":     info.Name,
		"kind":     float64(info.Kind),
		"channels": float64(info.Channels),
		"gain":     info.Gain,
		"pan":      info.Pan,
	}), nil
}

// GetAllTracks lists every track as a list-valued response field.
func (s *Server) getAllTracks(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	tracks := s.ctrl.GetAllTracks()
	items := make([]any, len(tracks))
	for i, t := range tracks {
		items[i] = map[string]any{
			"id":       float64(t.ID),
			"name":     t.Name,
			"kind":     float64(t.Kind),
			"channels": float64(t.Channels),
		}
	}
	return mustStruct(map[string]any{"tracks": items}), nil
}

// SetParameterValue applies "processor_id"/"parameter_id"/"value".
func (s *Server) setParameterValue(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	processorID, _ := numberField(req, "processor_id")
	parameterID, _ := numberField(req, "parameter_id")
	value, _ := numberField(req, "value")

	st := s.ctrl.SetParameterValue(uint32(processorID), uint32(parameterID), value)
	if err := toStatusError(st); err != nil {
		return nil, err
	}
	return mustStruct(map[string]any{"ok": true}), nil
}

// SendNoteOn applies "track_id"/"channel"/"note"/"velocity".
func (s *Server) sendNoteOn(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	trackID, _ := numberField(req, "track_id")
	channel, _ := numberField(req, "channel")
	note, _ := numberField(req, "note")
	velocity, _ := numberField(req, "velocity")

	st := s.ctrl.SendNoteOn(uint32(trackID), uint8(channel), uint8(note), float32(velocity))
	if err := toStatusError(st); err != nil {
		return nil, err
	}
	return mustStruct(map[string]any{"ok": true}), nil
}

// SetTempo applies "bpm".
func (s *Server) setTempo(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	bpm, _ := numberField(req, "bpm")
	st := s.ctrl.SetTempo(bpm)
	if err := toStatusError(st); err != nil {
		return nil, err
	}
	return mustStruct(map[string]any{"ok": true}), nil
}

// notificationStream is the narrow interface SubscribeNotifications
// sends on; satisfied by grpc.ServerStream's generated wrapper.
type notificationStream interface {
	Send(*structpb.Struct) error
	Context() context.Context
}

// subscribeNotifications streams engine notifications filtered by the
// request's "kinds" string-list field until the stream's context is
// canceled. Each stream gets its own correlation id so a client
// resubscribing can tell subscriptions apart in logs.
func (s *Server) subscribeNotifications(req *structpb.Struct, stream notificationStream) error {
	correlationID := uuid.New()
	log := s.log.With("subscription_id", correlationID.String())
	log.Info("notification subscription opened")
	defer log.Info("notification subscription closed")

	var kinds []string
	if kindsField, ok := req.Fields["kinds"]; ok {
		for _, v := range kindsField.GetListValue().GetValues() {
			kinds = append(kinds, v.GetStringValue())
		}
	}

	ch := make(chan engine.Notification, 64)
	sub := s.ctrl.Subscribe(controller.NotificationFilter{Kinds: kinds}, func(n engine.Notification) {
		select {
		case ch <- n:
		default:
			log.Warn("dropping notification, subscriber channel full", "kind", n.Kind)
		}
	})
	defer s.ctrl.Unsubscribe(sub)

	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case n := <-ch:
			msg := mustStruct(map[string]any{
				"kind":     n.Kind,
				"track_id": float64(n.TrackID),
			})
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}
