package grpcserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpccodes "google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/controller"
	"github.com/elk-audio/sushi-go/pkg/dispatch"
	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/processor/builtin"
	"github.com/elk-audio/sushi-go/pkg/track"
)

func newTestServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()
	eng := engine.New(48000, 2, 2, 64, 64)
	disp := dispatch.New()
	go disp.Run()
	t.Cleanup(disp.Stop)
	ctrl := controller.New(eng, disp)
	go ctrl.Run()
	return New(ctrl), eng
}

func TestGetTrackInfoReturnsTrackFields(t *testing.T) {
	s, _ := newTestServer(t)
	require.True(t, s.ctrl.CreateTrack(1, "Lead", track.KindRegular, 2, 64).IsOK())

	resp, err := s.getTrackInfo(context.Background(), mustStruct(map[string]any{"track_id": 1.0}))
	require.NoError(t, err)
	assert.Equal(t, "Lead", resp.Fields["name"].GetStringValue())
	assert.Equal(t, 1.0, resp.Fields["id"].GetNumberValue())
}

func TestGetTrackInfoUnknownTrackReturnsNotFoundCode(t *testing.T) {
	s, _ := newTestServer(t)
	_, err := s.getTrackInfo(context.Background(), mustStruct(map[string]any{"track_id": 99.0}))
	require.Error(t, err)
	assert.Equal(t, grpccodes.NotFound, grpcstatus.Code(err))
}

func TestGetAllTracksListsEveryTrack(t *testing.T) {
	s, _ := newTestServer(t)
	require.True(t, s.ctrl.CreateTrack(1, "Lead", track.KindRegular, 2, 64).IsOK())
	require.True(t, s.ctrl.CreateTrack(2, "Drums", track.KindRegular, 2, 64).IsOK())

	resp, err := s.getAllTracks(context.Background(), &structpb.Struct{})
	require.NoError(t, err)
	assert.Len(t, resp.Fields["tracks"].GetListValue().GetValues(), 2)
}

func TestSetParameterValueRejectsOutOfRange(t *testing.T) {
	s, _ := newTestServer(t)
	require.True(t, s.ctrl.CreateTrack(1, "Lead", track.KindRegular, 2, 64).IsOK())
	g := builtin.NewGain(10)
	require.True(t, s.ctrl.AddProcessorToTrack(1, g).IsOK())

	_, err := s.setParameterValue(context.Background(), mustStruct(map[string]any{
		"processor_id": 10.0,
		"parameter_id": float64(builtin.ParamGain),
		"value":        2.0,
	}))
	require.Error(t, err)
	assert.Equal(t, grpccodes.InvalidArgument, grpcstatus.Code(err))
}

func TestSetTempoRejectsNonPositive(t *testing.T) {
	s, _ := newTestServer(t)
	_, err := s.setTempo(context.Background(), mustStruct(map[string]any{"bpm": 0.0}))
	require.Error(t, err)
	assert.Equal(t, grpccodes.InvalidArgument, grpcstatus.Code(err))
}

type fakeNotificationStream struct {
	ctx context.Context
	out chan *structpb.Struct
}

func (f *fakeNotificationStream) Send(m *structpb.Struct) error {
	f.out <- m
	return nil
}
func (f *fakeNotificationStream) Context() context.Context { return f.ctx }

func TestSubscribeNotificationsFiltersByKind(t *testing.T) {
	s, eng := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := &fakeNotificationStream{ctx: ctx, out: make(chan *structpb.Struct, 8)}

	done := make(chan error, 1)
	go func() { done <- s.subscribeNotifications(mustStruct(map[string]any{
		"kinds": []any{"cpu"},
	}), stream) }()

	in := buffer.NewOwning(2)
	out := buffer.NewOwning(2)
	eng.EnableRealtime(true)
	defer eng.EnableRealtime(false)
	eng.ProcessChunk(in, out, time.Now(), 0)

	select {
	case msg := <-stream.out:
		assert.Equal(t, "cpu", msg.Fields["kind"].GetStringValue())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cpu notification")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscribeNotifications did not exit after context cancel")
	}
}
