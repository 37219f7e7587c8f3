package main

import (
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/elk-audio/sushi-go/pkg/config"
	"github.com/elk-audio/sushi-go/pkg/controller"
	"github.com/elk-audio/sushi-go/pkg/dispatch"
	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/grpcserver"
	"github.com/elk-audio/sushi-go/pkg/mididispatch"
	"github.com/elk-audio/sushi-go/pkg/obslog"
)

// runtime bundles the pieces every subcommand assembles identically: an
// Engine, its Dispatcher, a MIDI connection table, and the Controller
// facade sitting on top of them. The gRPC server is started separately
// since offline rendering has no need for a control-plane listener.
type runtime struct {
	cfg  config.Config
	eng  *engine.Engine
	disp *dispatch.Dispatcher
	midi *mididispatch.Dispatcher
	ctrl *controller.Controller
	log  *obslog.Logger
}

func assemble(cfg config.Config) *runtime {
	log := obslog.Named("sushi")

	eng := engine.New(
		cfg.Engine.SampleRate,
		cfg.Engine.ChannelsIn,
		cfg.Engine.ChannelsOut,
		cfg.Engine.ToRTQueueSize,
		cfg.Engine.FromRTQueueSize,
	)
	eng.SetRTThreadHints(engine.RTThreadHints{
		Priority:  cfg.Engine.RTPriority,
		PinToCore: cfg.Engine.RTPinToCore,
	})

	disp := dispatch.New()
	go disp.Run()

	midi := mididispatch.New(cfg.MIDI.InputPorts, cfg.MIDI.OutputPorts)
	ctrl := controller.New(eng, disp)
	go ctrl.Run()

	return &runtime{cfg: cfg, eng: eng, disp: disp, midi: midi, ctrl: ctrl, log: log}
}

func (r *runtime) shutdown() {
	r.ctrl.Stop()
	r.disp.Stop()
}

// serveGRPC starts the control-plane listener in the background and
// returns a stop function. A listen failure is returned immediately
// rather than logged-and-ignored, since a gRPC-driven deployment with
// no listener is a misconfiguration, not a degraded mode.
func serveGRPC(r *runtime) (func(), error) {
	lis, err := net.Listen("tcp", r.cfg.GRPC.ListenAddress)
	if err != nil {
		return nil, fmt.Errorf("grpc: listen on %s: %w", r.cfg.GRPC.ListenAddress, err)
	}
	srv := grpc.NewServer()
	grpcserver.Register(srv, grpcserver.New(r.ctrl))

	go func() {
		r.log.Info("grpc listening", "address", r.cfg.GRPC.ListenAddress)
		if err := srv.Serve(lis); err != nil {
			r.log.Error("grpc server stopped", "error", err)
		}
	}()

	return srv.GracefulStop, nil
}
