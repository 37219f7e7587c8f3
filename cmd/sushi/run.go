package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elk-audio/sushi-go/pkg/config"
	"github.com/elk-audio/sushi-go/pkg/frontend"
	"github.com/elk-audio/sushi-go/pkg/frontend/device"
	"github.com/elk-audio/sushi-go/pkg/frontend/reactive"
)

func newRunCommand(flags *rootFlags) *cobra.Command {
	var deviceName string
	var grpcEnabled bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run realtime, attached to a device or reactive frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if deviceName != "" {
				cfg.Engine.DeviceName = deviceName
			}
			return runRealtime(cfg, grpcEnabled)
		},
	}

	cmd.Flags().StringVar(&deviceName, "device", "", "audio device name (device frontend only)")
	cmd.Flags().BoolVar(&grpcEnabled, "grpc", true, "start the gRPC control-plane listener")

	return cmd
}

func runRealtime(cfg config.Config, grpcEnabled bool) error {
	rt := assemble(cfg)
	defer rt.shutdown()

	var fe frontend.Frontend
	switch cfg.Engine.Frontend {
	case config.FrontendDevice:
		d := device.New(rt.eng)
		d.DeviceName = cfg.Engine.DeviceName
		fe = d
	case config.FrontendReactive:
		fe = reactive.New(rt.eng)
	default:
		return fmt.Errorf("run: frontend %q is not realtime-capable, use render for %q", cfg.Engine.Frontend, config.FrontendOffline)
	}

	if err := fe.Init(frontend.Config{
		SampleRate:      cfg.Engine.SampleRate,
		FramesPerBuffer: cfg.Engine.ChunkSize,
		Channels:        cfg.Engine.ChannelsOut,
	}); err != nil {
		return fmt.Errorf("run: init frontend: %w", err)
	}

	var stopGRPC func()
	if grpcEnabled {
		stop, err := serveGRPC(rt)
		if err != nil {
			return err
		}
		stopGRPC = stop
		defer stopGRPC()
	}

	rt.log.Info("starting audio frontend", "frontend", fe.Name())
	if err := fe.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	rt.log.Info("shutting down")
	return fe.Cleanup()
}
