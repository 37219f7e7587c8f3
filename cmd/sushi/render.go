package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elk-audio/sushi-go/pkg/config"
	"github.com/elk-audio/sushi-go/pkg/frontend"
	"github.com/elk-audio/sushi-go/pkg/frontend/offline"
)

func newRenderCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <input.wav> <output.wav>",
		Short: "Render a WAV file through the graph non-realtime",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return renderOffline(cfg, args[0], args[1])
		},
	}
	return cmd
}

func renderOffline(cfg config.Config, inPath, outPath string) error {
	rt := assemble(cfg)
	defer rt.shutdown()

	fe := offline.New(rt.eng, inPath, outPath)
	if err := fe.Init(frontend.Config{
		SampleRate:      cfg.Engine.SampleRate,
		FramesPerBuffer: cfg.Engine.ChunkSize,
		Channels:        cfg.Engine.ChannelsIn,
	}); err != nil {
		return fmt.Errorf("render: init frontend: %w", err)
	}

	rt.log.Info("rendering", "input", inPath, "output", outPath)
	if err := fe.Run(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return fe.Cleanup()
}
