package main

import (
	"github.com/spf13/cobra"

	"github.com/elk-audio/sushi-go/pkg/config"
	"github.com/elk-audio/sushi-go/pkg/obslog"
)

// rootFlags holds the process-wide flags every subcommand reads: the
// path of the YAML config document and the log level. Neither is a
// field of the config document itself.
type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "sushi",
		Short: "Headless multi-track audio engine",
		Long: "sushi hosts a graph of tracks and processors, driven by one " +
			"audio frontend at a time and controlled over gRPC.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML configuration file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "debug|info|warn|error")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		obslog.Default().SetLevel(parseLogLevel(flags.logLevel))
	}

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newRenderCommand(flags))

	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	if flags.configPath == "" {
		return config.Load()
	}
	return config.Load(flags.configPath)
}

func parseLogLevel(s string) obslog.Level {
	switch s {
	case "debug":
		return obslog.LevelDebug
	case "warn":
		return obslog.LevelWarn
	case "error":
		return obslog.LevelError
	default:
		return obslog.LevelInfo
	}
}
