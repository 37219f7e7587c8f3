// Command sushi is the process entry point: it loads a configuration
// document, assembles an Engine and its supporting Dispatcher/MIDI
// dispatcher/Controller/gRPC server, attaches one Audio Frontend
// variant, and runs until interrupted.
//
// Grounded on other_examples/manifests/rayboyd-audio-engine's
// cobra-based command layout (a root command plus per-mode
// subcommands, flags bound into a config struct before construction).
package main

import (
	"fmt"
	"os"

	"github.com/elk-audio/sushi-go/pkg/obslog"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		obslog.Error("sushi exited with error", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
