// Package config loads the engine/session configuration document
// (spec.md §1 Non-goals excludes the grammar itself; only the loader
// and its Go shape are in scope here, per SPEC_FULL §8.3).
//
// Grounded on doismellburning/samoyed's deviceid.go: try a short list of
// candidate file locations, os.Open/io.ReadAll the first that exists,
// gopkg.in/yaml.v3-Unmarshal into a Go struct, and return a wrapped
// error rather than panicking on a bad or missing file.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// FrontendKind selects which pkg/frontend variant cmd/sushi attaches.
type FrontendKind string

const (
	FrontendOffline  FrontendKind = "file"
	FrontendDevice   FrontendKind = "device"
	FrontendReactive FrontendKind = "reactive"
)

// Config is the top-level engine/session configuration document.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	MIDI   MIDIConfig   `yaml:"midi"`
	GRPC   GRPCConfig   `yaml:"grpc"`
}

// EngineConfig covers the Engine's construction parameters and the
// realtime thread hints a device frontend applies before starting its
// callback (spec.md §8.3).
type EngineConfig struct {
	SampleRate      float64      `yaml:"sample_rate"`
	ChunkSize       int          `yaml:"chunk_size"`
	ChannelsIn      int          `yaml:"channels_in"`
	ChannelsOut     int          `yaml:"channels_out"`
	Frontend        FrontendKind `yaml:"frontend"`
	DeviceName      string       `yaml:"device_name"`
	RTPriority      int          `yaml:"rt_priority"`
	RTPinToCore     int          `yaml:"rt_pin_to_core"`
	ToRTQueueSize   int          `yaml:"to_rt_queue_size"`
	FromRTQueueSize int          `yaml:"from_rt_queue_size"`
}

// MIDIConfig sizes the virtual MIDI port set (spec.md §4.7).
type MIDIConfig struct {
	InputPorts  int `yaml:"input_ports"`
	OutputPorts int `yaml:"output_ports"`
}

// GRPCConfig configures the control-plane gRPC listener.
type GRPCConfig struct {
	ListenAddress string `yaml:"listen_address"`
}

// Default returns a Config with the engine's own defaults: 48kHz, 64
// frame chunks (buffer.ChunkSize), stereo in/out, an offline frontend,
// and modestly sized RT queues.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			SampleRate:      48000,
			ChunkSize:       64,
			ChannelsIn:      2,
			ChannelsOut:     2,
			Frontend:        FrontendOffline,
			ToRTQueueSize:   256,
			FromRTQueueSize: 256,
		},
		MIDI: MIDIConfig{InputPorts: 1, OutputPorts: 1},
		GRPC: GRPCConfig{ListenAddress: "localhost:51051"},
	}
}

// Load reads the first existing path in candidates, YAML-decodes it
// over Default(), and returns the merged result. An empty candidates
// list or a path list with no existing file returns Default() with no
// error, matching the teacher's "proceed without the optional file"
// behavior.
func Load(candidates ...string) (Config, error) {
	cfg := Default()

	var f *os.File
	for _, path := range candidates {
		opened, err := os.Open(path)
		if err == nil {
			f = opened
			break
		}
	}
	if f == nil {
		return cfg, nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", f.Name(), err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", f.Name(), err)
	}
	return cfg, nil
}
