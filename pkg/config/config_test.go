package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithNoCandidatesReturnsDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadSkipsMissingCandidatesAndUsesFirstMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sushi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  sample_rate: 44100
  chunk_size: 128
  frontend: device
  device_name: "Scarlett 2i2"
  rt_priority: 80
midi:
  input_ports: 4
  output_ports: 4
grpc:
  listen_address: "0.0.0.0:51051"
`), 0o644))

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), path)
	require.NoError(t, err)

	assert.Equal(t, 44100.0, cfg.Engine.SampleRate)
	assert.Equal(t, 128, cfg.Engine.ChunkSize)
	assert.Equal(t, FrontendDevice, cfg.Engine.Frontend)
	assert.Equal(t, "Scarlett 2i2", cfg.Engine.DeviceName)
	assert.Equal(t, 80, cfg.Engine.RTPriority)
	assert.Equal(t, 4, cfg.MIDI.InputPorts)
	assert.Equal(t, "0.0.0.0:51051", cfg.GRPC.ListenAddress)
}

func TestLoadUnparseableFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [this is not a mapping"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultMatchesEngineDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 48000.0, cfg.Engine.SampleRate)
	assert.Equal(t, 64, cfg.Engine.ChunkSize)
	assert.Equal(t, FrontendOffline, cfg.Engine.Frontend)
}
