package offline

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/frontend"
)

func writeTestWAV(t *testing.T, path string, frames, channels int, sampleRate int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 32, channels, 3)
	data := make([]int, frames*channels)
	for i := range data {
		data[i] = 1 << 28
	}
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   data,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestOfflineFrontendRendersInputToOutput(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.wav")
	outPath := filepath.Join(dir, "out.wav")
	writeTestWAV(t, inPath, 256, 2, 48000)

	eng := engine.New(48000, 2, 2, 64, 64)
	fe := New(eng, inPath, outPath)

	err := fe.Init(frontend.Config{SampleRate: 48000, FramesPerBuffer: 64, Channels: 2})
	require.NoError(t, err)

	require.NoError(t, fe.Run())
	require.NoError(t, fe.Cleanup())

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(44)) // bigger than a bare WAV header
}

func TestOfflineFrontendRejectsSecondAttach(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.wav")
	writeTestWAV(t, inPath, 64, 2, 48000)

	eng := engine.New(48000, 2, 2, 64, 64)
	fe1 := New(eng, inPath, filepath.Join(dir, "out1.wav"))
	require.NoError(t, fe1.Init(frontend.Config{SampleRate: 48000, FramesPerBuffer: 64, Channels: 2}))

	fe2 := New(eng, inPath, filepath.Join(dir, "out2.wav"))
	err := fe2.Init(frontend.Config{SampleRate: 48000, FramesPerBuffer: 64, Channels: 2})
	assert.Error(t, err)
}
