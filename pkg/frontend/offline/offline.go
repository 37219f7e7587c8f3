// Package offline implements the file-driven Audio Frontend variant
// (spec.md §4.8): reads an input WAV, calls process_chunk in a tight
// loop with wall-clock-derived timestamps, writes an output WAV.
//
// Grounded on the go-audio/wav + go-audio/audio usage in
// other_examples/.../rayboyd-audio-engine (WAV encode/decode and
// audio.IntBuffer/FloatBuffer conversion idiom), adapted from that
// repo's device-capture-to-WAV-file recorder to read-WAV-drive-engine.
package offline

import (
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/elk-audio/sushi-go/pkg/buffer"
	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/frontend"
)

// Frontend drives the Engine from a WAV file on disk to another WAV
// file on disk, not realtime-safe in the OS sense but obeying the
// engine's no-allocation-in-the-loop contract once the loop is running.
type Frontend struct {
	eng *engine.Engine

	inPath, outPath string
	cfg             frontend.Config
	ramp            frontend.RampState

	decoder *wav.Decoder
	inFile  *os.File

	encoder *wav.Encoder
	outFile *os.File

	in  *buffer.Buffer
	out *buffer.Buffer
}

// New constructs an offline Frontend that will read inPath and write
// outPath when Run is called.
func New(eng *engine.Engine, inPath, outPath string) *Frontend {
	return &Frontend{eng: eng, inPath: inPath, outPath: outPath}
}

func (f *Frontend) Name() string { return "offline" }

// Init opens the input WAV, checks that it is a valid WAV file, and
// prepares the output WAV encoder. The input's sample rate and channel
// count are not compared with cfg.
func (f *Frontend) Init(cfg frontend.Config) error {
	f.cfg = cfg

	inFile, err := os.Open(f.inPath)
	if err != nil {
		return fmt.Errorf("offline frontend: open input: %w", err)
	}
	f.inFile = inFile

	decoder := wav.NewDecoder(inFile)
	if !decoder.IsValidFile() {
		inFile.Close()
		return fmt.Errorf("offline frontend: %s is not a valid WAV file", f.inPath)
	}
	f.decoder = decoder

	outFile, err := os.Create(f.outPath)
	if err != nil {
		inFile.Close()
		return fmt.Errorf("offline frontend: create output: %w", err)
	}
	f.outFile = outFile
	f.encoder = wav.NewEncoder(outFile, int(cfg.SampleRate), 32, cfg.Channels, 3)

	f.in = buffer.NewOwning(cfg.Channels)
	f.out = buffer.NewOwning(cfg.Channels)

	if err := f.eng.AttachFrontend(f).Err(); err != nil {
		inFile.Close()
		outFile.Close()
		return fmt.Errorf("offline frontend: %w", err)
	}
	return nil
}

// Run decodes the input file chunk-by-chunk, calls engine.ProcessChunk
// once per chunk, and encodes the result, until the input is exhausted.
func (f *Frontend) Run() error {
	f.eng.EnableRealtime(true)
	defer f.eng.EnableRealtime(false)

	full, err := f.decoder.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("offline frontend: decode: %w", err)
	}

	totalFrames := len(full.Data) / f.cfg.Channels
	chunkSamples := buffer.ChunkSize * f.cfg.Channels

	// Scratch buffers are sized once for the largest possible chunk and
	// reused every iteration below; only their trailing slices shrink on
	// the final, partial chunk.
	interleaved := make([]float32, chunkSamples)
	outInterleaved := make([]float32, chunkSamples)
	outData := make([]int, chunkSamples)
	outInt := &goaudio.IntBuffer{Format: full.Format}

	var sampleCount uint64
	for start := 0; start < totalFrames; start += buffer.ChunkSize {
		end := start + buffer.ChunkSize
		if end > totalFrames {
			end = totalFrames
		}
		frames := end - start
		chunkLen := frames * f.cfg.Channels

		for i := 0; i < chunkLen; i++ {
			interleaved[i] = float32(full.Data[start*f.cfg.Channels+i]) / 2147483648.0
		}
		f.in.FromInterleaved(interleaved)

		if f.ramp.ShouldProcessChunk() {
			f.eng.ProcessChunk(f.in, f.out, time.Now(), sampleCount)
			if f.ramp.Paused() {
				f.ramp.FadeToSilence(channelsOf(f.out))
			}
		} else {
			f.out.Clear()
		}

		f.out.ToInterleaved(outInterleaved)

		for i := 0; i < chunkLen; i++ {
			outData[i] = int(outInterleaved[i] * 2147483647.0)
		}
		outInt.Data = outData[:chunkLen]
		if err := f.encoder.Write(outInt); err != nil {
			return fmt.Errorf("offline frontend: encode: %w", err)
		}

		sampleCount += uint64(frames)
	}
	return nil
}

func channelsOf(b *buffer.Buffer) [][]float32 {
	chans := make([][]float32, b.NumChannels())
	for i := range chans {
		chans[i] = b.Channel(i)
	}
	return chans
}

// Cleanup closes both files and flushes the WAV encoder's header.
func (f *Frontend) Cleanup() error {
	var firstErr error
	if f.encoder != nil {
		if err := f.encoder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if f.outFile != nil {
		if err := f.outFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if f.inFile != nil {
		if err := f.inFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.eng.DetachFrontend()
	return firstErr
}

func (f *Frontend) Pause(paused bool) { f.ramp.SetPaused(paused) }

func (f *Frontend) SetOutputLatency(time.Duration) {
	// Offline rendering has no hardware output latency to report.
}
