// Package buffer provides the fixed-size, channel-separated audio block
// that every DSP component in the engine consumes and produces.
package buffer

// ChunkSize is the compile-time constant frame count of one audio chunk.
// Every Buffer in the process graph carries exactly this many frames.
const ChunkSize = 64

// Buffer is N channels of ChunkSize float32 frames. Channels are stored
// as separate contiguous slices so a View can be taken over a subrange of
// channels without copying sample data.
//
// A Buffer is either owning (it allocated its own channel storage) or a
// view (its channel slices point into another Buffer's storage). Views
// must not outlive the Buffer they were taken from.
type Buffer struct {
	channels [][]float32
}

// NewOwning allocates a new Buffer with the given channel count, each
// channel backed by its own ChunkSize-length array.
func NewOwning(numChannels int) *Buffer {
	chans := make([][]float32, numChannels)
	for i := range chans {
		chans[i] = make([]float32, ChunkSize)
	}
	return &Buffer{channels: chans}
}

// View returns a non-owning Buffer sharing the channel storage of base,
// starting at startChannel and covering channelCount channels.
func View(base *Buffer, startChannel, channelCount int) *Buffer {
	if startChannel < 0 || channelCount < 0 || startChannel+channelCount > len(base.channels) {
		panic("buffer: view out of range")
	}
	chans := make([][]float32, channelCount)
	copy(chans, base.channels[startChannel:startChannel+channelCount])
	return &Buffer{channels: chans}
}

// NumChannels returns the channel count, fixed at construction.
func (b *Buffer) NumChannels() int {
	return len(b.channels)
}

// Channel returns the mutable ChunkSize-length span for channel i.
func (b *Buffer) Channel(i int) []float32 {
	return b.channels[i]
}

// Clear zeroes every channel.
func (b *Buffer) Clear() {
	for _, ch := range b.channels {
		Clear(ch)
	}
}

// FromInterleaved fills the buffer's channels from an interleaved source
// of NumChannels()*ChunkSize samples.
func (b *Buffer) FromInterleaved(src []float32) {
	n := b.NumChannels()
	for frame := 0; frame < ChunkSize; frame++ {
		base := frame * n
		for ch := 0; ch < n; ch++ {
			b.channels[ch][frame] = src[base+ch]
		}
	}
}

// ToInterleaved writes the buffer's channels into an interleaved
// destination of NumChannels()*ChunkSize samples.
func (b *Buffer) ToInterleaved(dst []float32) {
	n := b.NumChannels()
	for frame := 0; frame < ChunkSize; frame++ {
		base := frame * n
		for ch := 0; ch < n; ch++ {
			dst[base+ch] = b.channels[ch][frame]
		}
	}
}

// Clear zeroes a single channel span - no allocations.
func Clear(ch []float32) {
	for i := range ch {
		ch[i] = 0
	}
}

// Copy copies src into dst - no allocations.
func Copy(dst, src []float32) {
	copy(dst, src)
}

// Add adds src into dst sample-by-sample - no allocations.
func Add(dst, src []float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// AddScaled adds a scaled src into dst - no allocations.
func AddScaled(dst, src []float32, scale float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i] * scale
	}
}

// Scale multiplies every sample in buffer by scale - no allocations.
func Scale(ch []float32, scale float32) {
	for i := range ch {
		ch[i] *= scale
	}
}

// Peak returns the maximum absolute sample value in the channel.
func Peak(ch []float32) float32 {
	var peak float32
	for _, s := range ch {
		abs := s
		if abs < 0 {
			abs = -abs
		}
		if abs > peak {
			peak = abs
		}
	}
	return peak
}
