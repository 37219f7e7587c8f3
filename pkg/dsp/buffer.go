// Package dsp holds the final per-track safety limiter shared by every
// pkg/track.Track output, plus the processor-specific DSP subpackages
// underneath it (filter, delay, distortion, dynamics, reverb,
// modulation, gain, pan, analysis, utility, mix).
package dsp

import "math"

// SoftClip applies soft saturation above threshold, leaving everything
// below it untouched. pkg/track.Track runs every channel's final
// gain/pan output through this after clip detection, so a signal that
// momentarily exceeds unity is rounded off instead of hard-clipped.
func SoftClip(buffer []float32, threshold float32) {
	for i := range buffer {
		sample := buffer[i]
		if sample > threshold {
			buffer[i] = threshold + (1.0-threshold)*float32(math.Tanh(float64(sample-threshold)))
		} else if sample < -threshold {
			buffer[i] = -threshold + (-1.0+threshold)*float32(math.Tanh(float64(sample+threshold)))
		}
	}
}
