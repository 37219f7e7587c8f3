// Package analysis provides the metering and spectral-analysis
// primitives the engine surfaces per track (SPEC_FULL §10: CPU timing
// and clip detection per track, plus peak/hold level metering).
// pkg/track.Track.EnableMetering wraps PeakMeter directly; PeakMeter is
// the only type here with a caller elsewhere in this module. The
// spectral and stereo-field tools below are not driven by the core
// per-chunk path.
//
// This package includes a comprehensive set of analysis tools commonly used
// in audio processing and metering:
//
// FFT and Spectral Analysis:
//   - FFT with multiple window functions (Hann, Hamming, Blackman, etc.)
//   - Real-time spectrum analyzer with averaging modes
//   - Octave and third-octave band analysis
//   - Cross-correlation using FFT
//
// Level Metering:
//   - Peak meter with hold and decay
//   - RMS (Root Mean Square) meter
//   - LUFS meter (ITU-R BS.1770-4 compliant)
//   - Momentary, short-term, and integrated loudness
//   - Loudness range (LRA) measurement
//
// Stereo Field Analysis:
//   - Correlation meter for phase relationships
//   - Balance meter for L/R power distribution
//   - Stereo width meter using M/S analysis
//   - Mono compatibility checking
//
// Phase Visualization:
//   - Phase scope with Lissajous display
//   - Goniometer (45° rotated) display
//   - Vector scope with graticule
//   - Polar coordinate display
//
// All analysis tools are designed for real-time operation with minimal
// allocations and thread-safe access.
//
// Example usage:
//
//	// Create a spectrum analyzer
//	sa := analysis.NewSpectrumAnalyzer(2048, 44100, analysis.HannWindow)
//	sa.SetAveraging(analysis.ExponentialAveraging, 10)
//	
//	// Process audio samples
//	if sa.Process(samples) {
//	    spectrum := sa.GetSpectrumDB()
//	    peakFreq, peakMag := sa.GetPeakFrequency()
//	}
//	
//	// Create a LUFS meter
//	lufs := analysis.NewLUFSMeter(48000, 2)
//	lufs.Process(interleavedSamples)
//	
//	momentary := lufs.GetMomentaryLUFS()
//	integrated := lufs.GetIntegratedLUFS()
//	
//	// Create a correlation meter
//	corr := analysis.NewCorrelationMeter(1024, 44100)
//	corr.Process(samplesL, samplesR)
//	
//	correlation := corr.GetCorrelation()
//	monoCompat := corr.GetMonoCompatibility()
package analysis