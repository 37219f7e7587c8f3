package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldProcessChunkTrueWhileRunning(t *testing.T) {
	var r RampState
	assert.True(t, r.ShouldProcessChunk())
	assert.True(t, r.ShouldProcessChunk())
}

func TestShouldProcessChunkTrueOnceAfterPauseThenFalse(t *testing.T) {
	var r RampState
	r.SetPaused(true)

	assert.True(t, r.ShouldProcessChunk())
	assert.False(t, r.ShouldProcessChunk())
	assert.False(t, r.ShouldProcessChunk())
}

func TestFadeToSilenceRampsLinearly(t *testing.T) {
	var r RampState
	ch := make([]float32, 8)
	for i := range ch {
		ch[i] = 1.0
	}
	r.FadeToSilence([][]float32{ch})

	assert.InDelta(t, 1.0, ch[0], 1e-6)
	assert.InDelta(t, 0.0, ch[len(ch)-1], 1e-6)
}

func TestResumeAllowsProcessingImmediately(t *testing.T) {
	var r RampState
	r.SetPaused(true)
	r.ShouldProcessChunk() // consume the ramp chunk
	r.SetPaused(false)

	assert.False(t, r.Paused())
	assert.True(t, r.ShouldProcessChunk())
}
