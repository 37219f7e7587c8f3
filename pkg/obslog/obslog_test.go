package obslog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Info("should be filtered")
	l.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should appear")
}

func TestNamedAddsComponentField(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)
	sub := l.Named("engine")

	sub.Info("chunk processed")

	assert.Contains(t, buf.String(), "component=engine")
}

func TestWithAddsArbitraryFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)
	sub := l.With("track_id", 3)

	sub.Info("note on")

	out := buf.String()
	assert.True(t, strings.Contains(out, "track_id=3"))
}

func TestDefaultReturnsSameInstance(t *testing.T) {
	a := Default()
	b := Default()
	assert.Same(t, a, b)
}
