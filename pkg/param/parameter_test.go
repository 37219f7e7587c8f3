package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/elk-audio/sushi-go/pkg/status"
)

func TestLinearDomainRoundTrip(t *testing.T) {
	d := Linear{}
	plain := d.ToPlain(0.5, -24, 24)
	assert.InDelta(t, 0.0, plain, 1e-9)
	assert.InDelta(t, 0.5, d.ToNormalized(plain, -24, 24), 1e-9)
}

func TestLogarithmicDomainRoundTrip(t *testing.T) {
	d := Logarithmic{}
	plain := d.ToPlain(0.5, 20, 20000)
	norm := d.ToNormalized(plain, 20, 20000)
	assert.InDelta(t, 0.5, norm, 1e-9)
}

func TestSetValueClampsToUnitRange(t *testing.T) {
	p := New(1, "gain", "dB", TypeFloat, -24, 24, 0.5)
	p.SetValue(2.0)
	assert.Equal(t, 1.0, p.GetValue())
	p.SetValue(-2.0)
	assert.Equal(t, 0.0, p.GetValue())
}

// TestParameterClampProperty verifies spec.md §8: for every parameter,
// setting v and reading back produces clamp(v, 0, 1).
func TestParameterClampProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.Float64Range(-1000, 1000).Draw(rt, "v")
		p := New(1, "p", "", TypeFloat, 0, 1, 0)
		p.SetValue(v)
		got := p.GetValue()
		want := v
		if want < 0 {
			want = 0
		} else if want > 1 {
			want = 1
		}
		if got != want {
			rt.Fatalf("SetValue(%f) = %f, want %f", v, got, want)
		}
	})
}

func TestRegistrySetReturnsTaxonomy(t *testing.T) {
	r := NewRegistry()
	r.Add(New(1, "gain", "dB", TypeFloat, -24, 24, 0.5))

	assert.Equal(t, status.Ok, r.Set(1, 0.75))
	assert.Equal(t, status.OutOfRange, r.Set(99, 0.5).Code)
	assert.Equal(t, status.InvalidArguments, r.Set(1, 1.5).Code)
}

func TestRegistryAddSkipsDuplicateIDs(t *testing.T) {
	r := NewRegistry()
	r.Add(New(1, "gain", "dB", TypeFloat, -24, 24, 0.5))
	r.Add(New(1, "gain-dup", "dB", TypeFloat, -24, 24, 0.9))
	assert.EqualValues(t, 1, r.Count())
	assert.Equal(t, "gain", r.Get(1).Name)
}

func TestPropertyGetSet(t *testing.T) {
	p := NewProperty(1, "mode", "default")
	assert.Equal(t, "default", p.GetValue())
	p.SetValue("alternate")
	assert.Equal(t, "alternate", p.GetValue())
}
