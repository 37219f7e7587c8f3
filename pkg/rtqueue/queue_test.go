package rtqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/elk-audio/sushi-go/pkg/rtevent"
)

func TestNewRoundsCapacityToPowerOfTwo(t *testing.T) {
	q := New(5)
	assert.Equal(t, 8, q.Capacity())
}

func TestPushPopFIFOOrder(t *testing.T) {
	q := New(4)
	for i := 0; i < 3; i++ {
		ok := q.Push(rtevent.NewNoteOn(1, 0, uint8(i), 1, 0))
		require.True(t, ok)
	}
	for i := 0; i < 3; i++ {
		e, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, uint8(i), e.Note.Note)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestPushReportsFullAndCountsDropped(t *testing.T) {
	q := New(2) // rounds to 2
	assert.True(t, q.Push(rtevent.NewStopEngine()))
	assert.True(t, q.Push(rtevent.NewStopEngine()))
	assert.False(t, q.Push(rtevent.NewStopEngine()))
	assert.EqualValues(t, 1, q.Dropped())
}

func TestDrainUpToRespectsLimitAndEarlyStop(t *testing.T) {
	q := New(16)
	for i := 0; i < 10; i++ {
		q.Push(rtevent.NewStopEngine())
	}
	n := q.DrainUpTo(5, func(rtevent.Event) bool { return true })
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, q.Size())

	count := 0
	n = q.DrainUpTo(5, func(rtevent.Event) bool {
		count++
		return count < 2
	})
	assert.Equal(t, 2, n)
}

// TestEventOrderingProperty verifies spec.md §8's event-ordering
// property: for events A before B posted by the same producer, A is
// popped no later than B.
func TestEventOrderingProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(2, 64).Draw(rt, "capacity")
		count := rapid.IntRange(0, capacity).Draw(rt, "count")

		q := New(capacity)
		for i := 0; i < count; i++ {
			require.True(rt, q.Push(rtevent.NewNoteOn(1, 0, uint8(i%128), 1, int32(i))))
		}
		for i := 0; i < count; i++ {
			e, ok := q.Pop()
			require.True(rt, ok)
			require.Equal(rt, int32(i), e.SampleOffset)
		}
	})
}

func TestConcurrentSPSCProducerConsumer(t *testing.T) {
	q := New(1024)
	const n = 5000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		sent := 0
		for sent < n {
			if q.Push(rtevent.NewNoteOn(1, 0, 0, 1, int32(sent))) {
				sent++
			}
		}
	}()

	received := make([]int32, 0, n)
	go func() {
		defer wg.Done()
		for len(received) < n {
			if e, ok := q.Pop(); ok {
				received = append(received, e.SampleOffset)
			}
		}
	}()

	wg.Wait()
	for i, offset := range received {
		assert.Equal(t, int32(i), offset)
	}
}
