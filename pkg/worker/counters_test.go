package worker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCountersEmpty(t *testing.T) {
	c := newCounters(newFakeClock().Now)
	s := c.Snapshot()

	assert.Zero(t, s.InferenceCount)
	assert.Nil(t, s.AvgInferenceTimeMillis)
	assert.Nil(t, s.AvgInferenceTimeLastMinute)
	assert.Nil(t, s.LastAccess)
}

func TestCountersRecord(t *testing.T) {
	clock := newFakeClock()
	c := newCounters(clock.Now)

	for i := 0; i < 4; i++ {
		c.Enqueue()
	}
	c.Complete(10 * time.Millisecond)
	c.Complete(30 * time.Millisecond)
	c.Fail()
	c.Timeout()
	c.Reject()

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.InferenceCount)
	require.NotNil(t, s.AvgInferenceTimeMillis)
	assert.InDelta(t, 20.0, *s.AvgInferenceTimeMillis, 0.001)
	assert.Equal(t, 0, s.PendingCount)
	assert.Equal(t, 1, s.ErrorCount)
	assert.Equal(t, 1, s.TimeoutCount)
	assert.Equal(t, 1, s.RejectedExecutionCount)
	require.NotNil(t, s.LastAccess)
	assert.Equal(t, clock.Now(), *s.LastAccess)

	// Pending never goes negative
	c.Timeout()
	assert.Equal(t, 0, c.Snapshot().PendingCount)
}

func TestCountersThroughput(t *testing.T) {
	clock := newFakeClock()
	c := newCounters(clock.Now)

	for i := 0; i < 3; i++ {
		c.Complete(10 * time.Millisecond)
	}
	s := c.Snapshot()
	assert.Equal(t, int64(3), s.PeakThroughputPerMinute)
	assert.Zero(t, s.ThroughputLastMinute, "current minute is not complete")

	clock.Advance(time.Minute)
	c.Complete(50 * time.Millisecond)
	s = c.Snapshot()
	assert.Equal(t, int64(3), s.ThroughputLastMinute)
	require.NotNil(t, s.AvgInferenceTimeLastMinute)
	assert.InDelta(t, 10.0, *s.AvgInferenceTimeLastMinute, 0.001)
	assert.Equal(t, int64(3), s.PeakThroughputPerMinute)

	// An idle minute empties the last period but keeps the peak
	clock.Advance(2 * time.Minute)
	s = c.Snapshot()
	assert.Zero(t, s.ThroughputLastMinute)
	assert.Nil(t, s.AvgInferenceTimeLastMinute)
	assert.Equal(t, int64(3), s.PeakThroughputPerMinute)
	assert.Equal(t, int64(4), s.InferenceCount)
}

func TestCountersConcurrent(t *testing.T) {
	c := NewCounters()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Enqueue()
				c.Complete(time.Millisecond)
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	assert.Equal(t, int64(800), s.InferenceCount)
	assert.Equal(t, 0, s.PendingCount)
}
