package worker

import (
	"sync"
	"time"
)

// throughputPeriod is the window used for peak and last-period throughput
const throughputPeriod = time.Minute

// Counters records inference activity of one deployment task. It is safe
// for concurrent use by the inference runtime and stats readers.
type Counters struct {
	mu  sync.Mutex
	now func() time.Time

	inferenceCount int64
	inferenceTime  time.Duration
	pending        int
	errors         int
	rejected       int
	timeouts       int
	lastAccess     time.Time

	periodStart time.Time
	periodCount int64
	periodTime  time.Duration

	lastPeriodCount int64
	lastPeriodTime  time.Duration
	peak            int64
}

// CounterSnapshot is a point-in-time copy of Counters
type CounterSnapshot struct {
	InferenceCount             int64
	AvgInferenceTimeMillis     *float64
	PendingCount               int
	ErrorCount                 int
	RejectedExecutionCount     int
	TimeoutCount               int
	LastAccess                 *time.Time
	PeakThroughputPerMinute    int64
	ThroughputLastMinute       int64
	AvgInferenceTimeLastMinute *float64
}

// NewCounters creates empty counters
func NewCounters() *Counters {
	return newCounters(time.Now)
}

func newCounters(now func() time.Time) *Counters {
	return &Counters{now: now, periodStart: now().Truncate(throughputPeriod)}
}

// Enqueue records a request waiting for the process
func (c *Counters) Enqueue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending++
}

// Complete records a finished inference that took d
func (c *Counters) Complete(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.roll(now)
	c.dequeue()
	c.inferenceCount++
	c.inferenceTime += d
	c.periodCount++
	c.periodTime += d
	if c.periodCount > c.peak {
		c.peak = c.periodCount
	}
	c.lastAccess = now
}

// Fail records an inference that returned an error
func (c *Counters) Fail() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.roll(now)
	c.dequeue()
	c.errors++
	c.lastAccess = now
}

// Timeout records a request that timed out while pending
func (c *Counters) Timeout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dequeue()
	c.timeouts++
}

// Reject records a request refused because the queue was full
func (c *Counters) Reject() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected++
}

// Snapshot returns the current values
func (c *Counters) Snapshot() CounterSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roll(c.now())

	s := CounterSnapshot{
		InferenceCount:          c.inferenceCount,
		PendingCount:            c.pending,
		ErrorCount:              c.errors,
		RejectedExecutionCount:  c.rejected,
		TimeoutCount:            c.timeouts,
		PeakThroughputPerMinute: c.peak,
		ThroughputLastMinute:    c.lastPeriodCount,
	}
	if c.inferenceCount > 0 {
		s.AvgInferenceTimeMillis = avgMillis(c.inferenceTime, c.inferenceCount)
	}
	if c.lastPeriodCount > 0 {
		s.AvgInferenceTimeLastMinute = avgMillis(c.lastPeriodTime, c.lastPeriodCount)
	}
	if !c.lastAccess.IsZero() {
		last := c.lastAccess
		s.LastAccess = &last
	}
	return s
}

// roll closes the current period if now is past it. A gap of more than one
// period leaves the last period empty.
func (c *Counters) roll(now time.Time) {
	start := now.Truncate(throughputPeriod)
	if !start.After(c.periodStart) {
		return
	}
	if start.Sub(c.periodStart) == throughputPeriod {
		c.lastPeriodCount = c.periodCount
		c.lastPeriodTime = c.periodTime
	} else {
		c.lastPeriodCount = 0
		c.lastPeriodTime = 0
	}
	c.periodStart = start
	c.periodCount = 0
	c.periodTime = 0
}

func (c *Counters) dequeue() {
	if c.pending > 0 {
		c.pending--
	}
}

func avgMillis(total time.Duration, n int64) *float64 {
	avg := float64(total) / float64(time.Millisecond) / float64(n)
	return &avg
}
