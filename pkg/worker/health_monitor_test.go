package worker

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cuemby/burrow/pkg/health"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer collects log output written from probe goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestApplyStatus(t *testing.T) {
	cfg := health.Config{Retries: 2}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status health.Status
		want   ProcessState
	}{
		{name: "not answered yet", status: health.Status{}, want: ProcessStarting},
		{name: "healthy", status: health.Status{Healthy: true, Ready: true}, want: ProcessRunning},
		{name: "unhealthy after ready", status: health.Status{Ready: true, ConsecutiveFailures: 2}, want: ProcessFailed},
		{name: "never ready, out of retries", status: health.Status{ConsecutiveFailures: 2}, want: ProcessFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{state: ProcessStarting, Counters: NewCounters()}
			status := tt.status
			status.LastCheck = now
			applyStatus(task, &status, cfg, zerolog.Nop())

			state, _ := task.State()
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestHealthMonitorProbesTasks(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	registry := NewTaskRegistry()
	s := spec("elser")
	s.Probe = &health.Probe{
		Type:   health.CheckTypeHTTP,
		URL:    server.URL,
		Config: health.Config{Interval: 10 * time.Millisecond, Timeout: time.Second, Retries: 1},
	}
	task, err := registry.Add(s)
	require.NoError(t, err)

	out := &syncBuffer{}
	saved := log.Logger
	log.Logger = zerolog.New(out)
	defer func() { log.Logger = saved }()

	monitor := NewHealthMonitor(registry)
	monitor.Start()
	defer monitor.Stop()

	stateOf := func() ProcessState {
		state, _ := task.State()
		return state
	}

	assert.Eventually(t, func() bool { return stateOf() == ProcessRunning }, 2*time.Second, 10*time.Millisecond)

	healthy.Store(false)
	assert.Eventually(t, func() bool { return stateOf() == ProcessFailed }, 2*time.Second, 10*time.Millisecond)

	_, reason := task.State()
	assert.Contains(t, reason, "model elser")
	assert.Contains(t, reason, server.URL+" returned 503")

	_, err = task.Stats()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inference process failed: model elser: readiness endpoint "+server.URL)

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"model_id":"elser","component":"health-monitor","from":"running","to":"failed"`)
	}, time.Second, 10*time.Millisecond)
}
