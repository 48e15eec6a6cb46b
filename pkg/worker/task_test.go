package worker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/burrow/pkg/health"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spec(modelID string) TaskSpec {
	return TaskSpec{TaskParams: types.TaskParams{
		ModelID:              modelID,
		ThreadsPerAllocation: 2,
		NumberOfAllocations:  1,
		QueueCapacity:        1024,
	}}
}

func TestParseTaskFile(t *testing.T) {
	data := []byte(`
tasks:
  - modelId: elser
    threadsPerAllocation: 2
    numberOfAllocations: 3
    queueCapacity: 1024
    cacheSize: 4096
    probe:
      type: http
      url: http://127.0.0.1:8500/_ready
      interval: 10s
      retries: 5
  - modelId: e5
    threadsPerAllocation: 1
    numberOfAllocations: 1
    queueCapacity: 256
`)

	specs, err := ParseTaskFile(data)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	elser := specs[0]
	assert.Equal(t, "elser", elser.ModelID)
	assert.Equal(t, 3, elser.NumberOfAllocations)
	require.NotNil(t, elser.CacheSize)
	assert.Equal(t, int64(4096), *elser.CacheSize)
	require.NotNil(t, elser.Probe)
	assert.Equal(t, health.CheckTypeHTTP, elser.Probe.Type)
	assert.Equal(t, 10*time.Second, elser.Probe.Interval)
	assert.Equal(t, 5, elser.Probe.Retries)

	assert.Nil(t, specs[1].Probe)
	assert.Nil(t, specs[1].CacheSize)
}

func TestParseTaskFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "tasks: ["},
		{name: "missing model id", data: "tasks:\n  - threadsPerAllocation: 1\n    numberOfAllocations: 1\n"},
		{name: "zero threads", data: "tasks:\n  - modelId: m\n    numberOfAllocations: 1\n"},
		{name: "bad probe", data: "tasks:\n  - modelId: m\n    threadsPerAllocation: 1\n    numberOfAllocations: 1\n    probe:\n      type: http\n"},
		{name: "duplicate", data: "tasks:\n  - {modelId: m, threadsPerAllocation: 1, numberOfAllocations: 1}\n  - {modelId: m, threadsPerAllocation: 1, numberOfAllocations: 1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaskFile([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadTaskFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tasks:\n  - {modelId: m, threadsPerAllocation: 1, numberOfAllocations: 1}\n"), 0600))

	specs, err := LoadTaskFile(path)
	require.NoError(t, err)
	assert.Len(t, specs, 1)

	_, err = LoadTaskFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTaskRegistry(t *testing.T) {
	registry := NewTaskRegistry()

	unprobed, err := registry.Add(spec("b"))
	require.NoError(t, err)
	state, _ := unprobed.State()
	assert.Equal(t, ProcessRunning, state)
	assert.False(t, unprobed.StartedAt().IsZero())

	probed := spec("a")
	probed.Probe = &health.Probe{Type: health.CheckTypeTCP, Address: "127.0.0.1:1"}
	task, err := registry.Add(probed)
	require.NoError(t, err)
	state, _ = task.State()
	assert.Equal(t, ProcessStarting, state)

	_, err = registry.Add(spec("a"))
	assert.Error(t, err, "duplicate model")

	tasks := registry.List()
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].Params.ModelID)
	assert.Equal(t, "b", tasks[1].Params.ModelID)

	assert.True(t, registry.Remove("a"))
	assert.False(t, registry.Remove("a"))
	assert.Equal(t, 1, registry.Len())
}

func TestTaskStats(t *testing.T) {
	registry := NewTaskRegistry()
	task, err := registry.Add(spec("m"))
	require.NoError(t, err)

	stats, err := task.Stats()
	require.NoError(t, err)
	assert.NotNil(t, stats)

	task.SetState(ProcessStopped, "", time.Now())
	stats, err = task.Stats()
	require.NoError(t, err)
	assert.Nil(t, stats)

	task.SetState(ProcessFailed, "connection refused", time.Now())
	_, err = task.Stats()
	assert.EqualError(t, err, "inference process failed: connection refused")
}
