package worker

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/burrow/pkg/health"
	"github.com/cuemby/burrow/pkg/types"
	"gopkg.in/yaml.v3"
)

// ProcessState is the state of the inference process behind a task
type ProcessState string

const (
	ProcessStarting ProcessState = "starting"
	ProcessRunning  ProcessState = "running"
	ProcessStopped  ProcessState = "stopped"
	ProcessFailed   ProcessState = "failed"
)

// Task is a deployment task hosted on this node
type Task struct {
	Params    types.TaskParams
	Probe     *health.Probe
	CreatedAt time.Time
	Counters  *Counters

	mu        sync.RWMutex
	state     ProcessState
	reason    string
	startedAt time.Time
}

// State returns the process state and the reason for it, if any
func (t *Task) State() (ProcessState, string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.reason
}

// SetState moves the process to state. The start time is recorded on the
// transition into ProcessRunning.
func (t *Task) SetState(state ProcessState, reason string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state == ProcessRunning && t.state != ProcessRunning {
		t.startedAt = now
	}
	t.state = state
	t.reason = reason
}

// StartedAt returns when the process last entered ProcessRunning
func (t *Task) StartedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.startedAt
}

// Stats returns the counters of a running process, nil if the process is
// not running, or an error if the process has failed.
func (t *Task) Stats() (*CounterSnapshot, error) {
	state, reason := t.State()
	switch state {
	case ProcessRunning:
		snapshot := t.Counters.Snapshot()
		return &snapshot, nil
	case ProcessFailed:
		return nil, fmt.Errorf("inference process failed: %s", reason)
	default:
		return nil, nil
	}
}

// TaskRegistry holds the deployment tasks of this node keyed by model id
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	now   func() time.Time
}

// NewTaskRegistry creates an empty registry
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: make(map[string]*Task),
		now:   time.Now,
	}
}

// Add registers a task. Tasks without a probe are considered running at
// once; probed tasks start in ProcessStarting until the first successful
// probe.
func (r *TaskRegistry) Add(spec TaskSpec) (*Task, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[spec.ModelID]; exists {
		return nil, fmt.Errorf("task for model %s already exists", spec.ModelID)
	}

	now := r.now()
	task := &Task{
		Params:    spec.TaskParams,
		Probe:     spec.Probe,
		CreatedAt: now,
		Counters:  newCounters(r.now),
		state:     ProcessStarting,
	}
	if spec.Probe == nil {
		task.state = ProcessRunning
		task.startedAt = now
	}
	r.tasks[spec.ModelID] = task
	return task, nil
}

// Remove drops the task of modelID and reports whether it existed
func (r *TaskRegistry) Remove(modelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.tasks[modelID]
	delete(r.tasks, modelID)
	return ok
}

// Get returns the task of modelID
func (r *TaskRegistry) Get(modelID string) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[modelID]
	return task, ok
}

// List returns all tasks sorted by model id
func (r *TaskRegistry) List() []*Task {
	r.mu.RLock()
	tasks := make([]*Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, task)
	}
	r.mu.RUnlock()

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Params.ModelID < tasks[j].Params.ModelID
	})
	return tasks
}

// Len returns the number of tasks
func (r *TaskRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// TaskSpec declares a local deployment task
type TaskSpec struct {
	types.TaskParams `yaml:",inline"`
	Probe            *health.Probe `yaml:"probe,omitempty"`
}

// Validate checks the task parameters
func (s TaskSpec) Validate() error {
	if s.ModelID == "" {
		return fmt.Errorf("task has no model id")
	}
	if s.ThreadsPerAllocation < 1 {
		return fmt.Errorf("task %s: threadsPerAllocation must be at least 1", s.ModelID)
	}
	if s.NumberOfAllocations < 1 {
		return fmt.Errorf("task %s: numberOfAllocations must be at least 1", s.ModelID)
	}
	if s.QueueCapacity < 0 {
		return fmt.Errorf("task %s: queueCapacity must not be negative", s.ModelID)
	}
	if s.Probe != nil {
		if _, err := health.NewChecker(s.ModelID, *s.Probe); err != nil {
			return fmt.Errorf("task %s: %w", s.ModelID, err)
		}
	}
	return nil
}

// TaskFile is the YAML document listing the tasks a worker hosts
type TaskFile struct {
	Tasks []TaskSpec `yaml:"tasks"`
}

// LoadTaskFile reads and validates a task file
func LoadTaskFile(path string) ([]TaskSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}
	return ParseTaskFile(data)
}

// ParseTaskFile parses a YAML task file
func ParseTaskFile(data []byte) ([]TaskSpec, error) {
	var file TaskFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse task file: %w", err)
	}

	seen := make(map[string]bool, len(file.Tasks))
	for _, spec := range file.Tasks {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if seen[spec.ModelID] {
			return nil, fmt.Errorf("duplicate task for model %s", spec.ModelID)
		}
		seen[spec.ModelID] = true
	}
	return file.Tasks, nil
}
