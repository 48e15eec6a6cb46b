package worker

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/burrow/pkg/health"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/rs/zerolog"
)

// HealthMonitor probes the inference processes of probed tasks and moves
// each task between starting, running and failed.
type HealthMonitor struct {
	tasks  *TaskRegistry
	logger zerolog.Logger

	mu        sync.Mutex
	monitors  map[string]*processMonitor
	cancelFns map[string]context.CancelFunc

	syncInterval time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// processMonitor tracks probe state for a single task
type processMonitor struct {
	task    *Task
	checker health.Checker
	status  *health.Status
	config  health.Config
	logger  zerolog.Logger
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(tasks *TaskRegistry) *HealthMonitor {
	return &HealthMonitor{
		tasks:        tasks,
		logger:       log.WithComponent("health-monitor"),
		monitors:     make(map[string]*processMonitor),
		cancelFns:    make(map[string]context.CancelFunc),
		syncInterval: 5 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// Start starts the health monitor
func (hm *HealthMonitor) Start() {
	hm.syncProbes()

	hm.wg.Add(1)
	go hm.monitorLoop()
}

// Stop stops the monitor and every probe loop
func (hm *HealthMonitor) Stop() {
	hm.stopOnce.Do(func() {
		close(hm.stopCh)
		hm.mu.Lock()
		for _, cancel := range hm.cancelFns {
			cancel()
		}
		hm.mu.Unlock()
		hm.wg.Wait()
	})
}

// monitorLoop starts and stops probe loops as tasks come and go
func (hm *HealthMonitor) monitorLoop() {
	defer hm.wg.Done()

	ticker := time.NewTicker(hm.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			hm.syncProbes()
		case <-hm.stopCh:
			return
		}
	}
}

// syncProbes syncs probe loops with the current tasks
func (hm *HealthMonitor) syncProbes() {
	current := make(map[string]*Task)
	for _, task := range hm.tasks.List() {
		current[task.Params.ModelID] = task
	}

	hm.mu.Lock()
	defer hm.mu.Unlock()

	for modelID, cancel := range hm.cancelFns {
		if task, exists := current[modelID]; !exists || task != hm.monitors[modelID].task {
			cancel()
			delete(hm.cancelFns, modelID)
			delete(hm.monitors, modelID)
		}
	}

	for modelID, task := range current {
		if _, exists := hm.monitors[modelID]; exists || task.Probe == nil {
			continue
		}
		if err := hm.startProbe(task); err != nil {
			hm.logger.Error().Err(err).Str("model_id", modelID).Msg("Failed to start process probe")
		}
	}
}

// startProbe starts a probe goroutine for a task. Caller holds hm.mu.
func (hm *HealthMonitor) startProbe(task *Task) error {
	checker, err := health.NewChecker(task.Params.ModelID, *task.Probe)
	if err != nil {
		return err
	}

	monitor := &processMonitor{
		task:    task,
		checker: checker,
		status:  health.NewStatus(time.Now()),
		config:  task.Probe.Config.WithDefaults(),
		logger:  log.WithModelID(task.Params.ModelID).With().Str("component", "health-monitor").Logger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	hm.monitors[task.Params.ModelID] = monitor
	hm.cancelFns[task.Params.ModelID] = cancel

	hm.wg.Add(1)
	go hm.probeLoop(ctx, monitor)
	return nil
}

// probeLoop probes one process until cancelled
func (hm *HealthMonitor) probeLoop(ctx context.Context, monitor *processMonitor) {
	defer hm.wg.Done()

	ticker := time.NewTicker(monitor.config.Interval)
	defer ticker.Stop()

	hm.runProbe(ctx, monitor)

	for {
		select {
		case <-ticker.C:
			hm.runProbe(ctx, monitor)
		case <-ctx.Done():
			return
		case <-hm.stopCh:
			return
		}
	}
}

// runProbe performs a single probe and applies the result to the task
func (hm *HealthMonitor) runProbe(ctx context.Context, monitor *processMonitor) {
	checkCtx, cancel := context.WithTimeout(ctx, monitor.config.Timeout)
	defer cancel()

	result := monitor.checker.Check(checkCtx)
	if ctx.Err() != nil {
		return
	}
	monitor.status.Update(result, monitor.config)
	applyStatus(monitor.task, monitor.status, monitor.config, monitor.logger)
}

// applyStatus maps a probe status onto the task's process state. A process
// that never became ready fails once it runs out of retries.
func applyStatus(task *Task, status *health.Status, config health.Config, logger zerolog.Logger) {
	previous, _ := task.State()

	next, reason := previous, ""
	switch {
	case status.Healthy:
		next = ProcessRunning
	case status.Ready, status.ConsecutiveFailures >= config.Retries:
		next, reason = ProcessFailed, status.LastResult.Message
	default:
		next = ProcessStarting
	}

	task.SetState(next, reason, status.LastCheck)
	if next != previous {
		logger.Info().
			Str("from", string(previous)).
			Str("to", string(next)).
			Str("reason", reason).
			Msg("Inference process state changed")
	}
}
