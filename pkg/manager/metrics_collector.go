package manager

import (
	"sync"
	"time"

	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/types"
)

// MetricsCollector refreshes the cluster gauges from the manager's state.
// It collects on a fixed interval and whenever an assignment or node event
// is published.
type MetricsCollector struct {
	manager  *Manager
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(mgr *Manager) *MetricsCollector {
	return &MetricsCollector{
		manager:  mgr,
		interval: 15 * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *MetricsCollector) Start() {
	ticker := time.NewTicker(c.interval)

	var sub events.Subscriber
	if broker := c.manager.GetEventBroker(); broker != nil {
		sub = broker.Subscribe()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()
		if sub != nil {
			defer c.manager.GetEventBroker().Unsubscribe(sub)
		}

		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case event, ok := <-sub:
				if !ok {
					sub = nil
					continue
				}
				if isStateEvent(event) {
					c.collect()
				}
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop stops the collector and waits for it to exit
func (c *MetricsCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func isStateEvent(event *events.Event) bool {
	switch event.Type {
	case events.EventAssignmentCreated, events.EventAssignmentUpdated, events.EventAssignmentDeleted,
		events.EventNodeRegistered, events.EventNodeUpdated, events.EventNodeRemoved:
		return true
	}
	return false
}

func (c *MetricsCollector) collect() {
	state, err := c.manager.ClusterState()
	if err == nil {
		recordNodeMetrics(state.Nodes)
		recordAssignmentMetrics(state.Assignments)
	}

	c.collectRaftMetrics()
}

func recordNodeMetrics(nodes map[string]*types.Node) {
	metrics.NodesTotal.Reset()
	for _, node := range nodes {
		metrics.NodesTotal.WithLabelValues(string(node.Role), string(node.Status)).Inc()
	}
}

func recordAssignmentMetrics(assignments map[string]*types.Assignment) {
	metrics.AssignmentsTotal.Reset()
	for _, assignment := range assignments {
		metrics.AssignmentsTotal.WithLabelValues(string(assignment.State)).Inc()
	}
}

func (c *MetricsCollector) collectRaftMetrics() {
	if c.manager.IsLeader() {
		metrics.RaftLeader.Set(1)
	} else {
		metrics.RaftLeader.Set(0)
	}

	stats := c.manager.GetRaftStats()
	if stats != nil {
		if lastIndex, ok := stats["last_log_index"].(uint64); ok {
			metrics.RaftLogIndex.Set(float64(lastIndex))
		}
		if appliedIndex, ok := stats["applied_index"].(uint64); ok {
			metrics.RaftAppliedIndex.Set(float64(appliedIndex))
		}
		if peers, ok := stats["peers"].(uint64); ok {
			metrics.RaftPeers.Set(float64(peers))
		}
	}
}
