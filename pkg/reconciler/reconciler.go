package reconciler

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/rs/zerolog"
)

const (
	DefaultInterval         = 10 * time.Second
	DefaultHeartbeatTimeout = 30 * time.Second
)

// Cluster is the part of the manager the reconciler needs
type Cluster interface {
	IsLeader() bool
	ListNodes() ([]*types.Node, error)
	UpdateNode(node *types.Node) error
}

// Config holds reconciler settings. Zero values take the defaults.
type Config struct {
	Interval         time.Duration
	HeartbeatTimeout time.Duration
}

// Reconciler marks worker nodes down when their heartbeats stop. It only
// acts on the leader, since node updates go through Raft.
type Reconciler struct {
	cluster          Cluster
	interval         time.Duration
	heartbeatTimeout time.Duration
	now              func() time.Time
	logger           zerolog.Logger

	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewReconciler creates a new reconciler
func NewReconciler(cluster Cluster, cfg Config) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	return &Reconciler{
		cluster:          cluster,
		interval:         cfg.Interval,
		heartbeatTimeout: cfg.HeartbeatTimeout,
		now:              time.Now,
		logger:           log.WithComponent("reconciler"),
		stopCh:           make(chan struct{}),
	}
}

// Start begins the reconciliation loop
func (r *Reconciler) Start() {
	r.wg.Add(1)
	go r.run()
}

// Stop stops the reconciler
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.wg.Wait()
	})
}

func (r *Reconciler) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.Reconcile(); err != nil {
				r.logger.Error().Err(err).Msg("Reconciliation failed")
			}
		case <-r.stopCh:
			return
		}
	}
}

// Reconcile performs one cycle. Followers skip it.
func (r *Reconciler) Reconcile() error {
	if !r.cluster.IsLeader() {
		return nil
	}

	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.reconcileNodes()
}

// reconcileNodes marks workers with stale heartbeats as down. Managers do
// not heartbeat and are left alone.
func (r *Reconciler) reconcileNodes() error {
	nodes, err := r.cluster.ListNodes()
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}

	now := r.now()
	for _, node := range nodes {
		if node.Role != types.NodeRoleWorker || node.Status == types.NodeStatusDown {
			continue
		}
		silence := now.Sub(node.LastHeartbeat)
		if silence <= r.heartbeatTimeout {
			continue
		}

		r.logger.Warn().
			Str("node_id", node.ID).
			Dur("since_heartbeat", silence).
			Msg("Node is down")

		node.Status = types.NodeStatusDown
		if err := r.cluster.UpdateNode(node); err != nil {
			r.logger.Error().Err(err).Str("node_id", node.ID).Msg("Failed to mark node down")
			continue
		}
		metrics.NodesMarkedDownTotal.Inc()
	}

	return nil
}
