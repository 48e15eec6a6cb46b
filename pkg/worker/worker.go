package worker

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/cuemby/burrow/api/rpc"
	"github.com/cuemby/burrow/pkg/client"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

// DefaultHeartbeatInterval is how often a worker refreshes its registration
const DefaultHeartbeatInterval = 5 * time.Second

// Worker represents a Burrow worker node. It hosts deployment tasks and
// answers node stats requests from managers.
type Worker struct {
	nodeID        string
	name          string
	managerAddr   string
	listenAddr    string
	advertiseAddr string
	joinToken     string
	labels        map[string]string

	heartbeatInterval time.Duration

	tasks         *TaskRegistry
	healthMonitor *HealthMonitor

	client   *client.Client
	server   *grpc.Server
	listener net.Listener

	logger zerolog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Config holds worker configuration
type Config struct {
	NodeID        string
	Name          string // defaults to the hostname
	ManagerAddr   string // empty runs the worker without registering
	ListenAddr    string // node stats gRPC listener
	AdvertiseAddr string // address managers dial, defaults to the listener address
	JoinToken     string
	Labels        map[string]string
	Tasks         []TaskSpec

	HeartbeatInterval time.Duration
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) (*Worker, error) {
	if cfg.NodeID == "" {
		return nil, fmt.Errorf("node id is required")
	}
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address is required")
	}

	name := cfg.Name
	if name == "" {
		if host, err := os.Hostname(); err == nil {
			name = host
		} else {
			name = cfg.NodeID
		}
	}

	interval := cfg.HeartbeatInterval
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}

	logger := log.WithNodeID(cfg.NodeID).With().Str("component", "worker").Logger()
	tasks := NewTaskRegistry()
	for _, spec := range cfg.Tasks {
		if _, err := tasks.Add(spec); err != nil {
			return nil, fmt.Errorf("failed to add task: %w", err)
		}
	}

	return &Worker{
		nodeID:            cfg.NodeID,
		name:              name,
		managerAddr:       cfg.ManagerAddr,
		listenAddr:        cfg.ListenAddr,
		advertiseAddr:     cfg.AdvertiseAddr,
		joinToken:         cfg.JoinToken,
		labels:            cfg.Labels,
		heartbeatInterval: interval,
		tasks:             tasks,
		healthMonitor:     NewHealthMonitor(tasks),
		logger:            logger,
		stopCh:            make(chan struct{}),
	}, nil
}

// Tasks returns the registry of local deployment tasks
func (w *Worker) Tasks() *TaskRegistry {
	return w.tasks
}

// Identity returns the identity reported in node stats
func (w *Worker) Identity() types.NodeIdentity {
	return types.NodeIdentity{ID: w.nodeID, Name: w.name, Address: w.advertise()}
}

// Addr returns the address the node stats server listens on
func (w *Worker) Addr() string {
	if w.listener == nil {
		return w.listenAddr
	}
	return w.listener.Addr().String()
}

func (w *Worker) advertise() string {
	if w.advertiseAddr != "" {
		return w.advertiseAddr
	}
	return w.Addr()
}

// GetNodeStats implements rpc.NodeStatsServer
func (w *Worker) GetNodeStats(ctx context.Context, req *types.NodeStatsRequest) (*types.NodeStatsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := w.tasks.NodeStats(w.Identity(), req)
	w.logger.Debug().
		Strs("models", req.ModelIDs).
		Int("stats", len(resp.Stats)).
		Int("failures", len(resp.Failures)).
		Msg("Served node stats")
	return resp, nil
}

// Start serves node stats and registers with the manager
func (w *Worker) Start() error {
	lis, err := net.Listen("tcp", w.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.listenAddr, err)
	}
	w.listener = lis

	w.server = grpc.NewServer()
	rpc.RegisterNodeStatsServer(w.server, w)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.server.Serve(lis); err != nil {
			w.logger.Error().Err(err).Msg("Node stats server stopped")
		}
	}()
	metrics.RegisterComponent("api", true, fmt.Sprintf("serving node stats on %s", lis.Addr()))

	w.healthMonitor.Start()

	w.logger.Info().
		Str("addr", lis.Addr().String()).
		Int("tasks", w.tasks.Len()).
		Msg("Worker started")

	if w.managerAddr == "" {
		return nil
	}

	c, err := client.NewClient(w.managerAddr)
	if err != nil {
		w.shutdown()
		return fmt.Errorf("failed to connect to manager: %w", err)
	}
	w.client = c

	if err := w.sendHeartbeat(); err != nil {
		w.shutdown()
		return fmt.Errorf("failed to register with manager: %w", err)
	}
	metrics.RegisterComponent("manager", true, "registered")

	w.wg.Add(1)
	go w.heartbeatLoop()

	return nil
}

// Stop stops the worker
func (w *Worker) Stop() error {
	w.shutdown()
	w.logger.Info().Msg("Worker stopped")
	return nil
}

func (w *Worker) shutdown() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.healthMonitor.Stop()
		if w.server != nil {
			w.server.GracefulStop()
		}
		w.wg.Wait()
		if w.client != nil {
			_ = w.client.Close()
		}
	})
}

// heartbeatLoop refreshes the node registration until stopped
func (w *Worker) heartbeatLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.sendHeartbeat(); err != nil {
				w.logger.Warn().Err(err).Msg("Heartbeat failed")
				metrics.UpdateComponent("manager", false, err.Error())
				continue
			}
			metrics.UpdateComponent("manager", true, "registered")
		case <-w.stopCh:
			return
		}
	}
}

// sendHeartbeat registers the node, or refreshes an existing registration
func (w *Worker) sendHeartbeat() error {
	_, err := w.client.RegisterNode(&types.Node{
		ID:            w.nodeID,
		Name:          w.name,
		Role:          types.NodeRoleWorker,
		Address:       w.advertise(),
		Labels:        w.labels,
		Status:        types.NodeStatusReady,
		LastHeartbeat: time.Now().UTC(),
	}, w.joinToken)
	return err
}
