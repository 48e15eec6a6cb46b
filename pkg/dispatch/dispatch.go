package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/status"
)

const (
	DefaultMaxConcurrency = 16
	DefaultNodeTimeout    = 10 * time.Second
	DefaultConnCacheSize  = 128
)

// Config holds dispatcher settings. Zero values take the defaults.
type Config struct {
	MaxConcurrency int
	NodeTimeout    time.Duration
}

// Result collects what a fan-out produced. Failures never remove the
// responses of nodes that answered.
type Result struct {
	Responses    []*types.AssignmentStats
	TaskFailures []types.TaskFailure
	NodeFailures []types.NodeFailure
}

// Dispatcher queries the node stats service of many nodes concurrently
type Dispatcher struct {
	cfg       Config
	connector Connector
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher that reaches nodes through connector
func NewDispatcher(cfg Config, connector Connector) *Dispatcher {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.NodeTimeout <= 0 {
		cfg.NodeTimeout = DefaultNodeTimeout
	}
	return &Dispatcher{
		cfg:       cfg,
		connector: connector,
		logger:    log.WithComponent("dispatcher"),
	}
}

type nodeResult struct {
	response *types.NodeStatsResponse
	err      error
}

// Query sends req to every node in nodeIDs and waits until each one has
// answered, failed or timed out. Node addresses come from directory. Nodes
// that cannot be reached become node failures; per-model errors reported by
// a node become task failures. There are no retries.
func (d *Dispatcher) Query(ctx context.Context, nodeIDs []string, directory types.NodeDirectory, req *types.NodeStatsRequest) *Result {
	results := make([]nodeResult, len(nodeIDs))

	var g errgroup.Group
	g.SetLimit(d.cfg.MaxConcurrency)
	for i, nodeID := range nodeIDs {
		g.Go(func() error {
			resp, err := d.queryNode(ctx, nodeID, directory, req)
			results[i] = nodeResult{response: resp, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{
		Responses:    []*types.AssignmentStats{},
		TaskFailures: []types.TaskFailure{},
		NodeFailures: []types.NodeFailure{},
	}
	var errs error
	for i, nodeID := range nodeIDs {
		r := results[i]
		if r.err != nil {
			result.NodeFailures = append(result.NodeFailures, types.NodeFailure{NodeID: nodeID, Reason: r.err.Error()})
			errs = multierr.Append(errs, fmt.Errorf("node %s: %w", nodeID, r.err))
			continue
		}
		for _, stats := range r.response.Stats {
			if stats != nil {
				result.Responses = append(result.Responses, stats)
			}
		}
		for _, failure := range r.response.Failures {
			if failure.NodeID == "" {
				failure.NodeID = nodeID
			}
			result.TaskFailures = append(result.TaskFailures, failure)
		}
	}

	if errs != nil {
		d.logger.Debug().
			Err(errs).
			Int("failed", len(multierr.Errors(errs))).
			Int("nodes", len(nodeIDs)).
			Msg("Node stats fan-out had failures")
	}

	return result
}

func (d *Dispatcher) queryNode(ctx context.Context, nodeID string, directory types.NodeDirectory, req *types.NodeStatsRequest) (*types.NodeStatsResponse, error) {
	node, ok := directory.Node(nodeID)
	if !ok || node == nil {
		return nil, fmt.Errorf("node not found in cluster")
	}
	if node.Address == "" {
		return nil, fmt.Errorf("node has no address")
	}

	client, err := d.connector.NodeStatsClient(node.Address)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.NodeTimeout)
	defer cancel()

	resp, err := client.GetNodeStats(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get node stats: %s", status.Convert(err).Message())
	}
	return resp, nil
}

// Close releases the connector's connections
func (d *Dispatcher) Close() error {
	return d.connector.Close()
}
