package deployment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cuemby/burrow/pkg/dispatch"
	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/executor"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/rs/zerolog"
)

// MetadataSource provides snapshots of the assignment metadata and the node
// directory.
type MetadataSource interface {
	ClusterState() (*types.ClusterState, error)
}

// Dispatcher queries nodes for the stats of their local deployment tasks
type Dispatcher interface {
	Query(ctx context.Context, nodeIDs []string, directory types.NodeDirectory, req *types.NodeStatsRequest) *dispatch.Result
}

// Config holds the collaborators of a Service
type Config struct {
	Metadata   MetadataSource
	Dispatcher Dispatcher
	// Pool runs requests; a management pool of default size when nil
	Pool *executor.Pool
	// Calculator computes allocation status; types.DefaultAllocationCalculator when nil
	Calculator types.AllocationCalculator
	// Events receives a stats.partial event for responses with failures; optional
	Events *events.Broker
}

// Service answers deployment stats requests
type Service struct {
	metadata   MetadataSource
	dispatcher Dispatcher
	pool       *executor.Pool
	calculator types.AllocationCalculator
	events     *events.Broker
	logger     zerolog.Logger
}

// NewService creates a deployment stats service
func NewService(cfg Config) *Service {
	pool := cfg.Pool
	if pool == nil {
		pool = executor.NewPool(executor.Management, executor.DefaultManagementSize())
	}
	calculator := cfg.Calculator
	if calculator == nil {
		calculator = types.DefaultAllocationCalculator
	}
	logger := log.WithComponent("deployment-stats").With().
		Str("pool", pool.Name()).
		Int("pool_size", pool.Size()).
		Logger()
	return &Service{
		metadata:   cfg.Metadata,
		dispatcher: cfg.Dispatcher,
		pool:       pool,
		calculator: calculator,
		events:     cfg.Events,
		logger:     logger,
	}
}

// GetDeploymentStats returns the reconciled stats of every deployment whose
// model id matches pattern. It fails only when the metadata cannot be read
// or ctx ends before the request gets a management slot.
func (s *Service) GetDeploymentStats(ctx context.Context, pattern string) (*types.DeploymentStatsResponse, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StatsRequestDuration)

	var resp *types.DeploymentStatsResponse
	err := s.pool.Run(ctx, func(ctx context.Context) error {
		var err error
		resp, err = s.collect(ctx, pattern)
		return err
	})
	if err != nil {
		metrics.StatsRequestsTotal.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Str("pattern", pattern).Msg("Deployment stats request failed")
		return nil, err
	}

	s.record(pattern, resp)
	s.logger.Info().
		Str("pattern", pattern).
		Int("models", resp.Count).
		Int("node_failures", len(resp.NodeFailures)).
		Int("task_failures", len(resp.TaskFailures)).
		Dur("duration", timer.Duration()).
		Msg("Deployment stats collected")

	return resp, nil
}

func (s *Service) collect(ctx context.Context, pattern string) (*types.DeploymentStatsResponse, error) {
	resolveState, err := s.metadata.ClusterState()
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster state: %w", err)
	}

	resolution := Resolve(pattern, resolveState)
	if len(resolution.Unmatched) > 0 {
		s.logger.Debug().Strs("unmatched", resolution.Unmatched).Str("pattern", pattern).Msg("Pattern tokens matched no deployment")
	}
	if resolution.Empty() {
		return types.EmptyDeploymentStatsResponse(), nil
	}

	result := &dispatch.Result{}
	if len(resolution.TaskNodes) > 0 {
		result = s.dispatcher.Query(ctx, resolution.TaskNodes, resolveState, resolution.NodeStatsRequest())
	}

	merged := MergeNodeStats(result.Responses)
	reconciled := AddFailedRoutes(merged, resolution.NonStartedRoutes, resolveState)

	// Metadata may have changed since resolution
	annotateState, err := s.metadata.ClusterState()
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster state: %w", err)
	}
	annotated := Annotate(reconciled, annotateState, s.calculator)

	return assemble(result, annotated), nil
}

func assemble(result *dispatch.Result, stats []*types.AssignmentStats) *types.DeploymentStatsResponse {
	resp := types.EmptyDeploymentStatsResponse()
	if result.TaskFailures != nil {
		resp.TaskFailures = result.TaskFailures
	}
	if result.NodeFailures != nil {
		resp.NodeFailures = result.NodeFailures
	}
	resp.Stats = stats
	resp.Count = len(stats)
	return resp
}

func (s *Service) record(pattern string, resp *types.DeploymentStatsResponse) {
	metrics.StatsNodeFailures.Add(float64(len(resp.NodeFailures)))
	metrics.StatsTaskFailures.Add(float64(len(resp.TaskFailures)))
	metrics.StatsModelsReported.Observe(float64(resp.Count))

	switch {
	case resp.Count == 0 && len(resp.NodeFailures) == 0 && len(resp.TaskFailures) == 0:
		metrics.StatsRequestsTotal.WithLabelValues("empty").Inc()
	case len(resp.NodeFailures) > 0 || len(resp.TaskFailures) > 0:
		metrics.StatsRequestsTotal.WithLabelValues("partial").Inc()
		if s.events != nil {
			s.events.Publish(events.NewEvent(events.EventStatsPartial, "deployment stats had failures", map[string]string{
				"pattern":       pattern,
				"node_failures": strconv.Itoa(len(resp.NodeFailures)),
				"task_failures": strconv.Itoa(len(resp.TaskFailures)),
			}))
		}
	default:
		metrics.StatsRequestsTotal.WithLabelValues("success").Inc()
	}
}
