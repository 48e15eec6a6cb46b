package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cuemby/burrow/api/rpc"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/manager"
	"github.com/cuemby/burrow/pkg/storage"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Cluster is the part of the manager the API server needs
type Cluster interface {
	NodeID() string
	IsLeader() bool
	LeaderAddr() string
	AddVoter(nodeID, address string) error
	RemoveVoter(nodeID string) (bool, error)
	ValidateJoinToken(token string) (string, error)

	CreateNode(node *types.Node) error
	UpdateNode(node *types.Node) error
	GetNode(id string) (*types.Node, error)
	ListNodes() ([]*types.Node, error)
	DeleteNode(id string) error

	PutAssignment(assignment *types.Assignment) error
	DeleteAssignment(modelID string) error
	GetAssignment(modelID string) (*types.Assignment, error)
	ListAssignments() ([]*types.Assignment, error)
}

// StatsService answers deployment stats requests
type StatsService interface {
	GetDeploymentStats(ctx context.Context, pattern string) (*types.DeploymentStatsResponse, error)
}

// Server implements the ManagerAPI gRPC service
type Server struct {
	cluster Cluster
	stats   StatsService
	grpc    *grpc.Server
	logger  zerolog.Logger
	now     func() time.Time
}

// Option configures a Server
type Option func(*serverOptions)

type serverOptions struct {
	readOnly bool
}

// WithReadOnly rejects every method that changes cluster state
func WithReadOnly() Option {
	return func(o *serverOptions) { o.readOnly = true }
}

// NewServer creates a new API server
func NewServer(cluster Cluster, stats StatsService, opts ...Option) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		cluster: cluster,
		stats:   stats,
		logger:  log.WithComponent("api"),
		now:     time.Now,
	}

	interceptors := []grpc.UnaryServerInterceptor{
		RecoveryInterceptor(s.logger),
		MetricsInterceptor(),
		LoggingInterceptor(s.logger),
	}
	if o.readOnly {
		interceptors = append(interceptors, ReadOnlyInterceptor())
	}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	rpc.RegisterManagerAPIServer(s.grpc, s)
	return s
}

// Start serves the API on addr until Stop is called
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

// Serve serves the API on lis
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC API listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the gRPC server
func (s *Server) Stop() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

// GetDeploymentStats returns reconciled deployment stats for a model id
// pattern. Any manager can answer; the stats path only reads local state.
func (s *Server) GetDeploymentStats(ctx context.Context, req *rpc.GetDeploymentStatsRequest) (*types.DeploymentStatsResponse, error) {
	resp, err := s.stats.GetDeploymentStats(ctx, req.Pattern)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, status.FromContextError(ctxErr).Err()
		}
		return nil, status.Errorf(codes.Unavailable, "failed to get deployment stats: %v", err)
	}
	return resp, nil
}

// PutAssignment creates or replaces a deployment assignment
func (s *Server) PutAssignment(ctx context.Context, req *rpc.PutAssignmentRequest) (*rpc.PutAssignmentResponse, error) {
	assignment := req.Assignment
	if assignment == nil || assignment.ModelID() == "" {
		return nil, status.Error(codes.InvalidArgument, "assignment with a model id is required")
	}
	if assignment.State == "" {
		assignment.State = types.AssignmentStateStarting
	}
	if assignment.StartTime.IsZero() {
		if existing, err := s.cluster.GetAssignment(assignment.ModelID()); err == nil {
			assignment.StartTime = existing.StartTime
		} else {
			assignment.StartTime = s.now().UTC()
		}
	}
	for nodeID, route := range assignment.RoutingTable {
		if route.State == "" {
			return nil, status.Errorf(codes.InvalidArgument, "route to node %s has no state", nodeID)
		}
	}

	if err := s.cluster.PutAssignment(assignment); err != nil {
		return nil, s.toStatus(err, "failed to put assignment")
	}
	return &rpc.PutAssignmentResponse{Assignment: assignment}, nil
}

// DeleteAssignment removes a deployment assignment
func (s *Server) DeleteAssignment(ctx context.Context, req *rpc.DeleteAssignmentRequest) (*rpc.DeleteAssignmentResponse, error) {
	if req.ModelID == "" {
		return nil, status.Error(codes.InvalidArgument, "model id is required")
	}
	if _, err := s.cluster.GetAssignment(req.ModelID); err != nil {
		return nil, s.toStatus(err, "failed to get assignment")
	}
	if err := s.cluster.DeleteAssignment(req.ModelID); err != nil {
		return nil, s.toStatus(err, "failed to delete assignment")
	}
	return &rpc.DeleteAssignmentResponse{}, nil
}

// ListAssignments returns all assignments
func (s *Server) ListAssignments(ctx context.Context, req *rpc.ListAssignmentsRequest) (*rpc.ListAssignmentsResponse, error) {
	assignments, err := s.cluster.ListAssignments()
	if err != nil {
		return nil, s.toStatus(err, "failed to list assignments")
	}
	return &rpc.ListAssignmentsResponse{Assignments: assignments}, nil
}

// RegisterNode registers a node with the cluster, or refreshes the
// registration of a known node.
func (s *Server) RegisterNode(ctx context.Context, req *rpc.RegisterNodeRequest) (*rpc.RegisterNodeResponse, error) {
	node := req.Node
	if node == nil || node.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "node with an id is required")
	}
	if node.Address == "" {
		return nil, status.Error(codes.InvalidArgument, "node address is required")
	}
	if node.Role == "" {
		node.Role = types.NodeRoleWorker
	}

	role, err := s.cluster.ValidateJoinToken(req.Token)
	if err != nil {
		return nil, status.Errorf(codes.PermissionDenied, "%v", err)
	}
	if role != string(node.Role) {
		return nil, status.Errorf(codes.PermissionDenied, "token is for role %s, node has role %s", role, node.Role)
	}

	now := s.now().UTC()
	node.LastHeartbeat = now
	if node.Status == "" {
		node.Status = types.NodeStatusReady
	}

	existing, err := s.cluster.GetNode(node.ID)
	switch {
	case err == nil:
		node.CreatedAt = existing.CreatedAt
		err = s.cluster.UpdateNode(node)
	case errors.Is(err, storage.ErrNotFound):
		node.CreatedAt = now
		err = s.cluster.CreateNode(node)
	}
	if err != nil {
		return nil, s.toStatus(err, "failed to register node")
	}

	return &rpc.RegisterNodeResponse{Node: node}, nil
}

// ListNodes returns all nodes in the cluster
func (s *Server) ListNodes(ctx context.Context, req *rpc.ListNodesRequest) (*rpc.ListNodesResponse, error) {
	nodes, err := s.cluster.ListNodes()
	if err != nil {
		return nil, s.toStatus(err, "failed to list nodes")
	}
	return &rpc.ListNodesResponse{Nodes: nodes}, nil
}

// RemoveNode takes a node out of the cluster: out of the node directory,
// and out of the Raft configuration when it is a manager. Ids unknown to
// both are NotFound. The manager serving the request cannot remove itself.
func (s *Server) RemoveNode(ctx context.Context, req *rpc.RemoveNodeRequest) (*rpc.RemoveNodeResponse, error) {
	if req.NodeID == "" {
		return nil, status.Error(codes.InvalidArgument, "node id is required")
	}
	if req.NodeID == s.cluster.NodeID() {
		return nil, status.Errorf(codes.FailedPrecondition, "manager %s is serving this request and cannot remove itself", req.NodeID)
	}
	if !s.cluster.IsLeader() {
		return nil, s.toStatus(manager.ErrNotLeader, "failed to remove node")
	}

	node, err := s.cluster.GetNode(req.NodeID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, s.toStatus(err, "failed to get node")
	}
	registered := err == nil

	resp := &rpc.RemoveNodeResponse{}
	// Managers that joined through JoinCluster are voters without a directory entry
	if !registered || node.Role == types.NodeRoleManager {
		removed, err := s.cluster.RemoveVoter(req.NodeID)
		if err != nil {
			return nil, s.toStatus(err, "failed to remove voter")
		}
		resp.VoterRemoved = removed
	}
	if registered {
		if err := s.cluster.DeleteNode(req.NodeID); err != nil {
			return nil, s.toStatus(err, "failed to remove node")
		}
		resp.NodeRemoved = true
	}
	if !resp.NodeRemoved && !resp.VoterRemoved {
		return nil, status.Errorf(codes.NotFound, "node %s not found", req.NodeID)
	}

	s.logger.Info().
		Str("node_id", req.NodeID).
		Bool("voter_removed", resp.VoterRemoved).
		Msg("Node removed from cluster")

	return resp, nil
}

// JoinCluster adds a manager to the Raft cluster
func (s *Server) JoinCluster(ctx context.Context, req *rpc.JoinClusterRequest) (*rpc.JoinClusterResponse, error) {
	if req.NodeID == "" || req.BindAddr == "" {
		return nil, status.Error(codes.InvalidArgument, "node id and bind address are required")
	}

	role, err := s.cluster.ValidateJoinToken(req.Token)
	if err != nil {
		return nil, status.Errorf(codes.PermissionDenied, "%v", err)
	}
	if role != string(types.NodeRoleManager) {
		return nil, status.Error(codes.PermissionDenied, "token is not a manager join token")
	}

	if err := s.cluster.AddVoter(req.NodeID, req.BindAddr); err != nil {
		return nil, s.toStatus(err, "failed to add voter")
	}

	s.logger.Info().
		Str("node_id", req.NodeID).
		Str("bind_addr", req.BindAddr).
		Msg("Manager joined cluster")

	return &rpc.JoinClusterResponse{LeaderAddr: s.cluster.LeaderAddr()}, nil
}

// toStatus maps manager and storage errors onto gRPC codes
func (s *Server) toStatus(err error, msg string) error {
	switch {
	case errors.Is(err, manager.ErrNotLeader):
		return status.Errorf(codes.FailedPrecondition, "%s: not the leader, current leader: %s", msg, s.cluster.LeaderAddr())
	case errors.Is(err, storage.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s: %v", msg, err)
	default:
		return status.Errorf(codes.Internal, "%s: %v", msg, err)
	}
}
