package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/burrow/pkg/client"
	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/storage"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
	"github.com/rs/zerolog"
)

// ErrNotLeader is returned for writes submitted to a follower
var ErrNotLeader = errors.New("not the leader")

// Manager represents a Burrow cluster manager node. It owns the replicated
// assignment metadata and the node directory.
type Manager struct {
	nodeID   string
	bindAddr string
	dataDir  string

	raft         *raft.Raft
	fsm          *BurrowFSM
	store        storage.Store
	tokenManager *TokenManager
	eventBroker  *events.Broker
	logger       zerolog.Logger
}

// Config holds configuration for creating a Manager
type Config struct {
	NodeID   string
	BindAddr string
	DataDir  string
}

// NewManager creates a new Manager instance
func NewManager(cfg *Config) (*Manager, error) {
	if cfg.NodeID == "" {
		return nil, fmt.Errorf("node id is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	eventBroker := events.NewBroker()
	eventBroker.Start()

	m := &Manager{
		nodeID:       cfg.NodeID,
		bindAddr:     cfg.BindAddr,
		dataDir:      cfg.DataDir,
		fsm:          NewBurrowFSM(store),
		store:        store,
		tokenManager: NewTokenManager(),
		eventBroker:  eventBroker,
		logger:       log.WithComponent("manager"),
	}

	return m, nil
}

// NodeID returns the id of this manager
func (m *Manager) NodeID() string {
	return m.nodeID
}

func (m *Manager) raftConfig() *raft.Config {
	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(m.nodeID)

	// Tuned for LAN deployments: ~250ms heartbeats, 2-3s failover
	config.HeartbeatTimeout = 500 * time.Millisecond
	config.ElectionTimeout = 500 * time.Millisecond
	config.CommitTimeout = 50 * time.Millisecond
	config.LeaderLeaseTimeout = 250 * time.Millisecond

	return config
}

// setupRaft creates the raft instance with bolt-backed log and stable stores
func (m *Manager) setupRaft() (*raft.NetworkTransport, error) {
	addr, err := net.ResolveTCPAddr("tcp", m.bindAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bind address: %w", err)
	}

	transport, err := raft.NewTCPTransport(m.bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(m.dataDir, 2, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(m.dataDir, "raft-log.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to create log store: %w", err)
	}

	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(m.dataDir, "raft-stable.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to create stable store: %w", err)
	}

	r, err := raft.NewRaft(m.raftConfig(), m.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, fmt.Errorf("failed to create raft: %w", err)
	}

	m.raft = r
	return transport, nil
}

// Bootstrap initializes a new single-node Raft cluster
func (m *Manager) Bootstrap() error {
	transport, err := m.setupRaft()
	if err != nil {
		return err
	}

	configuration := raft.Configuration{
		Servers: []raft.Server{
			{
				ID:      raft.ServerID(m.nodeID),
				Address: transport.LocalAddr(),
			},
		},
	}

	future := m.raft.BootstrapCluster(configuration)
	if err := future.Error(); err != nil {
		return fmt.Errorf("failed to bootstrap cluster: %w", err)
	}

	m.logger.Info().Str("bind_addr", m.bindAddr).Msg("Cluster bootstrapped")
	return nil
}

// Join adds this manager to an existing cluster through the leader's API
func (m *Manager) Join(leaderAPIAddr string, token string) error {
	if _, err := m.setupRaft(); err != nil {
		return err
	}

	m.logger.Info().
		Str("leader", leaderAPIAddr).
		Str("bind_addr", m.bindAddr).
		Msg("Contacting leader to join cluster")

	c, err := client.NewClient(leaderAPIAddr)
	if err != nil {
		return fmt.Errorf("failed to connect to leader: %w", err)
	}
	defer c.Close()

	if err := c.JoinCluster(m.nodeID, m.bindAddr, token); err != nil {
		return fmt.Errorf("failed to join cluster via RPC: %w", err)
	}

	m.logger.Info().Msg("Joined cluster")
	return nil
}

// WaitForLeader blocks until the cluster has elected a leader
func (m *Manager) WaitForLeader(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if m.LeaderAddr() != "" {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to wait for leader: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// AddVoter adds a new manager node to the Raft cluster
func (m *Manager) AddVoter(nodeID, address string) error {
	if m.raft == nil {
		return fmt.Errorf("raft not initialized")
	}

	if !m.IsLeader() {
		return fmt.Errorf("%w, current leader: %s", ErrNotLeader, m.LeaderAddr())
	}

	future := m.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(address), 0, 10*time.Second)
	if err := future.Error(); err != nil {
		return fmt.Errorf("failed to add voter: %w", err)
	}

	m.logger.Info().Str("voter_id", nodeID).Str("address", address).Msg("Added voter to cluster")
	return nil
}

// RemoveVoter takes a manager out of the Raft configuration. It reports
// false without error when nodeID is not a member, so removing a worker id
// or repeating a removal is harmless. The leader cannot remove itself.
func (m *Manager) RemoveVoter(nodeID string) (bool, error) {
	if !m.IsLeader() {
		return false, fmt.Errorf("%w, current leader: %s", ErrNotLeader, m.LeaderAddr())
	}
	if nodeID == m.nodeID {
		return false, fmt.Errorf("manager %s is the leader and cannot remove itself", nodeID)
	}

	servers, err := m.GetClusterServers()
	if err != nil {
		return false, err
	}
	member := false
	for _, server := range servers {
		if string(server.ID) == nodeID {
			member = true
			break
		}
	}
	if !member {
		return false, nil
	}

	if err := m.raft.RemoveServer(raft.ServerID(nodeID), 0, 10*time.Second).Error(); err != nil {
		return false, fmt.Errorf("failed to remove voter %s: %w", nodeID, err)
	}

	m.logger.Info().Str("voter_id", nodeID).Int("remaining", len(servers)-1).Msg("Removed voter from cluster")
	return true, nil
}

// GetClusterServers returns information about all servers in the Raft cluster
func (m *Manager) GetClusterServers() ([]raft.Server, error) {
	if m.raft == nil {
		return nil, fmt.Errorf("raft not initialized")
	}

	future := m.raft.GetConfiguration()
	if err := future.Error(); err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	return future.Configuration().Servers, nil
}

// IsLeader returns true if this manager is the Raft leader
func (m *Manager) IsLeader() bool {
	if m.raft == nil {
		return false
	}
	return m.raft.State() == raft.Leader
}

// LeaderAddr returns the address of the current Raft leader
func (m *Manager) LeaderAddr() string {
	if m.raft == nil {
		return ""
	}
	addr, _ := m.raft.LeaderWithID()
	return string(addr)
}

// GetRaftStats returns Raft statistics
func (m *Manager) GetRaftStats() map[string]interface{} {
	if m.raft == nil {
		return nil
	}

	stats := make(map[string]interface{})
	stats["state"] = m.raft.State().String()
	stats["last_log_index"] = m.raft.LastIndex()
	stats["applied_index"] = m.raft.AppliedIndex()
	stats["leader"] = m.LeaderAddr()

	if servers, err := m.GetClusterServers(); err == nil {
		stats["peers"] = uint64(len(servers))
	}

	return stats
}

// GetEventBroker returns the event broker
func (m *Manager) GetEventBroker() *events.Broker {
	return m.eventBroker
}

// publish hands an event to the broker's subscribers
func (m *Manager) publish(event *events.Event) {
	if m.eventBroker != nil {
		m.eventBroker.Publish(event)
	}
}

// Apply submits a command to the Raft cluster
func (m *Manager) Apply(cmd Command) error {
	if m.raft == nil {
		return fmt.Errorf("raft not initialized")
	}
	if !m.IsLeader() {
		return ErrNotLeader
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	future := m.raft.Apply(data, 5*time.Second)
	if err := future.Error(); err != nil {
		return fmt.Errorf("failed to apply command: %w", err)
	}

	// The FSM reports store errors through the response
	if resp := future.Response(); resp != nil {
		if err, ok := resp.(error); ok && err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) applyOp(op string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return m.Apply(Command{Op: op, Data: data})
}

// CreateNode adds a node to the cluster
func (m *Manager) CreateNode(node *types.Node) error {
	if err := m.applyOp(opCreateNode, node); err != nil {
		return err
	}
	m.publish(events.NewEvent(events.EventNodeRegistered, "node registered", map[string]string{
		"node_id": node.ID,
		"role":    string(node.Role),
	}))
	return nil
}

// UpdateNode updates a node in the cluster
func (m *Manager) UpdateNode(node *types.Node) error {
	if err := m.applyOp(opUpdateNode, node); err != nil {
		return err
	}
	m.publish(events.NewEvent(events.EventNodeUpdated, "node updated", map[string]string{
		"node_id": node.ID,
		"status":  string(node.Status),
	}))
	return nil
}

// DeleteNode removes a node from the cluster
func (m *Manager) DeleteNode(id string) error {
	if err := m.applyOp(opDeleteNode, id); err != nil {
		return err
	}
	m.publish(events.NewEvent(events.EventNodeRemoved, "node removed", map[string]string{
		"node_id": id,
	}))
	return nil
}

// PutAssignment creates or replaces the assignment of a model
func (m *Manager) PutAssignment(assignment *types.Assignment) error {
	if assignment.ModelID() == "" {
		return fmt.Errorf("assignment has no model id")
	}

	eventType := events.EventAssignmentUpdated
	if _, err := m.store.GetAssignment(assignment.ModelID()); errors.Is(err, storage.ErrNotFound) {
		eventType = events.EventAssignmentCreated
	}

	if err := m.applyOp(opPutAssignment, assignment); err != nil {
		return err
	}
	m.publish(events.NewEvent(eventType, "assignment "+string(assignment.State), map[string]string{
		"model_id": assignment.ModelID(),
		"state":    string(assignment.State),
	}))
	return nil
}

// DeleteAssignment removes the assignment of a model
func (m *Manager) DeleteAssignment(modelID string) error {
	if err := m.applyOp(opDeleteAssignment, modelID); err != nil {
		return err
	}
	m.publish(events.NewEvent(events.EventAssignmentDeleted, "assignment deleted", map[string]string{
		"model_id": modelID,
	}))
	return nil
}

// GetNode retrieves a node by ID (read from local store)
func (m *Manager) GetNode(id string) (*types.Node, error) {
	return m.store.GetNode(id)
}

// ListNodes returns all nodes (read from local store)
func (m *Manager) ListNodes() ([]*types.Node, error) {
	return m.store.ListNodes()
}

// GetAssignment retrieves the assignment of a model (read from local store)
func (m *Manager) GetAssignment(modelID string) (*types.Assignment, error) {
	return m.store.GetAssignment(modelID)
}

// ListAssignments returns all assignments (read from local store)
func (m *Manager) ListAssignments() ([]*types.Assignment, error) {
	return m.store.ListAssignments()
}

// ClusterState returns a consistent snapshot of the local replica's
// assignments and node directory.
func (m *Manager) ClusterState() (*types.ClusterState, error) {
	state, err := m.store.ClusterState()
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster state: %w", err)
	}
	return state, nil
}

// GenerateJoinToken generates a new join token for adding nodes
func (m *Manager) GenerateJoinToken(role string) (*JoinToken, error) {
	if !m.IsLeader() {
		return nil, fmt.Errorf("%w, tokens can only be generated by the leader", ErrNotLeader)
	}

	// Token valid for 24 hours
	return m.tokenManager.GenerateToken(role, 24*time.Hour)
}

// ValidateJoinToken validates a join token
func (m *Manager) ValidateJoinToken(token string) (string, error) {
	return m.tokenManager.ValidateToken(token)
}

// Shutdown gracefully shuts down the manager
func (m *Manager) Shutdown() error {
	if m.eventBroker != nil {
		m.eventBroker.Stop()
	}

	if m.raft != nil {
		future := m.raft.Shutdown()
		if err := future.Error(); err != nil {
			return fmt.Errorf("failed to shutdown raft: %w", err)
		}
	}

	if m.store != nil {
		if err := m.store.Close(); err != nil {
			return fmt.Errorf("failed to close store: %w", err)
		}
	}

	return nil
}
