package manager

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/cuemby/burrow/pkg/storage"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/hashicorp/raft"
)

// Raft command operations
const (
	opCreateNode       = "create_node"
	opUpdateNode       = "update_node"
	opDeleteNode       = "delete_node"
	opPutAssignment    = "put_assignment"
	opDeleteAssignment = "delete_assignment"
)

// BurrowFSM implements the Raft Finite State Machine for Burrow's cluster state.
// It applies committed log entries to the local store and handles snapshots.
type BurrowFSM struct {
	mu    sync.RWMutex
	store storage.Store
}

// NewBurrowFSM creates a new FSM instance
func NewBurrowFSM(store storage.Store) *BurrowFSM {
	return &BurrowFSM{
		store: store,
	}
}

// Command represents a state change operation in the Raft log
type Command struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

// Apply applies a Raft log entry to the FSM
func (f *BurrowFSM) Apply(log *raft.Log) interface{} {
	var cmd Command
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return fmt.Errorf("failed to unmarshal command: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd.Op {
	// Node operations
	case opCreateNode:
		var node types.Node
		if err := json.Unmarshal(cmd.Data, &node); err != nil {
			return err
		}
		return f.store.CreateNode(&node)

	case opUpdateNode:
		var node types.Node
		if err := json.Unmarshal(cmd.Data, &node); err != nil {
			return err
		}
		return f.store.UpdateNode(&node)

	case opDeleteNode:
		var nodeID string
		if err := json.Unmarshal(cmd.Data, &nodeID); err != nil {
			return err
		}
		return f.store.DeleteNode(nodeID)

	// Assignment operations
	case opPutAssignment:
		var assignment types.Assignment
		if err := json.Unmarshal(cmd.Data, &assignment); err != nil {
			return err
		}
		return f.store.PutAssignment(&assignment)

	case opDeleteAssignment:
		var modelID string
		if err := json.Unmarshal(cmd.Data, &modelID); err != nil {
			return err
		}
		return f.store.DeleteAssignment(modelID)

	default:
		return fmt.Errorf("unknown command: %s", cmd.Op)
	}
}

// Snapshot creates a point-in-time snapshot of the FSM
func (f *BurrowFSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	state, err := f.store.ClusterState()
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster state: %w", err)
	}

	snapshot := &BurrowSnapshot{
		Nodes:       make([]*types.Node, 0, len(state.Nodes)),
		Assignments: make([]*types.Assignment, 0, len(state.Assignments)),
	}
	for _, node := range state.Nodes {
		snapshot.Nodes = append(snapshot.Nodes, node)
	}
	for _, assignment := range state.Assignments {
		snapshot.Assignments = append(snapshot.Assignments, assignment)
	}

	return snapshot, nil
}

// Restore replaces the FSM state with the contents of a snapshot
func (f *BurrowFSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var snapshot BurrowSnapshot
	if err := json.NewDecoder(rc).Decode(&snapshot); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Drop local state that is not part of the snapshot
	current, err := f.store.ClusterState()
	if err != nil {
		return fmt.Errorf("failed to read cluster state: %w", err)
	}
	for id := range current.Nodes {
		if err := f.store.DeleteNode(id); err != nil {
			return fmt.Errorf("failed to clear node: %w", err)
		}
	}
	for id := range current.Assignments {
		if err := f.store.DeleteAssignment(id); err != nil {
			return fmt.Errorf("failed to clear assignment: %w", err)
		}
	}

	for _, node := range snapshot.Nodes {
		if err := f.store.CreateNode(node); err != nil {
			return fmt.Errorf("failed to restore node: %w", err)
		}
	}

	for _, assignment := range snapshot.Assignments {
		if err := f.store.PutAssignment(assignment); err != nil {
			return fmt.Errorf("failed to restore assignment: %w", err)
		}
	}

	return nil
}

// BurrowSnapshot represents a point-in-time snapshot of cluster state
type BurrowSnapshot struct {
	Nodes       []*types.Node
	Assignments []*types.Assignment
}

// Persist writes the snapshot to the given SnapshotSink
func (s *BurrowSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s); err != nil {
			return err
		}
		return sink.Close()
	}()

	if err != nil {
		sink.Cancel()
	}

	return err
}

// Release releases the snapshot resources
func (s *BurrowSnapshot) Release() {}
