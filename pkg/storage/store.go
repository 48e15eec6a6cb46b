package storage

import (
	"errors"

	"github.com/cuemby/burrow/pkg/types"
)

// ErrNotFound is returned when a requested object does not exist
var ErrNotFound = errors.New("not found")

// Store defines the interface for cluster state storage
type Store interface {
	// Nodes
	CreateNode(node *types.Node) error
	GetNode(id string) (*types.Node, error)
	ListNodes() ([]*types.Node, error)
	UpdateNode(node *types.Node) error
	DeleteNode(id string) error

	// Assignments (keyed by model id)
	PutAssignment(assignment *types.Assignment) error
	GetAssignment(modelID string) (*types.Assignment, error)
	ListAssignments() ([]*types.Assignment, error)
	DeleteAssignment(modelID string) error

	// ClusterState reads nodes and assignments in a single transaction
	ClusterState() (*types.ClusterState, error)

	// Utility
	Close() error
}
