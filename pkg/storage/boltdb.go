package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cuemby/burrow/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketNodes       = []byte("nodes")
	bucketAssignments = []byte("assignments")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "burrow.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketNodes, bucketAssignments} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Node operations
func (s *BoltStore) CreateNode(node *types.Node) error {
	return s.put(bucketNodes, node.ID, node)
}

func (s *BoltStore) GetNode(id string) (*types.Node, error) {
	var node types.Node
	if err := s.get(bucketNodes, id, &node); err != nil {
		return nil, fmt.Errorf("node %s: %w", id, err)
	}
	return &node, nil
}

func (s *BoltStore) ListNodes() ([]*types.Node, error) {
	var nodes []*types.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		nodes, err = listNodes(tx)
		return err
	})
	return nodes, err
}

func (s *BoltStore) UpdateNode(node *types.Node) error {
	return s.CreateNode(node) // Same as create (upsert)
}

func (s *BoltStore) DeleteNode(id string) error {
	return s.delete(bucketNodes, id)
}

// Assignment operations
func (s *BoltStore) PutAssignment(assignment *types.Assignment) error {
	if assignment.ModelID() == "" {
		return fmt.Errorf("assignment has no model id")
	}
	return s.put(bucketAssignments, assignment.ModelID(), assignment)
}

func (s *BoltStore) GetAssignment(modelID string) (*types.Assignment, error) {
	var assignment types.Assignment
	if err := s.get(bucketAssignments, modelID, &assignment); err != nil {
		return nil, fmt.Errorf("assignment %s: %w", modelID, err)
	}
	return &assignment, nil
}

func (s *BoltStore) ListAssignments() ([]*types.Assignment, error) {
	var assignments []*types.Assignment
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		assignments, err = listAssignments(tx)
		return err
	})
	return assignments, err
}

func (s *BoltStore) DeleteAssignment(modelID string) error {
	return s.delete(bucketAssignments, modelID)
}

// ClusterState returns a consistent snapshot of nodes and assignments
func (s *BoltStore) ClusterState() (*types.ClusterState, error) {
	state := &types.ClusterState{
		Assignments: make(map[string]*types.Assignment),
		Nodes:       make(map[string]*types.Node),
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		nodes, err := listNodes(tx)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			state.Nodes[node.ID] = node
		}

		assignments, err := listAssignments(tx)
		if err != nil {
			return err
		}
		for _, assignment := range assignments {
			state.Assignments[assignment.ModelID()] = assignment
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *BoltStore) put(bucket []byte, key string, value interface{}) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

func (s *BoltStore) get(bucket []byte, key string, value interface{}) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, value)
	})
}

func (s *BoltStore) delete(bucket []byte, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

func listNodes(tx *bolt.Tx) ([]*types.Node, error) {
	var nodes []*types.Node
	err := tx.Bucket(bucketNodes).ForEach(func(k, v []byte) error {
		var node types.Node
		if err := json.Unmarshal(v, &node); err != nil {
			return err
		}
		nodes = append(nodes, &node)
		return nil
	})
	return nodes, err
}

func listAssignments(tx *bolt.Tx) ([]*types.Assignment, error) {
	var assignments []*types.Assignment
	err := tx.Bucket(bucketAssignments).ForEach(func(k, v []byte) error {
		var assignment types.Assignment
		if err := json.Unmarshal(v, &assignment); err != nil {
			return err
		}
		assignments = append(assignments, &assignment)
		return nil
	})
	return assignments, err
}
