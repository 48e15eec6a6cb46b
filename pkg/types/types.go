package types

import (
	"sort"
	"time"
)

// Node represents a manager or worker node in the cluster
type Node struct {
	ID            string
	Name          string
	Role          NodeRole
	Address       string // gRPC address serving node stats
	Labels        map[string]string
	Status        NodeStatus
	LastHeartbeat time.Time
	CreatedAt     time.Time
}

// Identity returns the identity of the node as reported in node stats
func (n *Node) Identity() NodeIdentity {
	return NodeIdentity{ID: n.ID, Name: n.Name, Address: n.Address}
}

// NodeRole defines the role of a node
type NodeRole string

const (
	NodeRoleManager NodeRole = "manager"
	NodeRoleWorker  NodeRole = "worker"
)

// NodeStatus represents the current state of a node
type NodeStatus string

const (
	NodeStatusReady    NodeStatus = "ready"
	NodeStatusDown     NodeStatus = "down"
	NodeStatusDraining NodeStatus = "draining"
	NodeStatusUnknown  NodeStatus = "unknown"
)

// NodeIdentity is the minimal description of a node attached to node stats.
// Only ID is guaranteed; Name and Address are empty when the node is no
// longer part of the cluster.
type NodeIdentity struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// AssignmentState is the lifecycle state of a model deployment
type AssignmentState string

const (
	AssignmentStateStarting AssignmentState = "starting"
	AssignmentStateStarted  AssignmentState = "started"
	AssignmentStateStopping AssignmentState = "stopping"
	AssignmentStateStopped  AssignmentState = "stopped"
	AssignmentStateFailed   AssignmentState = "failed"
)

// IsAnyOf reports whether s equals one of the given states
func (s AssignmentState) IsAnyOf(states ...AssignmentState) bool {
	for _, candidate := range states {
		if s == candidate {
			return true
		}
	}
	return false
}

// RoutingState is the state of a deployment on a single node
type RoutingState string

const (
	RoutingStateStarting RoutingState = "starting"
	RoutingStateStarted  RoutingState = "started"
	RoutingStateStopping RoutingState = "stopping"
	RoutingStateStopped  RoutingState = "stopped"
	RoutingStateFailed   RoutingState = "failed"
)

// RoutingInfo is the routing entry of one node in an assignment
type RoutingInfo struct {
	State              RoutingState `json:"routing_state" yaml:"state"`
	Reason             string       `json:"reason,omitempty" yaml:"reason,omitempty"`
	CurrentAllocations int          `json:"current_allocations" yaml:"currentAllocations"`
	TargetAllocations  int          `json:"target_allocations" yaml:"targetAllocations"`
}

// TaskParams is the desired configuration of a deployment
type TaskParams struct {
	ModelID              string `json:"model_id" yaml:"modelId"`
	ThreadsPerAllocation int    `json:"threads_per_allocation" yaml:"threadsPerAllocation"`
	NumberOfAllocations  int    `json:"number_of_allocations" yaml:"numberOfAllocations"`
	QueueCapacity        int    `json:"queue_capacity" yaml:"queueCapacity"`
	CacheSize            *int64 `json:"cache_size,omitempty" yaml:"cacheSize,omitempty"`
}

// Assignment is the authoritative record of where and how a deployment is
// placed. Assignments are keyed by model id.
type Assignment struct {
	TaskParams   TaskParams             `json:"task_parameters"`
	State        AssignmentState        `json:"assignment_state"`
	Reason       string                 `json:"reason,omitempty"`
	StartTime    time.Time              `json:"start_time"`
	RoutingTable map[string]RoutingInfo `json:"routing_table"`
}

// ModelID returns the key of the assignment
func (a *Assignment) ModelID() string {
	return a.TaskParams.ModelID
}

// StartedNodes returns the sorted ids of nodes whose route is started
func (a *Assignment) StartedNodes() []string {
	var nodes []string
	for nodeID, route := range a.RoutingTable {
		if route.State == RoutingStateStarted {
			nodes = append(nodes, nodeID)
		}
	}
	sort.Strings(nodes)
	return nodes
}

// NonStartedRoutes returns the routing entries that are not started.
// The result is never nil.
func (a *Assignment) NonStartedRoutes() map[string]RoutingInfo {
	routes := make(map[string]RoutingInfo)
	for nodeID, route := range a.RoutingTable {
		if route.State != RoutingStateStarted {
			routes[nodeID] = route
		}
	}
	return routes
}

// Clone returns a deep copy of the assignment
func (a *Assignment) Clone() *Assignment {
	clone := *a
	if a.TaskParams.CacheSize != nil {
		size := *a.TaskParams.CacheSize
		clone.TaskParams.CacheSize = &size
	}
	clone.RoutingTable = make(map[string]RoutingInfo, len(a.RoutingTable))
	for nodeID, route := range a.RoutingTable {
		clone.RoutingTable[nodeID] = route
	}
	return &clone
}

// AllRoutesFailed reports whether every entry of the routing table is failed.
// It holds for an empty table: an assignment with no routes has nowhere to
// run.
func AllRoutesFailed(routingTable map[string]RoutingInfo) bool {
	for _, route := range routingTable {
		if route.State != RoutingStateFailed {
			return false
		}
	}
	return true
}

// NodeDirectory looks up nodes by id
type NodeDirectory interface {
	Node(id string) (*Node, bool)
}

// ClusterState is an immutable point-in-time view of the assignment
// metadata and the node directory.
type ClusterState struct {
	Assignments map[string]*Assignment
	Nodes       map[string]*Node
}

// ModelAssignment returns the assignment for a model id, or nil
func (cs *ClusterState) ModelAssignment(id string) *Assignment {
	if cs == nil {
		return nil
	}
	return cs.Assignments[id]
}

// Node implements NodeDirectory
func (cs *ClusterState) Node(id string) (*Node, bool) {
	if cs == nil {
		return nil, false
	}
	node, ok := cs.Nodes[id]
	return node, ok
}

// NodeIdentityFor returns the identity of a node, falling back to an
// identity that only carries the id when the node is unknown.
func NodeIdentityFor(directory NodeDirectory, id string) NodeIdentity {
	if directory != nil {
		if node, ok := directory.Node(id); ok && node != nil {
			return node.Identity()
		}
	}
	return NodeIdentity{ID: id}
}

// TaskFailure is a failure reported for a single deployment task on a node
type TaskFailure struct {
	NodeID  string `json:"node_id" yaml:"nodeId"`
	ModelID string `json:"model_id,omitempty" yaml:"modelId,omitempty"`
	Reason  string `json:"reason" yaml:"reason"`
}

// NodeFailure is a failure to query a node at all
type NodeFailure struct {
	NodeID string `json:"node_id" yaml:"nodeId"`
	Reason string `json:"reason" yaml:"reason"`
}
