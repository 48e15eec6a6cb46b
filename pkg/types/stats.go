package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// NodeStats is the per-node entry of a deployment's statistics. It is
// either *LiveNodeStats or *NotStartedNodeStats.
type NodeStats interface {
	NodeIdentity() NodeIdentity
	nodeStats()
}

// LiveNodeStats are the runtime counters reported by a node that runs the
// deployment's inference process.
type LiveNodeStats struct {
	Node                       NodeIdentity `json:"node"`
	InferenceCount             int64        `json:"inference_count"`
	AvgInferenceTimeMillis     *float64     `json:"average_inference_time_ms,omitempty"`
	PendingCount               int          `json:"number_of_pending_requests"`
	ErrorCount                 int          `json:"error_count"`
	RejectedExecutionCount     int          `json:"rejected_execution_count"`
	TimeoutCount               int          `json:"timeout_count"`
	LastAccess                 *time.Time   `json:"last_access,omitempty"`
	StartTime                  time.Time    `json:"start_time"`
	ThreadsPerAllocation       int          `json:"threads_per_allocation"`
	NumberOfAllocations        int          `json:"number_of_allocations"`
	PeakThroughputPerMinute    int64        `json:"peak_throughput_per_minute"`
	ThroughputLastMinute       int64        `json:"throughput_last_minute"`
	AvgInferenceTimeLastMinute *float64     `json:"average_inference_time_ms_last_minute,omitempty"`
}

// NotStartedNodeStats describes a node that has a routing entry for the
// deployment but no running process to report counters.
type NotStartedNodeStats struct {
	Node         NodeIdentity `json:"node"`
	RoutingState RoutingState `json:"routing_state"`
	Reason       string       `json:"reason,omitempty"`
}

func (s *LiveNodeStats) NodeIdentity() NodeIdentity       { return s.Node }
func (s *NotStartedNodeStats) NodeIdentity() NodeIdentity { return s.Node }

func (*LiveNodeStats) nodeStats()       {}
func (*NotStartedNodeStats) nodeStats() {}

// NewNotStartedNodeStats builds a not-started entry from a routing entry
func NewNotStartedNodeStats(node NodeIdentity, route RoutingInfo) *NotStartedNodeStats {
	return &NotStartedNodeStats{Node: node, RoutingState: route.State, Reason: route.Reason}
}

// NodeStatsList is an ordered list of node stats with a tagged JSON encoding
type NodeStatsList []NodeStats

const (
	nodeStatsTypeLive       = "live"
	nodeStatsTypeNotStarted = "not_started"
)

type nodeStatsEnvelope struct {
	Type  string          `json:"type"`
	Stats json.RawMessage `json:"stats"`
}

// SortByNodeID sorts the list ascending by node id
func (l NodeStatsList) SortByNodeID() {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].NodeIdentity().ID < l[j].NodeIdentity().ID
	})
}

// NodeIDs returns the node ids in list order
func (l NodeStatsList) NodeIDs() []string {
	ids := make([]string, 0, len(l))
	for _, s := range l {
		ids = append(ids, s.NodeIdentity().ID)
	}
	return ids
}

// MarshalJSON encodes each entry together with its variant tag
func (l NodeStatsList) MarshalJSON() ([]byte, error) {
	envelopes := make([]nodeStatsEnvelope, 0, len(l))
	for _, entry := range l {
		var kind string
		switch entry.(type) {
		case *LiveNodeStats:
			kind = nodeStatsTypeLive
		case *NotStartedNodeStats:
			kind = nodeStatsTypeNotStarted
		default:
			return nil, fmt.Errorf("unknown node stats type %T", entry)
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, nodeStatsEnvelope{Type: kind, Stats: data})
	}
	return json.Marshal(envelopes)
}

// UnmarshalJSON decodes entries produced by MarshalJSON
func (l *NodeStatsList) UnmarshalJSON(data []byte) error {
	var envelopes []nodeStatsEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}
	list := make(NodeStatsList, 0, len(envelopes))
	for _, env := range envelopes {
		switch env.Type {
		case nodeStatsTypeLive:
			var live LiveNodeStats
			if err := json.Unmarshal(env.Stats, &live); err != nil {
				return fmt.Errorf("failed to decode live node stats: %w", err)
			}
			list = append(list, &live)
		case nodeStatsTypeNotStarted:
			var notStarted NotStartedNodeStats
			if err := json.Unmarshal(env.Stats, &notStarted); err != nil {
				return fmt.Errorf("failed to decode not started node stats: %w", err)
			}
			list = append(list, &notStarted)
		default:
			return fmt.Errorf("unknown node stats type %q", env.Type)
		}
	}
	*l = list
	return nil
}

// AssignmentStats is the statistics record of one deployment. Configuration
// fields are nil when no live task reported them.
type AssignmentStats struct {
	ModelID              string            `json:"model_id"`
	ThreadsPerAllocation *int              `json:"threads_per_allocation,omitempty"`
	NumberOfAllocations  *int              `json:"number_of_allocations,omitempty"`
	QueueCapacity        *int              `json:"queue_capacity,omitempty"`
	CacheSize            *int64            `json:"cache_size,omitempty"`
	StartTime            time.Time         `json:"start_time"`
	NodeStats            NodeStatsList     `json:"nodes"`
	State                AssignmentState   `json:"state,omitempty"`
	Reason               string            `json:"reason,omitempty"`
	AllocationStatus     *AllocationStatus `json:"allocation_status,omitempty"`
}

// Clone returns a copy of the record with its own node stats slice.
// Node stats entries are shared; they are never mutated in place.
func (s *AssignmentStats) Clone() *AssignmentStats {
	clone := *s
	clone.NodeStats = append(NodeStatsList(nil), s.NodeStats...)
	if s.AllocationStatus != nil {
		status := *s.AllocationStatus
		clone.AllocationStatus = &status
	}
	return &clone
}

// DeploymentStatsResponse is the result of a deployment stats request.
// Stats are sorted by model id.
type DeploymentStatsResponse struct {
	TaskFailures []TaskFailure      `json:"task_failures"`
	NodeFailures []NodeFailure      `json:"node_failures"`
	Stats        []*AssignmentStats `json:"deployment_stats"`
	Count        int                `json:"count"`
}

// EmptyDeploymentStatsResponse returns a response with empty collections
func EmptyDeploymentStatsResponse() *DeploymentStatsResponse {
	return &DeploymentStatsResponse{
		TaskFailures: []TaskFailure{},
		NodeFailures: []NodeFailure{},
		Stats:        []*AssignmentStats{},
		Count:        0,
	}
}

// AssignmentParams are the parts of an assignment a node needs to build its
// per-node stats record.
type AssignmentParams struct {
	NumberOfAllocations int       `json:"number_of_allocations"`
	StartTime           time.Time `json:"start_time"`
}

// NodeStatsRequest asks a node for the stats of its local deployment tasks
type NodeStatsRequest struct {
	ModelIDs    []string                    `json:"model_ids"`
	Assignments map[string]AssignmentParams `json:"assignments,omitempty"`
}

// NodeStatsResponse carries one record per requested model hosted on the node
type NodeStatsResponse struct {
	NodeID   string             `json:"node_id"`
	Stats    []*AssignmentStats `json:"stats"`
	Failures []TaskFailure      `json:"failures,omitempty"`
}
