package deployment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cuemby/burrow/pkg/dispatch"
	"github.com/cuemby/burrow/pkg/types"
)

var startTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func live(nodeID string, inferences int64) *types.LiveNodeStats {
	return &types.LiveNodeStats{
		Node:                types.NodeIdentity{ID: nodeID, Name: "name-" + nodeID},
		InferenceCount:      inferences,
		StartTime:           startTime,
		NumberOfAllocations: 1,
	}
}

func record(modelID string, entries ...types.NodeStats) *types.AssignmentStats {
	return &types.AssignmentStats{
		ModelID:              modelID,
		ThreadsPerAllocation: intPtr(2),
		NumberOfAllocations:  intPtr(2),
		QueueCapacity:        intPtr(1024),
		StartTime:            startTime,
		NodeStats:            types.NodeStatsList(entries),
	}
}

func assignment(modelID string, state types.AssignmentState, routes map[string]types.RoutingInfo) *types.Assignment {
	return &types.Assignment{
		TaskParams: types.TaskParams{
			ModelID:              modelID,
			ThreadsPerAllocation: 2,
			NumberOfAllocations:  2,
			QueueCapacity:        1024,
		},
		State:        state,
		StartTime:    startTime,
		RoutingTable: routes,
	}
}

func clusterState(assignments ...*types.Assignment) *types.ClusterState {
	state := &types.ClusterState{
		Assignments: make(map[string]*types.Assignment),
		Nodes: map[string]*types.Node{
			"n1": {ID: "n1", Name: "worker-1", Address: "10.0.0.1:9090"},
			"n2": {ID: "n2", Name: "worker-2", Address: "10.0.0.2:9090"},
			"n3": {ID: "n3", Name: "worker-3", Address: "10.0.0.3:9090"},
		},
	}
	for _, a := range assignments {
		state.Assignments[a.ModelID()] = a
	}
	return state
}

func started(allocations int) types.RoutingInfo {
	return types.RoutingInfo{State: types.RoutingStateStarted, CurrentAllocations: allocations, TargetAllocations: allocations}
}

func routing(state types.RoutingState, reason string) types.RoutingInfo {
	return types.RoutingInfo{State: state, Reason: reason}
}

// fakeMetadata returns its snapshots in order, repeating the last one
type fakeMetadata struct {
	mu     sync.Mutex
	states []*types.ClusterState
	calls  int
	err    error
}

func (f *fakeMetadata) ClusterState() (*types.ClusterState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls
	if idx >= len(f.states) {
		idx = len(f.states) - 1
	}
	f.calls++
	return f.states[idx], nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	result  *dispatch.Result
	calls   int
	nodeIDs []string
	request *types.NodeStatsRequest
}

func (f *fakeDispatcher) Query(_ context.Context, nodeIDs []string, _ types.NodeDirectory, req *types.NodeStatsRequest) *dispatch.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.nodeIDs = nodeIDs
	f.request = req
	if f.result == nil {
		return &dispatch.Result{}
	}
	return f.result
}

var errMetadata = errors.New("metadata unavailable")
