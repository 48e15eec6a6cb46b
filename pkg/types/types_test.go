package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentRoutes(t *testing.T) {
	a := &Assignment{
		TaskParams: TaskParams{ModelID: "m1"},
		RoutingTable: map[string]RoutingInfo{
			"n3": {State: RoutingStateStarted},
			"n1": {State: RoutingStateStarted},
			"n2": {State: RoutingStateStarting},
			"n4": {State: RoutingStateFailed, Reason: "oom"},
		},
	}

	assert.Equal(t, []string{"n1", "n3"}, a.StartedNodes())
	assert.Equal(t, map[string]RoutingInfo{
		"n2": {State: RoutingStateStarting},
		"n4": {State: RoutingStateFailed, Reason: "oom"},
	}, a.NonStartedRoutes())

	empty := &Assignment{TaskParams: TaskParams{ModelID: "m2"}}
	assert.Empty(t, empty.StartedNodes())
	assert.NotNil(t, empty.NonStartedRoutes())
}

func TestAllRoutesFailed(t *testing.T) {
	tests := []struct {
		name   string
		routes map[string]RoutingInfo
		want   bool
	}{
		{
			name:   "empty table",
			routes: map[string]RoutingInfo{},
			want:   true,
		},
		{
			name:   "nil table",
			routes: nil,
			want:   true,
		},
		{
			name: "single failed route",
			routes: map[string]RoutingInfo{
				"n1": {State: RoutingStateFailed},
			},
			want: true,
		},
		{
			name: "all failed",
			routes: map[string]RoutingInfo{
				"n1": {State: RoutingStateFailed},
				"n2": {State: RoutingStateFailed, Reason: "crashed"},
			},
			want: true,
		},
		{
			name: "one started",
			routes: map[string]RoutingInfo{
				"n1": {State: RoutingStateFailed},
				"n2": {State: RoutingStateStarted},
			},
			want: false,
		},
		{
			name: "stopped is not failed",
			routes: map[string]RoutingInfo{
				"n1": {State: RoutingStateStopped},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllRoutesFailed(tt.routes))
		})
	}
}

func TestCalculateAllocationStatus(t *testing.T) {
	tests := []struct {
		name       string
		state      AssignmentState
		target     int
		routes     map[string]RoutingInfo
		wantNil    bool
		wantCount  int
		wantStatus AllocationState
	}{
		{
			name:   "nothing started",
			state:  AssignmentStateStarting,
			target: 2,
			routes: map[string]RoutingInfo{
				"n1": {State: RoutingStateStarting, CurrentAllocations: 0, TargetAllocations: 2},
			},
			wantCount:  0,
			wantStatus: AllocationStateStarting,
		},
		{
			name:   "partially allocated",
			state:  AssignmentStateStarted,
			target: 4,
			routes: map[string]RoutingInfo{
				"n1": {State: RoutingStateStarted, CurrentAllocations: 2},
				"n2": {State: RoutingStateStarting, CurrentAllocations: 1},
			},
			wantCount:  2,
			wantStatus: AllocationStateStarted,
		},
		{
			name:   "fully allocated",
			state:  AssignmentStateStarted,
			target: 3,
			routes: map[string]RoutingInfo{
				"n1": {State: RoutingStateStarted, CurrentAllocations: 2},
				"n2": {State: RoutingStateStarted, CurrentAllocations: 1},
			},
			wantCount:  3,
			wantStatus: AllocationStateFullyAllocated,
		},
		{
			name:    "stopping has no status",
			state:   AssignmentStateStopping,
			target:  1,
			routes:  map[string]RoutingInfo{"n1": {State: RoutingStateStarted, CurrentAllocations: 1}},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Assignment{
				TaskParams:   TaskParams{ModelID: "m", NumberOfAllocations: tt.target},
				State:        tt.state,
				RoutingTable: tt.routes,
			}
			status := DefaultAllocationCalculator.CalculateAllocationStatus(a)
			if tt.wantNil {
				assert.Nil(t, status)
				return
			}
			require.NotNil(t, status)
			assert.Equal(t, tt.wantCount, status.AllocationCount)
			assert.Equal(t, tt.target, status.TargetAllocationCount)
			assert.Equal(t, tt.wantStatus, status.State)
		})
	}
}

func TestNodeStatsListJSONKeepsVariants(t *testing.T) {
	avg := 12.5
	lastAccess := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	list := NodeStatsList{
		&LiveNodeStats{
			Node:                   NodeIdentity{ID: "n1", Name: "worker-1"},
			InferenceCount:         42,
			AvgInferenceTimeMillis: &avg,
			LastAccess:             &lastAccess,
			NumberOfAllocations:    1,
		},
		&NotStartedNodeStats{
			Node:         NodeIdentity{ID: "n2"},
			RoutingState: RoutingStateStarting,
		},
	}

	data, err := json.Marshal(list)
	require.NoError(t, err)

	var decoded NodeStatsList
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)

	live, ok := decoded[0].(*LiveNodeStats)
	require.True(t, ok, "first entry should be live")
	assert.Equal(t, int64(42), live.InferenceCount)
	assert.Equal(t, 12.5, *live.AvgInferenceTimeMillis)
	assert.True(t, lastAccess.Equal(*live.LastAccess))

	notStarted, ok := decoded[1].(*NotStartedNodeStats)
	require.True(t, ok, "second entry should be not started")
	assert.Equal(t, RoutingStateStarting, notStarted.RoutingState)
	assert.Equal(t, "n2", notStarted.NodeIdentity().ID)
}

func TestNodeStatsListRejectsUnknownType(t *testing.T) {
	var list NodeStatsList
	err := json.Unmarshal([]byte(`[{"type":"bogus","stats":{}}]`), &list)
	assert.Error(t, err)
}

func TestNodeIdentityFor(t *testing.T) {
	cs := &ClusterState{
		Nodes: map[string]*Node{
			"n1": {ID: "n1", Name: "worker-1", Address: "10.0.0.1:9090"},
		},
	}

	assert.Equal(t, NodeIdentity{ID: "n1", Name: "worker-1", Address: "10.0.0.1:9090"}, NodeIdentityFor(cs, "n1"))
	assert.Equal(t, NodeIdentity{ID: "gone"}, NodeIdentityFor(cs, "gone"))
	assert.Equal(t, NodeIdentity{ID: "n1"}, NodeIdentityFor(nil, "n1"))
}
