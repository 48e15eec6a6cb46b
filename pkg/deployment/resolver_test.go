package deployment

import (
	"testing"

	"github.com/cuemby/burrow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	state := clusterState(
		assignment("elser", types.AssignmentStateStarted, map[string]types.RoutingInfo{
			"n1": started(1),
			"n2": routing(types.RoutingStateStarting, ""),
		}),
		assignment("e5-small", types.AssignmentStateStarted, map[string]types.RoutingInfo{
			"n2": started(1),
			"n3": started(1),
		}),
		assignment("e5-large", types.AssignmentStateStarting, map[string]types.RoutingInfo{}),
	)

	tests := []struct {
		name          string
		pattern       string
		wantModels    []string
		wantTaskNodes []string
		wantUnmatched []string
	}{
		{
			name:          "match all",
			pattern:       "_all",
			wantModels:    []string{"e5-large", "e5-small", "elser"},
			wantTaskNodes: []string{"n1", "n2", "n3"},
		},
		{
			name:          "exact id",
			pattern:       "elser",
			wantModels:    []string{"elser"},
			wantTaskNodes: []string{"n1"},
		},
		{
			name:          "wildcard",
			pattern:       "e5-*",
			wantModels:    []string{"e5-large", "e5-small"},
			wantTaskNodes: []string{"n2", "n3"},
		},
		{
			name:          "duplicates removed",
			pattern:       "elser,elser,el*",
			wantModels:    []string{"elser"},
			wantTaskNodes: []string{"n1"},
		},
		{
			name:          "no match",
			pattern:       "zzz*,missing",
			wantUnmatched: []string{"missing", "zzz*"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.pattern, state)
			assert.Equal(t, tt.wantModels, res.ModelIDs)
			assert.Equal(t, tt.wantTaskNodes, res.TaskNodes)
			assert.Equal(t, tt.wantUnmatched, res.Unmatched)
			assert.Equal(t, len(tt.wantModels) == 0, res.Empty())
			assert.Len(t, res.NonStartedRoutes, len(tt.wantModels))
		})
	}
}

func TestResolveNonStartedRoutes(t *testing.T) {
	state := clusterState(
		assignment("elser", types.AssignmentStateStarted, map[string]types.RoutingInfo{
			"n1": started(1),
			"n2": routing(types.RoutingStateFailed, "oom"),
		}),
		assignment("bge", types.AssignmentStateStarted, map[string]types.RoutingInfo{
			"n1": started(2),
		}),
	)

	res := Resolve("", state)

	require.Contains(t, res.NonStartedRoutes, "elser")
	assert.Equal(t, map[string]types.RoutingInfo{"n2": routing(types.RoutingStateFailed, "oom")}, res.NonStartedRoutes["elser"].Routes)
	assert.Equal(t, startTime, res.NonStartedRoutes["elser"].StartTime)

	// Fully started assignments still get an entry
	require.Contains(t, res.NonStartedRoutes, "bge")
	assert.Empty(t, res.NonStartedRoutes["bge"].Routes)

	req := res.NodeStatsRequest()
	assert.Equal(t, []string{"bge", "elser"}, req.ModelIDs)
	assert.Equal(t, types.AssignmentParams{NumberOfAllocations: 2, StartTime: startTime}, req.Assignments["elser"])
}

func TestResolveNilState(t *testing.T) {
	res := Resolve("*", nil)
	assert.True(t, res.Empty())
	assert.Empty(t, res.TaskNodes)
}
