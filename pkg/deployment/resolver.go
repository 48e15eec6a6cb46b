package deployment

import (
	"sort"
	"time"

	"github.com/cuemby/burrow/pkg/matcher"
	"github.com/cuemby/burrow/pkg/types"
)

// NonStartedRoutes are the routing entries of one assignment that are not
// started. Routes may be empty.
type NonStartedRoutes struct {
	ModelID   string
	StartTime time.Time
	Routes    map[string]types.RoutingInfo
}

// Resolution is the outcome of matching a request pattern against the
// assignment metadata.
type Resolution struct {
	// ModelIDs are the matched model ids, sorted
	ModelIDs []string
	// TaskNodes are the nodes with a started route for any matched model, sorted
	TaskNodes []string
	// NonStartedRoutes has an entry for every matched model
	NonStartedRoutes map[string]NonStartedRoutes
	// Params are the assignment parameters nodes need to build their records
	Params map[string]types.AssignmentParams
	// Unmatched are the exact ids and wildcards that selected nothing
	Unmatched []string
}

// Empty reports whether no model matched
func (r *Resolution) Empty() bool {
	return len(r.ModelIDs) == 0
}

// NodeStatsRequest builds the request sent to every task node
func (r *Resolution) NodeStatsRequest() *types.NodeStatsRequest {
	return &types.NodeStatsRequest{
		ModelIDs:    append([]string(nil), r.ModelIDs...),
		Assignments: r.Params,
	}
}

// Resolve expands a comma separated pattern of model ids and wildcards
// against the assignments in state.
func Resolve(pattern string, state *types.ClusterState) *Resolution {
	m := matcher.Parse(pattern)

	res := &Resolution{
		NonStartedRoutes: make(map[string]NonStartedRoutes),
		Params:           make(map[string]types.AssignmentParams),
	}

	nodes := make(map[string]bool)
	var all []string
	if state != nil {
		for modelID, assignment := range state.Assignments {
			all = append(all, modelID)
			if !m.IDMatches(modelID) {
				continue
			}

			res.ModelIDs = append(res.ModelIDs, modelID)
			for _, nodeID := range assignment.StartedNodes() {
				nodes[nodeID] = true
			}
			res.NonStartedRoutes[modelID] = NonStartedRoutes{
				ModelID:   modelID,
				StartTime: assignment.StartTime,
				Routes:    assignment.NonStartedRoutes(),
			}
			res.Params[modelID] = types.AssignmentParams{
				NumberOfAllocations: assignment.TaskParams.NumberOfAllocations,
				StartTime:           assignment.StartTime,
			}
		}
	}

	for nodeID := range nodes {
		res.TaskNodes = append(res.TaskNodes, nodeID)
	}
	sort.Strings(res.ModelIDs)
	sort.Strings(res.TaskNodes)
	res.Unmatched = m.Unmatched(all)

	return res
}
