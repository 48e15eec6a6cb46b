package deployment

import (
	"sort"

	"github.com/cuemby/burrow/pkg/types"
)

// AddFailedRoutes reconciles merged live stats with the non-started routes
// of the resolved assignments.
//
// For a model with live stats, a live entry from a node whose route is not
// started is replaced with a not-started entry built from the route. Routes
// from nodes that reported nothing are added as not-started entries with
// their identity taken from directory. Models without any live stats get a
// record built only from their routes, with no configuration and the
// assignment's start time.
//
// Node entries are sorted by node id and records by model id. The inputs are
// not modified.
func AddFailedRoutes(
	stats []*types.AssignmentStats,
	nonStarted map[string]NonStartedRoutes,
	directory types.NodeDirectory,
) []*types.AssignmentStats {
	out := make([]*types.AssignmentStats, 0, len(stats)+len(nonStarted))
	seen := make(map[string]bool, len(stats))

	for _, live := range stats {
		seen[live.ModelID] = true

		routes := nonStarted[live.ModelID].Routes
		visited := make(map[string]bool, len(live.NodeStats))
		nodeStats := make(types.NodeStatsList, 0, len(live.NodeStats)+len(routes))

		for _, entry := range live.NodeStats {
			node := entry.NodeIdentity()
			if route, ok := routes[node.ID]; ok {
				nodeStats = append(nodeStats, types.NewNotStartedNodeStats(node, route))
			} else {
				nodeStats = append(nodeStats, entry)
			}
			visited[node.ID] = true
		}
		nodeStats = append(nodeStats, unvisitedRoutes(routes, visited, directory)...)
		nodeStats.SortByNodeID()

		record := live.Clone()
		record.NodeStats = nodeStats
		out = append(out, record)
	}

	for modelID, routes := range nonStarted {
		if seen[modelID] {
			continue
		}
		nodeStats := unvisitedRoutes(routes.Routes, nil, directory)
		nodeStats.SortByNodeID()
		out = append(out, &types.AssignmentStats{
			ModelID:   modelID,
			StartTime: routes.StartTime,
			NodeStats: nodeStats,
		})
	}

	sortByModelID(out)
	return out
}

func unvisitedRoutes(routes map[string]types.RoutingInfo, visited map[string]bool, directory types.NodeDirectory) types.NodeStatsList {
	nodeIDs := make([]string, 0, len(routes))
	for nodeID := range routes {
		if !visited[nodeID] {
			nodeIDs = append(nodeIDs, nodeID)
		}
	}
	sort.Strings(nodeIDs)

	list := make(types.NodeStatsList, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		list = append(list, types.NewNotStartedNodeStats(types.NodeIdentityFor(directory, nodeID), routes[nodeID]))
	}
	return list
}
