package worker

import (
	"github.com/cuemby/burrow/pkg/types"
)

// NodeStats builds the per-node records for the requested models. Models
// without a local task are skipped; tasks whose stats cannot be read are
// reported as task failures.
func (r *TaskRegistry) NodeStats(node types.NodeIdentity, req *types.NodeStatsRequest) *types.NodeStatsResponse {
	resp := &types.NodeStatsResponse{
		NodeID: node.ID,
		Stats:  []*types.AssignmentStats{},
	}

	seen := make(map[string]bool, len(req.ModelIDs))
	for _, modelID := range req.ModelIDs {
		if seen[modelID] {
			continue
		}
		seen[modelID] = true

		task, ok := r.Get(modelID)
		if !ok {
			continue
		}

		params, hasParams := req.Assignments[modelID]
		stats, err := task.assignmentStats(node, params, hasParams)
		if err != nil {
			resp.Failures = append(resp.Failures, types.TaskFailure{
				NodeID:  node.ID,
				ModelID: modelID,
				Reason:  err.Error(),
			})
			continue
		}
		resp.Stats = append(resp.Stats, stats)
	}
	return resp
}

func (t *Task) assignmentStats(node types.NodeIdentity, params types.AssignmentParams, hasParams bool) (*types.AssignmentStats, error) {
	snapshot, err := t.Stats()
	if err != nil {
		return nil, err
	}

	threads := t.Params.ThreadsPerAllocation
	queue := t.Params.QueueCapacity
	allocations := t.Params.NumberOfAllocations
	startTime := t.CreatedAt
	if hasParams {
		allocations = params.NumberOfAllocations
		startTime = params.StartTime
	}

	var nodeStats types.NodeStats
	if snapshot != nil {
		nodeStats = &types.LiveNodeStats{
			Node:                       node,
			InferenceCount:             snapshot.InferenceCount,
			AvgInferenceTimeMillis:     snapshot.AvgInferenceTimeMillis,
			PendingCount:               snapshot.PendingCount,
			ErrorCount:                 snapshot.ErrorCount,
			RejectedExecutionCount:     snapshot.RejectedExecutionCount,
			TimeoutCount:               snapshot.TimeoutCount,
			LastAccess:                 snapshot.LastAccess,
			StartTime:                  t.StartedAt(),
			ThreadsPerAllocation:       t.Params.ThreadsPerAllocation,
			NumberOfAllocations:        t.Params.NumberOfAllocations,
			PeakThroughputPerMinute:    snapshot.PeakThroughputPerMinute,
			ThroughputLastMinute:       snapshot.ThroughputLastMinute,
			AvgInferenceTimeLastMinute: snapshot.AvgInferenceTimeLastMinute,
		}
	} else {
		nodeStats = &types.NotStartedNodeStats{
			Node:         node,
			RoutingState: types.RoutingStateStopped,
		}
	}

	stats := &types.AssignmentStats{
		ModelID:              t.Params.ModelID,
		ThreadsPerAllocation: &threads,
		NumberOfAllocations:  &allocations,
		QueueCapacity:        &queue,
		StartTime:            startTime,
		NodeStats:            types.NodeStatsList{nodeStats},
	}
	if t.Params.CacheSize != nil {
		cacheSize := *t.Params.CacheSize
		stats.CacheSize = &cacheSize
	}
	return stats, nil
}
