package deployment

import (
	"sort"

	"github.com/cuemby/burrow/pkg/types"
)

// MergeNodeStats groups per-node records by model id. Records for the same
// model have their node stats concatenated; configuration fields are taken
// from whichever record reports them. The input is not modified and the
// output is sorted by model id. Node stats order within a record is not
// meaningful until reconciliation sorts it.
func MergeNodeStats(responses []*types.AssignmentStats) []*types.AssignmentStats {
	byModel := make(map[string]*types.AssignmentStats, len(responses))

	for _, response := range responses {
		if response == nil {
			continue
		}
		merged, ok := byModel[response.ModelID]
		if !ok {
			byModel[response.ModelID] = response.Clone()
			continue
		}
		merged.NodeStats = append(merged.NodeStats, response.NodeStats...)
		fillConfig(merged, response)
	}

	out := make([]*types.AssignmentStats, 0, len(byModel))
	for _, stats := range byModel {
		out = append(out, stats)
	}
	sortByModelID(out)
	return out
}

func fillConfig(dst, src *types.AssignmentStats) {
	if dst.ThreadsPerAllocation == nil {
		dst.ThreadsPerAllocation = src.ThreadsPerAllocation
	}
	if dst.NumberOfAllocations == nil {
		dst.NumberOfAllocations = src.NumberOfAllocations
	}
	if dst.QueueCapacity == nil {
		dst.QueueCapacity = src.QueueCapacity
	}
	if dst.CacheSize == nil {
		dst.CacheSize = src.CacheSize
	}
	if dst.StartTime.IsZero() {
		dst.StartTime = src.StartTime
	}
}

func sortByModelID(stats []*types.AssignmentStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].ModelID < stats[j].ModelID
	})
}
