package deployment

import (
	"github.com/cuemby/burrow/pkg/types"
)

// AllRoutesFailedReason is the reason reported when every route of an
// assignment failed and the assignment has no reason of its own.
const AllRoutesFailedReason = "All node routes are failed; see node route reason for details"

// Annotate sets state, reason and allocation status on each record from the
// matching assignment in state. Records whose assignment is gone are
// returned unchanged. A nil calculator uses types.DefaultAllocationCalculator.
func Annotate(stats []*types.AssignmentStats, state *types.ClusterState, calc types.AllocationCalculator) []*types.AssignmentStats {
	if calc == nil {
		calc = types.DefaultAllocationCalculator
	}

	out := make([]*types.AssignmentStats, 0, len(stats))
	for _, record := range stats {
		assignment := state.ModelAssignment(record.ModelID)
		if assignment == nil {
			out = append(out, record)
			continue
		}

		annotated := record.Clone()
		annotated.State, annotated.Reason = effectiveState(assignment)
		annotated.AllocationStatus = nil
		if annotated.State.IsAnyOf(types.AssignmentStateStarted, types.AssignmentStateStarting) {
			annotated.AllocationStatus = calc.CalculateAllocationStatus(assignment)
		}
		out = append(out, annotated)
	}
	return out
}

// effectiveState returns the assignment's state and reason, escalated to
// failed when all of its routes failed.
func effectiveState(assignment *types.Assignment) (types.AssignmentState, string) {
	state, reason := assignment.State, assignment.Reason
	if types.AllRoutesFailed(assignment.RoutingTable) {
		state = types.AssignmentStateFailed
		if reason == "" {
			reason = AllRoutesFailedReason
		}
	}
	return state, reason
}
