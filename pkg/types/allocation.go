package types

// AllocationState summarises how many of the desired allocations are running
type AllocationState string

const (
	AllocationStateStarting       AllocationState = "starting"
	AllocationStateStarted        AllocationState = "started"
	AllocationStateFullyAllocated AllocationState = "fully_allocated"
)

// AllocationStatus compares started allocations with the desired target
type AllocationStatus struct {
	AllocationCount       int             `json:"allocation_count"`
	TargetAllocationCount int             `json:"target_allocation_count"`
	State                 AllocationState `json:"state"`
}

// NewAllocationStatus derives the allocation state from the counts
func NewAllocationStatus(count, target int) *AllocationStatus {
	state := AllocationStateFullyAllocated
	switch {
	case count == 0:
		state = AllocationStateStarting
	case count < target:
		state = AllocationStateStarted
	}
	return &AllocationStatus{
		AllocationCount:       count,
		TargetAllocationCount: target,
		State:                 state,
	}
}

// CalculateAllocationStatus counts the allocations on started routes.
// Stopping and stopped assignments have no allocation status.
func (a *Assignment) CalculateAllocationStatus() *AllocationStatus {
	if a.State.IsAnyOf(AssignmentStateStopping, AssignmentStateStopped) {
		return nil
	}
	allocations := 0
	for _, route := range a.RoutingTable {
		if route.State == RoutingStateStarted {
			allocations += route.CurrentAllocations
		}
	}
	return NewAllocationStatus(allocations, a.TaskParams.NumberOfAllocations)
}

// AllocationCalculator computes the allocation status of an assignment
type AllocationCalculator interface {
	CalculateAllocationStatus(assignment *Assignment) *AllocationStatus
}

// AllocationCalculatorFunc adapts a function to AllocationCalculator
type AllocationCalculatorFunc func(assignment *Assignment) *AllocationStatus

func (f AllocationCalculatorFunc) CalculateAllocationStatus(assignment *Assignment) *AllocationStatus {
	return f(assignment)
}

// DefaultAllocationCalculator delegates to Assignment.CalculateAllocationStatus
var DefaultAllocationCalculator AllocationCalculator = AllocationCalculatorFunc(func(a *Assignment) *AllocationStatus {
	return a.CalculateAllocationStatus()
})
