/*
Package types defines the core data structures used throughout Burrow.

This package contains the cluster-wide domain model: nodes, model
assignments with their routing tables, and the statistics records returned
by the deployment stats API. The types are shared by the manager (which owns
assignments), the workers (which report live counters) and the stats engine
that reconciles the two.

# Core Types

Cluster Topology:
  - Node: manager or worker node; the node directory is a map of these
  - NodeIdentity: the id/name/address triple attached to node stats
  - ClusterState: immutable snapshot of assignments and nodes

Assignments:
  - Assignment: desired configuration (TaskParams), lifecycle state,
    reason, start time and routing table
  - RoutingInfo: per-node routing state, reason and allocation counts
  - AssignmentState / RoutingState: starting, started, stopping, stopped, failed

Statistics:
  - NodeStats: sum type, either *LiveNodeStats or *NotStartedNodeStats
  - AssignmentStats: the per-model record with node stats sorted by node id
  - AllocationStatus: started allocations versus the desired target
  - DeploymentStatsResponse: failures plus records sorted by model id

# Node Stats Variants

A node either runs the deployment's process, in which case it reports live
counters, or it only has a routing entry (starting, stopping, stopped,
failed). Code that inspects node stats switches on the concrete type:

	switch s := entry.(type) {
	case *types.LiveNodeStats:
		total += s.InferenceCount
	case *types.NotStartedNodeStats:
		log.Debug().Str("state", string(s.RoutingState)).Msg("node not started")
	}

NodeStatsList carries a tagged JSON encoding so the variant survives the
trip over the wire:

	[{"type":"live","stats":{...}},{"type":"not_started","stats":{...}}]

# Allocation Status

	count == 0        → starting
	0 < count < target → started
	count >= target    → fully_allocated

Only allocations on started routes are counted. Stopping and stopped
assignments have no allocation status.
*/
package types
