/*
Package manager implements the Burrow manager node with Raft consensus.

The manager owns the cluster metadata that deployment stats are computed
from: the node directory and the model assignments with their routing
tables. Managers form a Raft quorum so that every manager reads the same
metadata and any of them can answer a stats request.

# Architecture

	┌──────────────────────── MANAGER NODE ────────────────────────┐
	│                                                              │
	│  ┌────────────────────────────────────────────┐              │
	│  │        gRPC API Server (pkg/api)           │              │
	│  │  - deployment stats, assignments, nodes    │              │
	│  └──────────────────┬─────────────────────────┘              │
	│                     │                                        │
	│  ┌──────────────────▼─────────────────────────┐              │
	│  │               Manager                      │              │
	│  │  - proposes Raft commands for writes       │              │
	│  │  - serves reads from local storage         │              │
	│  │  - issues join tokens                      │              │
	│  │  - publishes events on every write         │              │
	│  └──────────────────┬─────────────────────────┘              │
	│                     │                                        │
	│  ┌──────────────────▼─────────────────────────┐              │
	│  │       Raft (hashicorp/raft + raft-boltdb)  │              │
	│  └──────────────────┬─────────────────────────┘              │
	│                     │                                        │
	│  ┌──────────────────▼─────────────────────────┐              │
	│  │   BurrowFSM: Apply / Snapshot / Restore    │              │
	│  └──────────────────┬─────────────────────────┘              │
	│                     │                                        │
	│  ┌──────────────────▼─────────────────────────┐              │
	│  │        BoltDB Store (pkg/storage)          │              │
	│  │  - nodes, assignments                      │              │
	│  └────────────────────────────────────────────┘              │
	└──────────────────────────────────────────────────────────────┘

# Commands

Every write is a Command{Op, Data} applied through Raft:

	create_node, update_node, delete_node
	put_assignment, delete_assignment

Writes on a follower fail with ErrNotLeader. Callers surface the leader
address from LeaderAddr so clients can retry against it.

# Cluster state

ClusterState returns a consistent copy of the node directory and the
assignments as of the local FSM. The deployment stats service reads it
twice per request; the two reads may observe different Raft indexes.

# Tokens

Join tokens are random 64-character hex strings bound to a role (worker
or manager) and valid for 24 hours. Workers present theirs on every
registration; managers present theirs to JoinCluster before being added
as voters.

# Usage

	mgr, err := manager.NewManager(&manager.Config{
		NodeID:   "manager-1",
		BindAddr: "127.0.0.1:7946",
		DataDir:  "/var/lib/burrow",
	})
	if err != nil {
		return err
	}
	if err := mgr.Bootstrap(); err != nil {
		return err
	}
	defer mgr.Shutdown()

	token, err := mgr.GenerateJoinToken("worker")

MetricsCollector keeps the node and assignment gauges current. It
refreshes on a 15 second ticker and whenever a node or assignment event
is published.
*/
package manager
