/*
Package storage provides BoltDB-backed persistence for Burrow's cluster data.

BoltStore implements the Store interface on top of bbolt. Nodes and
deployment assignments live in separate buckets and are serialized as JSON:

	<dataDir>/burrow.db
	  nodes        (node id)  -> types.Node
	  assignments  (model id) -> types.Assignment

Reads run in db.View and may proceed concurrently; writes run in db.Update
and are serialized by bbolt. ClusterState reads both buckets inside one
read transaction, so the returned snapshot never mixes two versions of the
metadata.

The store is written only through the Raft FSM on managers, which keeps
every replica's database identical. Callers that only read cluster state
should go through manager.Manager rather than the store directly.

Missing objects are reported with an error wrapping ErrNotFound:

	assignment, err := store.GetAssignment("elser")
	if errors.Is(err, storage.ErrNotFound) {
		// no deployment for this model
	}
*/
package storage
