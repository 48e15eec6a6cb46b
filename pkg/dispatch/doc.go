/*
Package dispatch fans node stats requests out to worker nodes over gRPC.

Dispatcher.Query sends one GetNodeStats call to every requested node,
running at most MaxConcurrency calls at a time (an errgroup with a limit)
and giving each call its own NodeTimeout. The caller blocks until every
node has answered or failed. A node that is missing from the directory,
has no address, cannot be dialed or does not answer in time becomes a
NodeFailure; model-level errors reported by a node are passed through as
TaskFailures. Calls are never retried and one failure never drops another
node's response.

GRPCConnector caches one client connection per node address in an LRU
cache. Evicted connections are closed.

	connector, err := dispatch.NewGRPCConnector(dispatch.DefaultConnCacheSize)
	if err != nil {
		return err
	}
	d := dispatch.NewDispatcher(dispatch.Config{NodeTimeout: 5 * time.Second}, connector)
	defer d.Close()

	result := d.Query(ctx, nodeIDs, state, req)
*/
package dispatch
