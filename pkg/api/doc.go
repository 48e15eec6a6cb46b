/*
Package api implements the Burrow manager's gRPC API and its HTTP health
endpoints.

Server implements rpc.ManagerAPIServer over a Cluster (the manager) and a
StatsService (deployment.Service):

	server := api.NewServer(mgr, statsService)
	go server.Start(":8080")

Writes (PutAssignment, DeleteAssignment, RegisterNode, JoinCluster) go
through Raft and therefore only succeed on the leader; followers answer
FailedPrecondition with the leader's address. Reads, including
GetDeploymentStats, are served from the local replica on any manager.

Errors map onto gRPC codes:

	manager.ErrNotLeader      FailedPrecondition
	storage.ErrNotFound       NotFound
	bad or mismatched token   PermissionDenied
	malformed request         InvalidArgument

Every call passes through RecoveryInterceptor, MetricsInterceptor and
LoggingInterceptor. WithReadOnly adds ReadOnlyInterceptor for listeners
that must not change cluster state.

HealthServer serves /health (liveness), /ready (leader known and storage
readable), /live and /metrics.
*/
package api
