/*
Package metrics provides Prometheus metrics and health reporting for Burrow.

All collectors are package-level variables registered with the default
Prometheus registry in init(). Handler exposes them for scraping on the
manager's health address.

# Metric Families

Cluster (refreshed by the manager's metrics collector):

	burrow_nodes_total{role,status}
	burrow_assignments_total{state}
	burrow_raft_is_leader, burrow_raft_peers_total
	burrow_raft_log_index, burrow_raft_applied_index

API (recorded by the gRPC interceptor):

	burrow_api_requests_total{method,status}
	burrow_api_request_duration_seconds{method}

Deployment stats (recorded per request by the deployment service):

	burrow_stats_requests_total{result}        success | partial | empty | error
	burrow_stats_request_duration_seconds
	burrow_stats_node_failures_total
	burrow_stats_task_failures_total
	burrow_stats_models_reported

Executor pools:

	burrow_executor_active{pool}
	burrow_executor_waiting{pool}

# Timing Operations

	timer := metrics.NewTimer()
	resp, err := svc.GetDeploymentStats(ctx, pattern)
	timer.ObserveDuration(metrics.StatsRequestDuration)

# Health

Components report their health through RegisterComponent and
UpdateComponent. GetHealth is unhealthy when any component is; GetReadiness
only looks at the critical components (raft, storage and api by default,
replaced with SetCriticalComponents on workers). HealthHandler,
ReadyHandler and LivenessHandler serve the results as JSON.
*/
package metrics
