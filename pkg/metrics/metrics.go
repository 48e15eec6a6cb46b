package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "burrow_nodes_total",
			Help: "Total number of nodes by role and status",
		},
		[]string{"role", "status"},
	)

	AssignmentsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "burrow_assignments_total",
			Help: "Total number of deployment assignments by state",
		},
		[]string{"state"},
	)

	// Raft metrics
	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	RaftPeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_raft_peers_total",
			Help: "Total number of Raft peers in the cluster",
		},
	)

	RaftLogIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_raft_log_index",
			Help: "Current Raft log index",
		},
	)

	RaftAppliedIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_raft_applied_index",
			Help: "Last applied Raft log index",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "burrow_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Deployment stats metrics
	StatsRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_stats_requests_total",
			Help: "Total number of deployment stats requests by result (success, partial, empty, error)",
		},
		[]string{"result"},
	)

	StatsRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_stats_request_duration_seconds",
			Help:    "Time taken to assemble a deployment stats response in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StatsNodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_stats_node_failures_total",
			Help: "Total number of nodes that could not be queried for stats",
		},
	)

	StatsTaskFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_stats_task_failures_total",
			Help: "Total number of per-model failures reported by nodes",
		},
	)

	StatsModelsReported = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_stats_models_reported",
			Help:    "Number of model records per deployment stats response",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// Executor metrics
	ExecutorActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "burrow_executor_active",
			Help: "Number of tasks running on an executor pool",
		},
		[]string{"pool"},
	)

	ExecutorWaiting = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "burrow_executor_waiting",
			Help: "Number of tasks waiting for a slot on an executor pool",
		},
		[]string{"pool"},
	)

	// Reconciler metrics
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_reconciliation_duration_seconds",
			Help:    "Time taken for a node liveness reconciliation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_reconciliation_cycles_total",
			Help: "Total number of node liveness reconciliation cycles",
		},
	)

	NodesMarkedDownTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_nodes_marked_down_total",
			Help: "Total number of nodes marked down for missing heartbeats",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(AssignmentsTotal)
	prometheus.MustRegister(RaftLeader)
	prometheus.MustRegister(RaftPeers)
	prometheus.MustRegister(RaftLogIndex)
	prometheus.MustRegister(RaftAppliedIndex)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(StatsRequestsTotal)
	prometheus.MustRegister(StatsRequestDuration)
	prometheus.MustRegister(StatsNodeFailures)
	prometheus.MustRegister(StatsTaskFailures)
	prometheus.MustRegister(StatsModelsReported)
	prometheus.MustRegister(ExecutorActive)
	prometheus.MustRegister(ExecutorWaiting)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(NodesMarkedDownTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
