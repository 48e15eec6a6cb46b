/*
Package worker implements the Burrow node agent.

A worker hosts deployment tasks (one per model) and serves the NodeStats
gRPC service that managers fan out to when answering a deployment stats
request. It registers with a manager on start and refreshes that
registration on every heartbeat.

# Tasks

Tasks come from a YAML file:

	tasks:
	  - modelId: elser
	    threadsPerAllocation: 2
	    numberOfAllocations: 1
	    queueCapacity: 1024
	    probe:
	      type: http
	      url: http://127.0.0.1:8500/_ready
	      interval: 10s
	      startPeriod: 2m

Each task carries Counters that the inference runtime feeds. A task with a
probe starts in ProcessStarting; the HealthMonitor moves it to
ProcessRunning after the first successful probe and to ProcessFailed after
Retries consecutive failures.

# Node stats

For every requested model the worker hosts:

  - a running process yields a record with live counters
  - a starting or stopped process yields a record marked stopped
  - a failed process yields a task failure instead of a record

Models the worker does not host are left out; the manager fills them in
from the routing table.
*/
package worker
