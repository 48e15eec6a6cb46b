/*
Package reconciler keeps the node directory honest.

Workers refresh their registration on every heartbeat. The reconciler
runs on the leader every Interval and marks a worker NodeStatusDown once
its last heartbeat is older than HeartbeatTimeout. A down worker that
heartbeats again is set back to ready by its next registration.

The reconciler never touches assignments: routing decisions belong to the
component that writes them.
*/
package reconciler
