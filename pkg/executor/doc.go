// Package executor provides named, bounded worker pools.
//
// The management pool keeps cluster management work, most notably the
// assembly of deployment stats responses, off the goroutines that serve gRPC
// requests and caps how many such jobs run at once. Slots are taken from a
// weighted semaphore; active and waiting counts are exported per pool as
// burrow_executor_active and burrow_executor_waiting.
package executor
