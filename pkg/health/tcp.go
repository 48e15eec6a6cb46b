package health

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPChecker checks that an inference process accepts connections on its
// serving port. It says nothing about whether the model is loaded, so it
// suits runtimes without a readiness endpoint.
type TCPChecker struct {
	ModelID string
	Address string
}

func newTCPChecker(modelID string, p Probe) *TCPChecker {
	return &TCPChecker{ModelID: modelID, Address: p.Address}
}

// Check dials the serving port once
func (t *TCPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("model %s: not accepting connections on %s: %v", t.ModelID, t.Address, err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	_ = conn.Close()

	return Result{
		Healthy:   true,
		Message:   fmt.Sprintf("model %s: accepting connections on %s", t.ModelID, t.Address),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the probe type
func (t *TCPChecker) Type() CheckType {
	return CheckTypeTCP
}
