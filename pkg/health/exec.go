package health

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecChecker probes a process by running a command on the host. Exit code
// 0 means healthy.
type ExecChecker struct {
	ModelID string
	Command []string
}

func newExecChecker(modelID string, p Probe) *ExecChecker {
	return &ExecChecker{ModelID: modelID, Command: p.Command}
}

// Check runs the command once. The context bounds its run time.
func (e *ExecChecker) Check(ctx context.Context) Result {
	start := time.Now()
	result := func(healthy bool, message string) Result {
		return Result{
			Healthy:   healthy,
			Message:   fmt.Sprintf("model %s: %s", e.ModelID, message),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	if len(e.Command) == 0 {
		return result(false, "no command specified")
	}

	cmd := exec.CommandContext(ctx, e.Command[0], e.Command[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	message := fmt.Sprintf("command %q", strings.Join(e.Command, " "))
	if err := cmd.Run(); err != nil {
		message = fmt.Sprintf("%s failed: %v", message, err)
		if stderr.Len() > 0 {
			message = fmt.Sprintf("%s, stderr: %s", message, truncate(strings.TrimSpace(stderr.String()), 100))
		}
		return result(false, message)
	}

	if stdout.Len() > 0 {
		message = fmt.Sprintf("%s: %s", message, truncate(strings.TrimSpace(stdout.String()), 100))
	}
	return result(true, message)
}

// Type returns the probe type
func (e *ExecChecker) Type() CheckType {
	return CheckTypeExec
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
