/*
Package log provides structured logging for Burrow using zerolog.

The package wraps a single global zerolog.Logger with component-specific
child loggers, configurable log levels and a console or JSON writer. Until
Init is called the global logger discards everything, which keeps library
code and tests quiet.

# Usage

Initializing the Logger:

	import "github.com/cuemby/burrow/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component Loggers:

	logger := log.WithComponent("deployment-stats")
	logger.Info().
		Str("pattern", "elser*").
		Int("models", 3).
		Dur("duration", elapsed).
		Msg("Deployment stats collected")

	nodeLog := log.WithNodeID("worker-2")
	nodeLog.Warn().Err(err).Msg("Node stats query failed")

	modelLog := log.WithModelID("elser-v2")
	modelLog.Debug().Msg("Synthesized record from routing table")

# Log Output Examples

JSON Format (Production):

	{"level":"info","component":"manager","time":"2024-10-13T10:30:00Z","message":"Cluster bootstrapped"}
	{"level":"warn","component":"dispatcher","node_id":"worker-2","error":"context deadline exceeded","message":"Node stats query failed"}

Console Format (Development):

	10:30:00 INF Cluster bootstrapped component=manager
	10:30:01 WRN Node stats query failed component=dispatcher node_id=worker-2 error="context deadline exceeded"

# Conventions

  - Use typed fields (.Str, .Int, .Dur, .Err), never string concatenation
  - Field names: component, node_id, model_id, pattern, method
  - Debug for per-node and per-model detail, Info for request summaries,
    Warn for partial failures, Error for failed operations
*/
package log
