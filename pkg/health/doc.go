/*
Package health implements probes for local inference processes.

A worker attaches a Probe to each deployment task it hosts. The probe is an
HTTP GET, a TCP connect or a host command; its results drive a Status that
tells the worker whether the process is ready to report stats:

	checker, err := health.NewChecker("elser", health.Probe{
		Type: health.CheckTypeHTTP,
		URL:  "http://127.0.0.1:8500/_ready",
	})
	status := health.NewStatus(time.Now())
	status.Update(checker.Check(ctx), cfg)

A process is not ready until its first successful probe. Failures inside
Config.StartPeriod are ignored while the model loads; after that, Retries
consecutive failures mark the process unhealthy.

Result messages name the model and the endpoint or command probed. The
worker reports the last message of a failed process as the reason of its
task failure.
*/
package health
