package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxBodyExcerpt bounds how much of a failing readiness body ends up in the
// result message
const maxBodyExcerpt = 256

// HTTPChecker polls the readiness endpoint of an inference process. The
// process is ready once the endpoint answers 2xx; anything else is reported
// with the status and the start of the body, which is where model servers
// put load progress or errors.
type HTTPChecker struct {
	ModelID string
	URL     string
	Headers map[string]string

	client *http.Client
}

func newHTTPChecker(modelID string, p Probe) *HTTPChecker {
	return &HTTPChecker{
		ModelID: modelID,
		URL:     p.URL,
		Headers: p.Headers,
		// Check deadlines come from the context
		client: &http.Client{},
	}
}

// Check performs one GET against the readiness endpoint
func (h *HTTPChecker) Check(ctx context.Context) Result {
	start := time.Now()
	result := func(healthy bool, format string, args ...interface{}) Result {
		return Result{
			Healthy:   healthy,
			Message:   fmt.Sprintf("model %s: ", h.ModelID) + fmt.Sprintf(format, args...),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return result(false, "invalid readiness url %s: %v", h.URL, err)
	}
	for key, value := range h.Headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return result(false, "readiness endpoint %s unreachable: %v", h.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyExcerpt))
		return result(true, "ready at %s", h.URL)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt+1))
	message := fmt.Sprintf("readiness endpoint %s returned %d %s", h.URL, resp.StatusCode, http.StatusText(resp.StatusCode))
	if excerpt := strings.TrimSpace(string(body)); excerpt != "" {
		message = fmt.Sprintf("%s: %s", message, truncate(excerpt, maxBodyExcerpt))
	}
	return result(false, "%s", message)
}

// Type returns the probe type
func (h *HTTPChecker) Type() CheckType {
	return CheckTypeHTTP
}
