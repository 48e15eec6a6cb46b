package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpProbe(t *testing.T, url string, headers map[string]string) Checker {
	t.Helper()
	checker, err := NewChecker("elser", Probe{Type: CheckTypeHTTP, URL: url, Headers: headers})
	require.NoError(t, err)
	return checker
}

func TestHTTPChecker(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		headers     map[string]string
		healthy     bool
		wantMessage []string
	}{
		{
			name:        "ready",
			handler:     func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
			healthy:     true,
			wantMessage: []string{"model elser", "ready at"},
		},
		{
			name: "still loading",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"loading","progress":0.4}` + "\n"))
			},
			healthy:     false,
			wantMessage: []string{"model elser", "returned 503 Service Unavailable", `{"status":"loading","progress":0.4}`},
		},
		{
			name:        "redirect is not ready",
			handler:     func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotModified) },
			healthy:     false,
			wantMessage: []string{"returned 304"},
		},
		{
			name: "headers are sent",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer token" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.WriteHeader(http.StatusOK)
			},
			headers: map[string]string{"Authorization": "Bearer token"},
			healthy: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			result := httpProbe(t, server.URL, tt.headers).Check(context.Background())
			assert.Equal(t, tt.healthy, result.Healthy, result.Message)
			assert.False(t, result.CheckedAt.IsZero())
			assert.Contains(t, result.Message, server.URL)
			for _, want := range tt.wantMessage {
				assert.Contains(t, result.Message, want)
			}
		})
	}
}

func TestHTTPCheckerLongBodyIsTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		for i := 0; i < 100; i++ {
			_, _ = w.Write([]byte("out of memory "))
		}
	}))
	defer server.Close()

	result := httpProbe(t, server.URL, nil).Check(context.Background())
	assert.False(t, result.Healthy)
	assert.Contains(t, result.Message, "out of memory")
	assert.Less(t, len(result.Message), 512)
}

func TestHTTPCheckerContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	checker := httpProbe(t, server.URL, nil)
	result := checker.Check(ctx)
	assert.False(t, result.Healthy)
	assert.Contains(t, result.Message, "unreachable")
	assert.Equal(t, CheckTypeHTTP, checker.Type())
}
