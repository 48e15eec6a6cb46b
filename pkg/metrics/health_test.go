package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetHealth(t *testing.T) {
	t.Helper()
	healthChecker = newHealthChecker()
}

func TestRegisterComponent(t *testing.T) {
	resetHealth(t)

	RegisterComponent("dispatcher", true, "running")

	require.Len(t, healthChecker.components, 1)
	comp := healthChecker.components["dispatcher"]
	assert.True(t, comp.Healthy)
	assert.Equal(t, "running", comp.Message)

	UpdateComponent("dispatcher", false, "no nodes")
	comp = healthChecker.components["dispatcher"]
	assert.False(t, comp.Healthy)
	assert.Equal(t, "no nodes", comp.Message)
}

func TestGetHealth(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]bool
		wantStatus string
	}{
		{
			name:       "all healthy",
			components: map[string]bool{"api": true, "raft": true},
			wantStatus: "healthy",
		},
		{
			name:       "one unhealthy",
			components: map[string]bool{"api": true, "raft": false},
			wantStatus: "unhealthy",
		},
		{
			name:       "nothing registered",
			components: map[string]bool{},
			wantStatus: "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetHealth(t)
			SetVersion("1.0.0")
			for name, healthy := range tt.components {
				RegisterComponent(name, healthy, "not connected")
			}

			health := GetHealth()
			assert.Equal(t, tt.wantStatus, health.Status)
			assert.Len(t, health.Components, len(tt.components))
			assert.Equal(t, "1.0.0", health.Version)
		})
	}
}

func TestGetReadiness(t *testing.T) {
	tests := []struct {
		name       string
		critical   []string
		components map[string]bool
		wantStatus string
	}{
		{
			name:       "manager ready",
			components: map[string]bool{"raft": true, "storage": true, "api": true},
			wantStatus: "ready",
		},
		{
			name:       "missing critical component",
			components: map[string]bool{"api": true},
			wantStatus: "not_ready",
		},
		{
			name:       "critical component unhealthy",
			components: map[string]bool{"raft": false, "storage": true, "api": true},
			wantStatus: "not_ready",
		},
		{
			name:       "worker ready without raft",
			critical:   []string{"api", "tasks"},
			components: map[string]bool{"api": true, "tasks": true},
			wantStatus: "ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetHealth(t)
			if tt.critical != nil {
				SetCriticalComponents(tt.critical...)
			}
			for name, healthy := range tt.components {
				RegisterComponent(name, healthy, "leader not elected")
			}

			readiness := GetReadiness()
			assert.Equal(t, tt.wantStatus, readiness.Status)
			if tt.wantStatus != "ready" {
				assert.NotEmpty(t, readiness.Message)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	resetHealth(t)
	SetVersion("test")
	RegisterComponent("storage", true, "")

	w := httptest.NewRecorder()
	HealthHandler()(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var health HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)

	UpdateComponent("storage", false, "broken")
	w = httptest.NewRecorder()
	HealthHandler()(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReadyHandler(t *testing.T) {
	resetHealth(t)
	RegisterComponent("api", true, "")

	w := httptest.NewRecorder()
	ReadyHandler()(w, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	RegisterComponent("raft", true, "")
	RegisterComponent("storage", true, "")

	w = httptest.NewRecorder()
	ReadyHandler()(w, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var readiness HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&readiness))
	assert.Equal(t, "ready", readiness.Status)
}

func TestLivenessHandler(t *testing.T) {
	resetHealth(t)

	w := httptest.NewRecorder()
	LivenessHandler()(w, httptest.NewRequest("GET", "/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "alive", response["status"])
	assert.NotEmpty(t, response["uptime"])
}
