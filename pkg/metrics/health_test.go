package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetHealth(version string) {
	healthChecker = &HealthChecker{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
		version:    version,
	}
}

func TestRegisterComponent(t *testing.T) {
	resetHealth("")

	RegisterComponent("KafkaProducer1", true, "running")

	require.Len(t, healthChecker.components, 1)
	comp := healthChecker.components["KafkaProducer1"]
	assert.True(t, comp.Healthy)
	assert.Equal(t, "running", comp.Message)
}

func TestGetHealth(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]bool
		expected   string
	}{
		{
			name:       "all healthy",
			components: map[string]bool{"cluster": true, "supervisor": true},
			expected:   "healthy",
		},
		{
			name:       "critical component down",
			components: map[string]bool{"cluster": false, "supervisor": true},
			expected:   "unhealthy",
		},
		{
			name:       "non-critical component down",
			components: map[string]bool{"cluster": true, "alert": false},
			expected:   "degraded",
		},
		{
			name:       "critical wins over degraded",
			components: map[string]bool{"alert": false, "telemetry": false},
			expected:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetHealth("1.0.0")
			for name, healthy := range tt.components {
				RegisterComponent(name, healthy, "probe failed")
			}

			health := GetHealth()
			assert.Equal(t, tt.expected, health.Status)
			assert.Len(t, health.Components, len(tt.components))
			assert.Equal(t, "1.0.0", health.Version)
		})
	}
}

func TestGetReadiness(t *testing.T) {
	resetHealth("")
	RegisterComponent("cluster", true, "")
	RegisterComponent("supervisor", true, "")

	readiness := GetReadiness()
	assert.Equal(t, "not_ready", readiness.Status)
	assert.Equal(t, "waiting for telemetry initialization", readiness.Message)

	RegisterComponent("telemetry", true, "")
	assert.Equal(t, "ready", GetReadiness().Status)

	UpdateComponent("cluster", false, "restarting")
	readiness = GetReadiness()
	assert.Equal(t, "not_ready", readiness.Status)
	assert.Equal(t, "not ready: restarting", readiness.Components["cluster"])
}

func TestHealthHandler(t *testing.T) {
	resetHealth("")
	RegisterComponent("cluster", false, "liveness probe failed")

	rec := httptest.NewRecorder()
	HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
}

func TestHealthHandler_DegradedIsOK(t *testing.T) {
	resetHealth("")
	RegisterComponent("KafkaConsumer2", false, "relaunching")

	rec := httptest.NewRecorder()
	HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMux(t *testing.T) {
	resetHealth("")
	srv := httptest.NewServer(NewMux())
	defer srv.Close()

	for path, code := range map[string]int{
		"/live":    http.StatusOK,
		"/ready":   http.StatusServiceUnavailable,
		"/metrics": http.StatusOK,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, code, resp.StatusCode, path)
	}
}
