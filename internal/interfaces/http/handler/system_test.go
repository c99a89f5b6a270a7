package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/propertyhub/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping() error { return p.err }

func newSystemRouter(db Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewSystemHandler(db).RegisterRoutes(api)
	return engine
}

func TestSystemPing(t *testing.T) {
	engine := newSystemRouter(nil)

	w, resp := get(t, engine, "/api/v1/system/ping")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "pong", data["message"])
}

func TestSystemInfo(t *testing.T) {
	engine := newSystemRouter(nil)

	w, resp := get(t, engine, "/api/v1/system/info")

	assert.Equal(t, http.StatusOK, w.Code)

	var info SystemInfoResponse
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &info))

	assert.Equal(t, "PropertyHub Reporting API", info.Name)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Uptime)
}

func TestSystemHealth(t *testing.T) {
	t.Run("healthy with reachable database", func(t *testing.T) {
		engine := newSystemRouter(&stubPinger{})

		w, resp := get(t, engine, "/api/v1/system/health")

		assert.Equal(t, http.StatusOK, w.Code)

		var health HealthResponse
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &health))
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "up", health.Database)
	})

	t.Run("degraded when database is down", func(t *testing.T) {
		engine := newSystemRouter(&stubPinger{err: errors.New("connection refused")})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		var health HealthResponse
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &health))
		assert.Equal(t, "degraded", health.Status)
		assert.Equal(t, "down", health.Database)
	})

	t.Run("nil database skips the check", func(t *testing.T) {
		engine := newSystemRouter(nil)

		w, resp := get(t, engine, "/api/v1/system/health")

		assert.Equal(t, http.StatusOK, w.Code)

		var health HealthResponse
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &health))
		assert.Equal(t, "healthy", health.Status)
		assert.Empty(t, health.Database)
	})
}
