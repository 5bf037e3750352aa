package adminhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/gamemesh/internal/cron"
	"github.com/stacklok/gamemesh/internal/dispatch"
	"github.com/stacklok/gamemesh/internal/handler"
	"github.com/stacklok/gamemesh/internal/metrics"
	"github.com/stacklok/gamemesh/internal/serverconfig"
	"github.com/stacklok/gamemesh/internal/sysrpc"
)

func newTestDispatcher() *dispatch.Dispatcher {
	reg := prometheus.NewRegistry()
	return dispatch.New(
		serverconfig.Config{ServerType: "area"},
		handler.NewRegistry(),
		cron.NewHandlerRegistry(),
		sysrpc.NewMesh(),
		metrics.NewCollector(reg),
	)
}

func TestHealthz_NotStarted(t *testing.T) {
	d := newTestDispatcher()
	r := Router(d)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthz_Started(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.Start())
	r := Router(d)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDebugCrons_EmptyBeforeStart(t *testing.T) {
	d := newTestDispatcher()
	r := Router(d)

	req := httptest.NewRequest(http.MethodGet, "/debug/crons", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestDebugStats(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.Start())
	r := Router(d)

	req := httptest.NewRequest(http.MethodGet, "/debug/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "handled")
}
