package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHandler(t *testing.T) {
	SetupMetricsManager("kh-test", "unit.core", prometheus.NewRegistry())
	NewCounterVec("api_error", []string{"api"}).WithLabelValues("/user").Inc()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", DefaultExportHandler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `kh_test_unit_core_api_error{api="/user"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestCollectSystem(t *testing.T) {
	snap, err := CollectSystem(context.Background(), t.TempDir(), false)
	require.NoError(t, err)
	assert.Positive(t, snap.CPUCount)
	assert.Positive(t, snap.MemoryTotal)
	assert.Nil(t, snap.Load)
}
