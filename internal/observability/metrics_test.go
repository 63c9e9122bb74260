package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics("")
	b := NewMetrics("")

	a.RecordSwallowed("fill")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ActionsSwallowed.WithLabelValues("fill")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ActionsSwallowed.WithLabelValues("fill")))
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordAction("click", time.Second, nil)
		m.RecordSwallowed("fill")
		m.RecordWaitTimeout("visible")
		m.RecordOverlay("absent")
		m.RecordScenario("auth", "passed", time.Second)
		m.RecordRetry("TC1")
		m.SetBreakerOpen(true)
		m.ScenarioStarted()()
	})
}

func TestMetrics_RecordAction(t *testing.T) {
	m := NewMetrics("test")

	m.RecordAction("click", 10*time.Millisecond, nil)
	m.RecordAction("click", 20*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.ActionDuration))
}

func TestMetrics_ScenarioGauges(t *testing.T) {
	m := NewMetrics("test")

	done := m.ScenarioStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScenariosActive))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ScenariosActive))

	m.SetBreakerOpen(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerOpen))
	m.SetBreakerOpen(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerOpen))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics("test")
	m.RecordScenario("checkout", "passed", 3*time.Second)
	path := filepath.Join(t.TempDir(), "shopsuite.prom")

	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `test_scenarios_total{status="passed",suite="checkout"} 1`)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("test")
	m.RecordOverlay("closed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_overlay_dismissals_total{state="closed"} 1`)
}

func TestMetrics_Push(t *testing.T) {
	var hits atomic.Int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics("test")
	m.RecordRetry("TC14")

	err := m.Push(context.Background(), srv.URL, "shopsuite", map[string]string{"run": "abc"})

	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, strings.HasPrefix(path.Load().(string), "/metrics/job/shopsuite"))
}
