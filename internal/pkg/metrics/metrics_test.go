package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gotest.tools/v3/assert"

	"github.com/ohowland/gridfault/internal/pkg/powerflow"
)

var _ powerflow.Observer = (*Registry)(nil)

func TestObserveStage(t *testing.T) {
	r := NewRegistry()
	r.ObserveStage(powerflow.NewtonRaphson, false, 30)
	r.ObserveStage(powerflow.IwamotoNR, true, 4)
	r.ObserveStage(powerflow.IwamotoNR, true, 5)

	assert.Equal(t, testutil.ToFloat64(r.SolverStagesTotal.WithLabelValues("nr", "diverged")), 1.0)
	assert.Equal(t, testutil.ToFloat64(r.SolverStagesTotal.WithLabelValues("iwamoto_nr", "converged")), 2.0)
	assert.Equal(t, testutil.CollectAndCount(r.SolverIterations), 2)
}

func TestRecordScenario(t *testing.T) {
	r := NewRegistry()
	r.RecordScenario("FO_H1", true)
	r.RecordScenario("FO_H1", true)
	r.RecordScenario("IS_S3", false)

	assert.Equal(t, testutil.ToFloat64(r.ScenarioRunsTotal.WithLabelValues("FO_H1", "true")), 2.0)
	assert.Equal(t, testutil.ToFloat64(r.ScenarioRunsTotal.WithLabelValues("IS_S3", "false")), 1.0)
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordScenario("SAG_20", true)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest("GET", "http://example.com/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Assert(t, strings.Contains(w.Body.String(), `gridfault_scenario_runs_total{converged="true",scenario="SAG_20"} 1`))
}
