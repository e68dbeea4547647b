package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iolab-uniud/osp-ls/internal/runner"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	t.Helper()
	mfs, err := Registry.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

func find(mf *dto.MetricFamily, labels map[string]string) *dto.Metric {
	if mf == nil {
		return nil
	}
next:
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if v, ok := labels[lp.GetName()]; ok && v != lp.GetValue() {
				continue next
			}
		}
		return m
	}
	return nil
}

func TestRegisterDefaultIsIdempotent(t *testing.T) {
	RegisterDefault()
	RegisterDefault()
	mfs := gather(t)
	assert.Contains(t, mfs, "go_goroutines")
}

func TestObserverRecordsFinishedRun(t *testing.T) {
	RegisterDefault()
	obs := Observer{}

	obs.OnEvent(runner.Event{Kind: runner.NewBest, Runner: "metrics-test", Strategy: "sa", BestCost: 12})
	obs.OnEvent(runner.Event{
		Kind:        runner.RunFinished,
		Runner:      "metrics-test",
		Strategy:    "sa",
		Status:      runner.Exhausted,
		Iteration:   40,
		Evaluations: 120,
		BestCost:    9,
		Elapsed:     250 * time.Millisecond,
	})

	mfs := gather(t)
	byRunner := map[string]string{"runner": "metrics-test", "strategy": "sa"}

	m := find(mfs["ls_iterations_total"], byRunner)
	require.NotNil(t, m)
	assert.Equal(t, 40.0, m.GetCounter().GetValue())

	m = find(mfs["ls_evaluations_total"], byRunner)
	require.NotNil(t, m)
	assert.Equal(t, 120.0, m.GetCounter().GetValue())

	m = find(mfs["ls_best_cost"], map[string]string{"runner": "metrics-test"})
	require.NotNil(t, m)
	assert.Equal(t, 9.0, m.GetGauge().GetValue())

	m = find(mfs["ls_runs_total"], map[string]string{"runner": "metrics-test", "status": "exhausted"})
	require.NotNil(t, m)
	assert.Equal(t, 1.0, m.GetCounter().GetValue())

	m = find(mfs["ls_run_duration_seconds"], byRunner)
	require.NotNil(t, m)
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
}
