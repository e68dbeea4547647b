package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iolab-uniud/osp-ls/internal/runner"
)

var (
	// Registry is the dedicated Prometheus registry for search metrics
	Registry = prometheus.NewRegistry()
	// Iterations counts runner iterations by runner and strategy
	Iterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ls_iterations_total", Help: "Local search iterations."},
		[]string{"runner", "strategy"},
	)
	// Evaluations counts evaluated moves by runner and strategy
	Evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ls_evaluations_total", Help: "Evaluated moves."},
		[]string{"runner", "strategy"},
	)
	// BestCost is the total cost of the best state found by the latest run of a runner
	BestCost = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "ls_best_cost", Help: "Best total cost of the latest run."},
		[]string{"runner"},
	)
	// RunDuration records runner run durations in seconds
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "ls_run_duration_seconds", Help: "Runner run duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"runner", "strategy"},
	)
	// Runs counts finished runs by final status
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ls_runs_total", Help: "Finished runner runs by status."},
		[]string{"runner", "status"},
	)
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(Iterations)
		Registry.MustRegister(Evaluations)
		Registry.MustRegister(BestCost)
		Registry.MustRegister(RunDuration)
		Registry.MustRegister(Runs)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// Observer переносит события раннера в метрики.
type Observer struct{}

var _ runner.Observer = Observer{}

func (Observer) OnEvent(ev runner.Event) {
	switch ev.Kind {
	case runner.NewBest:
		BestCost.WithLabelValues(ev.Runner).Set(ev.BestCost)
	case runner.RunFinished:
		Iterations.WithLabelValues(ev.Runner, ev.Strategy).Add(float64(ev.Iteration))
		Evaluations.WithLabelValues(ev.Runner, ev.Strategy).Add(float64(ev.Evaluations))
		RunDuration.WithLabelValues(ev.Runner, ev.Strategy).Observe(ev.Elapsed.Seconds())
		Runs.WithLabelValues(ev.Runner, ev.Status.String()).Inc()
		BestCost.WithLabelValues(ev.Runner).Set(ev.BestCost)
	}
}
