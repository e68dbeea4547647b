package runner

import (
	"log/slog"
	"time"
)

// EventKind — тип события раннера.
type EventKind int

const (
	RunStarted EventKind = iota
	NewBest
	RunFinished
)

func (k EventKind) String() string {
	switch k {
	case RunStarted:
		return "run_started"
	case NewBest:
		return "new_best"
	case RunFinished:
		return "run_finished"
	}
	return "unknown"
}

// Event — снимок прогона для наблюдателей. Стоимости приведены к float64.
type Event struct {
	Kind            EventKind
	Runner          string
	Strategy        string
	Status          Status
	Iteration       uint64
	IterationOfBest uint64
	Evaluations     uint64
	Cost            float64
	BestCost        float64
	Violations      int
	Elapsed         time.Duration
}

// Observer получает события раннера синхронно, в потоке поиска.
type Observer interface {
	OnEvent(ev Event)
}

// ObserverFunc — адаптер функции к Observer.
type ObserverFunc func(ev Event)

func (f ObserverFunc) OnEvent(ev Event) { f(ev) }

// LogObserver пишет события в slog.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) OnEvent(ev Event) {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	attrs := []any{
		slog.String("runner", ev.Runner),
		slog.Uint64("iteration", ev.Iteration),
		slog.Float64("best", ev.BestCost),
	}
	switch ev.Kind {
	case RunStarted:
		log.Debug("run started", append(attrs, slog.Float64("cost", ev.Cost))...)
	case NewBest:
		log.Debug("new best", append(attrs, slog.Int("violations", ev.Violations))...)
	case RunFinished:
		log.Info("run finished", append(attrs,
			slog.String("status", ev.Status.String()),
			slog.Uint64("iteration_of_best", ev.IterationOfBest),
			slog.Uint64("evaluations", ev.Evaluations),
			slog.Duration("elapsed", ev.Elapsed),
		)...)
	}
}
