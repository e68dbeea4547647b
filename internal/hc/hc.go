// Package hc — стратегии восхождения к вершине: классическая и с поздним принятием.
package hc

import (
	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/neighborhood"
	"github.com/iolab-uniud/osp-ls/internal/runner"
)

// HillClimbing выбирает лучший ход окрестности (или лучший из выборки)
// и принимает его, если он не ухудшает текущее решение.
type HillClimbing[S any, M neighborhood.Move[M], T cost.Number] struct {
	Cfg Config
}

// New возвращает стратегию с проверенной конфигурацией.
func New[S any, M neighborhood.Move[M], T cost.Number](cfg Config) (*HillClimbing[S, M, T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HillClimbing[S, M, T]{Cfg: cfg}, nil
}

func (h *HillClimbing[S, M, T]) Name() string { return "hill_climbing" }

func (h *HillClimbing[S, M, T]) Validate() error { return h.Cfg.Validate() }

func (h *HillClimbing[S, M, T]) InitializeRun(*runner.Runner[S, M, T]) {}

func (h *HillClimbing[S, M, T]) SelectMove(r *runner.Runner[S, M, T]) (neighborhood.EvaluatedMove[M, T], int, error) {
	if h.Cfg.Samples > 0 {
		return neighborhood.RandomBest(r.Explorer(), r.Rand(), r.State(), h.Cfg.Samples, nil)
	}
	return neighborhood.SelectBest(r.Explorer(), r.State(), nil)
}

func (h *HillClimbing[S, M, T]) AcceptableMove(_ *runner.Runner[S, M, T], em neighborhood.EvaluatedMove[M, T]) bool {
	return em.Cost.NotWorsening()
}

func (h *HillClimbing[S, M, T]) CompleteMove(*runner.Runner[S, M, T], neighborhood.EvaluatedMove[M, T]) {}

func (h *HillClimbing[S, M, T]) CompleteIteration(*runner.Runner[S, M, T]) {}

func (h *HillClimbing[S, M, T]) StopCriterion(r *runner.Runner[S, M, T]) bool {
	return idleExpired(r, h.Cfg.MaxIdleIterations)
}

// LateAcceptance сравнивает кандидата со стоимостью, записанной Steps итераций назад.
type LateAcceptance[S any, M neighborhood.Move[M], T cost.Number] struct {
	Cfg LateConfig

	history   []cost.Structure[T]
	threshold cost.Structure[T]
}

func NewLate[S any, M neighborhood.Move[M], T cost.Number](cfg LateConfig) (*LateAcceptance[S, M, T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LateAcceptance[S, M, T]{Cfg: cfg}, nil
}

func (l *LateAcceptance[S, M, T]) Name() string { return "late_acceptance_hill_climbing" }

func (l *LateAcceptance[S, M, T]) Validate() error { return l.Cfg.Validate() }

// InitializeRun заполняет историю стоимостью начального решения.
func (l *LateAcceptance[S, M, T]) InitializeRun(r *runner.Runner[S, M, T]) {
	if cap(l.history) < l.Cfg.Steps {
		l.history = make([]cost.Structure[T], l.Cfg.Steps)
	}
	l.history = l.history[:l.Cfg.Steps]
	for i := range l.history {
		l.history[i] = r.CurrentCost()
	}
}

func (l *LateAcceptance[S, M, T]) slot(r *runner.Runner[S, M, T]) int {
	return int(r.Iteration() % uint64(l.Cfg.Steps))
}

func (l *LateAcceptance[S, M, T]) SelectMove(r *runner.Runner[S, M, T]) (neighborhood.EvaluatedMove[M, T], int, error) {
	l.threshold = l.history[l.slot(r)].Sub(r.CurrentCost())
	return neighborhood.RandomFirst(r.Explorer(), r.Rand(), r.State(), l.Cfg.Samples, l.accepts)
}

func (l *LateAcceptance[S, M, T]) accepts(_ M, delta cost.Structure[T]) bool {
	return delta.NotWorsening() || delta.LessEq(l.threshold)
}

func (l *LateAcceptance[S, M, T]) AcceptableMove(_ *runner.Runner[S, M, T], em neighborhood.EvaluatedMove[M, T]) bool {
	return l.accepts(em.Move, em.Cost)
}

func (l *LateAcceptance[S, M, T]) CompleteMove(*runner.Runner[S, M, T], neighborhood.EvaluatedMove[M, T]) {}

// CompleteIteration записывает в текущую ячейку лучшую стоимость, а не текущую.
// Запись выполняется на каждой итерации, даже если ход не был принят.
func (l *LateAcceptance[S, M, T]) CompleteIteration(r *runner.Runner[S, M, T]) {
	l.history[l.slot(r)] = r.BestCost()
}

func (l *LateAcceptance[S, M, T]) StopCriterion(r *runner.Runner[S, M, T]) bool {
	return idleExpired(r, l.Cfg.MaxIdleIterations)
}

func idleExpired[S any, M neighborhood.Move[M], T cost.Number](r *runner.Runner[S, M, T], maxIdle uint64) bool {
	return r.Iteration()-r.IterationOfBest() >= maxIdle
}
