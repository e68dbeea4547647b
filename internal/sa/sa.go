// Package sa — имитация отжига поверх общего цикла локального поиска.
package sa

import (
	"log/slog"
	"math"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/neighborhood"
	"github.com/iolab-uniud/osp-ls/internal/runner"
)

// SimulatedAnnealing — стратегия отжига с геометрическим охлаждением по эпохам.
type SimulatedAnnealing[S any, M neighborhood.Move[M], T cost.Number] struct {
	Cfg Config

	temperature float64
	sampled     int
	accepted    int
}

// New возвращает новую стратегию отжига с валидацией конфигурации.
func New[S any, M neighborhood.Move[M], T cost.Number](cfg Config) (*SimulatedAnnealing[S, M, T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SimulatedAnnealing[S, M, T]{Cfg: cfg}, nil
}

func (s *SimulatedAnnealing[S, M, T]) Name() string { return "simulated_annealing" }

func (s *SimulatedAnnealing[S, M, T]) Validate() error { return s.Cfg.Validate() }

// Temperature — текущая температура прогона.
func (s *SimulatedAnnealing[S, M, T]) Temperature() float64 { return s.temperature }

func (s *SimulatedAnnealing[S, M, T]) InitializeRun(*runner.Runner[S, M, T]) {
	s.temperature = s.Cfg.InitialTemp
	s.sampled = 0
	s.accepted = 0
}

// SelectMove выбирает один случайный ход.
func (s *SimulatedAnnealing[S, M, T]) SelectMove(r *runner.Runner[S, M, T]) (neighborhood.EvaluatedMove[M, T], int, error) {
	st := r.State()
	mv, err := r.Explorer().RandomMove(r.Rand(), st)
	if err != nil {
		return neighborhood.EvaluatedMove[M, T]{}, 0, err
	}
	return neighborhood.EvaluatedMove[M, T]{
		Move:     mv,
		Cost:     r.Explorer().DeltaCost(st, mv),
		Feasible: true,
	}, 1, nil
}

// AcceptableMove — критерий Метрополиса по итоговому приращению.
func (s *SimulatedAnnealing[S, M, T]) AcceptableMove(r *runner.Runner[S, M, T], em neighborhood.EvaluatedMove[M, T]) bool {
	delta := float64(em.Cost.Total)
	if delta <= 0 {
		return true
	}
	return r.Rand().Float64() < math.Exp(-delta/s.temperature)
}

func (s *SimulatedAnnealing[S, M, T]) CompleteMove(*runner.Runner[S, M, T], neighborhood.EvaluatedMove[M, T]) {
	s.accepted++
}

// CompleteIteration завершает эпоху и охлаждает температуру.
func (s *SimulatedAnnealing[S, M, T]) CompleteIteration(*runner.Runner[S, M, T]) {
	s.sampled++
	if s.sampled >= s.Cfg.NeighborsSampled || s.accepted >= s.Cfg.NeighborsAccepted {
		s.temperature *= s.Cfg.Alpha
		s.sampled = 0
		s.accepted = 0
	}
}

func (s *SimulatedAnnealing[S, M, T]) StopCriterion(r *runner.Runner[S, M, T]) bool {
	if s.temperature < s.Cfg.FinalTemp {
		return true
	}
	return s.Cfg.MaxIdleIterations > 0 && r.Iteration()-r.IterationOfBest() >= s.Cfg.MaxIdleIterations
}

func (s *SimulatedAnnealing[S, M, T]) AtTimeoutExpired(r *runner.Runner[S, M, T]) {
	r.Logger().Debug("отжиг прерван", slog.Float64("temperature", s.temperature), slog.Uint64("iteration", r.Iteration()))
}
