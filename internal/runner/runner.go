// Package runner реализует общий цикл локального поиска:
// инициализация → итерации (выбор, применение, учёт хода) → проверка останова.
// Политика выбора и приёма ходов задаётся объектом Strategy.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/neighborhood"
	"github.com/iolab-uniud/osp-ls/internal/solution"
)

// ErrInconsistentState — инкрементальная стоимость разошлась с полным пересчётом.
var ErrInconsistentState = errors.New("runner: состояние несогласовано")

// Runner — автомат одного поиска над состоянием S с ходами M.
// Кроме Interrupt, методы не предназначены для вызова из других горутин во время Go.
type Runner[S any, M neighborhood.Move[M], T cost.Number] struct {
	name     string
	sm       solution.Manager[S, T]
	ne       neighborhood.Explorer[S, M, T]
	strategy Strategy[S, M, T]
	cfg      Config
	rng      *rand.Rand
	log      *slog.Logger
	obs      []Observer

	status      atomic.Int32
	interrupted atomic.Bool

	// Текущий прогон
	current         S
	best            S
	hasBest         bool
	currentCost     cost.Structure[T]
	bestCost        cost.Structure[T]
	iteration       uint64
	iterationOfBest uint64
	evaluations     uint64
	started         time.Time
}

// New собирает раннер. Параметры стратегии проверяются при каждом запуске Go.
func New[S any, M neighborhood.Move[M], T cost.Number](
	name string,
	sm solution.Manager[S, T],
	ne neighborhood.Explorer[S, M, T],
	strategy Strategy[S, M, T],
	cfg Config,
	rng *rand.Rand,
	opts ...Option,
) (*Runner[S, M, T], error) {
	if sm == nil || ne == nil || strategy == nil {
		return nil, fmt.Errorf("runner %q: не заданы менеджер решений, окрестность или стратегия", name)
	}
	if rng == nil {
		return nil, fmt.Errorf("runner %q: генератор случайных чисел не инициализирован (nil)", name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runner %q: %w", name, err)
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Runner[S, M, T]{
		name:     name,
		sm:       sm,
		ne:       ne,
		strategy: strategy,
		cfg:      cfg,
		rng:      rng,
		log:      o.logger.With(slog.String("component", "runner"), slog.String("runner", name)),
		obs:      o.observers,
	}, nil
}

// Go запускает поиск из состояния st. По завершении st содержит лучшее найденное решение.
// Прерывание и тайм-аут не считаются ошибкой: возвращается лучшая стоимость.
func (r *Runner[S, M, T]) Go(ctx context.Context, st S) (cost.Structure[T], error) {
	r.setStatus(Initializing)
	if err := r.strategy.Validate(); err != nil {
		r.setStatus(Idle)
		return cost.Structure[T]{}, fmt.Errorf("runner %q: %w", r.name, err)
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	r.initializeRun(st)
	r.setStatus(Running)
	r.notify(RunStarted)

	status, err := r.loop(ctx)

	r.sm.CopyState(st, r.best)
	if err != nil {
		r.setStatus(Idle)
		return r.bestCost, err
	}
	r.setStatus(status)
	r.notify(RunFinished)
	return r.bestCost, nil
}

func (r *Runner[S, M, T]) initializeRun(st S) {
	r.current = st
	if !r.hasBest {
		r.best = r.sm.NewState()
		r.hasBest = true
	}
	r.sm.CopyState(r.best, st)
	r.currentCost = r.sm.ComputeCost(st)
	r.bestCost = r.currentCost
	r.iteration = 0
	r.iterationOfBest = 0
	r.evaluations = 0
	r.started = time.Now()
	r.strategy.InitializeRun(r)
}

func (r *Runner[S, M, T]) loop(ctx context.Context) (Status, error) {
	for {
		// Единственная точка проверки прерывания — начало итерации.
		if r.interrupted.Load() || ctx.Err() != nil {
			if h, ok := r.strategy.(TimeoutHandler[S, M, T]); ok {
				h.AtTimeoutExpired(r)
			}
			return Interrupted, nil
		}
		if r.cfg.MaxEvaluations > 0 && r.evaluations >= r.cfg.MaxEvaluations {
			return Exhausted, nil
		}
		if r.strategy.StopCriterion(r) {
			return Converged, nil
		}

		em, explored, err := r.strategy.SelectMove(r)
		r.evaluations += uint64(explored)
		if err != nil {
			if errors.Is(err, neighborhood.ErrEmptyNeighborhood) {
				return Converged, nil
			}
			return Idle, fmt.Errorf("runner %q: итерация %d: %w", r.name, r.iteration, err)
		}

		if em.Feasible && r.strategy.AcceptableMove(r, em) {
			r.ne.MakeMove(r.current, em.Move)
			r.currentCost = r.currentCost.Add(em.Cost)
			r.strategy.CompleteMove(r, em)
			if r.cfg.Debug {
				if err := r.checkConsistency(em); err != nil {
					return Idle, err
				}
			}
			r.updateBest()
		}

		r.strategy.CompleteIteration(r)
		r.iteration++
	}
}

func (r *Runner[S, M, T]) updateBest() {
	if !r.currentCost.Less(r.bestCost) {
		return
	}
	r.sm.CopyState(r.best, r.current)
	r.bestCost = r.currentCost
	r.iterationOfBest = r.iteration + 1
	r.notify(NewBest)
}

func (r *Runner[S, M, T]) checkConsistency(em neighborhood.EvaluatedMove[M, T]) error {
	if !r.sm.CheckConsistency(r.current) {
		return fmt.Errorf("runner %q: ход %s: %w", r.name, em.Move, ErrInconsistentState)
	}
	full := r.sm.ComputeCost(r.current)
	if !full.Equal(r.currentCost) || full.Total != r.currentCost.Total {
		return fmt.Errorf("runner %q: ход %s: стоимость %v, пересчёт %v: %w",
			r.name, em.Move, r.currentCost, full, ErrInconsistentState)
	}
	return nil
}

func (r *Runner[S, M, T]) notify(kind EventKind) {
	if len(r.obs) == 0 {
		return
	}
	ev := Event{
		Kind:            kind,
		Runner:          r.name,
		Strategy:        r.strategy.Name(),
		Status:          r.Status(),
		Iteration:       r.iteration,
		IterationOfBest: r.iterationOfBest,
		Evaluations:     r.evaluations,
		Cost:            float64(r.currentCost.Total),
		BestCost:        float64(r.bestCost.Total),
		Violations:      r.bestCost.Violations,
		Elapsed:         time.Since(r.started),
	}
	for _, o := range r.obs {
		o.OnEvent(ev)
	}
}

func (r *Runner[S, M, T]) setStatus(s Status) { r.status.Store(int32(s)) }

// Interrupt просит раннер остановиться в начале следующей итерации. Безопасен для горутин.
func (r *Runner[S, M, T]) Interrupt() { r.interrupted.Store(true) }

// ResetTimeout снимает ранее выставленный флаг прерывания.
func (r *Runner[S, M, T]) ResetTimeout() { r.interrupted.Store(false) }

func (r *Runner[S, M, T]) Name() string { return r.name }

func (r *Runner[S, M, T]) Status() Status { return Status(r.status.Load()) }

// Iteration — число завершённых итераций текущего (или последнего) прогона.
func (r *Runner[S, M, T]) Iteration() uint64 { return r.iteration }

// IterationOfBest — итерация, на которой найдено лучшее решение.
func (r *Runner[S, M, T]) IterationOfBest() uint64 { return r.iterationOfBest }

func (r *Runner[S, M, T]) Evaluations() uint64 { return r.evaluations }

func (r *Runner[S, M, T]) CurrentCost() cost.Structure[T] { return r.currentCost }

func (r *Runner[S, M, T]) BestCost() cost.Structure[T] { return r.bestCost }

// State — текущее состояние; имеет смысл только внутри Go.
func (r *Runner[S, M, T]) State() S { return r.current }

func (r *Runner[S, M, T]) Explorer() neighborhood.Explorer[S, M, T] { return r.ne }

func (r *Runner[S, M, T]) Rand() *rand.Rand { return r.rng }

func (r *Runner[S, M, T]) Logger() *slog.Logger { return r.log }

func (r *Runner[S, M, T]) StrategyName() string { return r.strategy.Name() }
