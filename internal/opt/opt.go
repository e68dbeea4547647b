// Package opt собирает из профиля раннеры и солвер для экземпляра flow-shop.
package opt

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iolab-uniud/osp-ls/internal/config"
	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/flowshop"
	"github.com/iolab-uniud/osp-ls/internal/hc"
	"github.com/iolab-uniud/osp-ls/internal/param"
	"github.com/iolab-uniud/osp-ls/internal/runner"
	"github.com/iolab-uniud/osp-ls/internal/sa"
	"github.com/iolab-uniud/osp-ls/internal/solver"
	"github.com/iolab-uniud/osp-ls/internal/ts"
)

type Optimizer interface {
	Solve(ctx context.Context, inst *flowshop.Instance) (Result, error)
}

type Result struct {
	RunID       uuid.UUID
	Permutation []int
	Cost        cost.Structure[int]
	Objectives  flowshop.Objectives

	Iterations      uint64
	IterationOfBest uint64
	Evaluations     uint64
	Restarts        uint64
	Duration        time.Duration
	Meta            map[string]any
}

type (
	schedule = *flowshop.Schedule
	strategy = runner.Strategy[schedule, flowshop.Move, int]
)

// engine — то, что Engine использует у любого солвера.
type engine interface {
	AddRunner(r solver.Runner[schedule, int])
	Solve(ctx context.Context) (solver.Result[schedule, int], error)
}

// Engine — Optimizer поверх локального поиска. Каждый Solve строит
// раннеры и солвер заново, экземпляр Engine можно переиспользовать последовательно.
type Engine struct {
	profile   config.Profile
	seed      int64
	log       *slog.Logger
	observers []runner.Observer
	observe   func(runID uuid.UUID) []runner.Observer
	drop      string
}

var _ Optimizer = (*Engine)(nil)

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithObserver подключает наблюдателя ко всем раннерам.
func WithObserver(obs runner.Observer) Option {
	return func(e *Engine) {
		if obs != nil {
			e.observers = append(e.observers, obs)
		}
	}
}

// WithRunObservers создаёт наблюдателей под идентификатор каждого Solve.
func WithRunObservers(f func(runID uuid.UUID) []runner.Observer) Option {
	return func(e *Engine) { e.observe = f }
}

// WithoutNeighborhood исключает вид ходов из объединения (абляция).
func WithoutNeighborhood(kind string) Option {
	return func(e *Engine) { e.drop = kind }
}

func New(p config.Profile, seed int64, opts ...Option) (*Engine, error) {
	e := &Engine{profile: p.Clone(), seed: seed, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.drop != "" {
		rates, err := e.profile.Neighborhood.Drop(e.drop)
		if err != nil {
			return nil, err
		}
		e.profile.Neighborhood = rates
	}
	if err := e.profile.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Name — краткое обозначение конфигурации, например "sa+ts/tokenring".
func (e *Engine) Name() string {
	name := strings.Join(e.profile.Methods, "+") + "/" + e.profile.Solver
	if e.drop != "" {
		name += "-" + e.drop
	}
	return name
}

func (e *Engine) Solve(ctx context.Context, inst *flowshop.Instance) (Result, error) {
	m, err := flowshop.NewManager(inst, e.profile.Weights)
	if err != nil {
		return Result{}, err
	}
	rng := rand.New(rand.NewSource(e.seed))

	runID := uuid.New()
	observers := e.observers
	if e.observe != nil {
		observers = append(append([]runner.Observer(nil), observers...), e.observe(runID)...)
	}

	s, err := e.newSolver(m, rng, runID)
	if err != nil {
		return Result{}, err
	}
	rcfg := e.profile.RunnerConfig(inst.Jobs)
	methods := e.profile.Methods
	if e.profile.Solver == config.SolverSimple {
		methods = methods[:1]
	}
	for i, method := range methods {
		r, err := e.newRunner(fmt.Sprintf("%s-%d", method, i), method, m, rcfg, rng, observers)
		if err != nil {
			return Result{}, err
		}
		s.AddRunner(r)
	}

	res, err := s.Solve(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{
		RunID:           res.RunID,
		Permutation:     append([]int(nil), res.Output.Perm...),
		Cost:            res.Cost,
		Objectives:      res.Output.Objectives(),
		Iterations:      res.Iterations,
		IterationOfBest: res.IterationOfBest,
		Evaluations:     res.Evaluations,
		Restarts:        res.Restarts,
		Duration:        res.RunningTime,
		Meta: map[string]any{
			"algorithm":  e.Name(),
			"seed":       e.seed,
			"breakdown":  m.Breakdown(res.Output),
			"normalized": float64(res.Cost.Total) / float64(inst.UpperBound()),
		},
	}, nil
}

func (e *Engine) newSolver(m *flowshop.Manager, rng *rand.Rand, runID uuid.UUID) (engine, error) {
	opts := []solver.Option{solver.WithLogger(e.log), solver.WithRunID(runID)}
	switch e.profile.Solver {
	case config.SolverMultiStart:
		return solver.NewMultiStart[schedule, int](e.Name(), m, e.profile.MultiStart, rng, opts...)
	case config.SolverTokenRing:
		return solver.NewTokenRing[schedule, int](e.Name(), m, e.profile.TokenRing, rng, opts...)
	}
	return solver.NewSimple[schedule, int](e.Name(), m, nil, e.profile.Simple, rng, opts...)
}

func (e *Engine) newRunner(name, method string, m *flowshop.Manager, cfg runner.Config, rng *rand.Rand, observers []runner.Observer) (*runner.Runner[schedule, flowshop.Move, int], error) {
	st, err := e.newStrategy(method)
	if err != nil {
		return nil, err
	}
	u, err := flowshop.NewNeighborhood(m, e.profile.Neighborhood)
	if err != nil {
		return nil, err
	}
	opts := []runner.Option{runner.WithLogger(e.log)}
	for _, obs := range observers {
		opts = append(opts, runner.WithObserver(obs))
	}
	return runner.New[schedule, flowshop.Move, int](name, m, u, st, cfg, rng, opts...)
}

func (e *Engine) newStrategy(method string) (strategy, error) {
	p := e.profile
	switch method {
	case config.MethodHC:
		return hc.New[schedule, flowshop.Move, int](p.HillClimbing)
	case config.MethodLAHC:
		return hc.NewLate[schedule, flowshop.Move, int](p.LateAcceptance)
	case config.MethodSA:
		return sa.New[schedule, flowshop.Move, int](p.SimulatedAnnealing)
	case config.MethodTS:
		return ts.New[schedule, flowshop.Move, int](p.TabuSearch, flowshop.Inverse)
	}
	return nil, fmt.Errorf("opt: неизвестная стратегия %q", method)
}

const (
	// ConstructHeuristic — решение NEH без последующего поиска.
	ConstructHeuristic = "heuristic"
	// ConstructRandom — случайная перестановка без поиска.
	ConstructRandom = "random"
)

// Construct строит одно решение без локального поиска. Итерации и оценки нулевые.
func Construct(inst *flowshop.Instance, w flowshop.Weights, method string, seed int64) (Result, error) {
	m, err := flowshop.NewManager(inst, w)
	if err != nil {
		return Result{}, err
	}
	rng := rand.New(rand.NewSource(seed))
	st := m.NewState()

	start := time.Now()
	switch method {
	case ConstructHeuristic:
		err = m.GreedyState(rng, st)
	case ConstructRandom:
		err = m.RandomState(rng, st)
	default:
		return Result{}, param.Incorrect("mode", "ожидается %s или %s (получено %q)", ConstructHeuristic, ConstructRandom, method)
	}
	if err != nil {
		return Result{}, err
	}
	if !m.CheckConsistency(st) {
		return Result{}, fmt.Errorf("opt: построенное решение несогласовано")
	}
	c := m.ComputeCost(st)
	return Result{
		RunID:       uuid.New(),
		Permutation: append([]int(nil), st.Perm...),
		Cost:        c,
		Objectives:  st.Objectives(),
		Duration:    time.Since(start),
		Meta: map[string]any{
			"algorithm":  method,
			"seed":       seed,
			"breakdown":  m.Breakdown(st),
			"normalized": float64(c.Total) / float64(inst.UpperBound()),
		},
	}, nil
}
