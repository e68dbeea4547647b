// Package solver — оркестрация раннеров: одиночный поиск, мультистарт и кольцо с маркером.
package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/param"
	"github.com/iolab-uniud/osp-ls/internal/runner"
	"github.com/iolab-uniud/osp-ls/internal/solution"
)

var (
	// ErrNoRunner — к солверу не подключено ни одного раннера.
	ErrNoRunner = errors.New("solver: не подключено ни одного раннера")
	// ErrRunnerNotAttached — попытка отключить раннер, который не был подключён.
	ErrRunnerNotAttached = errors.New("solver: раннер не подключён")
)

const tracerName = "github.com/iolab-uniud/osp-ls/internal/solver"

// Runner — то, что солверу нужно от раннера; *runner.Runner удовлетворяет интерфейсу
// при любом типе хода.
type Runner[S any, T cost.Number] interface {
	Name() string
	Go(ctx context.Context, st S) (cost.Structure[T], error)
	Interrupt()
	ResetTimeout()
	Iteration() uint64
	IterationOfBest() uint64
	Evaluations() uint64
	Status() runner.Status
}

// Result — итог Solve.
type Result[S any, T cost.Number] struct {
	Output      S
	Cost        cost.Structure[T]
	RunningTime time.Duration
	RunID       uuid.UUID

	// Iterations — сумма итераций всех запусков раннеров.
	Iterations uint64
	// IterationOfBest — номер итерации (в той же сквозной нумерации), давшей лучшее решение.
	IterationOfBest uint64
	Evaluations     uint64
	// Restarts — число рестартов (мультистарт) или ходов маркера (кольцо).
	Restarts uint64
}

// Config — общие параметры солверов.
type Config struct {
	// Timeout ограничивает весь Solve (0 — без ограничения).
	Timeout time.Duration `yaml:"timeout"`
	// Greedy — начинать с жадного решения, если менеджер его поддерживает.
	Greedy bool `yaml:"greedy_init"`
}

func DefaultConfig() Config {
	return Config{}
}

func (c Config) Validate() error {
	if c.Timeout < 0 {
		return param.Incorrect("timeout", "должно быть >= 0 (получено %s)", c.Timeout)
	}
	return nil
}

type options struct {
	logger *slog.Logger
	tracer trace.Tracer
	runID  uuid.UUID
}

// Option настраивает солвер.
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithRunID задаёт идентификатор, который получают все прогоны Solve
// вместо случайного.
func WithRunID(id uuid.UUID) Option {
	return func(o *options) { o.runID = id }
}

// base — общее состояние всех солверов: текущее и лучшее решения,
// подключённые раннеры и раннер, удерживающий маркер.
type base[S any, T cost.Number] struct {
	name    string
	sm      solution.Manager[S, T]
	cfg     Config
	rng     *rand.Rand
	log     *slog.Logger
	tracer  trace.Tracer
	runners []Runner[S, T]

	active      atomic.Int32
	interrupted atomic.Bool

	current     S
	best        S
	currentCost cost.Structure[T]
	bestCost    cost.Structure[T]

	fixedID         uuid.UUID
	runID           uuid.UUID
	started         time.Time
	iterations      uint64
	iterationOfBest uint64
	evaluations     uint64
}

// init проверяет параметры и заполняет общую часть солвера.
func (b *base[S, T]) init(name string, sm solution.Manager[S, T], cfg Config, rng *rand.Rand, opts []Option) error {
	if sm == nil {
		return fmt.Errorf("solver %q: не задан менеджер решений", name)
	}
	if rng == nil {
		return fmt.Errorf("solver %q: генератор случайных чисел не инициализирован (nil)", name)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("solver %q: %w", name, err)
	}
	o := options{logger: slog.Default(), tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(&o)
	}
	b.name = name
	b.sm = sm
	b.cfg = cfg
	b.rng = rng
	b.log = o.logger.With(slog.String("component", "solver"), slog.String("solver", name))
	b.tracer = o.tracer
	b.fixedID = o.runID
	return nil
}

func (b *base[S, T]) Name() string { return b.name }

// AddRunner подключает раннер в конец очереди.
func (b *base[S, T]) AddRunner(r Runner[S, T]) {
	b.runners = append(b.runners, r)
}

// RemoveRunner отключает ранее подключённый раннер.
func (b *base[S, T]) RemoveRunner(r Runner[S, T]) error {
	for i, x := range b.runners {
		if x == r {
			b.runners = append(b.runners[:i], b.runners[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("solver %q: %q: %w", b.name, r.Name(), ErrRunnerNotAttached)
}

func (b *base[S, T]) Runners() int { return len(b.runners) }

// Interrupt передаётся раннеру, удерживающему маркер; солвер не начнёт следующий ход.
func (b *base[S, T]) Interrupt() {
	b.interrupted.Store(true)
	if i := int(b.active.Load()); i < len(b.runners) {
		b.runners[i].Interrupt()
	}
}

// ResetTimeout снимает флаг прерывания с солвера и всех раннеров.
func (b *base[S, T]) ResetTimeout() {
	b.interrupted.Store(false)
	for _, r := range b.runners {
		r.ResetTimeout()
	}
}

func (b *base[S, T]) stopped(ctx context.Context) bool {
	return b.interrupted.Load() || ctx.Err() != nil
}

// start открывает span и применяет тайм-аут солвера.
func (b *base[S, T]) start(ctx context.Context, kind string) (context.Context, trace.Span, context.CancelFunc) {
	b.runID = b.fixedID
	if b.runID == uuid.Nil {
		b.runID = uuid.New()
	}
	b.started = time.Now()
	b.iterations, b.iterationOfBest, b.evaluations = 0, 0, 0

	ctx, span := b.tracer.Start(ctx, "solver.Solve",
		trace.WithAttributes(
			attribute.String("solver", b.name),
			attribute.String("kind", kind),
			attribute.String("run_id", b.runID.String()),
			attribute.Int("runners", len(b.runners)),
		),
	)
	cancel := context.CancelFunc(func() {})
	if b.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
	}
	return ctx, span, cancel
}

// initialState строит начальное решение и делает его лучшим известным.
func (b *base[S, T]) initialState() error {
	if len(b.runners) == 0 {
		return fmt.Errorf("solver %q: %w", b.name, ErrNoRunner)
	}
	b.current = b.sm.NewState()
	b.best = b.sm.NewState()

	var err error
	if g, ok := b.sm.(solution.Greedy[S]); ok && b.cfg.Greedy {
		err = g.GreedyState(b.rng, b.current)
	} else {
		if b.cfg.Greedy {
			b.log.Warn("жадное построение не поддерживается, используется случайное решение")
		}
		err = b.sm.RandomState(b.rng, b.current)
	}
	if err != nil {
		return fmt.Errorf("solver %q: начальное решение: %w", b.name, err)
	}

	b.currentCost = b.sm.ComputeCost(b.current)
	b.sm.CopyState(b.best, b.current)
	b.bestCost = b.currentCost
	return nil
}

// reseed заменяет текущее решение случайным.
func (b *base[S, T]) reseed() error {
	if err := b.sm.RandomState(b.rng, b.current); err != nil {
		return fmt.Errorf("solver %q: рестарт: %w", b.name, err)
	}
	b.currentCost = b.sm.ComputeCost(b.current)
	return nil
}

// turn передаёт маркер раннеру idx и запускает его на текущем решении.
func (b *base[S, T]) turn(ctx context.Context, idx int) (cost.Structure[T], error) {
	r := b.runners[idx]
	b.active.Store(int32(idx))

	ctx, span := b.tracer.Start(ctx, "runner.Go",
		trace.WithAttributes(attribute.String("runner", r.Name())),
	)
	defer span.End()

	c, err := r.Go(ctx, b.current)
	b.iterations += r.Iteration()
	b.evaluations += r.Evaluations()

	span.SetAttributes(
		attribute.String("status", r.Status().String()),
		attribute.Int64("iterations", int64(r.Iteration())),
		attribute.Float64("cost", float64(c.Total)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "runner failed")
		return c, err
	}

	b.currentCost = c
	b.log.Debug("ход раннера завершён",
		slog.String("runner", r.Name()),
		slog.String("status", r.Status().String()),
		slog.Uint64("iteration", r.Iteration()),
		slog.Any("cost", c.Total),
	)
	return c, nil
}

// keepIfNotWorse переносит текущее решение в лучшее при cur <= best.
// Равная стоимость тоже заменяет лучшее решение. Возвращает true при строгом улучшении.
func (b *base[S, T]) keepIfNotWorse(r Runner[S, T]) bool {
	if !b.currentCost.LessEq(b.bestCost) {
		return false
	}
	improved := b.currentCost.Less(b.bestCost)
	b.sm.CopyState(b.best, b.current)
	b.bestCost = b.currentCost
	if improved {
		b.iterationOfBest = b.iterations - r.Iteration() + r.IterationOfBest()
	}
	return improved
}

func (b *base[S, T]) result(restarts uint64) Result[S, T] {
	return Result[S, T]{
		Output:          solution.Clone(b.sm, b.best),
		Cost:            b.bestCost,
		RunningTime:     time.Since(b.started),
		RunID:           b.runID,
		Iterations:      b.iterations,
		IterationOfBest: b.iterationOfBest,
		Evaluations:     b.evaluations,
		Restarts:        restarts,
	}
}

func (b *base[S, T]) finish(span trace.Span, res Result[S, T], err error) {
	span.SetAttributes(
		attribute.Float64("best_cost", float64(res.Cost.Total)),
		attribute.Int64("iterations", int64(res.Iterations)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.log.Error("поиск завершён с ошибкой", slog.String("run_id", b.runID.String()), slog.Any("err", err))
		return
	}
	b.log.Info("поиск завершён",
		slog.String("run_id", b.runID.String()),
		slog.Any("cost", res.Cost.Total),
		slog.Int("violations", res.Cost.Violations),
		slog.Uint64("iterations", res.Iterations),
		slog.Duration("elapsed", res.RunningTime),
	)
}
