package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/iolab-uniud/osp-ls/internal/flowshop"
	"github.com/iolab-uniud/osp-ls/internal/opt"
	"github.com/iolab-uniud/osp-ls/internal/store"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) (opt.Optimizer, error)
}

// Case — экземпляр задачи: загруженный из файла или сгенерированный по сиду.
type Case struct {
	Jobs         int
	Machines     int
	InstanceSeed int64
	// Tightness > 0 добавляет сроки выполнения.
	Tightness float64
	// Instance, если задан, используется вместо генерации.
	Instance *flowshop.Instance
}

func (c Case) Name() string {
	if c.Instance != nil && c.Instance.Name != "" {
		return c.Instance.Name
	}
	return fmt.Sprintf("%dx%d-s%d", c.Jobs, c.Machines, c.InstanceSeed)
}

func (c Case) instance() *flowshop.Instance {
	if c.Instance != nil {
		return c.Instance
	}
	rng := rand.New(rand.NewSource(c.InstanceSeed))
	inst := flowshop.RandomInstance(c.Jobs, c.Machines, 1, 99, rng)
	if c.Tightness > 0 {
		inst.WithRandomDueDates(c.Tightness, rng)
	}
	inst.Name = c.Name()
	return inst
}

type Record struct {
	Algo     string
	Instance string
	Jobs     int
	Machines int
	Runs     int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	CostBest int
	CostMean float64
	CostStd  float64

	MakespanBest int
	MakespanMean float64
	// GapMean — среднее отклонение стоимости от нижней оценки makespan, %.
	GapMean float64

	IterationsMean  float64
	EvaluationsMean float64
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
	// Store, если задан, получает итог каждого запуска.
	Store  store.Store
	Logger *slog.Logger
}

func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	inst := c.instance()
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	costs := make([]int, 0, r.Runs)
	makespans := make([]int, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	iterations := make([]uint64, 0, r.Runs)
	evaluations := make([]uint64, 0, r.Runs)

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)

		op, err := algo.Factory(runSeed)
		if err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, inst)
		dur := time.Since(start)
		cancel()

		if err != nil && ctx.Err() != nil {
			return Record{}, fmt.Errorf("run %d: cancelled: %w", i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		if err := flowshop.ValidatePermutation(res.Permutation, inst.Jobs); err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		costs = append(costs, res.Cost.Total)
		makespans = append(makespans, res.Objectives.Makespan)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		iterations = append(iterations, res.Iterations)
		evaluations = append(evaluations, res.Evaluations)

		if r.Store != nil {
			if err := r.Store.SaveRun(ctx, toRun(inst, algo.Name, runSeed, res)); err != nil {
				return Record{}, fmt.Errorf("run %d: store: %w", i, err)
			}
		}
		log.Debug("запуск завершён",
			slog.String("algo", algo.Name),
			slog.String("instance", inst.Name),
			slog.Int("run", i),
			slog.Int("cost", res.Cost.Total),
			slog.Duration("time", dur),
		)
	}

	cStats := CalcStats(costs)
	msStats := CalcStats(makespans)
	tStats := CalcStats(timesMs)

	return Record{
		Algo:     algo.Name,
		Instance: inst.Name,
		Jobs:     inst.Jobs,
		Machines: inst.Machines,
		Runs:     r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		CostBest: cStats.Best,
		CostMean: cStats.Mean,
		CostStd:  cStats.Std,

		MakespanBest: msStats.Best,
		MakespanMean: msStats.Mean,
		GapMean:      RelativeGap(msStats.Mean, float64(inst.LowerBound())),

		IterationsMean:  CalcStats(iterations).Mean,
		EvaluationsMean: CalcStats(evaluations).Mean,
	}, nil
}

func toRun(inst *flowshop.Instance, algo string, seed int64, res opt.Result) store.Run {
	return store.Run{
		ID:              res.RunID,
		Instance:        inst.Name,
		Algorithm:       algo,
		Seed:            seed,
		Total:           res.Cost.Total,
		Violations:      res.Cost.Violations,
		Hard:            res.Cost.Hard,
		Soft:            res.Cost.Soft,
		Makespan:        res.Objectives.Makespan,
		Permutation:     res.Permutation,
		Iterations:      res.Iterations,
		IterationOfBest: res.IterationOfBest,
		Evaluations:     res.Evaluations,
		Duration:        res.Duration,
		CreatedAt:       time.Now().UTC(),
	}
}

func WriteCSV(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeCSV(f, records)
}

func EncodeCSV(out io.Writer, records []Record) error {
	w := csv.NewWriter(out)

	header := []string{
		"algo", "instance", "jobs", "machines", "runs",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"cost_best", "cost_mean", "cost_std",
		"makespan_best", "makespan_mean", "gap_mean_pct",
		"iterations_mean", "evaluations_mean",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	// Вещественные поля: шесть знаков после запятой.
	fixed := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, r := range records {
		row := []string{
			r.Algo,
			r.Instance,
			strconv.Itoa(r.Jobs),
			strconv.Itoa(r.Machines),
			strconv.Itoa(r.Runs),

			fixed(r.TimeBestMs),
			fixed(r.TimeMeanMs),
			fixed(r.TimeStdMs),

			strconv.Itoa(r.CostBest),
			fixed(r.CostMean),
			fixed(r.CostStd),

			strconv.Itoa(r.MakespanBest),
			fixed(r.MakespanMean),
			fixed(r.GapMean),

			fixed(r.IterationsMean),
			fixed(r.EvaluationsMean),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
