package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iolab-uniud/osp-ls/internal/config"
	"github.com/iolab-uniud/osp-ls/internal/flowshop"
	"github.com/iolab-uniud/osp-ls/internal/opt"
	"github.com/iolab-uniud/osp-ls/internal/param"
	"github.com/iolab-uniud/osp-ls/internal/progress"
	"github.com/iolab-uniud/osp-ls/internal/runner"
	"github.com/iolab-uniud/osp-ls/internal/store"
	"github.com/iolab-uniud/osp-ls/internal/tracing"
)

// record — итог запуска в формате JSON.
type record struct {
	RunID           string  `json:"run_id"`
	Instance        string  `json:"instance"`
	Algorithm       string  `json:"algorithm"`
	TotalCost       int     `json:"total_cost"`
	Violations      int     `json:"violations"`
	Hard            int     `json:"hard_cost"`
	Soft            int     `json:"soft_cost"`
	Makespan        int     `json:"makespan"`
	Tardiness       int     `json:"tardiness"`
	TardyJobs       int     `json:"tardy_jobs"`
	TimeSeconds     float64 `json:"time_seconds"`
	TotalIterations uint64  `json:"total_iterations"`
	IterationOfBest uint64  `json:"iteration_of_best"`
	Evaluations     uint64  `json:"evaluations"`
	Restarts        uint64  `json:"restarts"`
	Seed            int64   `json:"seed"`
	Permutation     []int   `json:"permutation"`
}

func main() {
	instancePath := param.New[string]("instance", "файл экземпляра YAML")
	seed := param.New[int64]("seed", "сид генератора случайных чисел")
	flag.Var(instancePath, "instance", instancePath.Description+" (обязательный)")
	flag.Var(seed, "seed", seed.Description+" (по умолчанию — текущее время)")

	var (
		mode         = flag.String("mode", modeSearch, "search — локальный поиск; heuristic — только решение NEH; random — только случайное решение")
		output       = flag.String("output", "", "файл для итоговой записи; пусто — stdout")
		traceDest    = flag.String("trace", "", "spans OpenTelemetry в JSON: путь к файлу или - для stderr; пусто — отключены")
		profilePath  = flag.String("profile", "", "YAML-профиль с параметрами стратегий и солверов")
		methods      = flag.String("method", "", "стратегии через запятую: hc, lahc, sa, ts; пусто — из профиля")
		solverKind   = flag.String("solver", "", "солвер: simple | multistart | tokenring; пусто — из профиля")
		initKind     = flag.String("init", "random", "начальное решение: random | greedy")
		drop         = flag.String("drop", "", "исключить вид ходов из окрестности: swap | insert | reverse")
		timeout      = flag.Duration("timeout", 0, "ограничение времени поиска; 0 — из профиля")
		evalsPerJob  = flag.Uint64("evals_per_job", 0, "бюджет оценок ходов на одну работу; 0 — из профиля")
		irace        = flag.Bool("irace", false, "вывести только нормированную стоимость (для настройки параметров)")
		progressKind = flag.String("progress", "", "события хода поиска: memory (в stderr) | redis; пусто — отключены")
		redisURL     = flag.String("redis_url", "", "адрес Redis; пусто — REDIS_URL")
		progressRate = flag.Float64("progress_rate", 10, "не больше стольких событий new_best в секунду")
		storeKind    = flag.String("store", "", "хранилище итогов: memory | sqlite | postgres; пусто — не сохранять")
		storeDSN     = flag.String("store_dsn", "", "путь к файлу SQLite или строка подключения PostgreSQL")
		verbose      = flag.Bool("v", false, "подробный журнал")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger, options{
		instance:     instancePath,
		seed:         seed.Or(time.Now().UnixNano()),
		mode:         *mode,
		output:       *output,
		trace:        *traceDest,
		profile:      *profilePath,
		methods:      *methods,
		solver:       *solverKind,
		init:         *initKind,
		drop:         *drop,
		timeout:      *timeout,
		evalsPerJob:  *evalsPerJob,
		irace:        *irace,
		progress:     *progressKind,
		redisURL:     *redisURL,
		progressRate: *progressRate,
		store:        *storeKind,
		storeDSN:     *storeDSN,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		os.Exit(1)
	}
}

const modeSearch = "search"

type options struct {
	instance     *param.Parameter[string]
	seed         int64
	mode         string
	output       string
	trace        string
	profile      string
	methods      string
	solver       string
	init         string
	drop         string
	timeout      time.Duration
	evalsPerJob  uint64
	irace        bool
	progress     string
	redisURL     string
	progressRate float64
	store        string
	storeDSN     string
}

func run(logger *slog.Logger, o options) error {
	path, err := o.instance.Get()
	if err != nil {
		return err
	}
	inst, err := flowshop.Load(path)
	if err != nil {
		return err
	}
	if inst.Name == "" {
		inst.Name = path
	}

	p, err := buildProfile(o)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := tracing.Open("osp-ls-solve", o.trace)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("выгрузка трассировки", slog.Any("err", err))
		}
	}()

	var (
		res  opt.Result
		algo string
	)
	switch o.mode {
	case "", modeSearch:
		res, algo, err = search(ctx, logger, o, p, inst)
	default:
		algo = o.mode
		res, err = opt.Construct(inst, p.Weights, o.mode, o.seed)
	}
	if err != nil {
		return err
	}

	if o.store != "" {
		if err := saveRun(ctx, o, inst, algo, res); err != nil {
			return err
		}
	}

	out := io.Writer(os.Stdout)
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return writeResult(out, o, inst, algo, res)
}

func search(ctx context.Context, logger *slog.Logger, o options, p config.Profile, inst *flowshop.Instance) (opt.Result, string, error) {
	engineOpts := []opt.Option{opt.WithLogger(logger)}
	if o.drop != "" {
		engineOpts = append(engineOpts, opt.WithoutNeighborhood(o.drop))
	}
	var wg sync.WaitGroup
	unsubscribe := func() {}
	if o.progress != "" {
		broker, closeBroker, err := newBroker(o.progress, o.redisURL)
		if err != nil {
			return opt.Result{}, "", err
		}
		defer closeBroker()
		engineOpts = append(engineOpts, opt.WithRunObservers(func(id uuid.UUID) []runner.Observer {
			if o.progress == "memory" {
				ch := broker.Subscribe(id.String())
				wg.Add(1)
				go func() {
					defer wg.Done()
					printEvents(ch)
				}()
				unsubscribe = func() { broker.Unsubscribe(id.String(), ch) }
			}
			return []runner.Observer{progress.NewPublisher(broker, id.String(), o.progressRate)}
		}))
	}

	engine, err := opt.New(p, o.seed, engineOpts...)
	if err != nil {
		return opt.Result{}, "", err
	}
	res, err := engine.Solve(ctx, inst)
	unsubscribe()
	wg.Wait()
	return res, engine.Name(), err
}

func writeResult(w io.Writer, o options, inst *flowshop.Instance, algo string, res opt.Result) error {
	if o.irace {
		_, err := fmt.Fprintln(w, res.Meta["normalized"])
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(record{
		RunID:           res.RunID.String(),
		Instance:        inst.Name,
		Algorithm:       algo,
		TotalCost:       res.Cost.Total,
		Violations:      res.Cost.Violations,
		Hard:            res.Cost.Hard,
		Soft:            res.Cost.Soft,
		Makespan:        res.Objectives.Makespan,
		Tardiness:       res.Objectives.Tardiness,
		TardyJobs:       res.Objectives.TardyJobs,
		TimeSeconds:     res.Duration.Seconds(),
		TotalIterations: res.Iterations,
		IterationOfBest: res.IterationOfBest,
		Evaluations:     res.Evaluations,
		Restarts:        res.Restarts,
		Seed:            o.seed,
		Permutation:     res.Permutation,
	})
}

func buildProfile(o options) (config.Profile, error) {
	p := config.Default()
	if o.profile != "" {
		var err error
		if p, err = config.Load(o.profile); err != nil {
			return config.Profile{}, err
		}
	}
	if o.methods != "" {
		p.Methods = strings.Split(o.methods, ",")
	}
	if o.solver != "" {
		p.Solver = o.solver
	}
	switch o.init {
	case "random":
	case "greedy":
		p.SetGreedy(true)
	default:
		return config.Profile{}, param.Incorrect("init", "ожидается random или greedy (получено %q)", o.init)
	}
	if o.timeout > 0 {
		p.Simple.Timeout = o.timeout
		p.MultiStart.Timeout = o.timeout
		p.TokenRing.Timeout = o.timeout
	}
	if o.evalsPerJob > 0 {
		p.EvaluationsPerJob = o.evalsPerJob
	}
	return p, p.Validate()
}

func newBroker(kind, url string) (progress.Broker, func(), error) {
	switch kind {
	case "memory":
		return progress.NewMemoryBroker(), func() {}, nil
	case "redis":
		b, err := progress.NewRedisBroker(url)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	}
	return nil, nil, param.Incorrect("progress", "ожидается memory или redis (получено %q)", kind)
}

func printEvents(ch chan progress.Event) {
	enc := json.NewEncoder(os.Stderr)
	for evt := range ch {
		_ = enc.Encode(evt)
	}
}

func saveRun(ctx context.Context, o options, inst *flowshop.Instance, algo string, res opt.Result) error {
	s, err := store.NewStore(o.store, o.storeDSN)
	if err != nil {
		return err
	}
	defer func() { _ = store.CloseIfSupported(s) }()
	if err := s.Init(ctx); err != nil {
		return err
	}
	return s.SaveRun(ctx, store.Run{
		ID:              res.RunID,
		Instance:        inst.Name,
		Algorithm:       algo,
		Seed:            o.seed,
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
	})
}
