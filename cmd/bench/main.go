package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iolab-uniud/osp-ls/internal/bench"
	"github.com/iolab-uniud/osp-ls/internal/config"
	"github.com/iolab-uniud/osp-ls/internal/flowshop"
	"github.com/iolab-uniud/osp-ls/internal/metrics"
	"github.com/iolab-uniud/osp-ls/internal/opt"
	"github.com/iolab-uniud/osp-ls/internal/store"
	"github.com/iolab-uniud/osp-ls/internal/tracing"
)

// Фабрики

func newEngineFactory(p config.Profile, drop string, logger *slog.Logger, withMetrics bool) func(seed int64) (opt.Optimizer, error) {
	return func(seed int64) (opt.Optimizer, error) {
		opts := []opt.Option{opt.WithLogger(logger)}
		if drop != "" {
			opts = append(opts, opt.WithoutNeighborhood(drop))
		}
		if withMetrics {
			opts = append(opts, opt.WithObserver(metrics.Observer{}))
		}
		return opt.New(p, seed, opts...)
	}
}

func main() {
	// CLI флаги для выбора экземпляров, алгоритмов и политики запуска
	var (
		out          = flag.String("out", "artifacts/results.csv", "путь к выходному CSV-файлу")
		pairs        = flag.String("pairs", "20x5,50x10,100x20", "конфигурации: количество работ Х количество станков (через запятую)")
		files        = flag.String("instances", "", "файлы экземпляров YAML (через запятую); заменяют -pairs")
		tightness    = flag.Float64("tightness", 0, "жёсткость сроков выполнения для сгенерированных экземпляров; 0 — без сроков")
		algos        = flag.String("algos", "hc,lahc,sa,ts", "стратегии: hc, lahc, sa, ts; несколько стратегий через '+' (sa+ts)")
		solverKind   = flag.String("solver", config.SolverSimple, "солвер: simple | multistart | tokenring")
		profilePath  = flag.String("profile", "", "YAML-профиль с параметрами стратегий и солверов")
		drop         = flag.String("drop", "", "исключить вид ходов из окрестности: swap | insert | reverse")
		greedy       = flag.Bool("greedy", false, "начинать с решения NEH")
		runs         = flag.Int("runs", 30, "количество запусков каждого алгоритма (с разными сидами)")
		baseSeed     = flag.Int64("seed", 1000, "базовый сид для запусков алгоритмов")
		instanceSeed = flag.Int64("instance_seed", 777, "базовый сид для генерации экземпляров задачи (фиксирован для конфигурации)")
		perRunTO     = flag.Duration("per_run_timeout", 0, "таймаут одного запуска; 0 — без ограничения")
		evalsPerJob  = flag.Uint64("evals_per_job", 0, "бюджет оценок ходов на одну работу; 0 — из профиля")
		storeKind    = flag.String("store", "", "хранилище итогов: memory | sqlite | postgres; пусто — не сохранять")
		storeDSN     = flag.String("store_dsn", "", "путь к файлу SQLite или строка подключения PostgreSQL")
		metricsAddr  = flag.String("metrics_addr", "", "адрес HTTP для /metrics (например, :9100); пусто — не публиковать")
		traceDest    = flag.String("trace", "", "spans OpenTelemetry в JSON: путь к файлу или - для stderr; пусто — отключены")
		verbose      = flag.Bool("v", false, "подробный журнал")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := tracing.Open("osp-ls-bench", *traceDest)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка трассировки:", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("выгрузка трассировки", slog.Any("err", err))
		}
	}()

	profile := config.Default()
	if *profilePath != "" {
		p, err := config.Load(*profilePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка в профиле:", err)
			os.Exit(2)
		}
		profile = p
	}
	profile.Solver = *solverKind
	if *greedy {
		profile.SetGreedy(true)
	}
	if *evalsPerJob > 0 {
		profile.EvaluationsPerJob = *evalsPerJob
	}

	var cases []bench.Case
	if *files != "" {
		cases, err = loadCases(*files)
	} else {
		cases, err = parsePairs(*pairs, *instanceSeed, *tightness)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт:", err)
		os.Exit(2)
	}

	if *metricsAddr != "" {
		metrics.RegisterDefault()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("сервер метрик остановлен", slog.Any("err", err))
			}
		}()
	}

	var selected []bench.Algorithm
	for _, a := range splitCSV(*algos) {
		p := profile.Clone()
		p.Methods = strings.Split(a, "+")
		if err := p.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Конфликт в конфигурации %q: %v; доступные стратегии: %v\n", a, err, config.Methods)
			os.Exit(2)
		}
		name := a + "/" + p.Solver
		if *drop != "" {
			name += "-" + *drop
		}
		selected = append(selected, bench.Algorithm{
			Name:    name,
			Factory: newEngineFactory(p, *drop, logger, *metricsAddr != ""),
		})
	}

	var results store.Store
	if *storeKind != "" {
		results, err = store.NewStore(*storeKind, *storeDSN)
		if err == nil {
			err = results.Init(ctx)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка хранилища:", err)
			os.Exit(1)
		}
		defer func() { _ = store.CloseIfSupported(results) }()
	}

	runner := bench.Runner{
		Runs:          *runs,
		BaseSeed:      *baseSeed,
		PerRunTimeout: *perRunTO,
		Store:         results,
		Logger:        logger,
	}

	var records []bench.Record
	for _, c := range cases {
		for _, a := range selected {
			fmt.Printf("Запущен алгоритм %s; экземпляр %s (общее кол-во запусков=%d)...\n", a.Name, c.Name(), runner.Runs)

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Ошибка:", err)
				os.Exit(1)
			}
			records = append(records, rec)

			fmt.Printf("  Стоимость: лучшая=%d средняя=%.2f стандартное отклонение=%.2f | makespan: лучший=%d отклонение от нижней оценки=%.2f%% | Время: среднее=%.2fms\n",
				rec.CostBest, rec.CostMean, rec.CostStd,
				rec.MakespanBest, rec.GapMean,
				rec.TimeMeanMs,
			)
		}
	}

	if err := bench.WriteCSV(*out, records); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка при записи в CSV:", err)
		os.Exit(1)
	}
	fmt.Println("Saved:", *out)
}

// helpers

func parsePairs(s string, baseInstanceSeed int64, tightness float64) ([]bench.Case, error) {
	parts := splitCSV(s)
	cases := make([]bench.Case, 0, len(parts))

	for i, p := range parts {
		jm := strings.Split(p, "x")
		if len(jm) != 2 {
			return nil, fmt.Errorf("пара %q невалидной схемы, пример: 50x10", p)
		}
		jobs, err := atoiStrict(jm[0])
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества работ: %w", p, err)
		}
		machines, err := atoiStrict(jm[1])
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества машин: %w", p, err)
		}
		if jobs <= 0 || machines <= 0 {
			return nil, fmt.Errorf("пара %q: количество работ и машин должно быть > 0", p)
		}

		seed := baseInstanceSeed + int64(i)*10_000 + int64(jobs)*100 + int64(machines)

		cases = append(cases, bench.Case{
			Jobs:         jobs,
			Machines:     machines,
			InstanceSeed: seed,
			Tightness:    tightness,
		})
	}

	return cases, nil
}

func loadCases(s string) ([]bench.Case, error) {
	var cases []bench.Case
	for _, path := range splitCSV(s) {
		inst, err := flowshop.Load(path)
		if err != nil {
			return nil, err
		}
		if inst.Name == "" {
			inst.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		cases = append(cases, bench.Case{Jobs: inst.Jobs, Machines: inst.Machines, Instance: inst})
	}
	return cases, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiStrict(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}
