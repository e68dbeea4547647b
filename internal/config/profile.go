// Package config читает профили запуска: какие стратегии и какой солвер собрать
// и с какими параметрами.
package config

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/iolab-uniud/osp-ls/internal/flowshop"
	"github.com/iolab-uniud/osp-ls/internal/hc"
	"github.com/iolab-uniud/osp-ls/internal/param"
	"github.com/iolab-uniud/osp-ls/internal/runner"
	"github.com/iolab-uniud/osp-ls/internal/sa"
	"github.com/iolab-uniud/osp-ls/internal/solver"
	"github.com/iolab-uniud/osp-ls/internal/ts"
)

// Стратегии раннеров.
const (
	MethodHC   = "hc"
	MethodLAHC = "lahc"
	MethodSA   = "sa"
	MethodTS   = "ts"
)

// Солверы.
const (
	SolverSimple     = "simple"
	SolverMultiStart = "multistart"
	SolverTokenRing  = "tokenring"
)

var (
	Methods = []string{MethodHC, MethodLAHC, MethodSA, MethodTS}
	Solvers = []string{SolverSimple, SolverMultiStart, SolverTokenRing}
)

// Profile — полный набор параметров одного запуска.
type Profile struct {
	// Methods — стратегии раннеров в порядке передачи маркера.
	// Простой солвер использует только первую.
	Methods []string `yaml:"methods"`
	Solver  string   `yaml:"solver"`

	// EvaluationsPerJob задаёт бюджет раннера как EvaluationsPerJob × число работ,
	// если Runner.MaxEvaluations не задан явно.
	EvaluationsPerJob uint64 `yaml:"evaluations_per_job"`

	Runner runner.Config `yaml:"runner"`

	HillClimbing       hc.Config     `yaml:"hill_climbing"`
	LateAcceptance     hc.LateConfig `yaml:"late_acceptance"`
	SimulatedAnnealing sa.Config     `yaml:"simulated_annealing"`
	TabuSearch         ts.Config     `yaml:"tabu_search"`

	Simple     solver.Config           `yaml:"simple"`
	MultiStart solver.MultiStartConfig `yaml:"multistart"`
	TokenRing  solver.TokenRingConfig  `yaml:"token_ring"`

	Neighborhood flowshop.Rates   `yaml:"neighborhood"`
	Weights      flowshop.Weights `yaml:"weights"`
}

func Default() Profile {
	return Profile{
		Methods:           []string{MethodSA},
		Solver:            SolverSimple,
		EvaluationsPerJob: 2500,

		Runner: runner.DefaultConfig(),

		HillClimbing:       hc.DefaultConfig(),
		LateAcceptance:     hc.DefaultLateConfig(),
		SimulatedAnnealing: sa.DefaultConfig(),
		TabuSearch:         ts.DefaultConfig(),

		Simple:     solver.DefaultConfig(),
		MultiStart: solver.DefaultMultiStartConfig(),
		TokenRing:  solver.DefaultTokenRingConfig(),

		Neighborhood: flowshop.DefaultRates(),
		Weights:      flowshop.DefaultWeights(),
	}
}

// Validate проверяет выбранные стратегии и солвер; параметры невыбранных не проверяются.
func (p Profile) Validate() error {
	if len(p.Methods) == 0 {
		return param.NotSet("methods")
	}
	for _, m := range p.Methods {
		if err := p.validateMethod(m); err != nil {
			return fmt.Errorf("%s: %w", m, err)
		}
	}
	if err := p.Runner.Validate(); err != nil {
		return err
	}
	if err := p.validateSolver(); err != nil {
		return fmt.Errorf("%s: %w", p.Solver, err)
	}
	if err := p.Neighborhood.Validate(); err != nil {
		return err
	}
	return p.Weights.Validate()
}

func (p Profile) validateMethod(m string) error {
	switch m {
	case MethodHC:
		return p.HillClimbing.Validate()
	case MethodLAHC:
		return p.LateAcceptance.Validate()
	case MethodSA:
		return p.SimulatedAnnealing.Validate()
	case MethodTS:
		return p.TabuSearch.Validate()
	}
	return param.Incorrect("methods", "неизвестная стратегия; доступные: %v", Methods)
}

func (p Profile) validateSolver() error {
	switch p.Solver {
	case SolverSimple:
		return p.Simple.Validate()
	case SolverMultiStart:
		return p.MultiStart.Validate()
	case SolverTokenRing:
		return p.TokenRing.Validate()
	case "":
		return param.NotSet("solver")
	}
	return param.Incorrect("solver", "неизвестный солвер; доступные: %v", Solvers)
}

// SolverConfig возвращает общие параметры выбранного солвера.
func (p Profile) SolverConfig() solver.Config {
	switch p.Solver {
	case SolverMultiStart:
		return p.MultiStart.Config
	case SolverTokenRing:
		return p.TokenRing.Config
	}
	return p.Simple
}

// SetGreedy включает или выключает жадное начальное решение у всех солверов.
func (p *Profile) SetGreedy(on bool) {
	p.Simple.Greedy = on
	p.MultiStart.Greedy = on
	p.TokenRing.Greedy = on
}

// RunnerConfig — параметры раннера с бюджетом, пересчитанным под число работ.
func (p Profile) RunnerConfig(jobs int) runner.Config {
	cfg := p.Runner
	if cfg.MaxEvaluations == 0 && p.EvaluationsPerJob > 0 {
		cfg.MaxEvaluations = p.EvaluationsPerJob * uint64(jobs)
	}
	return cfg
}

// Clone возвращает копию без общих срезов.
func (p Profile) Clone() Profile {
	p.Methods = slices.Clone(p.Methods)
	return p
}

// Decode накладывает YAML-документ на значения по умолчанию и проверяет результат.
func Decode(r io.Reader) (Profile, error) {
	p := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func Load(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, err
	}
	defer f.Close()
	p, err := Decode(f)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Encode записывает профиль в YAML; результат читается Decode.
func (p Profile) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(&p)
}
