package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iolab-uniud/osp-ls/internal/param"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	src := `
methods: [hc, ts]
solver: tokenring
runner:
  timeout: 2s
tabu_search:
  min_tenure: 3
  max_tenure: 5
token_ring:
  max_rounds: 7
  greedy_init: true
neighborhood:
  swap_rate: 1
  insert_rate: 0
  reverse_rate: 0
`
	p, err := Decode(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{MethodHC, MethodTS}, p.Methods)
	assert.Equal(t, SolverTokenRing, p.Solver)
	assert.Equal(t, 2*time.Second, p.Runner.Timeout)
	assert.Equal(t, 3, p.TabuSearch.MinTenure)
	assert.Equal(t, Default().TabuSearch.MaxIdleIterations, p.TabuSearch.MaxIdleIterations)
	assert.Equal(t, uint64(7), p.TokenRing.MaxRounds)
	assert.Equal(t, Default().TokenRing.MaxIdleRounds, p.TokenRing.MaxIdleRounds)
	assert.True(t, p.SolverConfig().Greedy)
	assert.Equal(t, 0.0, p.Neighborhood.Insert)
}

func TestDecodeEmptyDocument(t *testing.T) {
	p, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("solver: simple\ntemperature: 3\n"))
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	p := Default()
	p.Methods = []string{MethodLAHC}
	p.Solver = SolverMultiStart
	p.Runner.Timeout = 1500 * time.Millisecond

	var sb strings.Builder
	require.NoError(t, p.Encode(&sb))
	again, err := Decode(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Profile)
		want   error
	}{
		{"no methods", func(p *Profile) { p.Methods = nil }, param.ErrNotSet},
		{"unknown method", func(p *Profile) { p.Methods = []string{"ga"} }, param.ErrIncorrectValue},
		{"no solver", func(p *Profile) { p.Solver = "" }, param.ErrNotSet},
		{"unknown solver", func(p *Profile) { p.Solver = "portfolio" }, param.ErrIncorrectValue},
		{"bad selected strategy", func(p *Profile) { p.SimulatedAnnealing.Alpha = 0 }, param.ErrNotSet},
		{"bad selected solver", func(p *Profile) {
			p.Solver = SolverMultiStart
			p.MultiStart.MaxRestarts = 0
		}, param.ErrNotSet},
		{"bad rates", func(p *Profile) { p.Neighborhood.Swap = -1 }, param.ErrIncorrectValue},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Default().Clone()
			tc.modify(&p)
			assert.ErrorIs(t, p.Validate(), tc.want)
		})
	}

	// параметры невыбранной стратегии не проверяются
	p := Default()
	p.TabuSearch.MaxTenure = 0
	assert.NoError(t, p.Validate())
}

func TestRunnerConfigBudget(t *testing.T) {
	p := Default()
	p.EvaluationsPerJob = 10
	assert.Equal(t, uint64(200), p.RunnerConfig(20).MaxEvaluations)

	p.Runner.MaxEvaluations = 7
	assert.Equal(t, uint64(7), p.RunnerConfig(20).MaxEvaluations)
}

func TestSetGreedy(t *testing.T) {
	p := Default()
	p.SetGreedy(true)
	for _, s := range Solvers {
		p.Solver = s
		assert.True(t, p.SolverConfig().Greedy, s)
	}
}
