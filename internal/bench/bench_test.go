package bench

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iolab-uniud/osp-ls/internal/config"
	"github.com/iolab-uniud/osp-ls/internal/opt"
	"github.com/iolab-uniud/osp-ls/internal/store"
)

func TestCalcStats(t *testing.T) {
	s := CalcStats([]int{4, 2, 6})
	assert.Equal(t, 3, s.N)
	assert.Equal(t, 2, s.Best)
	assert.Equal(t, 6, s.Worst)
	assert.InDelta(t, 4.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.Std, 1e-9)

	f := CalcStats([]float64{1.5})
	assert.Equal(t, 1.5, f.Best)
	assert.Equal(t, 0.0, f.Std)

	assert.Equal(t, Stats[uint64]{}, CalcStats[uint64](nil))
}

func TestRelativeGap(t *testing.T) {
	assert.InDelta(t, 10.0, RelativeGap(110, 100), 1e-9)
	assert.Equal(t, 0.0, RelativeGap(5, 0))
}

func engineAlgorithm(p config.Profile) Algorithm {
	return Algorithm{
		Name: "hc/simple",
		Factory: func(seed int64) (opt.Optimizer, error) {
			return opt.New(p, seed)
		},
	}
}

func TestRunCasePersistsRuns(t *testing.T) {
	ctx := context.Background()
	p := config.Default()
	p.Methods = []string{config.MethodHC}
	p.EvaluationsPerJob = 20

	st := store.NewMemoryStore()
	require.NoError(t, st.Init(ctx))

	r := Runner{Runs: 3, BaseSeed: 100, Store: st}
	c := Case{Jobs: 6, Machines: 3, InstanceSeed: 7, Tightness: 0.5}
	rec, err := r.RunCase(ctx, c, engineAlgorithm(p))
	require.NoError(t, err)

	assert.Equal(t, "6x3-s7", rec.Instance)
	assert.Equal(t, 3, rec.Runs)
	assert.LessOrEqual(t, float64(rec.CostBest), rec.CostMean)
	assert.GreaterOrEqual(t, rec.GapMean, 0.0)

	runs, err := st.ListRuns(ctx, "6x3-s7")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, run := range runs {
		assert.Equal(t, int64(100+i), run.Seed)
		assert.Equal(t, "hc/simple", run.Algorithm)
		assert.Len(t, run.Permutation, 6)
	}
}

func TestRunCaseFactoryError(t *testing.T) {
	boom := errors.New("boom")
	algo := Algorithm{Name: "x", Factory: func(int64) (opt.Optimizer, error) { return nil, boom }}
	_, err := Runner{Runs: 1}.RunCase(context.Background(), Case{Jobs: 3, Machines: 2}, algo)
	assert.ErrorIs(t, err, boom)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")
	recs := []Record{{Algo: "sa/simple", Instance: "ta001", Jobs: 20, Machines: 5, Runs: 2, CostBest: 1278}}
	require.NoError(t, WriteCSV(path, recs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "algo,instance,jobs,machines,runs,"))
	assert.True(t, strings.HasPrefix(lines[1], "sa/simple,ta001,20,5,2,"))
	assert.Contains(t, lines[1], ",1278,")
}

func TestWriteCSVIntoWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	recs := []Record{{Algo: "hc/simple", Instance: "x", CostMean: 2.5, GapMean: 1.0 / 3}}
	require.NoError(t, WriteCSV("results.csv", recs))

	data, err := os.ReadFile("results.csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), ",2.500000,")
	assert.Contains(t, string(data), ",0.333333,")
}

func TestGeneratedCaseIsReproducible(t *testing.T) {
	c := Case{Jobs: 6, Machines: 3, InstanceSeed: 42, Tightness: 0.5}
	a, b := c.instance(), c.instance()
	assert.Equal(t, a.ProcTimes, b.ProcTimes)
	assert.Equal(t, a.DueDates, b.DueDates)
	assert.Equal(t, "6x3-s42", a.Name)
}
