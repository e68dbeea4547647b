package flowshop

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/neighborhood"
	"github.com/iolab-uniud/osp-ls/internal/param"
)

// twoJobs: работа 0 — [3 2], работа 1 — [1 4].
func twoJobs(t *testing.T) *Instance {
	t.Helper()
	inst, err := NewInstance(2, 2, []int{3, 2, 1, 4})
	require.NoError(t, err)
	return inst
}

func randomManager(t *testing.T, seed int64, jobs, machines int) *Manager {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	inst := RandomInstance(jobs, machines, 1, 30, rng).WithRandomDueDates(0.5, rng)
	m, err := NewManager(inst, Weights{Makespan: 1, Tardiness: 2, TardyJobs: 50})
	require.NoError(t, err)
	return m
}

func TestEvaluatorMakespan(t *testing.T) {
	ev, err := NewEvaluator(twoJobs(t))
	require.NoError(t, err)

	ms, err := ev.Makespan([]int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 9, ms)

	ms, err = ev.Makespan([]int{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 7, ms)

	_, err = ev.Makespan([]int{1, 1})
	assert.Error(t, err)
}

func TestTardinessComponents(t *testing.T) {
	inst := twoJobs(t)
	inst.DueDates = []int{4, 5}
	m, err := NewManager(inst, DefaultWeights())
	require.NoError(t, err)

	st := m.NewState()
	require.NoError(t, m.SetPermutation(st, []int{1, 0}))
	assert.Equal(t, Objectives{Makespan: 7, Tardiness: 3, TardyJobs: 1}, st.Objectives())
	assert.Equal(t, cost.New(1, 100, 10), m.ComputeCost(st))

	bd := m.Breakdown(st)
	require.Len(t, bd, 3)
	assert.Equal(t, "tardy_jobs", bd[2].Name)
	assert.True(t, bd[2].Hard)
	assert.Equal(t, 100, bd[2].Weighted)
}

func TestGreedyStateNEH(t *testing.T) {
	m, err := NewManager(twoJobs(t), DefaultWeights())
	require.NoError(t, err)

	st := m.NewState()
	require.NoError(t, m.GreedyState(nil, st))
	assert.Equal(t, []int{1, 0}, st.Perm)
	assert.Equal(t, 7, m.ComputeCost(st).Total)
	assert.True(t, m.CheckConsistency(st))
}

func TestGreedyNotWorseThanRandomOnAverage(t *testing.T) {
	m := randomManager(t, 3, 12, 5)
	rng := rand.New(rand.NewSource(3))

	greedy := m.NewState()
	require.NoError(t, m.GreedyState(rng, greedy))
	require.True(t, m.CheckConsistency(greedy))
	g := m.ComputeCost(greedy)

	better := 0
	for i := 0; i < 20; i++ {
		st := m.NewState()
		require.NoError(t, m.RandomState(rng, st))
		if m.ComputeCost(st).Less(g) {
			better++
		}
	}
	assert.Less(t, better, 10)
}

type explorerCase struct {
	name  string
	check func(t *testing.T, m *Manager, st *Schedule, rng *rand.Rand)
}

func deltaCheck[M neighborhood.Move[M]](ex neighborhood.Explorer[*Schedule, M, int]) func(*testing.T, *Manager, *Schedule, *rand.Rand) {
	return func(t *testing.T, m *Manager, st *Schedule, rng *rand.Rand) {
		mv, err := ex.RandomMove(rng, st)
		require.NoError(t, err)
		require.True(t, ex.FeasibleMove(st, mv))

		before := m.ComputeCost(st)
		delta := ex.DeltaCost(st, mv)
		ex.MakeMove(st, mv)
		require.True(t, m.CheckConsistency(st), "%s", mv)
		assert.Equal(t, m.ComputeCost(st).Sub(before), delta, "%s", mv)
	}
}

func TestDeltaCostMatchesRecomputation(t *testing.T) {
	m := randomManager(t, 17, 9, 4)
	u, err := NewNeighborhood(m, DefaultRates())
	require.NoError(t, err)
	cases := []explorerCase{
		{"union", deltaCheck[Move](u)},
		{KindSwap, deltaCheck[Swap](NewSwapExplorer(m))},
		{KindInsert, deltaCheck[Insert](NewInsertExplorer(m))},
		{KindReverse, deltaCheck[Reverse](NewReverseExplorer(m))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(5))
			st := m.NewState()
			require.NoError(t, m.RandomState(rng, st))
			for i := 0; i < 200; i++ {
				tc.check(t, m, st, rng)
			}
		})
	}
}

func enumerate[M neighborhood.Move[M]](t *testing.T, ex neighborhood.Explorer[*Schedule, M, int], st *Schedule) []M {
	t.Helper()
	var out []M
	mv, err := ex.FirstMove(st)
	require.NoError(t, err)
	for {
		out = append(out, mv)
		if !ex.NextMove(st, &mv) {
			return out
		}
	}
}

func TestEnumerationIsCompleteAndRepeatable(t *testing.T) {
	const n = 6
	m := randomManager(t, 23, n, 3)
	st := m.NewState()
	require.NoError(t, m.RandomState(rand.New(rand.NewSource(1)), st))

	swaps := enumerate[Swap](t, NewSwapExplorer(m), st)
	assert.Len(t, swaps, n*(n-1)/2)
	assert.Equal(t, swaps, enumerate[Swap](t, NewSwapExplorer(m), st))

	inserts := enumerate[Insert](t, NewInsertExplorer(m), st)
	assert.Len(t, inserts, n*(n-1))
	assert.Equal(t, inserts, enumerate[Insert](t, NewInsertExplorer(m), st))

	rev := NewReverseExplorer(m)
	reverses := enumerate[Reverse](t, rev, st)
	assert.Len(t, reverses, n*(n-1)/2)
	for i := 1; i < len(reverses); i++ {
		assert.True(t, reverses[i-1].Less(reverses[i]))
	}

	u, err := NewNeighborhood(m, DefaultRates())
	require.NoError(t, err)
	all := enumerate[Move](t, u, st)
	assert.Len(t, all, len(swaps)+len(inserts)+len(reverses))
	assert.Equal(t, 0, all[0].Kind)
	assert.Equal(t, 2, all[len(all)-1].Kind)

	// Полный перебор каждого хода даёт точное приращение.
	for _, mv := range reverses {
		cp := m.NewState()
		m.CopyState(cp, st)
		before := m.ComputeCost(cp)
		delta := rev.DeltaCost(cp, mv)
		rev.MakeMove(cp, mv)
		assert.Equal(t, m.ComputeCost(cp).Sub(before), delta, "%s", mv)
	}
}

func TestSingleJobHasEmptyNeighborhood(t *testing.T) {
	inst, err := NewInstance(1, 2, []int{1, 2})
	require.NoError(t, err)
	m, err := NewManager(inst, DefaultWeights())
	require.NoError(t, err)
	u, err := NewNeighborhood(m, DefaultRates())
	require.NoError(t, err)

	st := m.NewState()
	require.NoError(t, m.RandomState(rand.New(rand.NewSource(1)), st))
	_, err = u.RandomMove(rand.New(rand.NewSource(1)), st)
	assert.ErrorIs(t, err, neighborhood.ErrEmptyNeighborhood)
	_, err = u.FirstMove(st)
	assert.ErrorIs(t, err, neighborhood.ErrEmptyNeighborhood)
}

func TestNeighborhoodRatesAndDrop(t *testing.T) {
	m := randomManager(t, 2, 5, 2)

	u, err := NewNeighborhood(m, DefaultRates())
	require.NoError(t, err)
	assert.Equal(t, Kinds, u.Names())

	r, err := DefaultRates().Drop(KindInsert)
	require.NoError(t, err)
	u, err = NewNeighborhood(m, r)
	require.NoError(t, err)
	assert.Equal(t, []string{KindSwap, KindReverse}, u.Names())

	_, err = DefaultRates().Drop("shuffle")
	assert.ErrorIs(t, err, param.ErrIncorrectValue)
	_, err = NewNeighborhood(m, Rates{})
	assert.ErrorIs(t, err, param.ErrNotSet)
	_, err = NewNeighborhood(m, Rates{Swap: -1, Insert: 1})
	assert.ErrorIs(t, err, param.ErrIncorrectValue)
}

func TestInverse(t *testing.T) {
	assert.True(t, Inverse(Move{Kind: 1, B: Insert{From: 2, To: 5}}, Move{Kind: 1, B: Insert{From: 5, To: 2}}))
	assert.False(t, Inverse(Move{Kind: 1, B: Insert{From: 2, To: 5}}, Move{Kind: 1, B: Insert{From: 2, To: 5}}))
	assert.True(t, Inverse(Move{Kind: 0, A: Swap{I: 1, J: 3}}, Move{Kind: 0, A: Swap{I: 1, J: 3}}))
	assert.False(t, Inverse(Move{Kind: 0, A: Swap{I: 1, J: 3}}, Move{Kind: 2, C: Reverse{I: 1, J: 3}}))
	assert.True(t, Inverse(Move{Kind: 2, C: Reverse{I: 0, J: 4}}, Move{Kind: 2, C: Reverse{I: 0, J: 4}}))
}

func TestDecode(t *testing.T) {
	src := `
name: tiny
proc_times:
  - [3, 2]
  - [1, 4]
due_dates: [4, 5]
`
	inst, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "tiny", inst.Name)
	assert.Equal(t, 2, inst.Jobs)
	assert.Equal(t, 2, inst.Machines)
	assert.Equal(t, 4, inst.Time(1, 1))
	assert.True(t, inst.HasDueDates())

	var sb strings.Builder
	require.NoError(t, inst.Encode(&sb))
	again, err := Decode(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, inst, again)

	_, err = Decode(strings.NewReader("proc_times:\n  - [1, 2]\n  - [3]\n"))
	assert.Error(t, err)
	_, err = Decode(strings.NewReader("proc_times:\n  - [1, 2]\ndue_dates: [1, 2, 3]\n"))
	assert.Error(t, err)
}

func TestInstanceValidate(t *testing.T) {
	_, err := NewInstance(0, 2, nil)
	assert.Error(t, err)
	_, err = NewInstance(2, 2, []int{1, 2, 3})
	assert.Error(t, err)
	_, err = NewInstance(1, 1, []int{-1})
	assert.Error(t, err)
	assert.Equal(t, 10, twoJobs(t).UpperBound())
	assert.Equal(t, 6, twoJobs(t).LowerBound())

	_, err = NewManager(twoJobs(t), Weights{})
	assert.ErrorIs(t, err, param.ErrNotSet)
	_, err = NewManager(twoJobs(t), Weights{Makespan: 1, Tardiness: -1})
	assert.ErrorIs(t, err, param.ErrIncorrectValue)
}
