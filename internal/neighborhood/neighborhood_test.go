package neighborhood

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iolab-uniud/osp-ls/internal/cost"
)

// bits — игрушечное состояние: стоимость равна числу единиц.
type bits struct{ b []bool }

func (s *bits) cost() cost.Structure[int] {
	n := 0
	for _, v := range s.b {
		if v {
			n++
		}
	}
	return cost.New(0, 0, n)
}

func (s *bits) delta(i int) int {
	if s.b[i] {
		return -1
	}
	return 1
}

type flip struct{ I int }

func (m flip) Equal(o flip) bool { return m.I == o.I }
func (m flip) Less(o flip) bool  { return m.I < o.I }
func (m flip) String() string    { return fmt.Sprintf("flip(%d)", m.I) }

type flipExplorer struct{}

func (flipExplorer) RandomMove(rng *rand.Rand, st *bits) (flip, error) {
	if len(st.b) == 0 {
		return flip{}, ErrEmptyNeighborhood
	}
	return flip{I: rng.Intn(len(st.b))}, nil
}

func (flipExplorer) FirstMove(st *bits) (flip, error) {
	if len(st.b) == 0 {
		return flip{}, ErrEmptyNeighborhood
	}
	return flip{I: 0}, nil
}

func (flipExplorer) NextMove(st *bits, mv *flip) bool {
	mv.I++
	return mv.I < len(st.b)
}

func (flipExplorer) FeasibleMove(st *bits, mv flip) bool { return mv.I >= 0 && mv.I < len(st.b) }
func (flipExplorer) MakeMove(st *bits, mv flip)          { st.b[mv.I] = !st.b[mv.I] }
func (flipExplorer) DeltaCost(st *bits, mv flip) cost.Structure[int] {
	return cost.New(0, 0, st.delta(mv.I))
}

type pair struct{ I, J int }

func (m pair) Equal(o pair) bool { return m == o }
func (m pair) Less(o pair) bool  { return m.I < o.I || (m.I == o.I && m.J < o.J) }
func (m pair) String() string    { return fmt.Sprintf("pair(%d,%d)", m.I, m.J) }

type pairExplorer struct{}

func (pairExplorer) RandomMove(rng *rand.Rand, st *bits) (pair, error) {
	n := len(st.b)
	if n < 2 {
		return pair{}, ErrEmptyNeighborhood
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	if i > j {
		i, j = j, i
	}
	return pair{I: i, J: j}, nil
}

func (pairExplorer) FirstMove(st *bits) (pair, error) {
	if len(st.b) < 2 {
		return pair{}, ErrEmptyNeighborhood
	}
	return pair{I: 0, J: 1}, nil
}

func (pairExplorer) NextMove(st *bits, mv *pair) bool {
	mv.J++
	if mv.J < len(st.b) {
		return true
	}
	mv.I++
	mv.J = mv.I + 1
	return mv.J < len(st.b)
}

func (pairExplorer) FeasibleMove(st *bits, mv pair) bool {
	return mv.I >= 0 && mv.I < mv.J && mv.J < len(st.b)
}

func (pairExplorer) MakeMove(st *bits, mv pair) {
	st.b[mv.I] = !st.b[mv.I]
	st.b[mv.J] = !st.b[mv.J]
}

func (pairExplorer) DeltaCost(st *bits, mv pair) cost.Structure[int] {
	return cost.New(0, 0, st.delta(mv.I)+st.delta(mv.J))
}

// emptyExplorer никогда не предлагает ходов.
type emptyExplorer struct{ flipExplorer }

func (emptyExplorer) RandomMove(*rand.Rand, *bits) (flip, error) { return flip{}, ErrEmptyNeighborhood }
func (emptyExplorer) FirstMove(*bits) (flip, error)              { return flip{}, ErrEmptyNeighborhood }

// sampledPairs умеет только случайную выборку, и все её ходы очень выгодны.
type sampledPairs struct{ pairExplorer }

func (sampledPairs) FirstMove(*bits) (pair, error) { return pair{}, ErrNotEnumerable }
func (sampledPairs) DeltaCost(*bits, pair) cost.Structure[int] {
	return cost.New(0, 0, -100)
}

type flipPair = Variant2[flip, pair]

func newUnion(t *testing.T, wFlip, wPair float64) *Union2[*bits, flip, pair, int] {
	t.Helper()
	u, err := NewUnion2[*bits, flip, pair, int](
		Part[*bits, flip, int]{Name: "flip", Explorer: flipExplorer{}, Weight: wFlip},
		Part[*bits, pair, int]{Name: "pair", Explorer: pairExplorer{}, Weight: wPair},
	)
	require.NoError(t, err)
	return u
}

func TestSelectBestTiesGoToFirst(t *testing.T) {
	st := &bits{b: []bool{false, true, true}}

	em, explored, err := SelectBest[*bits, flip, int](flipExplorer{}, st, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, explored)
	assert.Equal(t, flip{I: 1}, em.Move)
	assert.Equal(t, -1, em.Cost.Total)
	assert.True(t, em.Feasible)
}

func TestRejectedMovesAreNotAnEmptyNeighborhood(t *testing.T) {
	st := &bits{b: []bool{true, true}}
	never := Predicate[flip, int](func(flip, cost.Structure[int]) bool { return false })

	em, explored, err := SelectBest[*bits, flip, int](flipExplorer{}, st, never)
	require.NoError(t, err)
	assert.False(t, em.Feasible)
	assert.Equal(t, 2, explored)

	em, explored, err = SelectFirst[*bits, flip, int](flipExplorer{}, st, never)
	require.NoError(t, err)
	assert.False(t, em.Feasible)
	assert.Equal(t, 2, explored)

	em, sampled, err := RandomBest[*bits, flip, int](flipExplorer{}, rand.New(rand.NewSource(1)), st, 5, never)
	require.NoError(t, err)
	assert.False(t, em.Feasible)
	assert.Equal(t, 5, sampled)

	_, _, err = SelectBest[*bits, flip, int](flipExplorer{}, &bits{}, nil)
	assert.ErrorIs(t, err, ErrEmptyNeighborhood)
	_, _, err = SelectFirst[*bits, flip, int](flipExplorer{}, &bits{}, never)
	assert.ErrorIs(t, err, ErrEmptyNeighborhood)
}

func TestSelectFirst(t *testing.T) {
	st := &bits{b: []bool{false, false, true, true}}
	improving := Predicate[flip, int](func(_ flip, d cost.Structure[int]) bool { return d.IsImproving() })

	em, explored, err := SelectFirst[*bits, flip, int](flipExplorer{}, st, improving)
	require.NoError(t, err)
	assert.Equal(t, flip{I: 2}, em.Move)
	assert.Equal(t, 3, explored)
}

func TestRandomFirstFallsBackToBestSampled(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	st := &bits{b: []bool{true, false, false, false}}
	never := Predicate[flip, int](func(flip, cost.Structure[int]) bool { return false })

	em, sampled, err := RandomFirst[*bits, flip, int](flipExplorer{}, rng, st, 50, never)
	require.NoError(t, err)
	assert.Equal(t, 50, sampled)
	assert.True(t, em.Feasible)
	assert.Equal(t, flip{I: 0}, em.Move, "с 50 выборками единственный улучшающий ход должен попасться")

	improving := Predicate[flip, int](func(_ flip, d cost.Structure[int]) bool { return d.IsImproving() })
	em, sampled, err = RandomFirst[*bits, flip, int](flipExplorer{}, rng, st, 50, improving)
	require.NoError(t, err)
	assert.LessOrEqual(t, sampled, 50)
	assert.Equal(t, flip{I: 0}, em.Move)
}

func TestRandomBest(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	st := &bits{b: []bool{false, true, false}}

	em, sampled, err := RandomBest[*bits, flip, int](flipExplorer{}, rng, st, 40, nil)
	require.NoError(t, err)
	assert.Equal(t, 40, sampled)
	assert.Equal(t, flip{I: 1}, em.Move)

	_, _, err = RandomBest[*bits, flip, int](flipExplorer{}, rng, &bits{}, 5, nil)
	assert.ErrorIs(t, err, ErrEmptyNeighborhood)
}

func TestUnionWeightedSelectionConverges(t *testing.T) {
	u := newUnion(t, 1, 3)
	rng := rand.New(rand.NewSource(42))
	st := &bits{b: make([]bool, 6)}

	const draws = 40000
	probs := u.Probabilities()
	counts := make([]int, len(probs))
	for i := 0; i < draws; i++ {
		v, err := u.RandomMove(rng, st)
		require.NoError(t, err)
		counts[v.Kind]++
	}

	for k := range counts {
		assert.InDelta(t, probs[k], float64(counts[k])/draws, 0.015, "компонента %d", k)
	}
}

func TestUnionSkipsEmptyComponents(t *testing.T) {
	u, err := NewUnion2[*bits, flip, pair, int](
		Part[*bits, flip, int]{Name: "empty", Explorer: emptyExplorer{}, Weight: 100},
		Part[*bits, pair, int]{Name: "pair", Explorer: pairExplorer{}, Weight: 1},
	)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	st := &bits{b: make([]bool, 4)}
	for i := 0; i < 200; i++ {
		v, err := u.RandomMove(rng, st)
		require.NoError(t, err)
		assert.Equal(t, 1, v.Kind)
	}

	_, err = u.RandomMove(rng, &bits{b: make([]bool, 1)})
	assert.ErrorIs(t, err, ErrEmptyNeighborhood)

	first, err := u.FirstMove(st)
	require.NoError(t, err)
	assert.Equal(t, "pair", u.KindName(first.Kind))
}

func TestUnionSelectBestIgnoresWeights(t *testing.T) {
	u := newUnion(t, 1000, 0.001)
	st := &bits{b: []bool{true, true, false}}

	em, explored, err := SelectBest[*bits, flipPair, int](u, st, nil)
	require.NoError(t, err)
	assert.Equal(t, 3+3, explored)
	assert.Equal(t, -2, em.Cost.Total)
	assert.Equal(t, 1, em.Move.Kind)
	assert.Equal(t, pair{I: 0, J: 1}, em.Move.B)
}

func TestUnionReportsRandomOnlyComponent(t *testing.T) {
	u, err := NewUnion2[*bits, flip, pair, int](
		Part[*bits, flip, int]{Name: "flip", Explorer: flipExplorer{}, Weight: 1},
		Part[*bits, pair, int]{Name: "sampled", Explorer: sampledPairs{}, Weight: 1},
	)
	require.NoError(t, err)
	st := &bits{b: []bool{false, false, false}}

	_, err = u.FirstMove(st)
	assert.ErrorIs(t, err, ErrNotEnumerable)

	_, _, err = SelectBest[*bits, flipPair, int](u, st, nil)
	assert.ErrorIs(t, err, ErrNotEnumerable)
	_, _, err = SelectFirst[*bits, flipPair, int](u, st, nil)
	assert.ErrorIs(t, err, ErrNotEnumerable)

	// случайная выборка такой компоненте доступна
	v, err := u.RandomMove(rand.New(rand.NewSource(2)), st)
	require.NoError(t, err)
	assert.Contains(t, []int{0, 1}, v.Kind)

	// без неё перебор снова работает
	only, err := u.Without("sampled")
	require.NoError(t, err)
	em, explored, err := SelectBest[*bits, flipPair, int](only, st, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, explored)
	assert.Equal(t, 0, em.Move.Kind)
}

func TestEnumerationIsRepeatable(t *testing.T) {
	u := newUnion(t, 1, 1)
	st := &bits{b: []bool{true, false, true, false}}

	enumerate := func() []string {
		var out []string
		v, err := u.FirstMove(st)
		require.NoError(t, err)
		for {
			out = append(out, v.String())
			if !u.NextMove(st, &v) {
				return out
			}
		}
	}

	first := enumerate()
	assert.Len(t, first, 4+6)
	assert.Equal(t, first, enumerate())
}

func TestUnionDeltaCostMatchesRecomputation(t *testing.T) {
	u := newUnion(t, 1, 1)
	st := &bits{b: []bool{true, false, true, true, false}}

	v, err := u.FirstMove(st)
	require.NoError(t, err)
	for {
		before := st.cost()
		delta := u.DeltaCost(st, v)

		trial := &bits{b: append([]bool(nil), st.b...)}
		require.True(t, u.FeasibleMove(trial, v))
		u.MakeMove(trial, v)
		assert.Equal(t, trial.cost().Sub(before), delta, v.String())

		if !u.NextMove(st, &v) {
			break
		}
	}
}

func TestUnionWithout(t *testing.T) {
	u := newUnion(t, 1, 1)

	only, err := u.Without("flip")
	require.NoError(t, err)
	assert.Equal(t, []string{"pair"}, only.Names())
	assert.Equal(t, 1, only.Len())
	assert.Equal(t, 2, u.Len())
	assert.Equal(t, []float64{0, 1}, only.Probabilities())

	st := &bits{b: make([]bool, 3)}
	v, err := only.FirstMove(st)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Kind)
	assert.False(t, only.FeasibleMove(st, flipPair{Kind: 0, A: flip{I: 0}}))

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		v, err := only.RandomMove(rng, st)
		require.NoError(t, err)
		assert.Equal(t, 1, v.Kind)
	}

	_, err = u.Without("nope")
	assert.Error(t, err)

	_, err = only.Without("pair")
	assert.Error(t, err)
}

func TestNewUnionValidatesParts(t *testing.T) {
	build := func(w1, w2 float64, n2 string, ex2 Explorer[*bits, pair, int]) error {
		_, err := NewUnion2[*bits, flip, pair, int](
			Part[*bits, flip, int]{Name: "flip", Explorer: flipExplorer{}, Weight: w1},
			Part[*bits, pair, int]{Name: n2, Explorer: ex2, Weight: w2},
		)
		return err
	}

	assert.NoError(t, build(1, 0, "pair", pairExplorer{}))
	assert.Error(t, build(0, 0, "pair", pairExplorer{}))
	assert.Error(t, build(-1, 1, "pair", pairExplorer{}))
	assert.Error(t, build(1, math.Inf(1), "pair", pairExplorer{}))
	assert.Error(t, build(1, math.NaN(), "pair", pairExplorer{}))
	assert.Error(t, build(1, 1, "flip", pairExplorer{}))
	assert.Error(t, build(1, 1, "pair", nil))
}

func TestVariantOrdering(t *testing.T) {
	a := flipPair{Kind: 0, A: flip{I: 3}}
	b := flipPair{Kind: 0, A: flip{I: 5}}
	c := flipPair{Kind: 1, B: pair{I: 0, J: 1}}

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
	assert.True(t, a.Equal(flipPair{Kind: 0, A: flip{I: 3}, B: pair{I: 7, J: 8}}))
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(flipPair{Kind: 1, A: flip{I: 3}}))
	assert.Equal(t, "#0:flip(3)", a.String())
	assert.Equal(t, "#1:pair(0,1)", c.String())
}

func TestUnion3EnumeratesActiveComponents(t *testing.T) {
	u, err := NewUnion3[*bits, flip, pair, flip, int](
		Part[*bits, flip, int]{Name: "flip", Explorer: flipExplorer{}, Weight: 1},
		Part[*bits, pair, int]{Name: "pair", Explorer: pairExplorer{}, Weight: 2},
		Part[*bits, flip, int]{Name: "again", Explorer: flipExplorer{}, Weight: 1},
	)
	require.NoError(t, err)
	st := &bits{b: []bool{true, false, true, false}}

	count := func(u *Union3[*bits, flip, pair, flip, int]) map[int]int {
		seen := map[int]int{}
		v, err := u.FirstMove(st)
		require.NoError(t, err)
		for {
			seen[v.Kind]++
			if !u.NextMove(st, &v) {
				return seen
			}
		}
	}
	assert.Equal(t, map[int]int{0: 4, 1: 6, 2: 4}, count(u))

	middle, err := u.Without("pair")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 4, 2: 4}, count(middle))

	last, err := middle.Without("flip")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2: 4}, count(last))

	em, _, err := SelectBest[*bits, Variant3[flip, pair, flip], int](u, st, nil)
	require.NoError(t, err)
	assert.Equal(t, -2, em.Cost.Total)
	assert.Equal(t, 1, em.Move.Kind)

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 100; i++ {
		v, err := middle.RandomMove(rng, st)
		require.NoError(t, err)
		assert.NotEqual(t, 1, v.Kind)

		trial := &bits{b: append([]bool(nil), st.b...)}
		before := trial.cost()
		delta := middle.DeltaCost(trial, v)
		middle.MakeMove(trial, v)
		assert.Equal(t, trial.cost().Sub(before), delta)
	}
}
