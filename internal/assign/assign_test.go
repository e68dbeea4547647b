package assign

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExampleHasSingleImprovingSwap(t *testing.T) {
	inst := Example()
	sm, err := NewManager(inst)
	require.NoError(t, err)
	ex := NewSwapExplorer(inst)

	st := sm.Identity()
	require.Equal(t, 10, sm.ComputeCost(st).Total)

	var improving []Swap
	mv, err := ex.FirstMove(st)
	require.NoError(t, err)
	for {
		if ex.DeltaCost(st, mv).IsImproving() {
			improving = append(improving, mv)
		}
		if !ex.NextMove(st, &mv) {
			break
		}
	}
	assert.Equal(t, []Swap{{I: 0, J: 1}}, improving)
}

func TestSwapDeltaMatchesRecomputation(t *testing.T) {
	inst := Example()
	sm, err := NewManager(inst)
	require.NoError(t, err)
	ex := NewSwapExplorer(inst)
	rng := rand.New(rand.NewSource(5))

	for trial := 0; trial < 20; trial++ {
		st := sm.NewState()
		require.NoError(t, sm.RandomState(rng, st))
		require.True(t, sm.CheckConsistency(st))

		mv, err := ex.RandomMove(rng, st)
		require.NoError(t, err)
		require.True(t, ex.FeasibleMove(st, mv))

		before := sm.ComputeCost(st)
		delta := ex.DeltaCost(st, mv)
		ex.MakeMove(st, mv)
		assert.Equal(t, sm.ComputeCost(st).Sub(before), delta)
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Instance{}).Validate())
	assert.Error(t, (&Instance{Machine: []int{0}, Cost: [][]int{{1, 2}}}).Validate())
	assert.NoError(t, Example().Validate())
}
