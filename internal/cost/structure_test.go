package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructureCompareIsLexicographic(t *testing.T) {
	tests := []struct {
		name string
		a, b Structure[int]
		want int
	}{
		{"hard decides", New(1, 10, 0), New(0, 5, 100), 1},
		{"soft breaks tie", New(0, 5, 3), New(0, 5, 4), -1},
		{"equal", New(0, 5, 4), New(2, 5, 4), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestStructureSubAddRoundTrip(t *testing.T) {
	a := New(2, 20, 7)
	b := New(1, 10, 9)

	d := a.Sub(b)
	assert.Equal(t, Structure[int]{Violations: 1, Hard: 10, Soft: -2, Total: 8}, d)
	assert.Equal(t, a, b.Add(d))
}

func TestStructureSigns(t *testing.T) {
	assert.True(t, New(0, 0, -1).IsImproving())
	assert.False(t, New(0, 0, 0).IsImproving())
	assert.True(t, New(0, 0, 0).NotWorsening())
	assert.False(t, New(0, 1, -5).NotWorsening())
	assert.True(t, New(0, 1.0, -5.0).LessTotal(New(0, 0.0, 0.0)))
}

type toy struct{ late, length int }

func TestFunctionEvaluate(t *testing.T) {
	f, err := NewFunction[toy, int](
		FuncComponent[toy, int]{ComponentName: "late", W: 100, Hard: true, Compute: func(s toy) int { return s.late }},
		FuncComponent[toy, int]{ComponentName: "length", W: 2, Compute: func(s toy) int { return s.length }},
	)
	require.NoError(t, err)

	c := f.Evaluate(toy{late: 3, length: 11})
	assert.Equal(t, 3, c.Violations)
	assert.Equal(t, 300, c.Hard)
	assert.Equal(t, 22, c.Soft)
	assert.Equal(t, 322, c.Total)

	parts := f.Components(toy{late: 1, length: 4})
	require.Len(t, parts, 2)
	assert.Equal(t, Breakdown[int]{Name: "length", Raw: 4, Weighted: 8}, parts[1])
}

func TestNewFunctionRejectsBadComponents(t *testing.T) {
	_, err := NewFunction[toy, int]()
	assert.Error(t, err)

	c := FuncComponent[toy, int]{ComponentName: "x", W: 1, Compute: func(toy) int { return 0 }}
	_, err = NewFunction[toy, int](c, c)
	assert.Error(t, err)

	c.W = -1
	_, err = NewFunction[toy, int](c)
	assert.Error(t, err)
}
