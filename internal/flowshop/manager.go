package flowshop

import (
	"cmp"
	"math/rand"
	"slices"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/param"
	"github.com/iolab-uniud/osp-ls/internal/solution"
)

// Weights — веса компонент стоимости. Число опоздавших работ — жёсткая компонента.
type Weights struct {
	Makespan  int `yaml:"makespan"`
	Tardiness int `yaml:"tardiness"`
	TardyJobs int `yaml:"tardy_jobs"`
}

func DefaultWeights() Weights {
	return Weights{Makespan: 1, Tardiness: 1, TardyJobs: 100}
}

func (w Weights) Validate() error {
	if w.Makespan < 0 {
		return param.Incorrect("makespan", "вес должен быть >= 0 (получено %d)", w.Makespan)
	}
	if w.Tardiness < 0 {
		return param.Incorrect("tardiness", "вес должен быть >= 0 (получено %d)", w.Tardiness)
	}
	if w.TardyJobs < 0 {
		return param.Incorrect("tardy_jobs", "вес должен быть >= 0 (получено %d)", w.TardyJobs)
	}
	if w.Makespan+w.Tardiness+w.TardyJobs == 0 {
		return param.NotSet("makespan")
	}
	return nil
}

// Manager — менеджер решений для задачи flow-shop.
type Manager struct {
	inst *Instance
	w    Weights
	fn   *cost.Function[*Schedule, int]
}

var (
	_ solution.Manager[*Schedule, int] = (*Manager)(nil)
	_ solution.Greedy[*Schedule]       = (*Manager)(nil)
)

func NewManager(inst *Instance, w Weights) (*Manager, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	fn, err := cost.NewFunction[*Schedule, int](
		cost.FuncComponent[*Schedule, int]{ComponentName: "makespan", W: w.Makespan, Compute: (*Schedule).Makespan},
		cost.FuncComponent[*Schedule, int]{ComponentName: "tardiness", W: w.Tardiness, Compute: (*Schedule).Tardiness},
		cost.FuncComponent[*Schedule, int]{ComponentName: "tardy_jobs", W: w.TardyJobs, Hard: true, Compute: (*Schedule).TardyJobs},
	)
	if err != nil {
		return nil, err
	}
	return &Manager{inst: inst, w: w, fn: fn}, nil
}

func (m *Manager) Instance() *Instance { return m.inst }

func (m *Manager) Weights() Weights { return m.w }

func (m *Manager) NewState() *Schedule {
	return newSchedule(m.inst.Jobs, m.inst.Machines)
}

func (m *Manager) CopyState(dst, src *Schedule) {
	dst.copyFrom(src)
}

func (m *Manager) RandomState(rng *rand.Rand, st *Schedule) error {
	initPermutation(st.Perm)
	shufflePermutation(st.Perm, rng)
	st.refresh(m.inst, 0)
	return nil
}

// SetPermutation записывает в st заданную перестановку.
func (m *Manager) SetPermutation(st *Schedule, perm []int) error {
	if err := ValidatePermutation(perm, m.inst.Jobs); err != nil {
		return err
	}
	copy(st.Perm, perm)
	st.refresh(m.inst, 0)
	return nil
}

// GreedyState строит решение эвристикой NEH: работы по убыванию суммарного
// времени обработки вставляются в лучшую позицию частичной последовательности.
func (m *Manager) GreedyState(_ *rand.Rand, st *Schedule) error {
	n := m.inst.Jobs
	order := make([]int, n)
	initPermutation(order)
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(m.inst.Work(b), m.inst.Work(a))
	})

	ev := &Evaluator{inst: m.inst, machineCompletion: make([]int, m.inst.Machines)}
	seq := make([]int, 0, n)
	cand := make([]int, 0, n)
	for _, job := range order {
		bestPos := 0
		var best cost.Structure[int]
		for pos := 0; pos <= len(seq); pos++ {
			cand = append(cand[:0], seq[:pos]...)
			cand = append(cand, job)
			cand = append(cand, seq[pos:]...)
			c := m.weigh(ev.sequence(cand))
			if pos == 0 || c.Less(best) {
				bestPos, best = pos, c
			}
		}
		seq = slices.Insert(seq, bestPos, job)
	}

	copy(st.Perm, seq)
	st.refresh(m.inst, 0)
	return nil
}

// ComputeCost пересчитывает кэш состояния с нуля и возвращает стоимость.
func (m *Manager) ComputeCost(st *Schedule) cost.Structure[int] {
	st.refresh(m.inst, 0)
	return m.fn.Evaluate(st)
}

// Breakdown — стоимость по компонентам.
func (m *Manager) Breakdown(st *Schedule) []cost.Breakdown[int] {
	return m.fn.Components(st)
}

// CheckConsistency сверяет кэш состояния с независимым пересчётом.
func (m *Manager) CheckConsistency(st *Schedule) bool {
	if ValidatePermutation(st.Perm, m.inst.Jobs) != nil {
		return false
	}
	ref := m.NewState()
	copy(ref.Perm, st.Perm)
	ref.refresh(m.inst, 0)
	for p := range ref.heads {
		if !slices.Equal(ref.heads[p], st.heads[p]) {
			return false
		}
	}
	if !slices.Equal(ref.tard, st.tard) || !slices.Equal(ref.late, st.late) {
		return false
	}

	ev := &Evaluator{inst: m.inst, machineCompletion: make([]int, m.inst.Machines)}
	return ev.sequence(st.Perm) == st.Objectives()
}

func (m *Manager) weigh(obj Objectives) cost.Structure[int] {
	return cost.New(obj.TardyJobs, m.w.TardyJobs*obj.TardyJobs, m.w.Makespan*obj.Makespan+m.w.Tardiness*obj.Tardiness)
}

// delta — приращение стоимости при переходе от st к последовательности с критериями obj.
func (m *Manager) delta(st *Schedule, obj Objectives) cost.Structure[int] {
	return m.weigh(obj).Sub(m.weigh(st.Objectives()))
}
