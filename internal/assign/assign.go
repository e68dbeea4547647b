// Package assign — маленькая задача о назначении работ на позиции станков
// с таблицей стоимостей. Используется как проверочная задача для движка.
package assign

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/neighborhood"
)

// Instance — Cost[slot][job]; Machine[slot] — станок, которому принадлежит позиция.
type Instance struct {
	Machine []int
	Cost    [][]int
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return errors.New("instance is nil")
	}
	n := len(inst.Cost)
	if n == 0 {
		return errors.New("cost table is empty")
	}
	if len(inst.Machine) != n {
		return fmt.Errorf("machine length must be %d (got %d)", n, len(inst.Machine))
	}
	for s, row := range inst.Cost {
		if len(row) != n {
			return fmt.Errorf("cost[%d] length must be %d (got %d)", s, n, len(row))
		}
	}
	return nil
}

func (inst *Instance) Jobs() int { return len(inst.Cost) }

// Example — 2 станка, 3 работы; из начального порядка стоимостью 10
// ровно один обмен улучшает решение (до 6), после него улучшений нет.
func Example() *Instance {
	return &Instance{
		Machine: []int{0, 0, 1},
		Cost: [][]int{
			{4, 1, 5},
			{2, 3, 4},
			{5, 4, 3},
		},
	}
}

// State — Order[slot] = работа на позиции.
type State struct {
	Order []int
}

// Swap меняет местами работы на позициях I < J.
type Swap struct{ I, J int }

func (m Swap) Equal(o Swap) bool { return m == o }
func (m Swap) Less(o Swap) bool  { return m.I < o.I || (m.I == o.I && m.J < o.J) }
func (m Swap) String() string    { return fmt.Sprintf("swap(%d,%d)", m.I, m.J) }

// Manager реализует solution.Manager для задачи о назначении.
type Manager struct {
	inst *Instance
}

func NewManager(inst *Instance) (*Manager, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &Manager{inst: inst}, nil
}

func (m *Manager) NewState() *State {
	return &State{Order: make([]int, m.inst.Jobs())}
}

// Identity возвращает состояние с порядком 0, 1, ..., n-1.
func (m *Manager) Identity() *State {
	st := m.NewState()
	for i := range st.Order {
		st.Order[i] = i
	}
	return st
}

func (m *Manager) CopyState(dst, src *State) {
	copy(dst.Order, src.Order)
}

func (m *Manager) RandomState(rng *rand.Rand, st *State) error {
	for i := range st.Order {
		st.Order[i] = i
	}
	rng.Shuffle(len(st.Order), func(i, j int) { st.Order[i], st.Order[j] = st.Order[j], st.Order[i] })
	return nil
}

func (m *Manager) ComputeCost(st *State) cost.Structure[int] {
	total := 0
	for slot, job := range st.Order {
		total += m.inst.Cost[slot][job]
	}
	return cost.New(0, 0, total)
}

func (m *Manager) CheckConsistency(st *State) bool {
	seen := make([]bool, len(st.Order))
	for _, j := range st.Order {
		if j < 0 || j >= len(seen) || seen[j] {
			return false
		}
		seen[j] = true
	}
	return true
}

// SwapExplorer — окрестность обменов двух позиций.
type SwapExplorer struct {
	inst *Instance
}

func NewSwapExplorer(inst *Instance) *SwapExplorer { return &SwapExplorer{inst: inst} }

var _ neighborhood.Explorer[*State, Swap, int] = (*SwapExplorer)(nil)

func (e *SwapExplorer) RandomMove(rng *rand.Rand, st *State) (Swap, error) {
	n := len(st.Order)
	if n < 2 {
		return Swap{}, neighborhood.ErrEmptyNeighborhood
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	if i > j {
		i, j = j, i
	}
	return Swap{I: i, J: j}, nil
}

func (e *SwapExplorer) FirstMove(st *State) (Swap, error) {
	if len(st.Order) < 2 {
		return Swap{}, neighborhood.ErrEmptyNeighborhood
	}
	return Swap{I: 0, J: 1}, nil
}

func (e *SwapExplorer) NextMove(st *State, mv *Swap) bool {
	n := len(st.Order)
	mv.J++
	if mv.J < n {
		return true
	}
	mv.I++
	mv.J = mv.I + 1
	return mv.J < n
}

func (e *SwapExplorer) FeasibleMove(st *State, mv Swap) bool {
	return mv.I >= 0 && mv.I < mv.J && mv.J < len(st.Order)
}

func (e *SwapExplorer) MakeMove(st *State, mv Swap) {
	st.Order[mv.I], st.Order[mv.J] = st.Order[mv.J], st.Order[mv.I]
}

func (e *SwapExplorer) DeltaCost(st *State, mv Swap) cost.Structure[int] {
	c := e.inst.Cost
	a, b := st.Order[mv.I], st.Order[mv.J]
	d := c[mv.I][b] + c[mv.J][a] - c[mv.I][a] - c[mv.J][b]
	return cost.New(0, 0, d)
}
