package flowshop

import (
	"fmt"
	"math/rand"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/neighborhood"
)

// Swap меняет местами работы в позициях I < J.
type Swap struct{ I, J int }

func (m Swap) Equal(o Swap) bool { return m == o }
func (m Swap) Less(o Swap) bool  { return m.I < o.I || (m.I == o.I && m.J < o.J) }
func (m Swap) String() string    { return fmt.Sprintf("swap(%d,%d)", m.I, m.J) }

// Insert переносит работу из позиции From в позицию To.
type Insert struct{ From, To int }

func (m Insert) Equal(o Insert) bool { return m == o }
func (m Insert) Less(o Insert) bool {
	return m.From < o.From || (m.From == o.From && m.To < o.To)
}
func (m Insert) String() string { return fmt.Sprintf("insert(%d->%d)", m.From, m.To) }

// Inverse — ход, возвращающий работу на прежнее место.
func (m Insert) Inverse() Insert { return Insert{From: m.To, To: m.From} }

// Reverse обращает отрезок позиций I < J.
type Reverse struct{ I, J int }

func (m Reverse) Equal(o Reverse) bool { return m == o }
func (m Reverse) Less(o Reverse) bool  { return m.I < o.I || (m.I == o.I && m.J < o.J) }
func (m Reverse) String() string       { return fmt.Sprintf("reverse(%d..%d)", m.I, m.J) }

// scratch — рабочие буферы оценки хода. Окрестность с буферами
// принадлежит одному раннеру и не используется из нескольких горутин.
type scratch struct {
	m   *Manager
	seg []int
	row []int
}

func newScratch(m *Manager) scratch {
	return scratch{m: m, seg: make([]int, m.inst.Jobs), row: make([]int, m.inst.Machines)}
}

// segment копирует позиции lo..hi текущей перестановки в буфер.
func (s scratch) segment(st *Schedule, lo, hi int) []int {
	seg := s.seg[:hi-lo+1]
	copy(seg, st.Perm[lo:hi+1])
	return seg
}

func (s scratch) evaluate(st *Schedule, lo int, seg []int) cost.Structure[int] {
	return s.m.delta(st, st.tail(s.m.inst, lo, seg, s.row))
}

// firstPair и nextPair перебирают пары позиций i < j для Swap и Reverse.
func firstPair(n int) (int, int, error) {
	if n < 2 {
		return 0, 0, neighborhood.ErrEmptyNeighborhood
	}
	return 0, 1, nil
}

func nextPair(n int, i, j *int) bool {
	*j++
	if *j < n {
		return true
	}
	*i++
	*j = *i + 1
	return *j < n
}

type SwapExplorer struct{ scratch }

func NewSwapExplorer(m *Manager) *SwapExplorer { return &SwapExplorer{newScratch(m)} }

var _ neighborhood.Explorer[*Schedule, Swap, int] = (*SwapExplorer)(nil)

func (e *SwapExplorer) RandomMove(rng *rand.Rand, st *Schedule) (Swap, error) {
	if len(st.Perm) < 2 {
		return Swap{}, neighborhood.ErrEmptyNeighborhood
	}
	i, j := randomPair(len(st.Perm), rng)
	return Swap{I: i, J: j}, nil
}

func (e *SwapExplorer) FirstMove(st *Schedule) (Swap, error) {
	i, j, err := firstPair(len(st.Perm))
	return Swap{I: i, J: j}, err
}

func (e *SwapExplorer) NextMove(st *Schedule, mv *Swap) bool {
	return nextPair(len(st.Perm), &mv.I, &mv.J)
}

func (e *SwapExplorer) FeasibleMove(st *Schedule, mv Swap) bool {
	return mv.I >= 0 && mv.I < mv.J && mv.J < len(st.Perm)
}

func (e *SwapExplorer) MakeMove(st *Schedule, mv Swap) {
	applySwap(st.Perm, mv.I, mv.J)
	st.refresh(e.m.inst, mv.I)
}

func (e *SwapExplorer) DeltaCost(st *Schedule, mv Swap) cost.Structure[int] {
	seg := e.segment(st, mv.I, mv.J)
	applySwap(seg, 0, len(seg)-1)
	return e.evaluate(st, mv.I, seg)
}

type InsertExplorer struct{ scratch }

func NewInsertExplorer(m *Manager) *InsertExplorer { return &InsertExplorer{newScratch(m)} }

var _ neighborhood.Explorer[*Schedule, Insert, int] = (*InsertExplorer)(nil)

func (e *InsertExplorer) RandomMove(rng *rand.Rand, st *Schedule) (Insert, error) {
	n := len(st.Perm)
	if n < 2 {
		return Insert{}, neighborhood.ErrEmptyNeighborhood
	}
	from := rng.Intn(n)
	to := rng.Intn(n - 1)
	if to >= from {
		to++
	}
	return Insert{From: from, To: to}, nil
}

func (e *InsertExplorer) FirstMove(st *Schedule) (Insert, error) {
	if len(st.Perm) < 2 {
		return Insert{}, neighborhood.ErrEmptyNeighborhood
	}
	return Insert{From: 0, To: 1}, nil
}

func (e *InsertExplorer) NextMove(st *Schedule, mv *Insert) bool {
	n := len(st.Perm)
	for {
		mv.To++
		if mv.To >= n {
			mv.From++
			mv.To = 0
		}
		if mv.From >= n {
			return false
		}
		if mv.To != mv.From {
			return true
		}
	}
}

func (e *InsertExplorer) FeasibleMove(st *Schedule, mv Insert) bool {
	n := len(st.Perm)
	return mv.From != mv.To && mv.From >= 0 && mv.From < n && mv.To >= 0 && mv.To < n
}

func (e *InsertExplorer) MakeMove(st *Schedule, mv Insert) {
	applyInsert(st.Perm, mv.From, mv.To)
	st.refresh(e.m.inst, min(mv.From, mv.To))
}

func (e *InsertExplorer) DeltaCost(st *Schedule, mv Insert) cost.Structure[int] {
	lo, hi := min(mv.From, mv.To), max(mv.From, mv.To)
	seg := e.segment(st, lo, hi)
	applyInsert(seg, mv.From-lo, mv.To-lo)
	return e.evaluate(st, lo, seg)
}

type ReverseExplorer struct{ scratch }

func NewReverseExplorer(m *Manager) *ReverseExplorer { return &ReverseExplorer{newScratch(m)} }

var _ neighborhood.Explorer[*Schedule, Reverse, int] = (*ReverseExplorer)(nil)

func (e *ReverseExplorer) RandomMove(rng *rand.Rand, st *Schedule) (Reverse, error) {
	if len(st.Perm) < 2 {
		return Reverse{}, neighborhood.ErrEmptyNeighborhood
	}
	i, j := randomPair(len(st.Perm), rng)
	return Reverse{I: i, J: j}, nil
}

func (e *ReverseExplorer) FirstMove(st *Schedule) (Reverse, error) {
	i, j, err := firstPair(len(st.Perm))
	return Reverse{I: i, J: j}, err
}

func (e *ReverseExplorer) NextMove(st *Schedule, mv *Reverse) bool {
	return nextPair(len(st.Perm), &mv.I, &mv.J)
}

func (e *ReverseExplorer) FeasibleMove(st *Schedule, mv Reverse) bool {
	return mv.I >= 0 && mv.I < mv.J && mv.J < len(st.Perm)
}

func (e *ReverseExplorer) MakeMove(st *Schedule, mv Reverse) {
	applyReverse(st.Perm, mv.I, mv.J)
	st.refresh(e.m.inst, mv.I)
}

func (e *ReverseExplorer) DeltaCost(st *Schedule, mv Reverse) cost.Structure[int] {
	seg := e.segment(st, mv.I, mv.J)
	applyReverse(seg, 0, len(seg)-1)
	return e.evaluate(st, mv.I, seg)
}
