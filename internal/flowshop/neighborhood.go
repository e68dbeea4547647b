package flowshop

import (
	"github.com/iolab-uniud/osp-ls/internal/neighborhood"
	"github.com/iolab-uniud/osp-ls/internal/param"
)

const (
	KindSwap    = "swap"
	KindInsert  = "insert"
	KindReverse = "reverse"
)

// Kinds — все виды ходов в порядке подключения к объединению.
var Kinds = []string{KindSwap, KindInsert, KindReverse}

// Rates — относительные веса видов ходов; нулевой вес исключает вид из объединения.
type Rates struct {
	Swap    float64 `yaml:"swap_rate"`
	Insert  float64 `yaml:"insert_rate"`
	Reverse float64 `yaml:"reverse_rate"`
}

func DefaultRates() Rates {
	return Rates{Swap: 0.4, Insert: 0.4, Reverse: 0.2}
}

func (r Rates) Validate() error {
	for _, v := range []struct {
		name string
		rate float64
	}{{"swap_rate", r.Swap}, {"insert_rate", r.Insert}, {"reverse_rate", r.Reverse}} {
		if v.rate < 0 {
			return param.Incorrect(v.name, "должно быть >= 0 (получено %f)", v.rate)
		}
	}
	if r.Swap+r.Insert+r.Reverse == 0 {
		return param.NotSet("swap_rate")
	}
	return nil
}

// Drop обнуляет вес вида kind.
func (r Rates) Drop(kind string) (Rates, error) {
	switch kind {
	case KindSwap:
		r.Swap = 0
	case KindInsert:
		r.Insert = 0
	case KindReverse:
		r.Reverse = 0
	default:
		return r, param.Incorrect("drop", "неизвестный вид хода %q", kind)
	}
	return r, nil
}

// Move — ход объединённой окрестности: Kind 0 — обмен (A), 1 — вставка (B),
// 2 — обращение отрезка (C), в порядке Kinds.
type Move = neighborhood.Variant3[Swap, Insert, Reverse]

// Neighborhood — объединённая окрестность задачи.
type Neighborhood = neighborhood.Union3[*Schedule, Swap, Insert, Reverse, int]

// NewNeighborhood собирает объединение окрестностей с собственными буферами.
// Каждому раннеру нужно своё объединение. Вид с нулевым весом отключён.
func NewNeighborhood(m *Manager, r Rates) (*Neighborhood, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return neighborhood.NewUnion3[*Schedule, Swap, Insert, Reverse, int](
		neighborhood.Part[*Schedule, Swap, int]{Name: KindSwap, Explorer: NewSwapExplorer(m), Weight: r.Swap},
		neighborhood.Part[*Schedule, Insert, int]{Name: KindInsert, Explorer: NewInsertExplorer(m), Weight: r.Insert},
		neighborhood.Part[*Schedule, Reverse, int]{Name: KindReverse, Explorer: NewReverseExplorer(m), Weight: r.Reverse},
	)
}

// Inverse сообщает, отменяет ли mv ранее применённый ход listed.
// Обмен и обращение отрезка обратны сами себе, вставка — вставке в обратную сторону.
func Inverse(listed, mv Move) bool {
	if listed.Kind != mv.Kind {
		return false
	}
	switch listed.Kind {
	case 0:
		return listed.A == mv.A
	case 1:
		return listed.B.Inverse() == mv.B
	}
	return listed.C == mv.C
}
