// Package neighborhood описывает протокол окрестностей: генерацию, перебор,
// проверку и применение ходов, а также оценку приращения стоимости.
package neighborhood

import (
	"errors"
	"math/rand"

	"github.com/iolab-uniud/osp-ls/internal/cost"
)

var (
	// ErrEmptyNeighborhood — в текущем состоянии нет ни одного допустимого хода.
	// Это штатный сигнал, а не авария: раннер завершает фазу поиска.
	ErrEmptyNeighborhood = errors.New("neighborhood: окрестность пуста")

	// ErrNotEnumerable — окрестность поддерживает только случайную выборку.
	ErrNotEnumerable = errors.New("neighborhood: детерминированный перебор не реализован")
)

// Move — требования к типу хода: равенство, полный порядок и печать.
// Ходы — значения; перебор изменяет ход на месте через указатель.
type Move[M any] interface {
	Equal(other M) bool
	Less(other M) bool
	String() string
}

// Explorer — окрестность одного вида ходов над состоянием S.
type Explorer[S any, M Move[M], T cost.Number] interface {
	// RandomMove возвращает случайный допустимый ход или ErrEmptyNeighborhood.
	RandomMove(rng *rand.Rand, st S) (M, error)
	// FirstMove начинает детерминированный перебор.
	FirstMove(st S) (M, error)
	// NextMove переходит к следующему ходу; false — перебор окончен.
	NextMove(st S, mv *M) bool
	FeasibleMove(st S, mv M) bool
	MakeMove(st S, mv M)
	// DeltaCost не изменяет состояние.
	DeltaCost(st S, mv M) cost.Structure[T]
}

// EvaluatedMove — ход вместе с приращением стоимости.
type EvaluatedMove[M any, T cost.Number] struct {
	Move     M
	Cost     cost.Structure[T]
	Feasible bool
}

// Predicate отбирает ходы по значению хода и его приращению. nil принимает всё.
type Predicate[M any, T cost.Number] func(mv M, delta cost.Structure[T]) bool

func (p Predicate[M, T]) holds(mv M, delta cost.Structure[T]) bool {
	return p == nil || p(mv, delta)
}
