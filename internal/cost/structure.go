package cost

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Number — допустимые типы значений стоимости.
type Number interface {
	constraints.Integer | constraints.Float
}

// Structure — агрегированная стоимость решения (или приращение стоимости хода).
// Violations хранится только для отчётов и в Total не входит.
type Structure[T Number] struct {
	Violations int
	Hard       T
	Soft       T
	Total      T
}

// New собирает структуру стоимости, Total = hard + soft.
func New[T Number](violations int, hard, soft T) Structure[T] {
	return Structure[T]{
		Violations: violations,
		Hard:       hard,
		Soft:       soft,
		Total:      hard + soft,
	}
}

// Sub возвращает знаковую разность c - o той же формы.
func (c Structure[T]) Sub(o Structure[T]) Structure[T] {
	return Structure[T]{
		Violations: c.Violations - o.Violations,
		Hard:       c.Hard - o.Hard,
		Soft:       c.Soft - o.Soft,
		Total:      c.Total - o.Total,
	}
}

// Add применяет приращение d к стоимости.
func (c Structure[T]) Add(d Structure[T]) Structure[T] {
	return Structure[T]{
		Violations: c.Violations + d.Violations,
		Hard:       c.Hard + d.Hard,
		Soft:       c.Soft + d.Soft,
		Total:      c.Total + d.Total,
	}
}

// Compare сравнивает лексикографически по (Hard, Soft): -1, 0 или +1.
func (c Structure[T]) Compare(o Structure[T]) int {
	switch {
	case c.Hard < o.Hard:
		return -1
	case c.Hard > o.Hard:
		return 1
	case c.Soft < o.Soft:
		return -1
	case c.Soft > o.Soft:
		return 1
	}
	return 0
}

func (c Structure[T]) Less(o Structure[T]) bool   { return c.Compare(o) < 0 }
func (c Structure[T]) LessEq(o Structure[T]) bool { return c.Compare(o) <= 0 }
func (c Structure[T]) Equal(o Structure[T]) bool  { return c.Compare(o) == 0 }

// LessTotal сравнивает только итоговые значения (нужно отжигу).
func (c Structure[T]) LessTotal(o Structure[T]) bool { return c.Total < o.Total }

// IsImproving — приращение строго уменьшает стоимость.
func (c Structure[T]) IsImproving() bool {
	var zero Structure[T]
	return c.Less(zero)
}

// NotWorsening — приращение не ухудшает стоимость (<= 0).
func (c Structure[T]) NotWorsening() bool {
	var zero Structure[T]
	return c.LessEq(zero)
}

func (c Structure[T]) String() string {
	return fmt.Sprintf("%v (violations %d, hard %v, soft %v)", c.Total, c.Violations, c.Hard, c.Soft)
}
