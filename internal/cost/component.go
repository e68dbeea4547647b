package cost

import (
	"errors"
	"fmt"
)

// Component — одна составляющая целевой функции.
type Component[S any, T Number] interface {
	Name() string
	Weight() T
	IsHard() bool
	ComputeCost(st S) T
}

// FuncComponent — компонента на основе обычной функции.
type FuncComponent[S any, T Number] struct {
	ComponentName string
	W             T
	Hard          bool
	Compute       func(st S) T
}

func (f FuncComponent[S, T]) Name() string       { return f.ComponentName }
func (f FuncComponent[S, T]) Weight() T          { return f.W }
func (f FuncComponent[S, T]) IsHard() bool       { return f.Hard }
func (f FuncComponent[S, T]) ComputeCost(st S) T { return f.Compute(st) }

// Breakdown — значение одной компоненты для отчёта.
type Breakdown[T Number] struct {
	Name     string
	Hard     bool
	Raw      T
	Weighted T
}

// Function — взвешенная сумма компонент.
type Function[S any, T Number] struct {
	components []Component[S, T]
}

// NewFunction проверяет компоненты и собирает целевую функцию.
func NewFunction[S any, T Number](components ...Component[S, T]) (*Function[S, T], error) {
	if len(components) == 0 {
		return nil, errors.New("cost: не задано ни одной компоненты")
	}
	seen := make(map[string]bool, len(components))
	for i, c := range components {
		if c == nil {
			return nil, fmt.Errorf("cost: компонента %d не инициализирована (nil)", i)
		}
		if seen[c.Name()] {
			return nil, fmt.Errorf("cost: повторное имя компоненты %q", c.Name())
		}
		if c.Weight() < 0 {
			return nil, fmt.Errorf("cost: вес компоненты %q должен быть >= 0 (получено %v)", c.Name(), c.Weight())
		}
		seen[c.Name()] = true
	}
	return &Function[S, T]{components: components}, nil
}

// Evaluate вычисляет стоимость состояния с нуля.
func (f *Function[S, T]) Evaluate(st S) Structure[T] {
	var (
		violations int
		hard, soft T
	)
	for _, c := range f.components {
		raw := c.ComputeCost(st)
		if c.IsHard() {
			violations += int(raw)
			hard += c.Weight() * raw
		} else {
			soft += c.Weight() * raw
		}
	}
	return New(violations, hard, soft)
}

// Components возвращает разбивку стоимости по компонентам.
func (f *Function[S, T]) Components(st S) []Breakdown[T] {
	out := make([]Breakdown[T], 0, len(f.components))
	for _, c := range f.components {
		raw := c.ComputeCost(st)
		out = append(out, Breakdown[T]{
			Name:     c.Name(),
			Hard:     c.IsHard(),
			Raw:      raw,
			Weighted: c.Weight() * raw,
		})
	}
	return out
}

// Len — число компонент.
func (f *Function[S, T]) Len() int { return len(f.components) }
