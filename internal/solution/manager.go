// Package solution задаёт контракт предметной области, которым пользуются раннеры и солверы.
package solution

import (
	"math/rand"

	"github.com/iolab-uniud/osp-ls/internal/cost"
)

// Manager создаёт, копирует и оценивает состояния задачи.
type Manager[S any, T cost.Number] interface {
	// NewState выделяет пустое состояние.
	NewState() S
	// CopyState копирует src в dst без общих изменяемых данных.
	CopyState(dst, src S)
	// RandomState заполняет st случайным начальным решением.
	RandomState(rng *rand.Rand, st S) error
	// ComputeCost вычисляет стоимость с нуля.
	ComputeCost(st S) cost.Structure[T]
	// CheckConsistency проверяет внутренние инварианты (только для отладки).
	CheckConsistency(st S) bool
}

// Greedy — необязательное расширение Manager с жадным построением решения.
type Greedy[S any] interface {
	GreedyState(rng *rand.Rand, st S) error
}

// Clone возвращает независимую копию состояния.
func Clone[S any, T cost.Number](sm Manager[S, T], st S) S {
	out := sm.NewState()
	sm.CopyState(out, st)
	return out
}
