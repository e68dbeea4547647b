package neighborhood

import (
	"math/rand"

	"github.com/iolab-uniud/osp-ls/internal/cost"
)

// SelectBest перебирает всю окрестность и возвращает ход с минимальным
// приращением среди удовлетворяющих accept. При равенстве побеждает первый.
// Второе значение — число оценённых ходов. Если accept отверг все ходы,
// возвращается недопустимый EvaluatedMove без ошибки: ходы есть, но запрещены.
func SelectBest[S any, M Move[M], T cost.Number](ex Explorer[S, M, T], st S, accept Predicate[M, T]) (EvaluatedMove[M, T], int, error) {
	var best EvaluatedMove[M, T]
	mv, err := ex.FirstMove(st)
	if err != nil {
		return best, 0, err
	}

	explored := 0
	for {
		delta := ex.DeltaCost(st, mv)
		explored++
		if accept.holds(mv, delta) && (!best.Feasible || delta.Less(best.Cost)) {
			best = EvaluatedMove[M, T]{Move: mv, Cost: delta, Feasible: true}
		}
		if !ex.NextMove(st, &mv) {
			break
		}
	}
	return best, explored, nil
}

// SelectFirst возвращает первый в порядке перебора ход, удовлетворяющий accept,
// или недопустимый EvaluatedMove, если таких нет.
func SelectFirst[S any, M Move[M], T cost.Number](ex Explorer[S, M, T], st S, accept Predicate[M, T]) (EvaluatedMove[M, T], int, error) {
	mv, err := ex.FirstMove(st)
	if err != nil {
		return EvaluatedMove[M, T]{}, 0, err
	}

	explored := 0
	for {
		delta := ex.DeltaCost(st, mv)
		explored++
		if accept.holds(mv, delta) {
			return EvaluatedMove[M, T]{Move: mv, Cost: delta, Feasible: true}, explored, nil
		}
		if !ex.NextMove(st, &mv) {
			return EvaluatedMove[M, T]{}, explored, nil
		}
	}
}

// RandomFirst делает не более samples случайных выборок и возвращает первый ход,
// удовлетворяющий accept, а если такого нет — лучший из выбранных.
// Второе значение — фактическое число выборок.
func RandomFirst[S any, M Move[M], T cost.Number](ex Explorer[S, M, T], rng *rand.Rand, st S, samples int, accept Predicate[M, T]) (EvaluatedMove[M, T], int, error) {
	var best EvaluatedMove[M, T]
	if samples < 1 {
		samples = 1
	}

	sampled := 0
	for sampled < samples {
		mv, err := ex.RandomMove(rng, st)
		if err != nil {
			return best, sampled, err
		}
		sampled++

		delta := ex.DeltaCost(st, mv)
		if accept.holds(mv, delta) {
			return EvaluatedMove[M, T]{Move: mv, Cost: delta, Feasible: true}, sampled, nil
		}
		if !best.Feasible || delta.Less(best.Cost) {
			best = EvaluatedMove[M, T]{Move: mv, Cost: delta, Feasible: true}
		}
	}
	return best, sampled, nil
}

// RandomBest возвращает лучший из samples случайных ходов, удовлетворяющих accept.
// Как и в SelectBest, пустой результат отбора — не ошибка.
func RandomBest[S any, M Move[M], T cost.Number](ex Explorer[S, M, T], rng *rand.Rand, st S, samples int, accept Predicate[M, T]) (EvaluatedMove[M, T], int, error) {
	var best EvaluatedMove[M, T]
	if samples < 1 {
		samples = 1
	}

	sampled := 0
	for sampled < samples {
		mv, err := ex.RandomMove(rng, st)
		if err != nil {
			return best, sampled, err
		}
		sampled++

		delta := ex.DeltaCost(st, mv)
		if accept.holds(mv, delta) && (!best.Feasible || delta.Less(best.Cost)) {
			best = EvaluatedMove[M, T]{Move: mv, Cost: delta, Feasible: true}
		}
	}
	return best, sampled, nil
}
