package flowshop

import (
	"fmt"
	"math/rand"
)

func ValidatePermutation(perm []int, n int) error {
	if len(perm) != n {
		return fmt.Errorf("permutation length must be %d (got %d)", n, len(perm))
	}
	seen := make([]bool, n)
	for i, v := range perm {
		if v < 0 || v >= n {
			return fmt.Errorf("perm[%d]=%d out of range [0,%d)", i, v, n)
		}
		if seen[v] {
			return fmt.Errorf("duplicate job id %d in permutation", v)
		}
		seen[v] = true
	}
	return nil
}

// initPermutation заполняет срез значениями [0, 1, 2, ..., n-1].
func initPermutation(p []int) {
	for i := range p {
		p[i] = i
	}
}

// shufflePermutation выполняет случайную перестановку элементов.
func shufflePermutation(p []int, rng *rand.Rand) {
	for i := len(p) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
}

// randomPair возвращает случайные различные позиции i < j.
func randomPair(n int, rng *rand.Rand) (int, int) {
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	if i > j {
		i, j = j, i
	}
	return i, j
}

// applySwap меняет местами элементы в позициях i и j.
func applySwap(p []int, i, j int) {
	p[i], p[j] = p[j], p[i]
}

// applyInsert извлекает элемент из позиции from и вставляет его в позицию to.
func applyInsert(p []int, from, to int) {
	if from == to {
		return
	}
	val := p[from]
	if from < to {
		copy(p[from:to], p[from+1:to+1])
		p[to] = val
		return
	}
	copy(p[to+1:from+1], p[to:from])
	p[to] = val
}

// applyReverse обращает отрезок p[i..j].
func applyReverse(p []int, i, j int) {
	for ; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}
