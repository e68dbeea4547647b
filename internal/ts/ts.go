// Package ts — поиск с запретами поверх общего цикла локального поиска.
package ts

import (
	"container/heap"
	"log/slog"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/neighborhood"
	"github.com/iolab-uniud/osp-ls/internal/runner"
)

// InverseFunc сообщает, отменяет ли ход mv ранее применённый ход listed.
type InverseFunc[M any] func(listed, mv M) bool

// SameMove — отношение обратности по умолчанию: запрещено повторять тот же ход.
func SameMove[M neighborhood.Move[M]](listed, mv M) bool { return listed.Equal(mv) }

// TabuSearch выбирает лучший незапрещённый ход и всегда его применяет.
type TabuSearch[S any, M neighborhood.Move[M], T cost.Number] struct {
	Cfg     Config
	Inverse InverseFunc[M]

	list tabuList[M]
}

// New возвращает стратегию; при inverse == nil используется SameMove.
func New[S any, M neighborhood.Move[M], T cost.Number](cfg Config, inverse InverseFunc[M]) (*TabuSearch[S, M, T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if inverse == nil {
		inverse = SameMove[M]
	}
	return &TabuSearch[S, M, T]{Cfg: cfg, Inverse: inverse}, nil
}

func (t *TabuSearch[S, M, T]) Name() string { return "tabu_search" }

func (t *TabuSearch[S, M, T]) Validate() error { return t.Cfg.Validate() }

// Tabu — число записей в списке запретов.
func (t *TabuSearch[S, M, T]) Tabu() int { return t.list.Len() }

func (t *TabuSearch[S, M, T]) InitializeRun(*runner.Runner[S, M, T]) {
	t.list = t.list[:0]
}

func (t *TabuSearch[S, M, T]) SelectMove(r *runner.Runner[S, M, T]) (neighborhood.EvaluatedMove[M, T], int, error) {
	aspiration := r.BestCost().Sub(r.CurrentCost())
	iteration := r.Iteration()
	accept := func(mv M, delta cost.Structure[T]) bool {
		return t.allowed(mv, delta, aspiration, iteration)
	}
	if t.Cfg.NeighborsPerIter > 0 {
		return neighborhood.RandomBest(r.Explorer(), r.Rand(), r.State(), t.Cfg.NeighborsPerIter, accept)
	}
	return neighborhood.SelectBest(r.Explorer(), r.State(), accept)
}

// allowed: ход запрещён, если он обращает действующую запись и не ведёт
// к строго лучшему, чем известное, решению (критерий аспирации).
func (t *TabuSearch[S, M, T]) allowed(mv M, delta, aspiration cost.Structure[T], iteration uint64) bool {
	if delta.Less(aspiration) {
		return true
	}
	for _, e := range t.list {
		if e.expires > iteration && t.Inverse(e.move, mv) {
			return false
		}
	}
	return true
}

func (t *TabuSearch[S, M, T]) AcceptableMove(*runner.Runner[S, M, T], neighborhood.EvaluatedMove[M, T]) bool {
	return true
}

// CompleteMove вычищает истёкшие записи и добавляет применённый ход.
func (t *TabuSearch[S, M, T]) CompleteMove(r *runner.Runner[S, M, T], em neighborhood.EvaluatedMove[M, T]) {
	iteration := r.Iteration()
	t.list.evict(iteration)

	tenure := t.Cfg.MinTenure
	if spread := t.Cfg.MaxTenure - t.Cfg.MinTenure; spread > 0 {
		tenure += r.Rand().Intn(spread + 1)
	}
	heap.Push(&t.list, tabuEntry[M]{move: em.Move, expires: iteration + 1 + uint64(tenure)})
}

func (t *TabuSearch[S, M, T]) CompleteIteration(*runner.Runner[S, M, T]) {}

func (t *TabuSearch[S, M, T]) StopCriterion(r *runner.Runner[S, M, T]) bool {
	return r.Iteration()-r.IterationOfBest() >= t.Cfg.MaxIdleIterations
}

func (t *TabuSearch[S, M, T]) AtTimeoutExpired(r *runner.Runner[S, M, T]) {
	r.Logger().Debug("поиск с запретами прерван", slog.Int("tabu", t.list.Len()), slog.Uint64("iteration", r.Iteration()))
}

type tabuEntry[M any] struct {
	move    M
	expires uint64
}

// tabuList — min-куча записей по итерации истечения.
type tabuList[M any] []tabuEntry[M]

func (l tabuList[M]) Len() int           { return len(l) }
func (l tabuList[M]) Less(i, j int) bool { return l[i].expires < l[j].expires }
func (l tabuList[M]) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

func (l *tabuList[M]) Push(x any) { *l = append(*l, x.(tabuEntry[M])) }

func (l *tabuList[M]) Pop() any {
	old := *l
	n := len(old)
	e := old[n-1]
	*l = old[:n-1]
	return e
}

// evict удаляет записи, истёкшие к итерации iteration.
func (l *tabuList[M]) evict(iteration uint64) {
	for l.Len() > 0 && (*l)[0].expires <= iteration {
		heap.Pop(l)
	}
}
