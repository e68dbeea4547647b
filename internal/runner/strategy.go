package runner

import (
	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/neighborhood"
)

// Strategy — политика поиска, которой управляет Runner.
// Экземпляр стратегии принадлежит одному раннеру.
type Strategy[S any, M neighborhood.Move[M], T cost.Number] interface {
	Name() string
	// Validate проверяет параметры до первой итерации.
	Validate() error
	InitializeRun(r *Runner[S, M, T])
	// SelectMove возвращает кандидата и число оценённых ходов.
	SelectMove(r *Runner[S, M, T]) (neighborhood.EvaluatedMove[M, T], int, error)
	AcceptableMove(r *Runner[S, M, T], em neighborhood.EvaluatedMove[M, T]) bool
	// CompleteMove вызывается только после применённого хода.
	CompleteMove(r *Runner[S, M, T], em neighborhood.EvaluatedMove[M, T])
	// CompleteIteration вызывается в конце каждой итерации.
	CompleteIteration(r *Runner[S, M, T])
	StopCriterion(r *Runner[S, M, T]) bool
}

// TimeoutHandler — необязательный обработчик прерывания.
type TimeoutHandler[S any, M neighborhood.Move[M], T cost.Number] interface {
	AtTimeoutExpired(r *Runner[S, M, T])
}

// Status — состояние автомата раннера.
type Status int32

const (
	Idle Status = iota
	Initializing
	Running
	Converged
	Interrupted
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Interrupted:
		return "interrupted"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}
