package solver

import (
	"context"
	"math/rand"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/solution"
)

// Simple запускает один раннер до его критерия останова.
type Simple[S any, T cost.Number] struct {
	base[S, T]
}

// NewSimple возвращает солвер; r может быть nil и подключён позже через AddRunner.
func NewSimple[S any, T cost.Number](name string, sm solution.Manager[S, T], r Runner[S, T], cfg Config, rng *rand.Rand, opts ...Option) (*Simple[S, T], error) {
	s := &Simple[S, T]{}
	if err := s.init(name, sm, cfg, rng, opts); err != nil {
		return nil, err
	}
	if r != nil {
		s.AddRunner(r)
	}
	return s, nil
}

func (s *Simple[S, T]) Solve(ctx context.Context) (Result[S, T], error) {
	ctx, span, cancel := s.start(ctx, "simple")
	defer span.End()
	defer cancel()

	if err := s.initialState(); err != nil {
		s.finish(span, Result[S, T]{}, err)
		return Result[S, T]{}, err
	}

	r := s.runners[0]
	_, err := s.turn(ctx, 0)
	if err == nil {
		s.keepIfNotWorse(r)
	}
	res := s.result(0)
	s.finish(span, res, err)
	return res, err
}
