package solver

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/param"
	"github.com/iolab-uniud/osp-ls/internal/solution"
)

type TokenRingConfig struct {
	Config `yaml:",inline"`

	MaxRounds     uint64 `yaml:"max_rounds"`
	MaxIdleRounds uint64 `yaml:"max_idle_rounds"`
}

func DefaultTokenRingConfig() TokenRingConfig {
	return TokenRingConfig{
		Config:        DefaultConfig(),
		MaxRounds:     100,
		MaxIdleRounds: 5,
	}
}

func (c TokenRingConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if err := param.Positive("max_rounds", c.MaxRounds); err != nil {
		return err
	}
	return param.Positive("max_idle_rounds", c.MaxIdleRounds)
}

// TokenRing передаёт одно и то же решение от раннера к раннеру без рестартов.
// Раундом считается каждый ход маркера.
type TokenRing[S any, T cost.Number] struct {
	base[S, T]
	tr TokenRingConfig

	round      uint64
	idleRounds uint64
}

func NewTokenRing[S any, T cost.Number](name string, sm solution.Manager[S, T], cfg TokenRingConfig, rng *rand.Rand, opts ...Option) (*TokenRing[S, T], error) {
	s := &TokenRing[S, T]{tr: cfg}
	if err := s.init(name, sm, cfg.Config, rng, opts); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TokenRing[S, T]) Rounds() uint64 { return s.round }

func (s *TokenRing[S, T]) IdleRounds() uint64 { return s.idleRounds }

func (s *TokenRing[S, T]) Solve(ctx context.Context) (Result[S, T], error) {
	ctx, span, cancel := s.start(ctx, "token_ring")
	defer span.End()
	defer cancel()

	res, err := s.solve(ctx)
	s.finish(span, res, err)
	return res, err
}

func (s *TokenRing[S, T]) solve(ctx context.Context) (Result[S, T], error) {
	if err := s.tr.Validate(); err != nil {
		return Result[S, T]{}, fmt.Errorf("solver %q: %w", s.name, err)
	}
	if err := s.initialState(); err != nil {
		return Result[S, T]{}, err
	}
	s.round, s.idleRounds = 0, 0

	cur := 0
	for !s.stopped(ctx) {
		if _, err := s.turn(ctx, cur); err != nil {
			return s.result(s.round), err
		}
		s.round++
		s.idleRounds++
		if s.keepIfNotWorse(s.runners[cur]) {
			s.idleRounds = 0
		}
		cur = (cur + 1) % len(s.runners)

		if s.idleRounds >= s.tr.MaxIdleRounds || s.round >= s.tr.MaxRounds {
			break
		}
	}
	return s.result(s.round), nil
}
