package solver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/iolab-uniud/osp-ls/internal/cost"
	"github.com/iolab-uniud/osp-ls/internal/param"
	"github.com/iolab-uniud/osp-ls/internal/solution"
)

type MultiStartConfig struct {
	Config `yaml:",inline"`

	MaxRestarts     uint64 `yaml:"max_restarts"`
	MaxIdleRestarts uint64 `yaml:"max_idle_restarts"`
}

func DefaultMultiStartConfig() MultiStartConfig {
	return MultiStartConfig{
		Config:          DefaultConfig(),
		MaxRestarts:     100,
		MaxIdleRestarts: 10,
	}
}

func (c MultiStartConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if err := param.Positive("max_restarts", c.MaxRestarts); err != nil {
		return err
	}
	return param.Positive("max_idle_restarts", c.MaxIdleRestarts)
}

// MultiStart по очереди запускает раннеры; после каждого полного круга
// текущее решение заменяется случайным.
type MultiStart[S any, T cost.Number] struct {
	base[S, T]
	ms MultiStartConfig

	restart      uint64
	idleRestarts uint64
}

func NewMultiStart[S any, T cost.Number](name string, sm solution.Manager[S, T], cfg MultiStartConfig, rng *rand.Rand, opts ...Option) (*MultiStart[S, T], error) {
	s := &MultiStart[S, T]{ms: cfg}
	if err := s.init(name, sm, cfg.Config, rng, opts); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MultiStart[S, T]) Restarts() uint64 { return s.restart }

func (s *MultiStart[S, T]) IdleRestarts() uint64 { return s.idleRestarts }

// Solve прерывание не считает ошибкой и возвращает лучшее найденное решение.
func (s *MultiStart[S, T]) Solve(ctx context.Context) (Result[S, T], error) {
	ctx, span, cancel := s.start(ctx, "multi_start")
	defer span.End()
	defer cancel()

	res, err := s.solve(ctx)
	s.finish(span, res, err)
	return res, err
}

func (s *MultiStart[S, T]) solve(ctx context.Context) (Result[S, T], error) {
	if err := s.ms.Validate(); err != nil {
		return Result[S, T]{}, fmt.Errorf("solver %q: %w", s.name, err)
	}
	if err := s.initialState(); err != nil {
		return Result[S, T]{}, err
	}
	s.restart, s.idleRestarts = 0, 0

	cur := 0
	idle := true
	for !s.stopped(ctx) {
		if _, err := s.turn(ctx, cur); err != nil {
			return s.result(s.restart), err
		}
		if s.keepIfNotWorse(s.runners[cur]) {
			idle = false
		}
		if s.stopped(ctx) {
			break
		}

		cur = (cur + 1) % len(s.runners)
		if cur == 0 {
			s.restart++
			if idle {
				s.idleRestarts++
			} else {
				s.idleRestarts = 0
			}
			idle = true
			s.log.Debug("рестарт",
				slog.Uint64("restart", s.restart),
				slog.Uint64("idle_restarts", s.idleRestarts),
				slog.Any("best", s.bestCost.Total),
			)
			if err := s.reseed(); err != nil {
				return s.result(s.restart), err
			}
		}
		if s.idleRestarts >= s.ms.MaxIdleRestarts || s.restart >= s.ms.MaxRestarts {
			break
		}
	}
	return s.result(s.restart), nil
}
