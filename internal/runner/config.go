package runner

import (
	"log/slog"
	"time"

	"github.com/iolab-uniud/osp-ls/internal/param"
)

// Config — общие параметры раннера. Нулевые значения отключают ограничение.
type Config struct {
	// MaxEvaluations — бюджет оценённых ходов (0 — без ограничения).
	MaxEvaluations uint64 `yaml:"max_evaluations"`
	// Timeout — ограничение по времени одного прогона (0 — без ограничения).
	Timeout time.Duration `yaml:"timeout"`
	// Debug включает сверку инкрементальной стоимости с полным пересчётом.
	Debug bool `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{}
}

func (c Config) Validate() error {
	if c.Timeout < 0 {
		return param.Incorrect("timeout", "должно быть >= 0 (получено %s)", c.Timeout)
	}
	return nil
}

type options struct {
	logger    *slog.Logger
	observers []Observer
}

// Option настраивает раннер.
type Option func(*options)

// WithLogger задаёт логгер раннера.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver добавляет наблюдателя событий.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}
