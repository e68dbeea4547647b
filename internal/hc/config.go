package hc

import "github.com/iolab-uniud/osp-ls/internal/param"

// Config — параметры восхождения к вершине.
type Config struct {
	// MaxIdleIterations — число итераций без строгого улучшения до останова.
	MaxIdleIterations uint64 `yaml:"max_idle_iterations"`
	// Samples — размер случайной выборки на итерацию; 0 — полный перебор окрестности.
	Samples int `yaml:"samples"`
}

func DefaultConfig() Config {
	return Config{
		MaxIdleIterations: 1,
		Samples:           0,
	}
}

func (c Config) Validate() error {
	if err := param.Positive("max_idle_iterations", c.MaxIdleIterations); err != nil {
		return err
	}
	if c.Samples < 0 {
		return param.Incorrect("samples", "должно быть >= 0 (получено %d)", c.Samples)
	}
	return nil
}

// LateConfig — параметры восхождения с поздним принятием.
type LateConfig struct {
	// Steps — задержка: длина кольцевой истории стоимостей.
	Steps int `yaml:"steps"`
	// Samples — число случайных ходов, просматриваемых за итерацию.
	Samples int `yaml:"samples"`
	// MaxIdleIterations — число итераций без строгого улучшения до останова.
	MaxIdleIterations uint64 `yaml:"max_idle_iterations"`
}

func DefaultLateConfig() LateConfig {
	return LateConfig{
		Steps:             10,
		Samples:           10,
		MaxIdleIterations: 10_000,
	}
}

func (c LateConfig) Validate() error {
	if err := param.Positive("steps", c.Steps); err != nil {
		return err
	}
	if err := param.Positive("samples", c.Samples); err != nil {
		return err
	}
	return param.Positive("max_idle_iterations", c.MaxIdleIterations)
}
