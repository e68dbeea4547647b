package ts

import "github.com/iolab-uniud/osp-ls/internal/param"

type Config struct {
	// Срок табу выбирается равномерно из [MinTenure, MaxTenure].
	MinTenure int `yaml:"min_tenure"`
	MaxTenure int `yaml:"max_tenure"`

	MaxIdleIterations uint64 `yaml:"max_idle_iterations"`

	// NeighborsPerIter — размер случайной выборки; 0 — полный перебор окрестности.
	NeighborsPerIter int `yaml:"neighbors_per_iter"`
}

func DefaultConfig() Config {
	return Config{
		MinTenure: 7,
		MaxTenure: 10,

		MaxIdleIterations: 1000,
		NeighborsPerIter:  0,
	}
}

func (c Config) Validate() error {
	if c.MinTenure < 0 {
		return param.Incorrect("min_tenure", "должно быть >= 0 (получено %d)", c.MinTenure)
	}
	if err := param.Positive("max_tenure", c.MaxTenure); err != nil {
		return err
	}
	if c.MinTenure > c.MaxTenure {
		return param.Incorrect("min_tenure",
			"должно быть <= max_tenure (получено %d > %d)", c.MinTenure, c.MaxTenure)
	}
	if err := param.Positive("max_idle_iterations", c.MaxIdleIterations); err != nil {
		return err
	}
	if c.NeighborsPerIter < 0 {
		return param.Incorrect("neighbors_per_iter", "должно быть >= 0 (получено %d)", c.NeighborsPerIter)
	}
	return nil
}
