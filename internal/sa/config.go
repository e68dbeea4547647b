package sa

import "github.com/iolab-uniud/osp-ls/internal/param"

type Config struct {
	InitialTemp float64 `yaml:"initial_temperature"`
	FinalTemp   float64 `yaml:"final_temperature"`
	Alpha       float64 `yaml:"cooling_rate"`

	// Эпоха заканчивается после NeighborsSampled выборок
	// или NeighborsAccepted принятых ходов, смотря что наступит раньше.
	NeighborsSampled  int `yaml:"neighbors_sampled"`
	NeighborsAccepted int `yaml:"neighbors_accepted"`

	// MaxIdleIterations — дополнительный останов по стагнации; 0 — отключён.
	MaxIdleIterations uint64 `yaml:"max_idle_iterations"`
}

func DefaultConfig() Config {
	return Config{
		InitialTemp: 2000.0,
		FinalTemp:   0.5,
		Alpha:       0.995,

		NeighborsSampled:  100,
		NeighborsAccepted: 100,
	}
}

func (c Config) Validate() error {
	if err := param.Positive("initial_temperature", c.InitialTemp); err != nil {
		return err
	}
	if err := param.Positive("final_temperature", c.FinalTemp); err != nil {
		return err
	}
	if c.FinalTemp >= c.InitialTemp {
		return param.Incorrect("final_temperature",
			"должно быть < initial_temperature (получено %f >= %f)", c.FinalTemp, c.InitialTemp)
	}
	if c.Alpha == 0 {
		return param.NotSet("cooling_rate")
	}
	if c.Alpha < 0 || c.Alpha >= 1 {
		return param.Incorrect("cooling_rate", "должно лежать в интервале (0,1) (получено %f)", c.Alpha)
	}
	if err := param.Positive("neighbors_sampled", c.NeighborsSampled); err != nil {
		return err
	}
	return param.Positive("neighbors_accepted", c.NeighborsAccepted)
}
