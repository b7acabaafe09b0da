package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/ohowland/gridfault/internal/pkg/powerflow"
)

// Config is the runtime configuration of gridfault.
type Config struct {
	Solver     Solver     `json:"Solver"`
	Webservice Webservice `json:"Webservice"`
}

// Solver configures the power flow resolver.
type Solver struct {
	BaseMVA     float64           `json:"BaseMVA" validate:"gt=0"`
	FrequencyHz float64           `json:"FrequencyHz" validate:"gt=0"`
	Stages      []powerflow.Stage `json:"Stages" validate:"min=1,dive"`
}

// Webservice configures the HTTP listener.
type Webservice struct {
	Addr string `json:"Addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Solver: Solver{
			BaseMVA:     1,
			FrequencyHz: 50,
			Stages:      powerflow.DefaultStages(),
		},
		Webservice: Webservice{Addr: "localhost:8080"},
	}
}

// Load reads and validates the JSON configuration at path. Fields absent from
// the file keep their default values.
func Load(path string) (Config, error) {
	jsonConfig, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	config := Default()
	config.Solver.Stages = nil
	if err := json.Unmarshal(jsonConfig, &config); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if config.Solver.Stages == nil {
		config.Solver.Stages = powerflow.DefaultStages()
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return config, nil
}

// Validate checks the configuration against its struct constraints.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// ResolverOptions translates the solver section into resolver options.
func (c Config) ResolverOptions() []powerflow.Option {
	return []powerflow.Option{
		powerflow.WithBaseMVA(c.Solver.BaseMVA),
		powerflow.WithFrequency(c.Solver.FrequencyHz),
		powerflow.WithStages(c.Solver.Stages...),
	}
}
