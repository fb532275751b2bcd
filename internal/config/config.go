// Package config loads the enigma command's YAML configuration.
//
// A file is optional. Values missing from it keep their defaults, a few
// ENIGMA_* environment variables override the file, and command-line flags
// override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pollux/enigma/internal/enigma"
	"github.com/pollux/enigma/internal/load"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel       = "ENIGMA_LOG_LEVEL"
	EnvWorkers        = "ENIGMA_WORKERS"
	EnvWorkerFraction = "ENIGMA_WORKER_FRACTION"
	EnvThrottle       = "ENIGMA_THROTTLE"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Machine MachineConfig `yaml:"machine"`
	Bombe   BombeConfig   `yaml:"bombe"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// MachineConfig is the default setting for the encrypt command.
type MachineConfig struct {
	Rotors    []string `yaml:"rotors" validate:"len=3,dive,rotor"`
	Reflector string   `yaml:"reflector" validate:"oneof=B C"`
	Positions string   `yaml:"positions" validate:"len=3,alpha"` // window letters, left first
	Rings     string   `yaml:"rings" validate:"len=3,alpha"`
	Plugboard []string `yaml:"plugboard" validate:"max=10,dive,len=2,alpha"`
}

// BombeConfig is the default search setup for the bombe command.
type BombeConfig struct {
	Rotors         []string    `yaml:"rotors" validate:"min=3,unique,dive,rotor"`
	Reflector      string      `yaml:"reflector" validate:"oneof=B C"`
	AllOrders      bool        `yaml:"all_orders"`
	NoPlugboard    bool        `yaml:"no_plugboard"`
	Workers        int         `yaml:"workers" validate:"gte=0"`
	WorkerFraction float64     `yaml:"worker_fraction" validate:"gt=0,lte=1"`
	LowPriority    bool        `yaml:"low_priority"`
	Throttle       bool        `yaml:"throttle"`
	ThrottleSteps  []load.Step `yaml:"throttle_steps" validate:"dive"`
	Top            int         `yaml:"top" validate:"gte=0"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls the Prometheus endpoint and span export.
type MetricsConfig struct {
	Addr  string `yaml:"addr" validate:"omitempty,hostname_port"`
	Trace bool   `yaml:"trace"`
}

// Default is the configuration used when no file is given.
func Default() Config {
	return Config{
		Machine: MachineConfig{
			Rotors:    []string{"I", "II", "III"},
			Reflector: "B",
			Positions: "AAA",
			Rings:     "AAA",
		},
		Bombe: BombeConfig{
			Rotors:         []string{"I", "II", "III"},
			Reflector:      "B",
			WorkerFraction: load.DefaultFraction,
			LowPriority:    true,
			ThrottleSteps:  load.DefaultSteps(),
			Top:            10,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies the environment and validates
// the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the ENIGMA_* variables that lookup finds.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvWorkers, v, err)
		}
		c.Bombe.Workers = n
	}
	if v, ok := lookup(EnvWorkerFraction); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvWorkerFraction, v, err)
		}
		c.Bombe.WorkerFraction = f
	}
	if v, ok := lookup(EnvThrottle); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvThrottle, v, err)
		}
		c.Bombe.Throttle = b
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("rotor", func(fl validator.FieldLevel) bool {
		_, err := enigma.LookupRotor(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
