/*
Package config provides the configuration of the dispatch engine.

Configuration is loaded with priority environment > file > defaults. The
file is YAML:

	num_workers: 8
	max_workers: 64
	runtime_schedule: dynamic,16
	debug: false

The environment variables FORALL_NUM_WORKERS, FORALL_MAX_WORKERS,
FORALL_SCHEDULE and FORALL_DEBUG override the corresponding fields.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/exascience/forall/internal"
	"github.com/exascience/forall/policy"
)

// Environment variables that override configuration fields.
const (
	EnvNumWorkers = "FORALL_NUM_WORKERS"
	EnvMaxWorkers = "FORALL_MAX_WORKERS"
	EnvSchedule   = "FORALL_SCHEDULE"
	EnvDebug      = "FORALL_DEBUG"
)

// Config is the configuration of a dispatch engine.
type Config struct {
	// NumWorkers is the team size for parallel policies on the host.
	// 0 selects runtime.GOMAXPROCS(0).
	NumWorkers int `yaml:"num_workers" validate:"gte=0"`

	// MaxWorkers bounds every team, and the number of reduction slots
	// per parameter.
	MaxWorkers int `yaml:"max_workers" validate:"gte=1,lte=4096"`

	// RuntimeSchedule is the schedule used for the runtime policy, in the
	// syntax of policy.Parse. It must not be runtime or nested itself.
	RuntimeSchedule string `yaml:"runtime_schedule" validate:"required,schedule"`

	// Debug enables debug logging.
	Debug bool `yaml:"debug"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		NumWorkers:      0,
		MaxWorkers:      internal.DefaultMaxWorkers,
		RuntimeSchedule: "auto",
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("schedule", validateSchedule); err != nil {
		panic(err)
	}
	return v
}

func validateSchedule(fl validator.FieldLevel) bool {
	p, err := policy.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	switch p.Kind() {
	case policy.Runtime, policy.NestedTeam:
		return false
	}
	return true
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %v (%q) fails %q", verrs[0].Namespace(), verrs[0].Value(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Schedule returns the parsed runtime schedule. It falls back to auto if
// the configuration has not been validated and the schedule is invalid.
func (c Config) Schedule() policy.Policy {
	p, err := policy.Parse(c.RuntimeSchedule)
	if err != nil {
		return policy.AutoPolicy()
	}
	return p
}

// Load loads the configuration from the YAML file at path, if path is not
// empty, applies environment overrides, and validates the result. A
// missing file is not an error.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		if err := loadFile(path, &c); err != nil {
			return c, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&c); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func loadFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func loadEnv(c *Config) error {
	if v := os.Getenv(EnvNumWorkers); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%v: %w", EnvNumWorkers, err)
		}
		c.NumWorkers = i
	}
	if v := os.Getenv(EnvMaxWorkers); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%v: %w", EnvMaxWorkers, err)
		}
		c.MaxWorkers = i
	}
	if v := os.Getenv(EnvSchedule); v != "" {
		c.RuntimeSchedule = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%v: %w", EnvDebug, err)
		}
		c.Debug = b
	}
	return nil
}
