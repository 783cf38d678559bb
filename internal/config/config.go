// Package config loads CLI settings from an optional YAML file and
// BAYESQ_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/roach88/bayesq/internal/dataset"
)

// EnvPrefix prefixes environment overrides, e.g. BAYESQ_PARALLELISM=8.
const EnvPrefix = "BAYESQ"

// Config holds CLI settings. Command-line flags override these.
type Config struct {
	// Format is the output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Verbose enables debug logging of evaluation traces.
	Verbose bool `mapstructure:"verbose"`

	// Cache enables the predicate result cache.
	Cache bool `mapstructure:"cache"`

	// Parallelism bounds concurrent query evaluation in batch commands.
	Parallelism int `mapstructure:"parallelism" validate:"min=1,max=64"`

	// Precision is the number of decimal places probabilities print with.
	Precision int `mapstructure:"precision" validate:"min=0,max=12"`

	// MissingTokens are cell texts read as missing values.
	MissingTokens []string `mapstructure:"missing_tokens"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Format:        "text",
		Parallelism:   4,
		Precision:     6,
		MissingTokens: append([]string(nil), dataset.DefaultMissingTokens...),
	}
}

// Load reads configuration from path (optional) and the environment.
//
// An empty path uses defaults and environment variables only. A path that
// does not exist is an error. ${VAR} placeholders in the file are expanded
// before parsing. The result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	d := Defaults()
	v.SetDefault("format", d.Format)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("cache", d.Cache)
	v.SetDefault("parallelism", d.Parallelism)
	v.SetDefault("precision", d.Precision)
	v.SetDefault("missing_tokens", d.MissingTokens)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config file not found at %s: %w", path, err)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports every violation.
func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
