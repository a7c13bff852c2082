package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Output formats understood by render.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatDump = "dump"
)

// Config is the resolved CLI configuration.
type Config struct {
	Model     string  `yaml:"model"`
	Count     int     `yaml:"count"     validate:"min=1,max=10000"`
	Recursion int     `yaml:"recursion" validate:"min=0,max=64"`
	Seed      *uint64 `yaml:"seed"`
	Format    string  `yaml:"format"    validate:"oneof=yaml json dump"`
	LogLevel  string  `yaml:"logLevel"  validate:"oneof=debug info warn error disabled"`
}

func defaultConfig() Config {
	return Config{
		Count:    1,
		Format:   FormatYAML,
		LogLevel: "warn",
	}
}

// loadConfig starts from the defaults, applies the YAML file at path (if
// any), then every flag the user set explicitly, and validates the result.
func loadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyFlags(&cfg, flags); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyFlags(cfg *Config, flags *pflag.FlagSet) error {
	var err error
	if flags.Changed("count") {
		if cfg.Count, err = flags.GetInt("count"); err != nil {
			return err
		}
	}
	if flags.Changed("recursion") {
		if cfg.Recursion, err = flags.GetInt("recursion"); err != nil {
			return err
		}
	}
	if flags.Changed("seed") {
		seed, err := flags.GetUint64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = &seed
	}
	if flags.Changed("format") {
		if cfg.Format, err = flags.GetString("format"); err != nil {
			return err
		}
	}
	if flags.Changed("log-level") {
		if cfg.LogLevel, err = flags.GetString("log-level"); err != nil {
			return err
		}
	}
	return nil
}
