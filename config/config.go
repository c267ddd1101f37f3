// Package config resolves anytables settings from defaults, the
// environment and command-line overrides.
package config

import (
	"fmt"
	"strings"

	"anyTables/bulk"
	"anyTables/formatters"
	"anyTables/logger"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "ANYTABLES_"

type Config struct {
	Locale       string `koanf:"locale"        validate:"required"`
	Currency     string `koanf:"currency"      validate:"required,len=3,alpha"`
	DatePattern  string `koanf:"date_pattern"  validate:"required"`
	Decimals     int    `koanf:"decimals"      validate:"gte=0,lte=6"`
	ExportDir    string `koanf:"export_dir"    validate:"required"`
	ExportFormat string `koanf:"export_format" validate:"oneof=csv json"`
	LogLevel     string `koanf:"log_level"     validate:"oneof=debug info warn error disabled"`
	LogJSON      bool   `koanf:"log_json"`
	DSN          string `koanf:"dsn"`
}

func Default() Config {
	return Config{
		Locale:       formatters.DefaultLocale,
		Currency:     formatters.DefaultCurrency,
		DatePattern:  formatters.DefaultDatePattern,
		ExportDir:    ".",
		ExportFormat: string(bulk.FormatCSV),
		LogLevel:     string(logger.InfoLevel),
	}
}

// Load layers defaults, ANYTABLES_* variables and overrides, in that
// order, and validates the result. Override keys use koanf tag names.
func Load(overrides map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	for key, v := range overrides {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) FormatOptions() formatters.Options {
	return formatters.Options{
		Locale:      c.Locale,
		Currency:    c.Currency,
		DatePattern: c.DatePattern,
		Decimals:    c.Decimals,
	}
}

func (c *Config) LoggerConfig() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.LogLevel(c.LogLevel)
	lc.JSON = c.LogJSON
	return lc
}
