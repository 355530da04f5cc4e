// Package config loads modelfilter CLI settings from a YAML file and
// MODELFILTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/modelfilter/internal/ir"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// MODELFILTER_LOG_LEVEL=debug overrides log.level.
const EnvPrefix = "MODELFILTER"

// Config holds all CLI configuration.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
	Engine  EngineConfig  `mapstructure:"engine"`
}

type CatalogConfig struct {
	// Dir is the catalog directory used when a command gets no argument.
	Dir string `mapstructure:"dir"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EngineConfig struct {
	DefaultOp string `mapstructure:"default_op"`
}

// GetDefaults returns a Config with all default values.
func GetDefaults() *Config {
	return &Config{
		Catalog: CatalogConfig{Dir: ""},
		Output:  OutputConfig{Format: "text"},
		Log:     LogConfig{Level: "warn", Format: "text"},
		Engine:  EngineConfig{DefaultOp: string(ir.LogicalAnd)},
	}
}

// Load reads configuration.
//
// With an explicit path the file must exist. Without one, config.yaml is
// searched in the current directory and then in the user config directory
// (e.g. ~/.config/modelfilter); a missing file is fine since every key has
// a default. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, "modelfilter"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("catalog.dir", d.Catalog.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("engine.default_op", d.Engine.DefaultOp)
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output.format %q: must be text or json", c.Output.Format)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if !ir.LogicalOp(strings.ToUpper(c.Engine.DefaultOp)).Valid() {
		return fmt.Errorf("invalid engine.default_op %q: must be AND or OR", c.Engine.DefaultOp)
	}
	return nil
}

// DefaultOp returns the configured logical operator.
func (c *Config) DefaultOp() ir.LogicalOp {
	return ir.LogicalOp(strings.ToUpper(c.Engine.DefaultOp))
}

// NewLogger builds the CLI logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", s, err)
	}
	return level, nil
}
