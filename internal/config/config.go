package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/harborscm/csvsift/internal/reader"
)

type Config struct {
	LogLevel string            `mapstructure:"log_level"`
	Output   string            `mapstructure:"output"`
	Reader   map[string]string `mapstructure:"reader"`
}

// Load reads csvsift.yaml from the search paths. A missing config file is
// fine; defaults and CSVSIFT_* env vars still apply.
func Load() (*Config, error) {
	return load("")
}

// LoadFile reads configuration from an explicit path. Unlike Load, a
// missing file is an error.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("csvsift")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.csvsift")
	}

	viper.SetDefault("log_level", "info")
	viper.SetDefault("output", "text")

	viper.SetEnvPrefix("CSVSIFT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if path != "" || !notFound {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// ReaderOptions converts the config file's reader section into reader
// options, validated exactly like flag-supplied ones.
func (c *Config) ReaderOptions() (reader.Options, error) {
	opts, err := reader.OptionsFromMap(c.Reader)
	if err != nil {
		return reader.Options{}, fmt.Errorf("reader section: %w", err)
	}
	return opts, nil
}
