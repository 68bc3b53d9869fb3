package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// SearchPath is one configured asset search directory.
type SearchPath struct {
	Priority uint32 `mapstructure:"priority"`
	Path     string `mapstructure:"path"`
}

type Config struct {
	SearchPaths        []SearchPath `mapstructure:"search_paths"`
	ModsDir            string       `mapstructure:"mods_dir"`
	Database           string       `mapstructure:"database"`
	UsePartialLoader   bool         `mapstructure:"use_partial_loader"`
	EnablePackages     bool         `mapstructure:"enable_packages"`
	SuppressLoadErrors bool         `mapstructure:"suppress_load_errors"`
	LogLevel           string       `mapstructure:"log_level"`
	LogFormat          string       `mapstructure:"log_format"`
}

// Load initializes and loads configuration from file
func Load(cfgFile string) (*Config, error) {
	// Set defaults
	viper.SetDefault("database", "assetforge.db")
	viper.SetDefault("mods_dir", "mods")
	viper.SetDefault("use_partial_loader", true)
	viper.SetDefault("enable_packages", true)
	viper.SetDefault("suppress_load_errors", false)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	// Config file handling
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName("assetforge")
		viper.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateSearchPaths(cfg.SearchPaths); err != nil {
		return nil, fmt.Errorf("invalid search path configuration: %w", err)
	}

	return &cfg, nil
}

func validateSearchPaths(paths []SearchPath) error {
	for i, sp := range paths {
		if sp.Path == "" {
			return fmt.Errorf("search path %d has an empty path", i)
		}
	}
	return nil
}
