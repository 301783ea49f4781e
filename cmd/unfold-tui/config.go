package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/unfold/internal/model"
	"github.com/tinytelemetry/unfold/internal/socketrpc"
)

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
	SocketPath      string        `mapstructure:"socket-path"`
	TickInterval    time.Duration `mapstructure:"tick-interval"`
	StepUnit        float64       `mapstructure:"step-unit"`
	TotalUnits      float64       `mapstructure:"total-units"`
	Speed           float64       `mapstructure:"speed"`
	TimelineFile    string        `mapstructure:"timeline-file"`
	ScheduleFile    string        `mapstructure:"schedule-file"`
	LogLevel        string        `mapstructure:"log-level"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("UNFOLD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("refresh-interval", model.DefaultRefreshInterval)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("tick-interval", model.DefaultTickInterval)
	v.SetDefault("step-unit", model.DefaultStepUnit)
	v.SetDefault("total-units", model.DefaultTotalUnits)
	v.SetDefault("speed", model.DefaultSpeed)
	v.SetDefault("timeline-file", "")
	v.SetDefault("schedule-file", "")
	v.SetDefault("log-level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "unfold", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if cfg.RefreshInterval <= 0 {
		return cfg, fmt.Errorf("invalid refresh-interval: %s", cfg.RefreshInterval)
	}
	return cfg, nil
}
