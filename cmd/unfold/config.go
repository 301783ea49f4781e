package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/unfold/internal/logging"
	"github.com/tinytelemetry/unfold/internal/model"
	"github.com/tinytelemetry/unfold/internal/socketrpc"
)

const (
	defaultTickInterval   = model.DefaultTickInterval
	defaultStepUnit       = model.DefaultStepUnit
	defaultTotalUnits     = model.DefaultTotalUnits
	defaultSpeed          = model.DefaultSpeed
	defaultProfileSamples = model.DefaultProfileSamples
	defaultQueryTimeout   = model.DefaultQueryTimeout
	defaultAPIAddr        = "127.0.0.1:3000"
	defaultLogLevel       = "info"
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	TickInterval   time.Duration `mapstructure:"tick-interval"`
	StepUnit       float64       `mapstructure:"step-unit"`
	TotalUnits     float64       `mapstructure:"total-units"`
	Speed          float64       `mapstructure:"speed"`
	TimelineFile   string        `mapstructure:"timeline-file"`
	ScheduleFile   string        `mapstructure:"schedule-file"`
	APIEnabled     bool          `mapstructure:"api-enabled"`
	APIAddr        string        `mapstructure:"api-addr"`
	SocketPath     string        `mapstructure:"socket-path"`
	DBPath         string        `mapstructure:"db-path"`
	ProfileSamples int           `mapstructure:"profile-samples"`
	QueryTimeout   time.Duration `mapstructure:"query-timeout"`
	LogLevel       string        `mapstructure:"log-level"`
	ConfigPath     string        `mapstructure:"-"` // not from config file
}

// loadConfig layers defaults, the optional YAML file, UNFOLD_* environment
// variables and any flag bindings supplied by the caller.
func loadConfig(configPath string, bind ...func(v *viper.Viper) error) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultDBPath := filepath.Join(home, ".local", "share", "unfold", "profile.duckdb")

	v := viper.New()
	v.SetEnvPrefix("UNFOLD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("tick-interval", defaultTickInterval)
	v.SetDefault("step-unit", defaultStepUnit)
	v.SetDefault("total-units", defaultTotalUnits)
	v.SetDefault("speed", defaultSpeed)
	v.SetDefault("timeline-file", "")
	v.SetDefault("schedule-file", "")
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("profile-samples", defaultProfileSamples)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("log-level", defaultLogLevel)

	for _, b := range bind {
		if err := b(v); err != nil {
			return cfg, fmt.Errorf("binding flags: %w", err)
		}
	}

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
	cfg.ConfigPath = v.ConfigFileUsed()
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		cfg.ConfigPath = ""
	}

	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.SocketPath = expandHome(cfg.SocketPath, home)
	cfg.TimelineFile = expandHome(cfg.TimelineFile, home)
	cfg.ScheduleFile = expandHome(cfg.ScheduleFile, home)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c appConfig) validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("invalid tick-interval: %s", c.TickInterval)
	}
	if !(c.StepUnit > 0) || math.IsInf(c.StepUnit, 0) {
		return fmt.Errorf("invalid step-unit: %v", c.StepUnit)
	}
	if !(c.TotalUnits > 0) || math.IsInf(c.TotalUnits, 0) {
		return fmt.Errorf("invalid total-units: %v", c.TotalUnits)
	}
	if !(c.Speed >= model.MinSpeed && c.Speed <= model.MaxSpeed) {
		return fmt.Errorf("invalid speed: %v (want %v..%v)", c.Speed, model.MinSpeed, model.MaxSpeed)
	}
	if c.ProfileSamples < 2 {
		return fmt.Errorf("invalid profile-samples: %d", c.ProfileSamples)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("invalid query-timeout: %s", c.QueryTimeout)
	}
	if c.APIEnabled && c.APIAddr == "" {
		return errors.New("api-addr is required when api-enabled is set")
	}
	if c.SocketPath == "" {
		return errors.New("socket-path is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
