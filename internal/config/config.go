// Package config loads habitr settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/habitr/internal/store"
)

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type ScheduleConfig struct {
	MaxTasksPerHabit int           `yaml:"max_tasks_per_habit"`
	LockTimeout      time.Duration `yaml:"lock_timeout"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// Default returns the settings used when no file or variable overrides them.
func Default() (*Config, error) {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return &Config{
		Database: DatabaseConfig{Path: dbPath},
		Server:   ServerConfig{Addr: ":5000"},
		Log:      LogConfig{Level: "info"},
		Schedule: ScheduleConfig{
			MaxTasksPerHabit: 10000,
			LockTimeout:      5 * time.Second,
		},
	}, nil
}

// DefaultPath returns ~/.config/habitr/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "habitr", "config.yaml"), nil
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("open config: %w", err)
		default:
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	if err := overrideFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideFromEnv(cfg *Config) error {
	if path := os.Getenv("HABITR_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if addr := os.Getenv("HABITR_SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := os.Getenv("HABITR_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if raw := os.Getenv("HABITR_MAX_TASKS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("HABITR_MAX_TASKS: %w", err)
		}
		cfg.Schedule.MaxTasksPerHabit = n
	}
	return nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Schedule.MaxTasksPerHabit < 0 {
		return fmt.Errorf("schedule.max_tasks_per_habit must not be negative, got %d", c.Schedule.MaxTasksPerHabit)
	}
	if c.Schedule.LockTimeout < 0 {
		return fmt.Errorf("schedule.lock_timeout must not be negative, got %s", c.Schedule.LockTimeout)
	}
	return nil
}
