// Package config loads daemon and CLI settings.
//
// Settings come from, in increasing priority: built-in defaults,
// <data dir>/config.yaml, and DAYLOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/daylog/internal/filelock"
	"github.com/fentz26/daylog/internal/store"
)

const (
	// FileName is the config file name inside the data directory.
	FileName = "config.yaml"
	// LockName is the daemon's single-writer lock inside the data directory.
	LockName = "daylog.lock"

	DefaultDataDir      = "~/.daylog"
	DefaultListen       = "127.0.0.1:7466"
	DefaultGoalPoll     = "60s"
	minGoalPollInterval = time.Second

	fileMode = 0o600
	dirMode  = 0o700
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Listen           string      `yaml:"listen" mapstructure:"listen"`
	Store            StoreConfig `yaml:"store" mapstructure:"store"`
	GoalPollInterval string      `yaml:"goal_poll_interval" mapstructure:"goal_poll_interval"`
	Journal          bool        `yaml:"journal" mapstructure:"journal"`

	dir string
}

// StoreConfig selects the persistence backend. An empty Path means the
// backend's default location inside the data directory.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path,omitempty" mapstructure:"path"`
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Listen:           DefaultListen,
		Store:            StoreConfig{Driver: store.DriverSQLite},
		GoalPollInterval: DefaultGoalPoll,
		Journal:          true,
		dir:              dir,
	}
}

// Load reads the configuration. An empty dataDir falls back to
// DAYLOG_DATA_DIR and then DefaultDataDir. A missing config file is not an
// error.
func Load(dataDir string) (*Config, error) {
	v := viper.New()
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.path", "")
	v.SetDefault("goal_poll_interval", DefaultGoalPoll)
	v.SetDefault("journal", true)

	v.SetEnvPrefix("DAYLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dataDir == "" {
		dataDir = v.GetString("data_dir")
	}
	dir, err := ExpandDir(dataDir)
	if err != nil {
		return nil, err
	}

	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandDir resolves ~ and makes the path absolute.
func ExpandDir(dir string) (string, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("expanding data dir: %w", err)
	}
	return filepath.Abs(expanded)
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen is required", ErrInvalid)
	}
	switch c.Store.Driver {
	case store.DriverSQLite, store.DriverDiskv:
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalid, c.Store.Driver)
	}
	d, err := time.ParseDuration(c.GoalPollInterval)
	if err != nil {
		return fmt.Errorf("%w: goal_poll_interval: %v", ErrInvalid, err)
	}
	if d < minGoalPollInterval {
		return fmt.Errorf("%w: goal_poll_interval must be at least %v", ErrInvalid, minGoalPollInterval)
	}
	return nil
}

// Dir returns the absolute data directory.
func (c *Config) Dir() string {
	return c.dir
}

// Path returns the config file path.
func (c *Config) Path() string {
	return filepath.Join(c.dir, FileName)
}

// LockPath returns the daemon lock file path.
func (c *Config) LockPath() string {
	return filepath.Join(c.dir, LockName)
}

// StorePath returns where the configured backend keeps its data.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		p, err := homedir.Expand(c.Store.Path)
		if err == nil {
			return p
		}
		return c.Store.Path
	}
	if c.Store.Driver == store.DriverDiskv {
		return filepath.Join(c.dir, "records")
	}
	return filepath.Join(c.dir, "daylog.db")
}

// GoalPoll returns the parsed goal poll interval. Load has validated it.
func (c *Config) GoalPoll() time.Duration {
	d, err := time.ParseDuration(c.GoalPollInterval)
	if err != nil {
		return 0
	}
	return d
}

// Save writes the config file, holding a lock beside it for the rewrite.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, dirMode); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	unlock, err := filelock.Lock(c.Path() + ".lock")
	if err != nil {
		return fmt.Errorf("locking config: %w", err)
	}
	defer unlock()

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	tmp := c.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := os.Rename(tmp, c.Path()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing config file: %w", err)
	}
	return nil
}
