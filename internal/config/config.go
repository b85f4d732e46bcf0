// Package config loads runtime settings from a YAML file, TASKER_*
// environment variables, and built-in defaults, in that order of
// precedence (env over file over defaults).
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	// DBPath is the SQLite database location
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// TokenFile holds the signed-in user id and auth token
	TokenFile string `mapstructure:"token_file" yaml:"token_file"`

	Remote    RemoteConfig    `mapstructure:"remote" yaml:"remote"`
	Sync      SyncConfig      `mapstructure:"sync" yaml:"sync"`
	Probe     ProbeConfig     `mapstructure:"probe" yaml:"probe"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// RemoteConfig points at the sync backend.
type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// Token is sent as a bearer token on every request; empty
	// means unauthenticated requests
	Token string `mapstructure:"token" yaml:"token"`
}

// SyncConfig controls the background trigger.
type SyncConfig struct {
	Interval       time.Duration `mapstructure:"interval" yaml:"interval"`
	Flex           time.Duration `mapstructure:"flex" yaml:"flex"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
}

// ProbeConfig controls reachability probing.
type ProbeConfig struct {
	URL      string        `mapstructure:"url" yaml:"url"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DashboardConfig controls the status WebSocket server.
type DashboardConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}

// LogConfig controls daemon log output.
type LogConfig struct {
	// File receives daemon logs; empty means stderr
	File string `mapstructure:"file" yaml:"file"`

	// MaxSizeMB rotates the log file past this size
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups keeps at most this many rotated files
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// DefaultConfig returns the built-in defaults. Paths live under the
// user's config directory.
func DefaultConfig() *Config {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	dir := filepath.Join(base, "tasker")

	return &Config{
		DBPath:    filepath.Join(dir, "tasker.db"),
		TokenFile: filepath.Join(dir, "token"),
		Remote: RemoteConfig{
			BaseURL: "https://api.tasker.example.com",
			Timeout: 30 * time.Second,
		},
		Sync: SyncConfig{
			Interval:       30 * time.Minute,
			Flex:           5 * time.Minute,
			InitialBackoff: 30 * time.Second,
			MaxBackoff:     15 * time.Minute,
		},
		Probe: ProbeConfig{
			URL:      "https://clients3.google.com/generate_204",
			Interval: 15 * time.Second,
			Timeout:  5 * time.Second,
		},
		Dashboard: DashboardConfig{
			Enabled: false,
			Port:    8787,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "tasker", "config.yaml")
}

// Load reads configuration. A missing file is not an error; defaults and
// environment variables still apply. Pass an empty path to use DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("token_file", d.TokenFile)
	v.SetDefault("remote.base_url", d.Remote.BaseURL)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.token", d.Remote.Token)
	v.SetDefault("sync.interval", d.Sync.Interval)
	v.SetDefault("sync.flex", d.Sync.Flex)
	v.SetDefault("sync.initial_backoff", d.Sync.InitialBackoff)
	v.SetDefault("sync.max_backoff", d.Sync.MaxBackoff)
	v.SetDefault("probe.url", d.Probe.URL)
	v.SetDefault("probe.interval", d.Probe.Interval)
	v.SetDefault("probe.timeout", d.Probe.Timeout)
	v.SetDefault("dashboard.enabled", d.Dashboard.Enabled)
	v.SetDefault("dashboard.port", d.Dashboard.Port)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
}

// WriteDefault writes the default configuration to path, creating parent
// directories. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LogWriter returns the destination for daemon logs: a size-rotated file
// when one is configured, stderr otherwise.
func (c *LogConfig) LogWriter() io.Writer {
	if c.File == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		Compress:   true,
	}
}
