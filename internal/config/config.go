package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"daybook/internal/kv"
)

// EnvConfigPath overrides the default config path when set.
const EnvConfigPath = "DAYBOOK_CONFIG"

// StoreConfig selects the key-value backend tasks are persisted into.
type StoreConfig struct {
	// Driver is one of "memory", "dir", "sqlite".
	Driver string `yaml:"driver" json:"driver"`
	// Path is the data directory (dir) or database file (sqlite).
	Path string `yaml:"path" json:"path"`
}

// BackupConfig controls periodic snapshots of the persisted entries.
type BackupConfig struct {
	// Schedule is a cron expression (e.g. "0 3 * * *"). Empty disables the job.
	Schedule string `yaml:"schedule" json:"schedule"`
	Dir      string `yaml:"dir" json:"dir"`
	// Keep is the number of snapshots retained; older ones are pruned.
	Keep int `yaml:"keep" json:"keep"`
}

// CaptureConfig describes the PNG snapshot of the month page.
type CaptureConfig struct {
	URL            string `yaml:"url" json:"url"`
	Output         string `yaml:"output" json:"output"`
	Width          int    `yaml:"width" json:"width"`
	Height         int    `yaml:"height" json:"height"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for `daybook serve`.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Store   StoreConfig   `yaml:"store" json:"store"`
	Backup  BackupConfig  `yaml:"backup" json:"backup"`
	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// ICSCacheDir caches remote calendars fetched by `daybook import`.
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DataDir is the default base directory for daybook state.
func DataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "daybook")
	}
	return "./daybook-data"
}

// DefaultPath is where the config file lives unless overridden.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(DataDir(), "config.yaml")
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	base := DataDir()
	return &Config{
		Listen:   "127.0.0.1:8080",
		LogLevel: "info",
		Store: StoreConfig{
			Driver: kv.DriverDir,
			Path:   filepath.Join(base, "data"),
		},
		Backup: BackupConfig{
			Schedule: "0 3 * * *",
			Dir:      filepath.Join(base, "backups"),
			Keep:     14,
		},
		Capture: CaptureConfig{
			URL:            "http://127.0.0.1:8080/calendar",
			Output:         filepath.Join(base, "month.png"),
			Width:          1024,
			Height:         768,
			TimeoutSeconds: 30,
		},
		ICSCacheDir: filepath.Join(base, "ics-cache"),
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		c.LogLevel = def.LogLevel
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case kv.DriverMemory, kv.DriverDir:
	case kv.DriverSQLite:
		if c.Store.Path == "" {
			c.Store.Path = filepath.Join(DataDir(), "daybook.sqlite")
		}
	default:
		c.Store.Driver = def.Store.Driver
	}
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}

	if c.Backup.Dir == "" {
		c.Backup.Dir = def.Backup.Dir
	}
	if c.Backup.Keep <= 0 {
		c.Backup.Keep = def.Backup.Keep
	}

	if c.Capture.URL == "" {
		c.Capture.URL = def.Capture.URL
	}
	if c.Capture.Output == "" {
		c.Capture.Output = def.Capture.Output
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = def.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = def.Capture.Height
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = def.Capture.TimeoutSeconds
	}

	if c.ICSCacheDir == "" {
		c.ICSCacheDir = def.ICSCacheDir
	}
}

// Validate reports settings Normalize cannot repair.
func (c *Config) Validate() error {
	if c.Backup.Schedule != "" {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			return fmt.Errorf("config: invalid backup schedule %q: %w", c.Backup.Schedule, err)
		}
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "") != (c.BasicAuth.Password == "") {
		return errors.New("config: basic_auth needs both username and password")
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: write a default config with 0600 perms
//     (creating the parent directory) and return it.
//   - If the file exists: unmarshal, normalize and validate.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory with 0700.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".daybook-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
