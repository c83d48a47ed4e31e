// Package config provides configuration management for DriveNav.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/ini.v1"
)

// Config is the full client configuration.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\drivenav\config
//   - Unix: ~/.config/drivenav/config
//
// INI format:
//
//	[hub]
//	url = https://hub.example.com
//	api_key = <token>
//
//	[transfer]
//	chunk_size_mb = 8
//	max_retries = 10
//	retry_wait_min_seconds = 1
//	retry_wait_max_seconds = 30
//
//	[proxy]
//	mode = no-proxy        ; no-proxy | system | ntlm
//	host =
//	port = 0
//	username =
//	password =
//
//	[log]
//	level = info
//	file =                 ; default: <config dir>/drivenav.log
type Config struct {
	Hub      HubConfig
	Transfer TransferConfig
	Proxy    ProxyConfig
	Log      LogConfig
}

// HubConfig holds hub connection settings.
type HubConfig struct {
	URL    string `ini:"url"`
	APIKey string `ini:"api_key"`
}

// TransferConfig holds the chunked-upload and retry knobs.
// The hub client treats a chunked upload as atomic-or-failed; these
// settings only shape how hard it tries before giving up.
type TransferConfig struct {
	ChunkSizeMB         int `ini:"chunk_size_mb"`
	MaxRetries          int `ini:"max_retries"`
	RetryWaitMinSeconds int `ini:"retry_wait_min_seconds"`
	RetryWaitMaxSeconds int `ini:"retry_wait_max_seconds"`
}

// ProxyConfig holds outbound proxy settings.
type ProxyConfig struct {
	Mode     string `ini:"mode"`
	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	Username string `ini:"username"`
	Password string `ini:"password"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `ini:"level"`
	File  string `ini:"file"`
}

// Validation errors.
var (
	ErrMissingHubURL    = errors.New("hub url is required")
	ErrMissingAPIKey    = errors.New("hub api_key is required")
	ErrInvalidChunkSize = errors.New("transfer chunk_size_mb must be between 1 and 1024")
	ErrInvalidProxyMode = errors.New("proxy mode must be no-proxy, system, or ntlm")
)

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Transfer: TransferConfig{
			ChunkSizeMB:         8,
			MaxRetries:          10,
			RetryWaitMinSeconds: 1,
			RetryWaitMaxSeconds: 30,
		},
		Proxy: ProxyConfig{Mode: "no-proxy"},
		Log:   LogConfig{Level: "info"},
	}
}

// DefaultDir returns the directory holding the config file and log file.
func DefaultDir() (string, error) {
	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		return filepath.Join(userProfile, ".config", "drivenav"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "drivenav"), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config"), nil
}

// Load reads the config file at path and applies defaults for any
// missing settings.
func Load(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := New()
	if err := file.Section("hub").MapTo(&cfg.Hub); err != nil {
		return nil, fmt.Errorf("invalid [hub] section: %w", err)
	}
	if err := file.Section("transfer").MapTo(&cfg.Transfer); err != nil {
		return nil, fmt.Errorf("invalid [transfer] section: %w", err)
	}
	if err := file.Section("proxy").MapTo(&cfg.Proxy); err != nil {
		return nil, fmt.Errorf("invalid [proxy] section: %w", err)
	}
	if err := file.Section("log").MapTo(&cfg.Log); err != nil {
		return nil, fmt.Errorf("invalid [log] section: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, creating the directory if needed.
// The file is written 0600 since it contains the API key.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file := ini.Empty()
	if err := file.Section("hub").ReflectFrom(&c.Hub); err != nil {
		return err
	}
	if err := file.Section("transfer").ReflectFrom(&c.Transfer); err != nil {
		return err
	}
	if err := file.Section("proxy").ReflectFrom(&c.Proxy); err != nil {
		return err
	}
	if err := file.Section("log").ReflectFrom(&c.Log); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := file.SaveTo(tmp); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Chmod(tmp, 0o600); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Hub.URL == "" {
		return ErrMissingHubURL
	}
	if c.Hub.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Transfer.ChunkSizeMB < 1 || c.Transfer.ChunkSizeMB > 1024 {
		return ErrInvalidChunkSize
	}
	switch c.Proxy.Mode {
	case "", "no-proxy", "system", "ntlm":
	default:
		return ErrInvalidProxyMode
	}
	return nil
}

// ChunkSizeBytes returns the upload chunk size in bytes.
func (c *Config) ChunkSizeBytes() int64 {
	return int64(c.Transfer.ChunkSizeMB) * 1024 * 1024
}

// LogFilePath returns the configured log file, or the default next to
// the config file when unset.
func (c *Config) LogFilePath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "drivenav.log"), nil
}
