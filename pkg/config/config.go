// Package config handles device configuration for ecp-runner.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/ecp"
	"github.com/devicelab-dev/ecp-runner/pkg/poll"
	"github.com/devicelab-dev/ecp-runner/pkg/sideload"
)

// Environment variables overriding the config file.
const (
	EnvDeviceIP       = "ECP_DEVICE_IP"
	EnvDeviceUsername = "ECP_DEVICE_USERNAME"
	EnvDevicePassword = "ECP_DEVICE_PASSWORD"
)

// DeviceConfig represents the device configuration (config.yaml).
type DeviceConfig struct {
	IP       string `yaml:"ip"`
	Username string `yaml:"username"` // Developer web server user
	Password string `yaml:"password"`

	// Timing
	PressDelayInMillis int `yaml:"pressDelayInMillis"` // Pause after each key press
	RetryDelayInMillis int `yaml:"retryDelayInMillis"` // Pause between transport retries
	Retries            int `yaml:"retries"`            // Transport retries per request
	TimeoutInMillis    int `yaml:"timeoutInMillis"`    // Per-request HTTP timeout

	Verify VerifyConfig `yaml:"verify"`
}

// VerifyConfig bounds verification polling.
type VerifyConfig struct {
	MaxAttempts   int `yaml:"maxAttempts"`
	DelayInMillis int `yaml:"delayInMillis"`
}

// Default returns a config with every tunable at its default.
func Default() *DeviceConfig {
	return &DeviceConfig{
		Username:           sideload.DefaultUsername,
		PressDelayInMillis: 1000,
		RetryDelayInMillis: 1000,
		Retries:            ecp.DefaultRetries,
		TimeoutInMillis:    int(ecp.DefaultTimeout / time.Millisecond),
		Verify: VerifyConfig{
			MaxAttempts:   poll.DefaultMaxAttempts,
			DelayInMillis: int(poll.DefaultDelay / time.Millisecond),
		},
	}
}

// Load loads configuration from a file. Keys missing from the file keep
// their defaults.
func Load(path string) (*DeviceConfig, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, core.ErrInvalidConfig.WithCause(fmt.Errorf("parse %s: %w", path, err))
	}

	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*DeviceConfig, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Default(), nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return core.ErrInvalidConfig.WithCause(fmt.Errorf("load %s: %w", f, err))
		}
	}
	return nil
}

// ApplyEnv overrides connection settings from the environment.
func (c *DeviceConfig) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDeviceIP)); v != "" {
		c.IP = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDeviceUsername)); v != "" {
		c.Username = v
	}
	if v := os.Getenv(EnvDevicePassword); v != "" {
		c.Password = v
	}
}

// Validate checks the config is usable.
func (c *DeviceConfig) Validate() error {
	var problems []string
	if strings.TrimSpace(c.IP) == "" {
		problems = append(problems, "device ip is required")
	}
	if c.PressDelayInMillis < 0 {
		problems = append(problems, "pressDelayInMillis must not be negative")
	}
	if c.RetryDelayInMillis < 0 {
		problems = append(problems, "retryDelayInMillis must not be negative")
	}
	if c.Retries < 0 {
		problems = append(problems, "retries must not be negative")
	}
	if c.TimeoutInMillis < 0 {
		problems = append(problems, "timeoutInMillis must not be negative")
	}
	if c.Verify.MaxAttempts < 1 {
		problems = append(problems, "verify.maxAttempts must be at least 1")
	}
	if c.Verify.DelayInMillis < 0 {
		problems = append(problems, "verify.delayInMillis must not be negative")
	}
	if len(problems) > 0 {
		return core.ErrInvalidConfig.
			WithMessage("invalid configuration: " + strings.Join(problems, "; ")).
			WithDetails(map[string]interface{}{"problems": problems})
	}
	return nil
}

// PressDelay returns the inter-key delay.
func (c *DeviceConfig) PressDelay() time.Duration {
	return millis(c.PressDelayInMillis)
}

// ClientConfig returns ECP transport settings.
func (c *DeviceConfig) ClientConfig() ecp.ClientConfig {
	return ecp.ClientConfig{
		Retries:    c.Retries,
		RetryDelay: millis(c.RetryDelayInMillis),
		Timeout:    millis(c.TimeoutInMillis),
	}
}

// SideloadConfig returns developer web server settings.
func (c *DeviceConfig) SideloadConfig() sideload.Config {
	return sideload.Config{
		Username: c.Username,
		Password: c.Password,
	}
}

// VerifyOptions returns the poll bounds for verifications.
func (c *DeviceConfig) VerifyOptions() poll.Options {
	return poll.Options{
		MaxAttempts: c.Verify.MaxAttempts,
		Delay:       millis(c.Verify.DelayInMillis),
	}
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
