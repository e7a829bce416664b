package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/obentoo/versioneye-slack/internal/common/logger"
)

var (
	ErrMissingAPIKey      = errors.New("versioneye API key is not configured: pass --versioneye-key or set versioneye.api_key")
	ErrMissingWebhook     = errors.New("slack webhook is not configured: pass --slack-hook or set slack.hook")
	ErrUnsupportedFormat  = errors.New("unsupported config format: use .yaml, .yml or .toml")
	ErrInvalidRateLimit   = errors.New("versioneye.requests_per_second must be >= 0")
	ErrInvalidMaxRetries  = errors.New("http.max_retries must be >= 0")
	ErrConfigFileNotFound = errors.New("config file not found")
)

const (
	DefaultChannel    = "#general"
	DefaultTimeout    = "30s"
	DefaultMaxRetries = 3
)

// envVarPattern matches ${VAR_NAME} syntax for environment variable substitution
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Config represents the application configuration
type Config struct {
	VersionEye VersionEyeConfig `yaml:"versioneye" toml:"versioneye"`
	Slack      SlackConfig      `yaml:"slack" toml:"slack"`
	Projects   []string         `yaml:"projects,omitempty" toml:"projects,omitempty"`
	Cache      CacheConfig      `yaml:"cache" toml:"cache"`
	HTTP       HTTPConfig       `yaml:"http" toml:"http"`
	Log        LogConfig        `yaml:"log" toml:"log"`
}

// VersionEyeConfig holds API settings
type VersionEyeConfig struct {
	APIKey            string  `yaml:"api_key" toml:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" toml:"requests_per_second,omitempty"`
}

// SlackConfig holds webhook settings
type SlackConfig struct {
	Hook    string `yaml:"hook" toml:"hook"`
	Channel string `yaml:"channel" toml:"channel"`
}

// CacheConfig holds the notification cache location (default: ~/.versioneye.slack.cache)
type CacheConfig struct {
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`
}

// HTTPConfig holds transport settings for VersionEye requests
type HTTPConfig struct {
	Timeout    string `yaml:"timeout" toml:"timeout"`
	MaxRetries int    `yaml:"max_retries" toml:"max_retries"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level,omitempty" toml:"level,omitempty"`
	File  bool   `yaml:"file,omitempty" toml:"file,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Slack: SlackConfig{
			Channel: DefaultChannel,
		},
		HTTP: HTTPConfig{
			Timeout:    DefaultTimeout,
			MaxRetries: DefaultMaxRetries,
		},
	}
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/versioneye-slack/config.yaml (XDG standard - priority)
// 2. ~/.config/versioneye-slack/config.toml
// 3. ~/.versioneye-slack/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "versioneye-slack", "config.yaml"),
		filepath.Join(xdgConfig, "versioneye-slack", "config.toml"),
		filepath.Join(home, ".versioneye-slack", "config.yaml"),
	}, nil
}

// DefaultConfigPath returns the default config file path (XDG standard)
func DefaultConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// FindConfigPath returns the first existing config file path, or
// ErrConfigFileNotFound when none exists
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrConfigFileNotFound
}

// Load reads the first available config file. Without one, defaults are
// returned so the command line alone can drive a run.
func Load() (*Config, error) {
	path, err := FindConfigPath()
	if errors.Is(err, ErrConfigFileNotFound) {
		logger.Debug("No config file found, using defaults")
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific file path. The format is
// chosen by extension; values not present in the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return nil, err
	}

	cfg := Default()
	switch format(path) {
	case "yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case "toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	logger.Debug("Loaded config from %s", path)
	return cfg, nil
}

// SaveTo writes configuration to a specific file path in the format implied
// by its extension
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	switch format(path) {
	case "yaml":
		data, err := yaml.Marshal(c)
		if err != nil {
			return err
		}
		buf.Write(data)
	case "toml":
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	// The file may hold an API key and webhook URL.
	return os.WriteFile(path, buf.Bytes(), 0600)
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	}
	return ""
}

// ExpandEnv replaces ${VAR} references in string settings with environment values
func (c *Config) ExpandEnv() {
	c.VersionEye.APIKey = SubstituteEnvVars(c.VersionEye.APIKey)
	c.VersionEye.BaseURL = SubstituteEnvVars(c.VersionEye.BaseURL)
	c.Slack.Hook = SubstituteEnvVars(c.Slack.Hook)
	c.Slack.Channel = SubstituteEnvVars(c.Slack.Channel)
	c.Cache.Path = SubstituteEnvVars(c.Cache.Path)
	for i, p := range c.Projects {
		c.Projects[i] = SubstituteEnvVars(p)
	}
}

// SubstituteEnvVars replaces ${VAR_NAME} patterns in a string with
// the corresponding environment variable values.
// If an environment variable is not set, the pattern is replaced with an empty string.
func SubstituteEnvVars(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// Validate checks that a run can be started with this configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.VersionEye.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(c.Slack.Hook) == "" {
		return ErrMissingWebhook
	}
	if c.VersionEye.RequestsPerSecond < 0 {
		return ErrInvalidRateLimit
	}
	if c.HTTP.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Channel returns the configured channel or the default
func (c *Config) Channel() string {
	if strings.TrimSpace(c.Slack.Channel) == "" {
		return DefaultChannel
	}
	return c.Slack.Channel
}

// Timeout parses http.timeout; empty or zero means the default
func (c *Config) Timeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.HTTP.Timeout)
	if raw == "" {
		raw = DefaultTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("http.timeout: invalid duration %q: %w", c.HTTP.Timeout, err)
	}
	if d < 0 {
		return 0, errors.New("http.timeout: duration must be >= 0")
	}
	if d == 0 {
		return time.ParseDuration(DefaultTimeout)
	}
	return d, nil
}

// CachePath returns cache.path with a leading ~ expanded, or "" when unset
func (c *Config) CachePath() (string, error) {
	path := strings.TrimSpace(c.Cache.Path)
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return path, nil
}
