// Package config loads runtime settings from the environment and an
// optional .env file.
//
// Every key maps to an EVA_-prefixed variable (api_url -> EVA_API_URL).
// Real environment variables win over the .env file, which wins over
// defaults.
//
// read_only deliberately has no default here. The MCP server treats an
// unset EVA_READ_ONLY as read-write while the bare client (the "call"
// command, rpc.Config) treats it as read-only. Callers resolve it with
// ReadOnlyOr and must pick the default that matches their call site.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultAPIURL is a placeholder that makes a missing EVA_API_URL obvious
// in logs instead of silently pointing somewhere real.
const DefaultAPIURL = "https://your-eva-instance.com/api"

// JournalOff disables the call journal when used as journal_path.
const JournalOff = "off"

// ErrMissingToken is returned when EVA_API_TOKEN is not set.
var ErrMissingToken = errors.New("EVA_API_TOKEN environment variable is required")

// Config is the resolved process configuration.
type Config struct {
	APIURL         string `mapstructure:"api_url"`
	APIToken       string `mapstructure:"api_token"`
	TimeoutSeconds int    `mapstructure:"timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	JournalPath string `mapstructure:"journal_path"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	UpdateCheck bool   `mapstructure:"update_check"`

	// readOnly is nil when EVA_READ_ONLY was not set anywhere.
	readOnly *bool
}

// keys lists every setting so each can be bound to its env variable;
// viper.Unmarshal ignores AutomaticEnv for keys it has never seen.
var keys = []string{
	"api_url", "api_token", "read_only", "timeout",
	"log_level", "log_format", "log_file",
	"journal_path", "metrics_addr", "update_check",
}

// Load resolves the configuration. envFile may be empty, in which case a
// .env file in the working directory is used when present.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("EVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("binding %s: %w", k, err)
		}
	}

	if err := readEnvFile(v, envFile); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if v.IsSet("read_only") {
		ro := parseBool(v.GetString("read_only"))
		cfg.readOnly = &ro
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults populates defaults for everything except read_only and the token.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", 30)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_file", "")
	v.SetDefault("journal_path", defaultJournalPath())
	v.SetDefault("metrics_addr", "")
	v.SetDefault("update_check", true)
}

// readEnvFile merges a dotenv file into v. A missing default .env is fine;
// a missing explicit file is not.
func readEnvFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading env file: %w", err)
	}

	fileCfg := viper.New()
	fileCfg.SetConfigFile(path)
	fileCfg.SetConfigType("env")
	if err := fileCfg.ReadInConfig(); err != nil {
		return fmt.Errorf("reading env file %s: %w", path, err)
	}

	// Dotenv keys come back lower-cased with the prefix, e.g. eva_api_url.
	for _, k := range keys {
		envKey := "eva_" + k
		if fileCfg.IsSet(envKey) {
			v.SetDefault(k, fileCfg.Get(envKey))
		}
	}
	return nil
}

// Validate checks required settings. A missing token is fatal at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return ErrMissingToken
	}
	if strings.TrimSpace(c.APIURL) == "" {
		return errors.New("api_url must not be empty")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be > 0 seconds, got %d", c.TimeoutSeconds)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("log_format must be console, json or auto, got %q", c.LogFormat)
	}
	return nil
}

// ReadOnlyOr returns the configured read-only flag, or def when
// EVA_READ_ONLY was not set.
func (c *Config) ReadOnlyOr(def bool) bool {
	if c.readOnly == nil {
		return def
	}
	return *c.readOnly
}

// ReadOnlySet reports whether EVA_READ_ONLY was set explicitly.
func (c *Config) ReadOnlySet() bool {
	return c.readOnly != nil
}

// Timeout returns the per-call timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// JournalEnabled reports whether the call journal should be opened.
func (c *Config) JournalEnabled() bool {
	p := strings.TrimSpace(c.JournalPath)
	return p != "" && !strings.EqualFold(p, JournalOff)
}

// parseBool follows the original textual convention: only "true"
// (any case) is true.
func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".eva-mcp", "journal.db")
}
