// Package config loads application settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TEXTREMIND_"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Twilio   TwilioConfig   `mapstructure:"twilio" yaml:"twilio"`
	Dispatch DispatchConfig `mapstructure:"dispatch" yaml:"dispatch"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Client   ClientConfig   `mapstructure:"client" yaml:"client"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics" yaml:"metrics"`
}

// StoreConfig selects and configures the backing store.
type StoreConfig struct {
	// Driver is "memory" or "redis".
	Driver   string        `mapstructure:"driver" yaml:"driver"`
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	CodeTTL  time.Duration `mapstructure:"code_ttl" yaml:"code_ttl"`
}

// TwilioConfig holds the SMS provider credentials. Without an account SID
// messages are only logged.
type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid" yaml:"account_sid"`
	AuthToken  string `mapstructure:"auth_token" yaml:"auth_token"`
	Number     string `mapstructure:"number" yaml:"number"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
}

// DispatchConfig configures the scheduled message dispatcher.
type DispatchConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	LockTTL time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// ClientConfig configures the interactive form.
type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Policy is "code" or "password".
	Policy string `mapstructure:"policy" yaml:"policy"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ShutdownTimeout: 5 * time.Second,
			Metrics:         true,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
			Addr:   "localhost:6379",
			Prefix: "textremind:",
		},
		Dispatch: DispatchConfig{
			Enabled: true,
			LockTTL: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 10 * time.Second,
			Policy:  "code",
		},
	}
}

// envKeys maps environment variables to config paths. The TWILIO_* names are
// kept for deployments that already export them.
var envKeys = map[string]string{
	EnvPrefix + "SERVER_ADDR":             "server.addr",
	EnvPrefix + "SERVER_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
	EnvPrefix + "SERVER_METRICS":          "server.metrics",
	EnvPrefix + "STORE_DRIVER":            "store.driver",
	EnvPrefix + "STORE_ADDR":              "store.addr",
	EnvPrefix + "STORE_PASSWORD":          "store.password",
	EnvPrefix + "STORE_DB":                "store.db",
	EnvPrefix + "STORE_PREFIX":            "store.prefix",
	EnvPrefix + "STORE_CODE_TTL":          "store.code_ttl",
	EnvPrefix + "DISPATCH_ENABLED":        "dispatch.enabled",
	EnvPrefix + "DISPATCH_LOCK_TTL":       "dispatch.lock_ttl",
	EnvPrefix + "LOG_LEVEL":               "log.level",
	EnvPrefix + "LOG_FORMAT":              "log.format",
	EnvPrefix + "LOG_FILE":                "log.file",
	EnvPrefix + "CLIENT_BASE_URL":         "client.base_url",
	EnvPrefix + "CLIENT_TIMEOUT":          "client.timeout",
	EnvPrefix + "CLIENT_POLICY":           "client.policy",
	"TWILIO_ACCOUNT_SID":                  "twilio.account_sid",
	"TWILIO_AUTH_TOKEN":                   "twilio.auth_token",
	"TWILIO_NUMBER":                       "twilio.number",
}

// Load returns the defaults overlaid with the YAML file at path (if path is not
// empty) and then with the environment.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := decode(raw, cfg); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	env := map[string]any{}
	for name, key := range envKeys {
		if v, ok := lookup(name); ok {
			set(env, key, v)
		}
	}
	if len(env) > 0 {
		if err := decode(env, cfg); err != nil {
			return nil, fmt.Errorf("invalid environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(input map[string]any, out *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// set stores v at a dotted path, creating intermediate maps.
func set(m map[string]any, path string, v any) {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory, DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	switch c.Client.Policy {
	case "code", "password":
	default:
		errs = append(errs, fmt.Errorf("client.policy: unknown policy %q", c.Client.Policy))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr: must not be empty"))
	}
	return errors.Join(errs...)
}
