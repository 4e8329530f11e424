// Package config loads application settings from configs/config.yml with
// HEALTH_* environment overrides (e.g. HEALTH_PROVIDER_KIND=native).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider kinds selectable at the composition root.
const (
	ProviderSimulated = "simulated"
	ProviderNative    = "native"
)

const envPrefix = "HEALTH"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Provider ProviderConfig `mapstructure:"provider"`
	Session  SessionConfig  `mapstructure:"session"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              string        `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	// AllowedOrigins lists browser origins allowed to open /ws; "*" allows any.
	// Empty means same-host only.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// ProviderConfig selects and tunes the health data provider.
type ProviderConfig struct {
	Kind              string        `mapstructure:"kind"`               // simulated | native
	Platform          string        `mapstructure:"platform"`           // empty = runtime.GOOS
	SupportedPlatform string        `mapstructure:"supported_platform"` // native SDK target
	Latency           LatencyConfig `mapstructure:"latency"`
	// PermissionKeys maps data type names to vendor permission identifiers.
	PermissionKeys map[string]string `mapstructure:"permission_keys"`
}

type LatencyConfig struct {
	Initialize  time.Duration `mapstructure:"initialize"`
	Permissions time.Duration `mapstructure:"permissions"`
	Read        time.Duration `mapstructure:"read"`
}

// SessionConfig tunes the health session facade.
type SessionConfig struct {
	RequiredPlatform string        `mapstructure:"required_platform"` // empty disables the guard
	AutoRefresh      bool          `mapstructure:"auto_refresh"`
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"` // 0 disables the background loop
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	Timezone         string        `mapstructure:"timezone"` // IANA name; empty = Local
	DataTypes        []string      `mapstructure:"data_types"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("provider.kind", ProviderSimulated)
	v.SetDefault("provider.supported_platform", "android")
	v.SetDefault("provider.latency.initialize", time.Second)
	v.SetDefault("provider.latency.permissions", 500*time.Millisecond)
	v.SetDefault("provider.latency.read", 300*time.Millisecond)
	v.SetDefault("provider.permission_keys", map[string]string{
		"steps":     "com.samsung.health.step_count",
		"heartRate": "com.samsung.health.heart_rate",
		"sleep":     "com.samsung.health.sleep",
		"weight":    "com.samsung.health.weight",
	})

	v.SetDefault("session.auto_refresh", true)
	v.SetDefault("session.refresh_interval", time.Duration(0))
	v.SetDefault("session.operation_timeout", 30*time.Second)
	v.SetDefault("session.data_types", []string{"steps", "heartRate"})
}

// Load reads config.yml from the given directories (default "configs"),
// applies HEALTH_* environment overrides and validates the result.
// A missing config file is not an error: defaults apply.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderSimulated, ProviderNative:
	default:
		return fmt.Errorf("provider.kind must be %q or %q, got %q", ProviderSimulated, ProviderNative, c.Provider.Kind)
	}
	if c.Session.RefreshInterval < 0 {
		return errors.New("session.refresh_interval must be >= 0")
	}
	if c.Session.OperationTimeout < 0 {
		return errors.New("session.operation_timeout must be >= 0")
	}
	if c.Session.Timezone != "" {
		if _, err := time.LoadLocation(c.Session.Timezone); err != nil {
			return fmt.Errorf("session.timezone: %w", err)
		}
	}
	return nil
}

// Location resolves the configured timezone used to compute "today".
func (c SessionConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	port := strings.TrimPrefix(s.Port, ":")
	if port == "" {
		port = "8080"
	}
	return s.Host + ":" + port
}
