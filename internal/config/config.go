// Package config wraps Viper behind a small read-only interface so plugins
// and tests never depend on Viper's mutable global state.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the read-only view of configuration handed to plugins.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
	IsSet(key string) bool

	// Sub returns the subtree rooted at key. A missing subtree yields an
	// empty (never nil) Config.
	Sub(key string) Config

	// Unmarshal decodes the configuration into a struct via mapstructure tags.
	Unmarshal(target any) error
}

// viperConfig adapts a *viper.Viper to the Config interface.
type viperConfig struct {
	v *viper.Viper
}

// New wraps a Viper instance as a Config. A nil Viper yields an empty config.
func New(v *viper.Viper) Config {
	if v == nil {
		v = viper.New()
	}
	return &viperConfig{v: v}
}

func (c *viperConfig) GetString(key string) string          { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *viperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *viperConfig) GetStringSlice(key string) []string   { return c.v.GetStringSlice(key) }
func (c *viperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }

func (c *viperConfig) Sub(key string) Config {
	return New(c.v.Sub(key))
}

func (c *viperConfig) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}

// Load reads the server configuration. When path is empty the usual
// locations are searched; a missing file is not an error, environment
// variables and defaults still apply.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("plugins.backup.enabled", true)
	v.SetDefault("plugins.backup.dir", "./data/backups")
	v.SetDefault("plugins.backup.database", "./data/sappho.db")
	v.SetDefault("plugins.backup.covers_dir", "./data/covers")
	v.SetDefault("plugins.backup.retention", 10)
	v.SetDefault("plugins.backup.schedule.enabled", false)
	v.SetDefault("plugins.backup.schedule.interval_hours", 24)
	v.SetDefault("plugins.backup.schedule.include_covers", true)

	v.SetEnvPrefix("SAPPHO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sappho")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sappho")
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}
