// Package config loads nodeplot settings from defaults, a TOML file, and
// NODEPLOT_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "nodeplot"

// Config holds application configuration.
type Config struct {
	Engine EngineConfig
	Server ServerConfig
	Cache  CacheConfig
	Output OutputConfig
}

// EngineConfig locates the compute engine.
type EngineConfig struct {
	URL     string
	Timeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string
}

// CacheConfig holds lowered-document cache settings.
type CacheConfig struct {
	Dir string
	TTL time.Duration
}

// OutputConfig holds document output settings.
type OutputConfig struct {
	Indent string
}

// Load reads configuration. The file is NODEPLOT_CONFIG when set, otherwise
// config.toml in the XDG config directory; a missing file is not an error.
// Env var overrides use the NODEPLOT_ prefix with dots as underscores, e.g.
// NODEPLOT_ENGINE_URL.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("engine.url", "http://127.0.0.1:7878/evaluate")
	v.SetDefault("engine.timeout", "30s")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("cache.dir", defaultCacheDir())
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("output.indent", "  ")

	v.SetConfigType("toml")
	if path := os.Getenv("NODEPLOT_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("NODEPLOT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// configDir returns $XDG_CONFIG_HOME/nodeplot or ~/.config/nodeplot.
func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// defaultCacheDir returns $XDG_CACHE_HOME/nodeplot or ~/.cache/nodeplot.
func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", appName)
}
