// Package config provides centralized configuration management for ChatLens.
// It implements a three-layer pattern:
// Layer 1: Built-in defaults
// Layer 2: User overrides (XDG config paths or an explicit --config file)
// Layer 3: Environment variables ({PREFIX}{SECTION}_{KEY})
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/chatlens/chatlens/internal/appid"
	"github.com/chatlens/chatlens/internal/genai"
)

var (
	// appConfig holds the current application configuration
	appConfig   *Config
	configMu    sync.RWMutex
	appIdentity *appidentity.Identity
)

// envBindings maps config keys to environment variable suffixes.
// The app identity env prefix (CHATLENS_) is prepended at load time.
var envBindings = map[string]string{
	"server.host":             "HOST",
	"server.port":             "PORT",
	"server.read_timeout":     "READ_TIMEOUT",
	"server.write_timeout":    "WRITE_TIMEOUT",
	"server.idle_timeout":     "IDLE_TIMEOUT",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",

	"logging.level":   "LOG_LEVEL",
	"logging.profile": "LOG_PROFILE",

	"store.driver":     "DB_DRIVER",
	"store.path":       "DB_PATH",
	"store.url":        "DB_URL",
	"store.auth_token": "DB_AUTH_TOKEN",

	"admission.max_requests": "ADMISSION_MAX_REQUESTS",
	"admission.window":       "ADMISSION_WINDOW",
	"admission.max_keys":     "ADMISSION_MAX_KEYS",

	"genai.provider":    "GENAI_PROVIDER",
	"genai.api_key":     "GENAI_API_KEY",
	"genai.base_url":    "GENAI_BASE_URL",
	"genai.model":       "GENAI_MODEL",
	"genai.timeout":     "GENAI_TIMEOUT",
	"genai.prompt_file": "GENAI_PROMPT_FILE",

	"history.retention":     "HISTORY_RETENTION",
	"history.default_limit": "HISTORY_DEFAULT_LIMIT",

	"metrics.enabled": "METRICS_ENABLED",
	"metrics.port":    "METRICS_PORT",

	"health.enabled": "HEALTH_ENABLED",

	"debug.enabled":       "DEBUG_ENABLED",
	"debug.pprof_enabled": "DEBUG_PPROF_ENABLED",
}

// Load loads configuration using the three-layer pattern. An empty configFile
// falls back to XDG user config path discovery; a missing user config file is
// not an error.
//
// This function is safe to call multiple times (e.g., for config reload).
func Load(ctx context.Context, configFile string) (*Config, error) {
	if appIdentity == nil {
		identity, err := appid.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load app identity: %w", err)
		}
		appIdentity = identity
	}

	v := viper.New()
	setDefaults(v)

	prefix := appIdentity.EnvPrefix
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	for key, suffix := range envBindings {
		if err := v.BindEnv(key, prefix+suffix); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		for _, path := range getUserConfigPaths() {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				var notFound *fs.PathError
				if errors.As(err, &notFound) {
					continue
				}
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					continue
				}
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			break
		}
	}

	cfg := &Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	setConfig(cfg)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.driver", "libsql")

	v.SetDefault("admission.max_requests", 5)
	v.SetDefault("admission.window", time.Minute)
	v.SetDefault("admission.max_keys", 10000)

	v.SetDefault("genai.provider", "gemini")
	v.SetDefault("genai.model", genai.DefaultModel)
	v.SetDefault("genai.timeout", genai.DefaultTimeout)

	v.SetDefault("history.default_limit", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "STRUCTURED")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)

	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.pprof_enabled", false)
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// getUserConfigPaths returns the list of user config file paths to check
// Uses gofulmen/config for XDG-compliant path discovery
func getUserConfigPaths() []string {
	if appIdentity == nil {
		return []string{}
	}

	appName := appIdentity.ConfigName
	if strings.TrimSpace(appName) == "" {
		appName = appIdentity.BinaryName
	}
	if strings.TrimSpace(appName) == "" {
		appName = "chatlens"
	}

	legacyNames := []string{}
	if appIdentity.BinaryName != "" && appIdentity.BinaryName != appName {
		legacyNames = append(legacyNames, appIdentity.BinaryName)
	}

	return gfconfig.GetAppConfigPaths(appName, legacyNames...)
}

// appNamesForPaths returns the config name and binary name from app identity,
// falling back to "chatlens" if not set.
func appNamesForPaths() (configName string, binaryName string) {
	configName = "chatlens"
	binaryName = "chatlens"
	if appIdentity == nil {
		return configName, binaryName
	}

	if strings.TrimSpace(appIdentity.ConfigName) != "" {
		configName = appIdentity.ConfigName
	}
	if strings.TrimSpace(appIdentity.BinaryName) != "" {
		binaryName = appIdentity.BinaryName
	}
	return configName, binaryName
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configName, _ := appNamesForPaths()
	configDir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	configName, _ := appNamesForPaths()
	return gfconfig.GetAppDataDir(configName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	configName, binaryName := appNamesForPaths()
	dataDir := gfconfig.GetAppDataDir(configName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + binaryName + ".db"
	}
	return filepath.Join(dataDir, binaryName+".db")
}
