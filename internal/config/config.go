// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bethropolis/tandem/internal/logger"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger  logger.Config                     `toml:"logger"`
	Session SessionConfig                     `toml:"session"`
	Sync    SyncConfig                        `toml:"sync"`
	Storage StorageConfig                     `toml:"storage"`
	Relay   RelayConfig                       `toml:"relay"`
	Plugins map[string]map[string]interface{} `toml:"plugins"`
}

// SessionConfig holds settings of the local editing session.
type SessionConfig struct {
	Debounce    Duration `toml:"debounce"`
	DisplayName string   `toml:"display_name"` // Empty means a generated "User-NNN"
}

// SyncConfig selects and configures the sync bus.
type SyncConfig struct {
	Backend   string `toml:"backend"` // local, redis or websocket
	Channel   string `toml:"channel"`
	RedisAddr string `toml:"redis_addr"`
	RelayURL  string `toml:"relay_url"`
}

// StorageConfig selects and configures where the document snapshot is kept.
type StorageConfig struct {
	Backend     string `toml:"backend"` // none, file, bolt, redis or postgres
	Key         string `toml:"key"`
	Path        string `toml:"path"` // file and bolt backends
	RedisAddr   string `toml:"redis_addr"`
	DatabaseURL string `toml:"database_url"`
}

// RelayConfig holds settings of the WebSocket relay server.
type RelayConfig struct {
	Listen     string `toml:"listen"`
	Path       string `toml:"path"`
	SendBuffer int    `toml:"send_buffer"`
}

// Duration is a time.Duration written as a string ("300ms") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

var (
	loadedConfig *Config
	loadOnce     sync.Once
	loadErr      error
)

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.Config{
			LogLevel:    "info",
			LogFilePath: "",
		},
		Session: SessionConfig{
			Debounce: Duration{DefaultDebounce},
		},
		Sync: SyncConfig{
			Backend:   BusLocal,
			Channel:   DefaultChannel,
			RedisAddr: DefaultRedisAddr,
			RelayURL:  DefaultRelayURL,
		},
		Storage: StorageConfig{
			Backend:   StorageNone,
			Key:       DefaultStorageKey,
			RedisAddr: DefaultRedisAddr,
		},
		Relay: RelayConfig{
			Listen:     DefaultRelayListen,
			Path:       DefaultRelayPath,
			SendBuffer: DefaultRelaySendBuffer,
		},
		Plugins: map[string]map[string]interface{}{},
	}
}

// DefaultPath returns the config file location used when --config is not set.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, AppName, DefaultConfigFileName)
}

// loadFromFile decodes filePath on top of cfg. A missing file is not an error.
func loadFromFile(filePath string, cfg *Config) error {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		logger.Debugf("Config file not found: %s", filePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}

	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		logger.Warnf("Config file '%s': Unrecognized keys: %v", filePath, undecoded)
	}
	return nil
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}

	if c.Session.Debounce.Duration <= 0 {
		c.Session.Debounce = defaults.Session.Debounce
	}

	switch c.Sync.Backend {
	case BusLocal, BusRedis, BusWebSocket:
	default:
		logger.Warnf("Unknown sync backend %q, using %q", c.Sync.Backend, defaults.Sync.Backend)
		c.Sync.Backend = defaults.Sync.Backend
	}
	if c.Sync.Channel == "" {
		c.Sync.Channel = defaults.Sync.Channel
	}
	if c.Sync.RedisAddr == "" {
		c.Sync.RedisAddr = defaults.Sync.RedisAddr
	}
	if c.Sync.RelayURL == "" {
		c.Sync.RelayURL = defaults.Sync.RelayURL
	}

	switch c.Storage.Backend {
	case StorageNone, StorageFile, StorageBolt, StorageRedis, StoragePostgres:
	case "":
		c.Storage.Backend = defaults.Storage.Backend
	default:
		logger.Warnf("Unknown storage backend %q, using %q", c.Storage.Backend, defaults.Storage.Backend)
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.Key == "" {
		c.Storage.Key = defaults.Storage.Key
	}
	if c.Storage.RedisAddr == "" {
		c.Storage.RedisAddr = defaults.Storage.RedisAddr
	}

	if c.Relay.Listen == "" {
		c.Relay.Listen = defaults.Relay.Listen
	}
	if c.Relay.Path == "" {
		c.Relay.Path = defaults.Relay.Path
	}
	if c.Relay.SendBuffer <= 0 {
		c.Relay.SendBuffer = defaults.Relay.SendBuffer
	}

	if c.Plugins == nil {
		c.Plugins = defaults.Plugins
	}
}

// PluginValue returns a setting from the [plugins.<name>] table.
func (c *Config) PluginValue(plugin, key string) (interface{}, bool) {
	section, ok := c.Plugins[plugin]
	if !ok {
		return nil, false
	}
	value, ok := section[key]
	return value, ok
}

// Load builds a configuration from defaults, the TOML file and flag overrides.
// An empty configFilePath means the default location.
func Load(configFilePath string, flags *Flags) (*Config, error) {
	cfg := NewDefaultConfig()

	effectivePath := configFilePath
	if effectivePath == "" {
		effectivePath = DefaultPath()
	}

	var err error
	if effectivePath != "" {
		err = loadFromFile(effectivePath, cfg)
	}

	if flags != nil {
		flags.ApplyOverrides(cfg)
	}

	cfg.validate()
	return cfg, err
}

// LoadConfig loads the process-wide configuration once. Call it from main.
func LoadConfig(configFilePath string, flags *Flags) (*Config, error) {
	loadOnce.Do(func() {
		loadedConfig, loadErr = Load(configFilePath, flags)
	})
	return loadedConfig, loadErr
}

// Get returns the loaded application configuration. Panics if LoadConfig wasn't called.
func Get() *Config {
	if loadedConfig == nil {
		panic("config.Get() called before config.LoadConfig()")
	}
	return loadedConfig
}
