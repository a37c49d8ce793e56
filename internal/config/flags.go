// internal/config/flags.go
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/bethropolis/tandem/internal/logger"
)

// Flags holds values parsed from command-line flags.
// Only flags that were actually set override the config file.
type Flags struct {
	set *flag.FlagSet

	ConfigFilePath *string
	Version        *bool
	LogLevel       *string
	LogFilePath    *string
	EnableTags     *string
	DisableTags    *string
	EnablePkgs     *string
	DisablePkgs    *string
	EnableFiles    *string
	DisableFiles   *string
	DebugLog       *bool

	Debounce    *time.Duration
	DisplayName *string
	SyncBackend *string
	Channel     *string
	RedisAddr   *string
	RelayURL    *string
	Storage     *string
	StoragePath *string
	DatabaseURL *string
	Listen      *string
}

// NewFlags defines all flags on a fresh FlagSet named after the binary.
func NewFlags(name string) *Flags {
	f := &Flags{set: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.DefineFlags()
	return f
}

// DefineFlags sets up the command-line flags and associates them with the Flags struct fields.
func (f *Flags) DefineFlags() {
	s := f.set
	f.ConfigFilePath = s.String("config", "", fmt.Sprintf("Path to TOML configuration file (default ~/.config/%s/%s)", AppName, DefaultConfigFileName))
	f.Version = s.Bool("version", false, "Show version information and exit")
	f.LogLevel = s.String("loglevel", "", "Log level (debug, info, warn, error) - Overrides config file")
	f.LogFilePath = s.String("logfile", "", "Path to write log file (use '-' for stderr) - Overrides config file")
	f.EnableTags = s.String("log-tags", "", "Comma-separated list of tags to enable - Overrides config file")
	f.DisableTags = s.String("log-disable-tags", "", "Comma-separated list of tags to disable - Overrides config file")
	f.EnablePkgs = s.String("log-packages", "", "Comma-separated list of packages to enable - Overrides config file")
	f.DisablePkgs = s.String("log-disable-packages", "", "Comma-separated list of packages to disable - Overrides config file")
	f.EnableFiles = s.String("log-files", "", "Comma-separated list of files to enable - Overrides config file")
	f.DisableFiles = s.String("log-disable-files", "", "Comma-separated list of files to disable - Overrides config file")
	f.DebugLog = s.Bool("debug-log", false, "Enable verbose debug logging for the logger filtering system")

	f.Debounce = s.Duration("debounce", 0, "Quiet period before an edit is committed (e.g. 300ms)")
	f.DisplayName = s.String("name", "", "Display name shown to collaborators")
	f.SyncBackend = s.String("sync", "", "Sync bus backend (local, redis, websocket)")
	f.Channel = s.String("channel", "", "Sync channel / document name")
	f.RedisAddr = s.String("redis", "", "Redis address used by the redis sync and storage backends")
	f.RelayURL = s.String("relay-url", "", "WebSocket relay URL for the websocket sync backend")
	f.Storage = s.String("storage", "", "Storage backend (none, file, bolt, redis, postgres)")
	f.StoragePath = s.String("storage-path", "", "Path for the file and bolt storage backends")
	f.DatabaseURL = s.String("database-url", "", "PostgreSQL connection string for the postgres storage backend")
	f.Listen = s.String("listen", "", "Relay listen address")
}

// Parse parses args into the Flags struct.
// It returns the remaining non-flag arguments.
func (f *Flags) Parse(args []string) ([]string, error) {
	if err := f.set.Parse(args); err != nil {
		return nil, err
	}
	return f.set.Args(), nil
}

// ApplyOverrides updates the Config struct with values from flags *if* they were set.
func (f *Flags) ApplyOverrides(cfg *Config) {
	// Visit only processes flags that were actually set
	f.set.Visit(func(fl *flag.Flag) {
		logger.DebugTagf("config", "Applying flag override: %s", fl.Name)
		switch fl.Name {
		case "loglevel":
			if *f.LogLevel != "" {
				cfg.Logger.LogLevel = *f.LogLevel
			}
		case "logfile":
			cfg.Logger.LogFilePath = *f.LogFilePath // Empty string is valid (stderr)
		case "log-tags":
			cfg.Logger.EnabledTags = splitCommaList(*f.EnableTags)
		case "log-disable-tags":
			cfg.Logger.DisabledTags = splitCommaList(*f.DisableTags)
		case "log-packages":
			cfg.Logger.EnabledPackages = splitCommaList(*f.EnablePkgs)
		case "log-disable-packages":
			cfg.Logger.DisabledPackages = splitCommaList(*f.DisablePkgs)
		case "log-files":
			cfg.Logger.EnabledFiles = splitCommaList(*f.EnableFiles)
		case "log-disable-files":
			cfg.Logger.DisabledFiles = splitCommaList(*f.DisableFiles)
		case "debounce":
			if *f.Debounce > 0 {
				cfg.Session.Debounce = Duration{*f.Debounce}
			}
		case "name":
			cfg.Session.DisplayName = *f.DisplayName
		case "sync":
			cfg.Sync.Backend = *f.SyncBackend
		case "channel":
			cfg.Sync.Channel = *f.Channel
		case "redis":
			cfg.Sync.RedisAddr = *f.RedisAddr
			cfg.Storage.RedisAddr = *f.RedisAddr
		case "relay-url":
			cfg.Sync.RelayURL = *f.RelayURL
		case "storage":
			cfg.Storage.Backend = *f.Storage
		case "storage-path":
			cfg.Storage.Path = *f.StoragePath
		case "database-url":
			cfg.Storage.DatabaseURL = *f.DatabaseURL
		case "listen":
			cfg.Relay.Listen = *f.Listen
		}
	})
}

func splitCommaList(list string) []string {
	if list == "" {
		return nil
	}
	items := strings.Split(list, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
