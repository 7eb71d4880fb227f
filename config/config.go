package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/meysamhadeli/focussync/snapshot_sync"
	"github.com/meysamhadeli/focussync/snapshot_sync/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCacheEntry holds cached configuration with metadata
type configCacheEntry struct {
	config  *Config
	modTime time.Time
}

// Global cache for configuration files
var (
	configCache = make(map[string]*configCacheEntry)
	cacheMutex  sync.RWMutex
)

// envPrefix is prepended to every environment variable, e.g. FOCUSSYNC_DEBOUNCE_MS.
const envPrefix = "FOCUSSYNC"

// configName is the base name of the configuration file looked up in the working directory.
const configName = "focussync-config"

// Config represents the structure of the configuration file
type Config struct {
	Version            string   `mapstructure:"version" yaml:"version"`
	ContextPath        string   `mapstructure:"context_path" yaml:"context_path"`
	TempSuffix         string   `mapstructure:"temp_suffix" yaml:"temp_suffix"`
	DebounceMs         int      `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	IntervalMs         int      `mapstructure:"interval_ms" yaml:"interval_ms"`
	MaxTreeDepth       int      `mapstructure:"max_tree_depth" yaml:"max_tree_depth"`
	MaxTreeNodes       int      `mapstructure:"max_tree_nodes" yaml:"max_tree_nodes"`
	MaxSelectionLength int      `mapstructure:"max_selection_length" yaml:"max_selection_length"`
	JSONIndent         int      `mapstructure:"json_indent" yaml:"json_indent"`
	FollowWrites       bool     `mapstructure:"follow_writes" yaml:"follow_writes"`
	IgnorePatterns     []string `mapstructure:"ignore_patterns" yaml:"ignore_patterns"`
	LogLevel           string   `mapstructure:"log_level" yaml:"log_level"`
	LogFormat          string   `mapstructure:"log_format" yaml:"log_format"`
	Theme              string   `mapstructure:"theme" yaml:"theme"`
	MetricsAddr        string   `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:            "0.3.0",
	ContextPath:        snapshot_sync.DefaultContextPath,
	TempSuffix:         snapshot_sync.DefaultTempSuffix,
	DebounceMs:         int(snapshot_sync.DefaultDebounceWindow / time.Millisecond),
	IntervalMs:         int(snapshot_sync.DefaultInterval / time.Millisecond),
	MaxTreeDepth:       snapshot_sync.DefaultMaxTreeDepth,
	MaxTreeNodes:       snapshot_sync.DefaultMaxTreeNodes,
	MaxSelectionLength: snapshot_sync.DefaultMaxSelectionLength,
	JSONIndent:         snapshot_sync.DefaultJSONIndent,
	FollowWrites:       true,
	IgnorePatterns:     []string{},
	LogLevel:           "info",
	LogFormat:          "colorful",
	Theme:              "dracula",
	MetricsAddr:        "",
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	// Set default values using Viper
	setDefaults(v)

	// Automatically read environment variables
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind environment variables to config keys
	bindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else if path := findConfigFile(cwd); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Bind CLI flags to override config values
	if rootCmd != nil {
		bindFlags(v, rootCmd)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("context_path", DefaultConfig.ContextPath)
	v.SetDefault("temp_suffix", DefaultConfig.TempSuffix)
	v.SetDefault("debounce_ms", DefaultConfig.DebounceMs)
	v.SetDefault("interval_ms", DefaultConfig.IntervalMs)
	v.SetDefault("max_tree_depth", DefaultConfig.MaxTreeDepth)
	v.SetDefault("max_tree_nodes", DefaultConfig.MaxTreeNodes)
	v.SetDefault("max_selection_length", DefaultConfig.MaxSelectionLength)
	v.SetDefault("json_indent", DefaultConfig.JSONIndent)
	v.SetDefault("follow_writes", DefaultConfig.FollowWrites)
	v.SetDefault("ignore_patterns", DefaultConfig.IgnorePatterns)
	v.SetDefault("log_level", DefaultConfig.LogLevel)
	v.SetDefault("log_format", DefaultConfig.LogFormat)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("metrics_addr", DefaultConfig.MetricsAddr)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"context_path", "temp_suffix", "debounce_ms", "interval_ms",
		"max_tree_depth", "max_tree_nodes", "max_selection_length", "json_indent",
		"follow_writes", "ignore_patterns", "log_level", "log_format", "theme", "metrics_addr",
	} {
		_ = v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key))
	}
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	_ = v.BindPFlag("context_path", flags.Lookup("context_path"))
	_ = v.BindPFlag("debounce_ms", flags.Lookup("debounce_ms"))
	_ = v.BindPFlag("interval_ms", flags.Lookup("interval_ms"))
	_ = v.BindPFlag("max_tree_depth", flags.Lookup("max_tree_depth"))
	_ = v.BindPFlag("max_tree_nodes", flags.Lookup("max_tree_nodes"))
	_ = v.BindPFlag("max_selection_length", flags.Lookup("max_selection_length"))
	_ = v.BindPFlag("log_level", flags.Lookup("log_level"))
	_ = v.BindPFlag("log_format", flags.Lookup("log_format"))
	_ = v.BindPFlag("theme", flags.Lookup("theme"))
	_ = v.BindPFlag("metrics_addr", flags.Lookup("metrics_addr"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("context_path", DefaultConfig.ContextPath, "Vault-relative path of the snapshot file.")
	rootCmd.PersistentFlags().Int("debounce_ms", DefaultConfig.DebounceMs, "Quiet period after the last change before the snapshot is refreshed.")
	rootCmd.PersistentFlags().Int("interval_ms", DefaultConfig.IntervalMs, "Period of the fallback refresh timer (0 disables it).")
	rootCmd.PersistentFlags().Int("max_tree_depth", DefaultConfig.MaxTreeDepth, "Folder levels below the active folder included in the tree.")
	rootCmd.PersistentFlags().Int("max_tree_nodes", DefaultConfig.MaxTreeNodes, "Maximum number of nodes in the folder tree, root included.")
	rootCmd.PersistentFlags().Int("max_selection_length", DefaultConfig.MaxSelectionLength, "Maximum number of selected characters copied into the snapshot.")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "Log level: 'trace', 'debug', 'info', 'warn', 'error' or 'disabled'.")
	rootCmd.PersistentFlags().String("log_format", DefaultConfig.LogFormat, "Log format: 'colorful' or 'json'.")
	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set customize theme for printed snapshots. (e.g., 'dracula', 'monokai', 'github')")
	rootCmd.PersistentFlags().String("metrics_addr", DefaultConfig.MetricsAddr, "Address to serve Prometheus metrics on while syncing (e.g., ':9464'). Empty disables it.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}

// findConfigFile returns the first focussync-config.{yaml,yml,json} in cwd.
func findConfigFile(cwd string) string {
	for _, ext := range []string{"yaml", "yml", "json"} {
		path := filepath.Join(cwd, configName+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfigWithCache loads configuration with caching support
func LoadConfigWithCache(rootCmd *cobra.Command, cwd string) (*Config, error) {
	configFilePath := cfgFile
	if configFilePath == "" {
		configFilePath = findConfigFile(cwd)
	}

	// If no config file exists, return default configuration loading
	if configFilePath == "" {
		return LoadConfigs(rootCmd, cwd)
	}

	// Check file modification time
	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		return LoadConfigs(rootCmd, cwd)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := configCache[configFilePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.config, nil
		}
	}
	cacheMutex.RUnlock()

	config, err := LoadConfigs(rootCmd, cwd)
	if err != nil {
		return nil, err
	}

	// Update cache
	cacheMutex.Lock()
	configCache[configFilePath] = &configCacheEntry{
		config:  config,
		modTime: fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return config, nil
}

// ClearConfigCache clears all cached configuration files
func ClearConfigCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	configCache = make(map[string]*configCacheEntry)
}

// Validate rejects values the synchronizer cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ContextPath) == "":
		return fmt.Errorf("context_path must not be empty")
	case c.DebounceMs < 0:
		return fmt.Errorf("debounce_ms must not be negative, got %d", c.DebounceMs)
	case c.IntervalMs < 0:
		return fmt.Errorf("interval_ms must not be negative, got %d", c.IntervalMs)
	case c.MaxTreeDepth < 0:
		return fmt.Errorf("max_tree_depth must not be negative, got %d", c.MaxTreeDepth)
	case c.MaxTreeNodes < 1:
		return fmt.Errorf("max_tree_nodes must be at least 1, got %d", c.MaxTreeNodes)
	case c.MaxSelectionLength < 1:
		return fmt.Errorf("max_selection_length must be at least 1, got %d", c.MaxSelectionLength)
	case c.JSONIndent < 0 || c.JSONIndent > 8:
		return fmt.Errorf("json_indent must be between 0 and 8, got %d", c.JSONIndent)
	}
	switch strings.ToLower(c.LogFormat) {
	case "colorful", "json":
	default:
		return fmt.Errorf("log_format must be 'colorful' or 'json', got %q", c.LogFormat)
	}
	return nil
}

// SyncOptions translates the configuration into synchronizer options.
func (c *Config) SyncOptions() snapshot_sync.Options {
	opts := snapshot_sync.DefaultOptions()
	opts.ContextPath = c.ContextPath
	opts.TempSuffix = c.TempSuffix
	opts.DebounceWindow = time.Duration(c.DebounceMs) * time.Millisecond
	opts.Interval = time.Duration(c.IntervalMs) * time.Millisecond
	opts.Limits = models.TreeLimits{MaxDepth: c.MaxTreeDepth, MaxNodes: c.MaxTreeNodes}
	opts.MaxSelectionLength = c.MaxSelectionLength
	opts.JSONIndent = c.JSONIndent
	return opts
}
