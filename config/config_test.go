package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meysamhadeli/focussync/snapshot_sync/models"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigs_Defaults(t *testing.T) {
	cfgFile = ""
	config, err := LoadConfigs(nil, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ".focussync/context.json", config.ContextPath)
	assert.Equal(t, ".tmp", config.TempSuffix)
	assert.Equal(t, 200, config.DebounceMs)
	assert.Equal(t, 1000, config.IntervalMs)
	assert.Equal(t, 2, config.MaxTreeDepth)
	assert.Equal(t, 200, config.MaxTreeNodes)
	assert.Equal(t, 8000, config.MaxSelectionLength)
	assert.Equal(t, 2, config.JSONIndent)
	assert.True(t, config.FollowWrites)
	assert.Equal(t, "colorful", config.LogFormat)
}

func TestLoadConfigs_FileEnvAndFlags(t *testing.T) {
	cfgFile = ""
	dir := t.TempDir()
	yaml := "debounce_ms: 50\nmax_tree_depth: 4\nignore_patterns:\n  - drafts/\n  - \"*.pdf\"\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "focussync-config.yml"), []byte(yaml), 0644))
	t.Setenv("FOCUSSYNC_INTERVAL_MS", "5000")
	t.Setenv("FOCUSSYNC_MAX_TREE_DEPTH", "3")

	rootCmd := &cobra.Command{Use: "focussync"}
	InitFlags(rootCmd)
	require.NoError(t, rootCmd.PersistentFlags().Set("max_tree_nodes", "42"))

	config, err := LoadConfigs(rootCmd, dir)
	require.NoError(t, err)

	assert.Equal(t, 50, config.DebounceMs)
	assert.Equal(t, 5000, config.IntervalMs)
	assert.Equal(t, 3, config.MaxTreeDepth)
	assert.Equal(t, 42, config.MaxTreeNodes)
	assert.Equal(t, []string{"drafts/", "*.pdf"}, config.IgnorePatterns)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestLoadConfigs_ExplicitJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"context_path": "out/focus.json", "json_indent": 0}`), 0644))
	cfgFile = path
	defer func() { cfgFile = "" }()

	config, err := LoadConfigs(nil, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "out/focus.json", config.ContextPath)
	assert.Equal(t, 0, config.JSONIndent)
}

func TestLoadConfigs_MissingExplicitFile(t *testing.T) {
	cfgFile = filepath.Join(t.TempDir(), "nope.yml")
	defer func() { cfgFile = "" }()

	_, err := LoadConfigs(nil, t.TempDir())
	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoadConfigs_RejectsInvalidValues(t *testing.T) {
	cfgFile = ""
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "focussync-config.yaml"), []byte("max_tree_nodes: 0\n"), 0644))

	_, err := LoadConfigs(nil, dir)
	assert.ErrorContains(t, err, "max_tree_nodes")
}

func TestValidate(t *testing.T) {
	valid := DefaultConfig
	require.NoError(t, valid.Validate())

	tests := map[string]func(c *Config){
		"context_path":         func(c *Config) { c.ContextPath = " " },
		"debounce_ms":          func(c *Config) { c.DebounceMs = -1 },
		"interval_ms":          func(c *Config) { c.IntervalMs = -5 },
		"max_tree_depth":       func(c *Config) { c.MaxTreeDepth = -1 },
		"max_selection_length": func(c *Config) { c.MaxSelectionLength = 0 },
		"json_indent":          func(c *Config) { c.JSONIndent = 12 },
		"log_format":           func(c *Config) { c.LogFormat = "xml" },
	}
	for field, mutate := range tests {
		c := DefaultConfig
		mutate(&c)
		assert.ErrorContains(t, c.Validate(), field)
	}
}

func TestLoadConfigWithCache(t *testing.T) {
	cfgFile = ""
	ClearConfigCache()
	dir := t.TempDir()
	path := filepath.Join(dir, "focussync-config.yml")
	require.NoError(t, os.WriteFile(path, []byte("debounce_ms: 10\n"), 0644))

	first, err := LoadConfigWithCache(nil, dir)
	require.NoError(t, err)
	second, err := LoadConfigWithCache(nil, dir)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, os.WriteFile(path, []byte("debounce_ms: 20\n"), 0644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	third, err := LoadConfigWithCache(nil, dir)
	require.NoError(t, err)
	assert.Equal(t, 20, third.DebounceMs)
}

func TestSyncOptions(t *testing.T) {
	c := DefaultConfig
	c.DebounceMs = 75
	c.IntervalMs = 0
	c.MaxTreeDepth = 1
	c.MaxTreeNodes = 9

	opts := c.SyncOptions()

	assert.Equal(t, 75*time.Millisecond, opts.DebounceWindow)
	assert.Zero(t, opts.Interval)
	assert.Equal(t, models.TreeLimits{MaxDepth: 1, MaxNodes: 9}, opts.Limits)
	assert.Equal(t, ".focussync/context.json", opts.ContextPath)
	assert.Equal(t, 2, opts.JSONIndent)
}
