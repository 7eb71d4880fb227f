package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/focussync/config"
	"github.com/meysamhadeli/focussync/constants/lipgloss"
	"github.com/meysamhadeli/focussync/snapshot_sync"
	"github.com/meysamhadeli/focussync/token_management"
	"github.com/meysamhadeli/focussync/token_management/contracts"
	"github.com/meysamhadeli/focussync/utils"
	"github.com/meysamhadeli/focussync/vault"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// RootDependencies holds the collaborators shared by every subcommand
type RootDependencies struct {
	Cwd             string
	Config          *config.Config
	Logger          *pterm.Logger
	Vault           *vault.Vault
	Storage         *vault.Storage
	Headings        *vault.HeadingIndex
	Workspace       *vault.Workspace
	TokenManagement contracts.ITokenManagement
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "focussync",
	Short: "Keep a machine-readable snapshot of where you are in a notes vault.",
	Long: `focussync tracks the active document, cursor, selection and surrounding folders of a
notes vault and keeps a small JSON snapshot of that focus on disk, so tools and assistants
can read what you are looking at. The snapshot is refreshed shortly after every change and
written atomically, and unchanged snapshots are never rewritten.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("focussync version %s", config.DefaultConfig.Version)))
			return
		}
		_ = cmd.Help()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// handleRootCommand loads the configuration and opens the vault rooted at the
// first argument, or at the working directory when none is given.
func handleRootCommand(cmd *cobra.Command, args []string) (*RootDependencies, error) {
	cwd, err := vaultDir(args)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfigWithCache(cmd.Root(), cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat, nil)

	fs := afero.NewOsFs()
	v, err := vault.Open(fs, cwd, cfg.IgnorePatterns, logger)
	if err != nil {
		return nil, err
	}
	storage := vault.NewStorage(fs, cwd)

	return &RootDependencies{
		Cwd:             cwd,
		Config:          cfg,
		Logger:          logger,
		Vault:           v,
		Storage:         storage,
		Headings:        vault.NewHeadingIndex(storage, logger),
		Workspace:       vault.NewWorkspace(v, logger),
		TokenManagement: token_management.NewTokenManager(),
	}, nil
}

// Host exposes the vault collaborators to the snapshot pipeline.
func (d *RootDependencies) Host() snapshot_sync.Host {
	return snapshot_sync.Host{
		Vault:     d.Vault,
		Workspace: d.Workspace,
		Metadata:  d.Headings,
		Storage:   d.Storage,
	}
}

// SyncOptions returns the configured pipeline options with the shared logger and token manager.
func (d *RootDependencies) SyncOptions() snapshot_sync.Options {
	opts := d.Config.SyncOptions()
	opts.Logger = d.Logger
	opts.TokenManager = d.TokenManagement
	return opts
}

func vaultDir(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return filepath.Abs(args[0])
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return cwd, nil
}
