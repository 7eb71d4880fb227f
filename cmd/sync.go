package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meysamhadeli/focussync/constants/lipgloss"
	"github.com/meysamhadeli/focussync/snapshot_sync"
	"github.com/meysamhadeli/focussync/vault"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// syncCmd: focussync sync
var syncCmd = &cobra.Command{
	Use:   "sync [vault-dir]",
	Short: "Watch a vault and keep its focus snapshot up to date until interrupted.",
	Long: `The 'sync' subcommand watches the vault for changes and refreshes the focus snapshot
shortly after every burst of activity, with a periodic refresh as a safety net. Writing to a
markdown document makes it the active document unless follow_writes is disabled.
Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd, args)
		if err != nil {
			return err
		}
		open, _ := cmd.Flags().GetString("open")
		return handleSyncCommand(rootDependencies, open)
	},
}

func init() {
	syncCmd.Flags().String("open", "", "Vault-relative path of a document to open when syncing starts")
	rootCmd.AddCommand(syncCmd)
}

func handleSyncCommand(rootDependencies *RootDependencies, open string) error {
	// Create a context with cancel function
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := rootDependencies.Logger
	workspace := rootDependencies.Workspace

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := rootDependencies.SyncOptions()
	opts.Metrics = snapshot_sync.NewMetrics(registry)
	synchronizer := snapshot_sync.NewSynchronizer(rootDependencies.Host(), workspace, workspace, opts)

	watcher, err := vault.NewWatcher(rootDependencies.Vault, workspace, rootDependencies.Headings, logger,
		synchronizer.Writer().Path(), synchronizer.Writer().TempPath())
	if err != nil {
		return fmt.Errorf("failed to create vault watcher: %w", err)
	}
	watcher.FollowWrites(rootDependencies.Config.FollowWrites)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to watch vault: %w", err)
	}
	workspace.Register(func() {
		if err := watcher.Stop(); err != nil {
			logger.Warn("failed to stop vault watcher", logger.Args("error", err))
		}
	})

	if addr := rootDependencies.Config.MetricsAddr; addr != "" {
		serveMetrics(workspace, registry, addr, logger)
	}

	if open != "" {
		if _, err := workspace.Open(open); err != nil {
			workspace.Shutdown()
			return err
		}
	}

	synchronizer.Start()

	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("Syncing %s\nSnapshot: %s\nCtrl+C to stop",
		rootDependencies.Cwd, synchronizer.Writer().Path())))
	logger.Info("sync started", logger.Args(
		"sync_id", synchronizer.ID(),
		"documents", len(rootDependencies.Vault.Documents()),
		"entries", rootDependencies.Vault.Len(),
	))

	// SIGHUP prints and resets the counters and rewrites the snapshot,
	// e.g. after 'focussync clean' removed it while syncing.
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)

waitLoop:
	for {
		select {
		case <-ctx.Done():
			break waitLoop
		case <-hangup:
			logger.Info("refreshing snapshot", logger.Args(statsArgs(synchronizer.Stats())...))
			synchronizer.ResetStats()
			synchronizer.Refresh()
		}
	}

	workspace.Shutdown()

	stats := synchronizer.Stats()
	fmt.Print("\r")
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Sync stopped after %v runs, %v writes, %v unchanged.",
		stats["runs"], stats["writes"], stats["unchanged"])))
	return nil
}

func statsArgs(stats map[string]interface{}) []any {
	args := make([]any, 0, 8)
	for _, key := range []string{"runs", "writes", "unchanged", "write_failures"} {
		args = append(args, key, stats[key])
	}
	return args
}

// serveMetrics exposes the registry over HTTP until the workspace shuts down.
func serveMetrics(workspace *vault.Workspace, registry *prometheus.Registry, addr string, logger *pterm.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", logger.Args("addr", addr, "error", err))
		}
	}()
	logger.Info("serving metrics", logger.Args("addr", addr, "path", "/metrics"))

	workspace.Register(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})
}
