package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/meysamhadeli/focussync/constants/lipgloss"
	"github.com/meysamhadeli/focussync/snapshot_sync"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean [vault-dir]",
	Short: "Remove the focus snapshot and any leftover temporary file",
	Long: `The 'clean' command deletes the snapshot written by 'sync' or 'snapshot --write' together with
the temporary file an interrupted write may have left behind. Use --stats to inspect the current
snapshot without removing anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Parse flags
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")

		rootDependencies, err := handleRootCommand(cmd, args)
		if err != nil {
			return err
		}
		handleCleanCommand(rootDependencies, force, stats)
		return nil
	},
}

func init() {
	// Define command-specific flags
	cleanCmd.Flags().BoolP("force", "f", false, "Remove the snapshot without confirmation")
	cleanCmd.Flags().BoolP("stats", "s", false, "Show snapshot statistics instead of removing it")

	// Add the clean command to the root command
	rootCmd.AddCommand(cleanCmd)
}

func handleCleanCommand(rootDependencies *RootDependencies, force bool, showStats bool) {
	storage := rootDependencies.Storage
	writer := snapshot_sync.NewAtomicWriter(storage, rootDependencies.Config.ContextPath, rootDependencies.Config.TempSuffix, rootDependencies.Logger)

	// Show snapshot statistics if requested
	if showStats {
		fmt.Println(lipgloss.Info.Render("Snapshot Statistics:"))
		data, err := storage.Read(writer.Path())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Println("  No snapshot has been written yet")
			} else {
				fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: Could not read snapshot: %v", err)))
			}
			return
		}
		if full, ok := storage.FullPath(writer.Path()); ok {
			fmt.Printf("  Snapshot: %s\n", full)
		}
		fmt.Printf("  Size: %d bytes\n", len(data))
		fmt.Printf("  Tokens: ~%d\n", rootDependencies.TokenManagement.CountTokens(string(data)))
		fmt.Printf("  Fingerprint: %s\n", snapshot_sync.Fingerprint(data))
		if _, err := storage.Read(writer.TempPath()); err == nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("  Leftover temporary file: %s", writer.TempPath())))
		}
		return
	}

	if !force {
		reader := bufio.NewReader(os.Stdin)
		fmt.Printf("Are you sure you want to remove %s? (y/N): ", writer.Path())
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Clean cancelled."))
			return
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Removing focus snapshot...")

	removed := 0
	for _, path := range []string{writer.Path(), writer.TempPath()} {
		err := storage.Remove(path)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			spinnerInstance.Stop()
			fmt.Print("\r")
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error removing %s: %v", path, err)))
			return
		}
	}

	spinnerInstance.Stop()
	fmt.Print("\r")
	if removed == 0 {
		fmt.Println(lipgloss.Yellow.Render("No snapshot found. Nothing to remove."))
		return
	}
	fmt.Println(lipgloss.Green.Render("✓ Focus snapshot has been successfully removed!"))
}
