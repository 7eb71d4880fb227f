package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/meysamhadeli/focussync/constants/lipgloss"
	"github.com/meysamhadeli/focussync/snapshot_sync"
	"github.com/meysamhadeli/focussync/utils"
	"github.com/spf13/cobra"
)

type snapshotFlags struct {
	open      string
	line      int
	column    int
	explorer  []string
	selection string
	write     bool
	print     bool
	plain     bool
}

var snapshotOptions snapshotFlags

// snapshotCmd: focussync snapshot
var snapshotCmd = &cobra.Command{
	Use:   "snapshot [vault-dir]",
	Short: "Build the focus snapshot once and print or write it.",
	Long: `The 'snapshot' subcommand resolves the focus of a vault a single time. Use --open, --line
and --column to place the cursor in a document, --selection to simulate selected text and
--select to mark folders or files in the file explorer. The snapshot is printed with syntax
highlighting and, with --write, persisted exactly like 'sync' would.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd, args)
		if err != nil {
			return err
		}
		return handleSnapshotCommand(rootDependencies, snapshotOptions)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotOptions.open, "open", "", "Vault-relative path of the active document")
	snapshotCmd.Flags().IntVar(&snapshotOptions.line, "line", 0, "Zero-based cursor line in the active document")
	snapshotCmd.Flags().IntVar(&snapshotOptions.column, "column", 0, "Zero-based cursor column in the active document")
	snapshotCmd.Flags().StringSliceVar(&snapshotOptions.explorer, "select", nil, "Vault-relative paths selected in the file explorer")
	snapshotCmd.Flags().StringVar(&snapshotOptions.selection, "selection", "", "Text selected in the active document")
	snapshotCmd.Flags().BoolVarP(&snapshotOptions.write, "write", "w", false, "Persist the snapshot to the configured context path")
	snapshotCmd.Flags().BoolVar(&snapshotOptions.print, "print", true, "Print the snapshot")
	snapshotCmd.Flags().BoolVar(&snapshotOptions.plain, "plain", false, "Print without syntax highlighting")

	rootCmd.AddCommand(snapshotCmd)
}

func handleSnapshotCommand(rootDependencies *RootDependencies, flags snapshotFlags) error {
	workspace := rootDependencies.Workspace
	defer workspace.Shutdown()

	if len(flags.explorer) > 0 {
		if err := workspace.SelectInExplorer(flags.explorer...); err != nil {
			return err
		}
	}
	if flags.open != "" {
		if _, err := workspace.Open(flags.open); err != nil {
			return err
		}
		if err := workspace.MoveCursor(flags.line, flags.column); err != nil {
			return err
		}
		if flags.selection != "" {
			if err := workspace.Select(flags.selection); err != nil {
				return err
			}
		}
	}

	opts := rootDependencies.SyncOptions()
	synchronizer := snapshot_sync.NewSynchronizer(rootDependencies.Host(), nil, nil, opts)

	var serialized []byte
	if flags.write {
		outcome, err := synchronizer.SyncNow()
		if err != nil {
			return snapshotError(err)
		}
		if outcome.Write == snapshot_sync.WriteFailed {
			return fmt.Errorf("failed to write snapshot to %s", synchronizer.Writer().Path())
		}
		serialized = outcome.Serialized
	} else {
		snapshot, _, ok := synchronizer.Assembler().Assemble(snapshot_sync.ResolutionCache{})
		if !ok {
			return snapshotError(snapshot_sync.ErrNothingToReport)
		}
		var err error
		serialized, err = snapshot_sync.Serialize(snapshot, opts.JSONIndent)
		if err != nil {
			return err
		}
	}

	if flags.print {
		if err := utils.RenderJSON(os.Stdout, serialized, rootDependencies.Config.Theme, flags.plain); err != nil {
			return err
		}
	}

	if flags.write {
		rootDependencies.TokenManagement.DisplayTokens(synchronizer.Writer().Path(), len(serialized))
	} else if flags.print && !flags.plain {
		tokens := rootDependencies.TokenManagement.CountTokens(string(serialized))
		fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("~%d tokens, not written (use --write)", tokens)))
	}
	return nil
}

func snapshotError(err error) error {
	if errors.Is(err, snapshot_sync.ErrNothingToReport) {
		return fmt.Errorf("%w: pass --open or --select", err)
	}
	return err
}
