package cmd

import (
	"fmt"
	"os"

	"github.com/meysamhadeli/focussync/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config [vault-dir]",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration focussync would run with, after merging defaults, the
focussync-config file, FOCUSSYNC_* environment variables and command line flags.
The output can be saved as focussync-config.yml to start a configuration file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := vaultDir(args)
		if err != nil {
			return err
		}
		cfg, err := config.LoadConfigs(cmd.Root(), cwd)
		if err != nil {
			return err
		}

		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		defer encoder.Close()
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
