package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/fastfingers-bot/internal/storage"
)

func newLastRunCmd(configFile *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "last-run",
		Short: "Show the most recent announced run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate format
			outFormat := OutputFormat(strings.ToLower(format))
			if outFormat != FormatText && outFormat != FormatJSON {
				return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", format)
			}

			cfg, err := loadConfig(cmd, *configFile)
			if err != nil {
				return err
			}

			store, err := storage.New(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}

			record, err := store.LoadLastRun()
			if err != nil {
				return fmt.Errorf("loading run journal: %w", err)
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			if err := WriteOutput(cmd.OutOrStdout(), record, outFormat, verbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}
