package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"clawnch-scanner/internal/config"
	"clawnch-scanner/internal/scanner"
)

func newScanCmd(e *env) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan pass and print the report as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := e.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			a, err := wireApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.runner.Run(ctx, scanner.RunOptions{Debug: debug})

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "include fetch diagnostics in the report")
	cmd.Flags().Int("max-launches", 3, "maximum launches in this pass")
	_ = e.v.BindPFlag(config.KeyMaxLaunches, cmd.Flags().Lookup("max-launches"))

	return cmd
}
