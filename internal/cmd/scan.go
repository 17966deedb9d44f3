package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-inspect/internal/config"
	"github.com/certwatch-app/cw-inspect/internal/report"
)

var (
	scanOutput string
	scanNoIP   bool
	scanChain  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Inspect every configured target once",
	Long: `Inspect the certificates of all targets in the configuration file and
print a report. Targets are checked concurrently and reported in file order.
The command exits non-zero when any target fails.

Examples:
  cw-inspect scan -c /path/to/cw-inspect.yaml
  cw-inspect scan --output json > report.json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", outputText, "output format (text or json)")
	scanCmd.Flags().BoolVar(&scanNoIP, "no-ip", false, "do not print peer addresses")
	scanCmd.Flags().BoolVar(&scanChain, "chain", false, "list every certificate each server presented")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := validateOutput(scanOutput); err != nil {
		return err
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return inspectTargets(cmd, cfg, cfg.HostTargets(), scanOutput, report.TextOptions{
		HideAddress: scanNoIP,
		ShowChain:   scanChain,
		ShowSummary: true,
	})
}
