package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-inspect/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the cw-inspect configuration file without connecting to any target.

Example:
  cw-inspect validate -c /path/to/cw-inspect.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	push := "disabled"
	if cfg.PushEnabled() {
		push = cfg.Push.Endpoint
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration is valid!")
	fmt.Fprintf(out, "  Targets: %d\n", len(cfg.Targets))
	fmt.Fprintf(out, "  Concurrency: %d\n", cfg.Scan.Concurrency)
	fmt.Fprintf(out, "  Timeout: %s\n", cfg.Scan.Timeout)
	fmt.Fprintf(out, "  Retries: %d\n", cfg.Scan.Retries)
	fmt.Fprintf(out, "  Trust policy: %s\n", cfg.Scan.TrustPolicy)
	fmt.Fprintf(out, "  Agent name: %s\n", cfg.Agent.Name)
	fmt.Fprintf(out, "  Scan interval: %s\n", cfg.Agent.ScanInterval)
	if cfg.Agent.MetricsPort > 0 {
		fmt.Fprintf(out, "  Metrics port: %d\n", cfg.Agent.MetricsPort)
	}
	fmt.Fprintf(out, "  Push: %s\n", push)

	return nil
}
