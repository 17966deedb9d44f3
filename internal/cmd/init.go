package cmd

import (
	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-inspect/internal/cmd/initcmd"
)

var (
	initOutputPath     string
	initNonInteractive bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new cw-inspect configuration",
	Long: `Interactively create a new cw-inspect configuration file.

The wizard will guide you through setting up:
  • Targets to inspect (hostnames, ports, tags)
  • Scan behavior (concurrency, timeout, retries, trust policy)
  • Watch mode (agent name, scan interval, metrics port)
  • Optional report push (collector URL, API key)

Examples:
  # Interactive mode (default)
  cw-inspect init

  # Specify output path
  cw-inspect init -o /etc/cw-inspect/cw-inspect.yaml

  # Non-interactive mode (for CI/scripting)
  CW_TARGETS=example.com,api.example.com:8443 cw-inspect init --non-interactive

Environment variables for non-interactive mode:
  CW_TARGETS        (required) Comma-separated host or host:port list
  CW_CONCURRENCY    (optional) Handshakes in flight (default: 4)
  CW_TIMEOUT        (optional) Handshake timeout (default: 10s)
  CW_RETRIES        (optional) Retries per target (default: 0)
  CW_TRUST_POLICY   (optional) inspect or verify (default: inspect)
  CW_AGENT_NAME     (optional) Agent name (default: cw-inspect)
  CW_SCAN_INTERVAL  (optional) Watch interval (default: 1h)
  CW_LOG_LEVEL      (optional) Log level (default: info)
  CW_METRICS_PORT   (optional) Metrics port, 0 disables (default: 0)
  CW_PUSH_ENDPOINT  (optional) Collector URL; enables push
  CW_PUSH_KEY       (optional) Collector API key, required with CW_PUSH_ENDPOINT`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", initcmd.DefaultConfigPath,
		"Output path for the configuration file")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false,
		"Run in non-interactive mode using environment variables")
}

func runInit(_ *cobra.Command, _ []string) error {
	if initNonInteractive {
		return initcmd.RunNonInteractive(initOutputPath)
	}

	wizard := initcmd.NewWizard()
	wizard.SetOutputPath(initOutputPath)
	return wizard.Run()
}
