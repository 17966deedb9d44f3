package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-inspect/internal/config"
	"github.com/certwatch-app/cw-inspect/internal/report"
	"github.com/certwatch-app/cw-inspect/internal/scanner"
)

var (
	checkPort    int
	checkNoIP    bool
	checkOutput  string
	checkTimeout time.Duration
	checkVerify  bool
	checkChain   bool
)

var checkCmd = &cobra.Command{
	Use:   "check <hostname>",
	Short: "Inspect the certificate of a single host",
	Long: `Connect to a host, retrieve the certificate it presents and print its
names, issuer, validity window and expiry buckets.

The certificate is retrieved even when it is expired, self-signed or issued
for another name. Use --verify to fail on untrusted chains instead.

Examples:
  cw-inspect check example.com
  cw-inspect check bücher.example --port 8443 --no-ip
  cw-inspect check example.com --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().IntVarP(&checkPort, "port", "p", scanner.DefaultPort, "TLS port to connect to")
	checkCmd.Flags().BoolVar(&checkNoIP, "no-ip", false, "do not print the peer address")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", outputText, "output format (text or json)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 0, "handshake timeout (default from config, 10s)")
	checkCmd.Flags().BoolVar(&checkVerify, "verify", false, "fail when the chain is not trusted by the system roots")
	checkCmd.Flags().BoolVar(&checkChain, "chain", false, "list every certificate the server presented")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := validateOutput(checkOutput); err != nil {
		return err
	}

	if checkPort < 1 || checkPort > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("timeout") {
		cfg.Scan.Timeout = checkTimeout
	}
	if checkVerify {
		cfg.Scan.TrustPolicy = scanner.TrustVerify.String()
	}

	// The target comes from the command line; configured targets are ignored
	cfg.Targets = []config.TargetConfig{{Hostname: args[0], Port: checkPort}}

	if err := cfg.ValidateScan(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return inspectTargets(cmd, cfg, cfg.HostTargets(), checkOutput, report.TextOptions{
		HideAddress: checkNoIP,
		ShowChain:   checkChain,
	})
}
