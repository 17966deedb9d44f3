package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-inspect/internal/agent"
	"github.com/certwatch-app/cw-inspect/internal/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Inspect configured targets on an interval",
	Long: `Run cw-inspect as a long lived agent. All targets are inspected on
startup and then every agent.scan_interval. When agent.metrics_port is set,
results are exposed as Prometheus metrics on /metrics and the last report
on /report. When push.endpoint is set, each report is POSTed to it.

Example:
  cw-inspect watch -c /path/to/cw-inspect.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Load and validate configuration
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if validationErr := cfg.Validate(); validationErr != nil {
		return fmt.Errorf("invalid configuration: %w", validationErr)
	}

	// Create agent
	a, err := agent.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			fmt.Printf("\nReceived signal %v, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Printf("Starting cw-inspect agent '%s'...\n", cfg.Agent.Name)
	fmt.Printf("Watching %d target(s)\n", len(cfg.Targets))
	fmt.Printf("Scan interval: %s\n", cfg.Agent.ScanInterval)

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("agent error: %w", err)
	}

	fmt.Println("Agent stopped gracefully")
	return nil
}
