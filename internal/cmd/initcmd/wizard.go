package initcmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/huh"
)

// Wizard manages the interactive configuration wizard.
type Wizard struct {
	state      *WizardState
	outputPath string
}

// NewWizard creates a new wizard instance.
func NewWizard() *Wizard {
	return &Wizard{
		state: NewWizardState(),
	}
}

// SetOutputPath sets the output path (from command line flag).
func (w *Wizard) SetOutputPath(path string) {
	w.outputPath = path
	if path != "" {
		w.state.ConfigPath = path
	}
}

// Run executes the wizard flow.
func (w *Wizard) Run() error {
	// Setup signal handling for graceful Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println()
		fmt.Println(RenderWarning("Setup canceled by user"))
		os.Exit(0)
	}()

	fmt.Println()
	fmt.Println(RenderHeader())
	fmt.Println()

	// Step 1: Welcome and file configuration
	if err := NewWelcomeForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	// Step 2: Check for existing file
	if err := w.handleExistingFile(); err != nil {
		return err
	}

	// Step 3: Targets (loop)
	fmt.Println(RenderSection("Targets to Inspect"))
	if err := w.runTargetForms(); err != nil {
		return w.handleError(err)
	}

	// Step 4: Scan behavior
	fmt.Println(RenderSection("Scan Configuration"))
	if err := NewScanForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	// Step 5: Watch mode and push
	fmt.Println(RenderSection("Watch Mode"))
	if err := NewAgentForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}
	if err := NewPushForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	// Step 6: Generate and validate config
	cfg, err := w.state.ToConfig()
	if err != nil {
		return w.handleError(fmt.Errorf("failed to create configuration: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return w.handleValidationError(err)
	}

	// Step 7: Write config file
	fmt.Println()
	if err := WriteConfig(cfg, w.state.ConfigPath); err != nil {
		return w.handleError(err)
	}

	w.showSuccess()

	return nil
}

func (w *Wizard) runTargetForms() error {
	targetNum := 1

	for {
		w.state.ResetCurrentTarget()

		form := NewTargetForm(w.state, targetNum)
		if err := form.Run(); err != nil {
			return err
		}

		w.state.SaveCurrentTarget()

		if !w.state.AddAnother {
			break
		}

		targetNum++
	}

	if len(w.state.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}

	return nil
}

func (w *Wizard) handleExistingFile() error {
	if !FileExists(w.state.ConfigPath) {
		return nil
	}

	form := NewOverwriteConfirmForm(w.state, w.state.ConfigPath)
	if err := form.Run(); err != nil {
		return w.handleError(err)
	}

	if !w.state.OverwriteFile {
		fmt.Println(RenderWarning("Setup canceled: file already exists"))
		os.Exit(0)
	}

	return nil
}

func (w *Wizard) handleError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println()
		fmt.Println(RenderWarning("Setup canceled"))
		os.Exit(0)
	}
	fmt.Println()
	fmt.Println(RenderError(err.Error()))
	return err
}

func (w *Wizard) handleValidationError(err error) error {
	fmt.Println()
	fmt.Println(RenderError("Configuration validation failed:"))
	fmt.Println(RenderError("  " + err.Error()))
	fmt.Println()
	fmt.Println(RenderInfo("Please run 'cw-inspect init' again with corrected values."))
	return err
}

func (w *Wizard) showSuccess() {
	fmt.Println()
	fmt.Println(RenderSuccess("Config written to " + w.state.ConfigPath))
	fmt.Println(RenderSuccess("Validated successfully"))
	fmt.Println()

	push := "disabled"
	if w.state.EnablePush {
		push = w.state.PushEndpoint
	}

	fmt.Println(TitleStyle.Render("Configuration Summary:"))
	fmt.Println(MutedStyle.Render("  Targets:      ") + fmt.Sprintf("%d", len(w.state.Targets)))
	fmt.Println(MutedStyle.Render("  Concurrency:  ") + w.state.Concurrency)
	fmt.Println(MutedStyle.Render("  Trust policy: ") + w.state.TrustPolicy)
	fmt.Println(MutedStyle.Render("  Interval:     ") + w.state.ScanInterval)
	fmt.Println(MutedStyle.Render("  Push:         ") + push)
	fmt.Println()
	fmt.Print(RenderTargets(w.state.Targets))
	fmt.Println()

	fmt.Println(TitleStyle.Render("Next steps:"))
	fmt.Println()
	fmt.Println("  To validate your config:")
	fmt.Println("    " + RenderCode("cw-inspect validate -c "+w.state.ConfigPath))
	fmt.Println()
	fmt.Println("  To scan once:")
	fmt.Println("    " + RenderCode("cw-inspect scan -c "+w.state.ConfigPath))
	fmt.Println()
	fmt.Println("  To keep watching:")
	fmt.Println("    " + RenderCode("cw-inspect watch -c "+w.state.ConfigPath))
	fmt.Println()
}

// RunNonInteractive builds the configuration from CW_* environment variables.
func RunNonInteractive(outputPath string) error {
	return runNonInteractive(outputPath, os.Getenv, os.Stdout)
}

func runNonInteractive(outputPath string, getenv func(string) string, out io.Writer) error {
	state := NewWizardState()
	state.ConfigPath = outputPath

	// Parse targets from CW_TARGETS (comma-separated host or host:port)
	for _, spec := range strings.Split(getenv("CW_TARGETS"), ",") {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		state.Targets = append(state.Targets, parseTargetSpec(spec))
	}

	if len(state.Targets) == 0 {
		return fmt.Errorf("CW_TARGETS environment variable is required (comma-separated host[:port] list)")
	}

	overrides := []struct {
		env   string
		field *string
	}{
		{"CW_AGENT_NAME", &state.AgentName},
		{"CW_SCAN_INTERVAL", &state.ScanInterval},
		{"CW_LOG_LEVEL", &state.LogLevel},
		{"CW_METRICS_PORT", &state.MetricsPort},
		{"CW_CONCURRENCY", &state.Concurrency},
		{"CW_TIMEOUT", &state.Timeout},
		{"CW_RETRIES", &state.Retries},
		{"CW_TRUST_POLICY", &state.TrustPolicy},
	}
	for _, o := range overrides {
		if v := getenv(o.env); v != "" {
			*o.field = v
		}
	}

	if endpoint := getenv("CW_PUSH_ENDPOINT"); endpoint != "" {
		state.EnablePush = true
		state.PushEndpoint = endpoint
		state.PushKey = getenv("CW_PUSH_KEY")
	}

	cfg, err := state.ToConfig()
	if err != nil {
		return fmt.Errorf("failed to create configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := WriteConfig(cfg, state.ConfigPath); err != nil {
		return err
	}

	fmt.Fprintln(out, RenderSuccess("Config written to "+state.ConfigPath))
	return nil
}
