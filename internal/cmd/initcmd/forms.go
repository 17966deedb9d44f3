package initcmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// NewWelcomeForm creates the welcome and file configuration form.
func NewWelcomeForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to cw-inspect Setup!").
				Description("This wizard will help you create a configuration file for cw-inspect.\n\n"+
					"You'll need:\n"+
					"  • Hostnames (and ports) of the TLS endpoints to inspect\n"+
					"  • Optionally, a collector URL and API key to push reports to"),

			huh.NewInput().
				Title("Config file path").
				Description("Where to save the configuration file").
				Placeholder(DefaultConfigPath).
				Value(&state.ConfigPath).
				Validate(ValidateConfigPath),
		),
	).WithTheme(CreateTheme())
}

// NewScanForm creates the scan behavior form.
func NewScanForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Scan Configuration").
				Description("How handshakes are performed"),

			huh.NewSelect[string]().
				Title("Concurrency").
				Description("Maximum handshakes in flight at once").
				Options(
					huh.NewOption("1 (sequential)", "1"),
					huh.NewOption("4 (recommended)", "4"),
					huh.NewOption("16", "16"),
					huh.NewOption("64", "64"),
				).
				Value(&state.Concurrency).
				Validate(ValidateConcurrency),

			huh.NewInput().
				Title("Handshake Timeout").
				Description("Time limit for a single connect and handshake").
				Placeholder("10s").
				Value(&state.Timeout).
				Validate(ValidateTimeout),

			huh.NewSelect[string]().
				Title("Retries").
				Description("Extra attempts after a connection or handshake failure").
				Options(
					huh.NewOption("None (recommended)", "0"),
					huh.NewOption("1", "1"),
					huh.NewOption("3", "3"),
				).
				Value(&state.Retries),

			huh.NewSelect[string]().
				Title("Trust Policy").
				Description("Whether untrusted certificates are still inspected").
				Options(
					huh.NewOption("Inspect: retrieve any certificate (recommended)", "inspect"),
					huh.NewOption("Verify: fail targets with untrusted chains", "verify"),
				).
				Value(&state.TrustPolicy),
		),
	).WithTheme(CreateTheme())
}

// NewAgentForm creates the watch mode configuration form.
func NewAgentForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Watch Mode").
				Description("Settings used by 'cw-inspect watch'"),

			huh.NewInput().
				Title("Agent Name").
				Description("Identifies this instance in metrics and pushed reports").
				Placeholder("cw-inspect").
				Value(&state.AgentName).
				Validate(ValidateAgentName),

			huh.NewSelect[string]().
				Title("Scan Interval").
				Description("How often to scan all targets").
				Options(
					huh.NewOption("5 minutes", "5m"),
					huh.NewOption("15 minutes", "15m"),
					huh.NewOption("1 hour (recommended)", "1h"),
					huh.NewOption("6 hours", "6h"),
				).
				Value(&state.ScanInterval),

			huh.NewSelect[string]().
				Title("Log Level").
				Description("Logging verbosity").
				Options(
					huh.NewOption("Debug (verbose)", "debug"),
					huh.NewOption("Info (recommended)", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error (quiet)", "error"),
				).
				Value(&state.LogLevel),

			huh.NewSelect[string]().
				Title("Metrics Server Port").
				Description("Port for the Prometheus endpoint (/metrics)").
				Options(
					huh.NewOption("Disabled", "0"),
					huh.NewOption("9402", "9402"),
					huh.NewOption("9090", "9090"),
					huh.NewOption("8080", "8080"),
				).
				Value(&state.MetricsPort).
				Validate(ValidateMetricsPort),
		),
	).WithTheme(CreateTheme())
}

// NewPushForm asks whether reports should be pushed to a collector.
func NewPushForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Push reports to a collector?").
				Description("Each scan in watch mode is POSTed as JSON").
				Value(&state.EnablePush).
				Affirmative("Yes").
				Negative("No"),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Collector URL").
				Placeholder("https://collector.example.com/reports").
				Value(&state.PushEndpoint).
				Validate(ValidateEndpoint),

			huh.NewInput().
				Title("API Key").
				Description("Sent in the X-API-Key header").
				Value(&state.PushKey).
				EchoMode(huh.EchoModePassword).
				Validate(ValidatePushKey),
		).WithHideFunc(func() bool { return !state.EnablePush }),
	).WithTheme(CreateTheme())
}

// NewTargetForm creates a target entry form.
func NewTargetForm(state *WizardState, targetNum int) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Target #%d", targetNum)).
				Description("Add a TLS endpoint to inspect"),

			huh.NewInput().
				Title("Hostname").
				Description("The hostname to check (e.g., api.example.com or bücher.example)").
				Placeholder("api.example.com").
				Value(&state.CurrentTarget.Hostname).
				Validate(ValidateHostname),

			huh.NewInput().
				Title("Port").
				Description("TLS port (default: 443)").
				Placeholder("443").
				Value(&state.CurrentTarget.PortStr).
				Validate(ValidatePort),

			huh.NewInput().
				Title("Tags (comma-separated)").
				Description("Optional tags included in pushed reports").
				Placeholder("production, api").
				Value(&state.CurrentTarget.Tags).
				Validate(ValidateTags),

			huh.NewInput().
				Title("Notes").
				Description("Optional notes about this target").
				Placeholder("Main API endpoint").
				Value(&state.CurrentTarget.Notes).
				Validate(ValidateNotes),

			huh.NewConfirm().
				Title("Add another target?").
				Value(&state.AddAnother).
				Affirmative("Yes").
				Negative("No"),
		),
	).WithTheme(CreateTheme())
}

// NewOverwriteConfirmForm creates a form to confirm file overwrite.
func NewOverwriteConfirmForm(state *WizardState, path string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("File '%s' already exists. Overwrite?", path)).
				Description("The existing file will be replaced with the new configuration.").
				Value(&state.OverwriteFile).
				Affirmative("Yes, overwrite").
				Negative("No, cancel"),
		),
	).WithTheme(CreateTheme())
}
