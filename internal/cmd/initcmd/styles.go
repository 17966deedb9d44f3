package initcmd

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/certwatch-app/cw-inspect/internal/scanner"
)

// Palette, the same one the text report uses
var (
	colorPrimary   = lipgloss.Color("#0EA5E9")
	colorSuccess   = lipgloss.Color("#22C55E")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorHighlight = lipgloss.Color("#A855F7")
	colorDark      = lipgloss.Color("#1F2937")
	colorLight     = lipgloss.Color("#F9FAFB")
)

const sectionWidth = 44

var (
	// TitleStyle for section headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	// MutedStyle for secondary text
	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	codeStyle    = lipgloss.NewStyle().Background(colorDark).Foreground(colorLight).Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1).MarginBottom(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorLight).Background(colorPrimary).Padding(0, 2)
	hostStyle    = lipgloss.NewStyle().Foreground(colorPrimary)
)

// CreateTheme returns the huh theme used by every wizard form.
func CreateTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(colorPrimary)
	t.Focused.Description = t.Focused.Description.Foreground(colorMuted)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(colorHighlight)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(colorPrimary)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(colorPrimary)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(colorError)

	t.Blurred.Title = t.Blurred.Title.Foreground(colorMuted)

	return t
}

// RenderHeader renders the wizard banner.
func RenderHeader() string {
	return headerStyle.Render(" cw-inspect Setup ")
}

// RenderSection renders a divider padded to a fixed width.
func RenderSection(title string) string {
	label := "─── " + title + " "
	fill := sectionWidth - lipgloss.Width(label)
	if fill < 3 {
		fill = 3
	}
	return sectionStyle.Render(label + strings.Repeat("─", fill))
}

func RenderSuccess(msg string) string { return successStyle.Render("✓ " + msg) }
func RenderError(msg string) string   { return errorStyle.Render("✗ " + msg) }
func RenderWarning(msg string) string { return warningStyle.Render("! " + msg) }
func RenderInfo(msg string) string    { return MutedStyle.Render("→ " + msg) }
func RenderCode(code string) string   { return codeStyle.Render(code) }

// RenderTargets lists targets one per line with their tags. The default
// port is left out.
func RenderTargets(targets []TargetInput) string {
	var b strings.Builder
	for _, t := range targets {
		port, err := strconv.Atoi(t.PortStr)
		if err != nil {
			port = scanner.DefaultPort
		}
		name := scanner.HostTarget{Hostname: t.Hostname, Port: port}.String()
		b.WriteString("    • " + hostStyle.Render(name))
		if tags := parseTags(t.Tags); len(tags) > 0 {
			b.WriteString(MutedStyle.Render(" [" + strings.Join(tags, ", ") + "]"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
