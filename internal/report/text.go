package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// TextOptions controls RenderText
type TextOptions struct {
	// HideAddress omits the peer address after the hostname
	HideAddress bool
	// ShowChain lists every certificate the peer presented
	ShowChain bool
	// ShowSummary appends a totals line
	ShowSummary bool
	// NoColor disables styling even when w is a terminal
	NoColor bool
}

const timeLayout = "2006-01-02 15:04:05 MST"

// Absent attributes are shown as "none"
const none = "none"

type styles struct {
	host    lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func newStyles(w io.Writer, noColor bool) styles {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		host:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#0EA5E9")),
		label:   r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
	}
}

// RenderText writes a human readable block per entry:
//
//	» example.com « … 93.184.216.34:443
//		commonName: example.com
//		SAN: example.com, www.example.com
//		issuer: Example CA
//		notBefore: 2024-01-01 00:00:00 UTC
//		notAfter:  2024-04-01 00:00:00 UTC
//		longer than 60 days: false
//		under 60 days: true
//		under 45 days: true
//		days left 20
func RenderText(w io.Writer, r Report, opts TextOptions) error {
	st := newStyles(w, opts.NoColor)

	var b strings.Builder
	for i := range r.Entries {
		if i > 0 {
			b.WriteString("\n")
		}
		renderEntry(&b, &r.Entries[i], st, opts)
	}

	if opts.ShowSummary {
		b.WriteString("\n")
		b.WriteString(renderSummary(r.Summary, st))
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func renderEntry(b *strings.Builder, e *Entry, st styles, opts TextOptions) {
	fmt.Fprintf(b, "» %s «", st.host.Render(e.Target().String()))

	if !e.OK() {
		// The target is already in the header
		msg := strings.TrimPrefix(e.Error, e.Target().String()+": ")
		fmt.Fprintf(b, " %s\n", st.failure.Render("✗ "+msg))
		return
	}

	if !opts.HideAddress && e.PeerAddress != "" {
		fmt.Fprintf(b, " … %s", e.PeerAddress)
	}
	b.WriteString("\n")

	c := e.Certificate
	field(b, st, "commonName: ", c.CommonName.OrElse(none))
	sans := none
	if names, ok := c.SubjectAltNames.Get(); ok {
		sans = strings.Join(names, ", ")
	}
	field(b, st, "SAN: ", sans)
	field(b, st, "issuer: ", c.IssuerOrganization.OrElse(none))
	field(b, st, "notBefore: ", c.NotBefore.Format(timeLayout))
	field(b, st, "notAfter:  ", c.NotAfter.Format(timeLayout))

	x := e.Expiry
	field(b, st, "longer than 60 days: ", fmt.Sprint(x.OverSixty))
	field(b, st, "under 60 days: ", fmt.Sprint(x.UnderSixty))
	field(b, st, "under 45 days: ", fmt.Sprint(x.UnderFortyFive))
	field(b, st, "days left ", daysLeftStyle(x.DaysRemaining, st).Render(x.UnderThirty.String()))

	if opts.ShowChain {
		for i, cert := range e.Chain {
			fmt.Fprintf(b, "\t%s %s\n", st.muted.Render(fmt.Sprintf("[%d]", i)), cert.Subject)
			fmt.Fprintf(b, "\t    %s %s\n", st.label.Render("issuer:"), cert.Issuer)
			fmt.Fprintf(b, "\t    %s %s\n", st.label.Render("notAfter:"), cert.NotAfter.Format(timeLayout))
		}
	}
}

func field(b *strings.Builder, st styles, label, value string) {
	fmt.Fprintf(b, "\t%s%s\n", st.label.Render(label), value)
}

func daysLeftStyle(days int, st styles) lipgloss.Style {
	switch {
	case days < 0:
		return st.failure
	case days <= 30:
		return st.warning
	default:
		return st.ok
	}
}

func renderSummary(s Summary, st styles) string {
	parts := []string{
		fmt.Sprintf("%d targets", s.Total),
		st.ok.Render(fmt.Sprintf("%d ok", s.Succeeded)),
	}
	if s.Failed > 0 {
		parts = append(parts, st.failure.Render(fmt.Sprintf("%d failed", s.Failed)))
	}
	if s.Expired > 0 {
		parts = append(parts, st.failure.Render(fmt.Sprintf("%d expired", s.Expired)))
	}
	if s.ExpiringSoon > 0 {
		parts = append(parts, st.warning.Render(fmt.Sprintf("%d expiring within 30 days", s.ExpiringSoon)))
	}
	return strings.Join(parts, st.muted.Render(" · "))
}
