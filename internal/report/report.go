// Package report turns batch outcomes into structured entries and renders
// them as text or JSON.
package report

import (
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/certwatch-app/cw-inspect/internal/certinfo"
	"github.com/certwatch-app/cw-inspect/internal/scanner"
)

// Report is the result of one check or scan
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Entries     []Entry   `json:"entries"`
	Summary     Summary   `json:"summary"`
}

// Summary counts outcomes across a report
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Expired   int `json:"expired"`
	// ExpiringSoon counts certificates with 30 or fewer days left that have
	// not yet expired
	ExpiringSoon int `json:"expiring_soon"`
}

// Entry is the report line for a single target. Certificate, Expiry and
// the connection fields are only set when the handshake succeeded; Error and
// ErrorKind only when it did not.
// Fields are ordered for optimal memory alignment
type Entry struct {
	Certificate *certinfo.Attributes `json:"certificate,omitempty"`
	Expiry      *certinfo.Expiry     `json:"expiry,omitempty"`
	Hostname    string               `json:"hostname"`
	ServerName  string               `json:"server_name,omitempty"`
	PeerAddress string               `json:"peer_address,omitempty"`
	TLSVersion  string               `json:"tls_version,omitempty"`
	CipherSuite string               `json:"cipher_suite,omitempty"`
	Error       string               `json:"error,omitempty"`
	ErrorKind   string               `json:"error_kind,omitempty"`
	Chain       []ChainCertificate   `json:"chain,omitempty"`
	DurationMS  int64                `json:"duration_ms"`
	Port        int                  `json:"port"`
	Attempts    int                  `json:"attempts"`
}

// ChainCertificate summarizes one certificate the peer presented
type ChainCertificate struct {
	NotAfter    time.Time `json:"not_after"`
	Subject     string    `json:"subject"`
	Issuer      string    `json:"issuer"`
	Fingerprint string    `json:"fingerprint_sha256"`
}

// OK reports whether the entry carries a certificate
func (e *Entry) OK() bool {
	return e.Certificate != nil
}

// Target returns the host and port the entry was produced for
func (e *Entry) Target() scanner.HostTarget {
	return scanner.HostTarget{Hostname: e.Hostname, Port: e.Port}
}

// Build converts outcomes into a report, classifying expiry at now.
// Entries keep the order of outcomes.
func Build(outcomes []scanner.Outcome, now time.Time) Report {
	r := Report{
		GeneratedAt: now.UTC(),
		Entries:     make([]Entry, 0, len(outcomes)),
	}

	for i := range outcomes {
		entry := BuildEntry(&outcomes[i], now)
		r.Entries = append(r.Entries, entry)

		r.Summary.Total++
		if !entry.OK() {
			r.Summary.Failed++
			continue
		}
		r.Summary.Succeeded++
		if entry.Expiry.Expired() {
			r.Summary.Expired++
		} else if _, soon := entry.Expiry.UnderThirty.Days(); soon {
			r.Summary.ExpiringSoon++
		}
	}

	return r
}

// BuildEntry converts a single outcome
func BuildEntry(o *scanner.Outcome, now time.Time) Entry {
	entry := Entry{
		Hostname:   o.Target.Hostname,
		Port:       o.Target.Port,
		DurationMS: o.Duration.Milliseconds(),
		Attempts:   o.Attempts,
	}

	if !o.OK() {
		err := o.Err
		if err == nil {
			err = errors.New("no certificate returned")
		}
		entry.Error = err.Error()
		entry.ErrorKind = scanner.Kind(err)
		return entry
	}

	info := o.Info
	attrs := certinfo.Extract(info.Certificate)
	expiry := certinfo.Classify(attrs.NotAfter, now)

	entry.Certificate = &attrs
	entry.Expiry = &expiry
	entry.ServerName = info.ServerName
	entry.TLSVersion = info.TLSVersionName()
	entry.CipherSuite = info.CipherSuiteName()
	if info.PeerAddress != nil {
		entry.PeerAddress = info.PeerAddress.String()
	}
	for _, cert := range info.Chain {
		entry.Chain = append(entry.Chain, chainCertificate(cert))
	}

	return entry
}

func chainCertificate(cert *x509.Certificate) ChainCertificate {
	return ChainCertificate{
		Subject:     cert.Subject.String(),
		Issuer:      cert.Issuer.String(),
		NotAfter:    certinfo.NotAfter(cert),
		Fingerprint: certinfo.Fingerprint(cert),
	}
}

// WithoutAddresses returns a copy of r with every peer address cleared
func (r Report) WithoutAddresses() Report {
	entries := make([]Entry, len(r.Entries))
	copy(entries, r.Entries)
	for i := range entries {
		entries[i].PeerAddress = ""
	}
	r.Entries = entries
	return r
}

// WriteJSON writes r as indented JSON
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
