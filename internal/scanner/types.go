// Package scanner retrieves the certificates TLS servers present, without
// rejecting them on trust problems, and fans retrieval out over many hosts.
package scanner

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"time"
)

// DefaultPort is the port used when a target does not name one
const DefaultPort = 443

// HostTarget is one (hostname, port) pair to check
type HostTarget struct {
	Hostname string
	Port     int
}

// String returns the hostname:port form of the target
func (t HostTarget) String() string {
	return formatHostPort(t.Hostname, t.Port)
}

// HostInfo is the result of one completed handshake with one target.
// Fields are ordered for optimal memory alignment
type HostInfo struct {
	// Certificate is the leaf certificate presented by the peer
	Certificate *x509.Certificate
	PeerAddress net.Addr
	Hostname    string
	// ServerName is the normalized name sent as SNI
	ServerName string
	// Chain is every certificate the peer presented, leaf first
	Chain       []*x509.Certificate
	Port        int
	TLSVersion  uint16
	CipherSuite uint16
}

// TLSVersionName returns the negotiated protocol version, e.g. "TLS 1.3"
func (h *HostInfo) TLSVersionName() string {
	return tls.VersionName(h.TLSVersion)
}

// CipherSuiteName returns the negotiated cipher suite name
func (h *HostInfo) CipherSuiteName() string {
	return tls.CipherSuiteName(h.CipherSuite)
}

// Outcome is the result of checking a single target in a batch.
// Exactly one of Info and Err is set.
// Fields are ordered for optimal memory alignment
type Outcome struct {
	Info     *HostInfo
	Err      error
	Target   HostTarget
	Duration time.Duration
	Attempts int
}

// OK reports whether the target produced a certificate
func (o *Outcome) OK() bool {
	return o.Err == nil && o.Info != nil
}

func formatHostPort(hostname string, port int) string {
	if port == DefaultPort {
		return hostname
	}
	return net.JoinHostPort(hostname, fmt.Sprint(port))
}
