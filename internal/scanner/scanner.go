package scanner

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds connect plus handshake for a single attempt
const DefaultTimeout = 10 * time.Second

// TrustPolicy selects how the peer's certificate chain is treated during
// the handshake.
type TrustPolicy int

const (
	// TrustInspect completes the handshake without verifying the chain or
	// the hostname, so expired, mismatched and self-signed certificates are
	// still retrieved.
	TrustInspect TrustPolicy = iota
	// TrustVerify performs standard chain and hostname verification and
	// fails the check with ErrUntrusted when it does not pass.
	TrustVerify
)

func (p TrustPolicy) String() string {
	switch p {
	case TrustInspect:
		return "inspect"
	case TrustVerify:
		return "verify"
	default:
		return "unknown"
	}
}

// ParseTrustPolicy parses "inspect" or "verify"
func ParseTrustPolicy(s string) (TrustPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inspect":
		return TrustInspect, nil
	case "verify":
		return TrustVerify, nil
	default:
		return TrustInspect, fmt.Errorf("unknown trust policy %q (want inspect or verify)", s)
	}
}

// DialContextFunc opens the TCP connection for a handshake
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options configures a Scanner
type Options struct {
	// RootCAs is only consulted under TrustVerify. nil means the system pool.
	RootCAs *x509.CertPool
	// DialContext replaces the default net.Dialer when set
	DialContext DialContextFunc
	// Timeout bounds one attempt. Zero means DefaultTimeout, negative disables it.
	Timeout time.Duration
	Trust   TrustPolicy
}

// Scanner performs TLS handshakes to retrieve peer certificates.
// Fields are ordered for optimal memory alignment
type Scanner struct {
	logger  *zap.Logger
	rootCAs *x509.CertPool
	dial    DialContextFunc
	timeout time.Duration
	trust   TrustPolicy
}

// New creates a new Scanner
func New(opts Options, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	dial := opts.DialContext
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}

	return &Scanner{
		logger:  logger,
		rootCAs: opts.RootCAs,
		dial:    dial,
		timeout: timeout,
		trust:   opts.Trust,
	}
}

// Trust returns the scanner's trust policy
func (s *Scanner) Trust() TrustPolicy {
	return s.trust
}

// Fetch connects to hostname:port, completes a TLS handshake with SNI set to
// the normalized hostname and returns the leaf certificate with the peer
// address. The connection is closed before Fetch returns. Fetch never
// retries; every error is a *FetchError.
func (s *Scanner) Fetch(ctx context.Context, hostname string, port int) (*HostInfo, error) {
	serverName, err := NormalizeHostname(hostname)
	if err != nil {
		return nil, s.fail(hostname, port, ErrEncoding, err)
	}

	attemptCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(serverName, strconv.Itoa(port))
	rawConn, err := s.dial(attemptCtx, "tcp", addr)
	if err != nil {
		return nil, s.fail(hostname, port, categorizeDialError(ctx), err)
	}
	peer := rawConn.RemoteAddr()

	// Closing the tls.Conn also closes rawConn, on success and failure alike
	conn := tls.Client(rawConn, s.tlsConfig(serverName))
	defer conn.Close()

	if err := conn.HandshakeContext(attemptCtx); err != nil {
		return nil, s.fail(hostname, port, categorizeHandshakeError(ctx, err), err)
	}

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, s.fail(hostname, port, ErrCertificateParse, errors.New("no certificates received"))
	}

	chain := make([]*x509.Certificate, len(state.PeerCertificates))
	copy(chain, state.PeerCertificates)

	info := &HostInfo{
		Certificate: chain[0],
		PeerAddress: peer,
		Hostname:    hostname,
		ServerName:  serverName,
		Chain:       chain,
		Port:        port,
		TLSVersion:  state.Version,
		CipherSuite: state.CipherSuite,
	}

	s.logger.Debug("handshake complete",
		zap.String("hostname", hostname),
		zap.Int("port", port),
		zap.Stringer("peer", peer),
		zap.String("tls_version", info.TLSVersionName()),
		zap.String("subject", info.Certificate.Subject.CommonName),
	)

	return info, nil
}

func (s *Scanner) fail(hostname string, port int, kind, err error) error {
	s.logger.Debug("fetch failed",
		zap.String("hostname", hostname),
		zap.Int("port", port),
		zap.String("kind", Kind(kind)),
		zap.Error(err),
	)
	return &FetchError{
		Kind:     kind,
		Err:      err,
		Hostname: hostname,
		Port:     port,
	}
}

// tlsConfig offers every protocol version and cipher suite crypto/tls
// implements so that legacy servers still complete a handshake.
func (s *Scanner) tlsConfig(serverName string) *tls.Config {
	cfg := &tls.Config{
		ServerName:   serverName,
		MinVersion:   tls.VersionTLS10,
		MaxVersion:   tls.VersionTLS13,
		CipherSuites: legacyCipherSuites,
	}

	switch s.trust {
	case TrustVerify:
		cfg.RootCAs = s.rootCAs
	default:
		cfg.InsecureSkipVerify = true //nolint:gosec // inspection mode reports certificates that fail verification
	}

	return cfg
}

// legacyCipherSuites lists all TLS 1.0-1.2 suites, secure ones first
var legacyCipherSuites = func() []uint16 {
	var ids []uint16
	for _, list := range [][]*tls.CipherSuite{tls.CipherSuites(), tls.InsecureCipherSuites()} {
		for _, suite := range list {
			for _, v := range suite.SupportedVersions {
				if v < tls.VersionTLS13 {
					ids = append(ids, suite.ID)
					break
				}
			}
		}
	}
	return ids
}()
