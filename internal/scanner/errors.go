package scanner

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Every error returned by Fetch or recorded in an Outcome
// matches exactly one of these with errors.Is.
var (
	ErrEncoding         = errors.New("hostname encoding failed")
	ErrConnection       = errors.New("connection failed")
	ErrHandshake        = errors.New("tls handshake failed")
	ErrCertificateParse = errors.New("certificate parse failed")
	ErrUntrusted        = errors.New("certificate not trusted")
	ErrCanceled         = errors.New("check canceled")
)

// Short tags for the failure kinds, used in reports and metric labels
const (
	KindEncoding         = "encoding"
	KindConnection       = "connection"
	KindHandshake        = "handshake"
	KindCertificateParse = "certificate_parse"
	KindUntrusted        = "untrusted"
	KindCanceled         = "canceled"
	KindUnknown          = "unknown"
)

// FetchError describes why a target could not be inspected
type FetchError struct {
	Kind     error
	Err      error
	Hostname string
	Port     int
}

func (e *FetchError) Error() string {
	target := formatHostPort(e.Hostname, e.Port)
	if e.Err == nil || errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("%s: %v", target, errOrKind(e.Err, e.Kind))
	}
	return fmt.Sprintf("%s: %v: %v", target, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func errOrKind(err, kind error) error {
	if err != nil {
		return err
	}
	return kind
}

// Kind returns the short tag for err's failure kind, or "" for a nil error
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEncoding):
		return KindEncoding
	case errors.Is(err, ErrConnection):
		return KindConnection
	case errors.Is(err, ErrHandshake):
		return KindHandshake
	case errors.Is(err, ErrCertificateParse):
		return KindCertificateParse
	case errors.Is(err, ErrUntrusted):
		return KindUntrusted
	case errors.Is(err, ErrCanceled):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// IsRetryable reports whether a later attempt against the same target could
// plausibly succeed. Only transport-level failures qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrHandshake)
}

// categorizeHandshakeError maps a failed tls handshake onto a failure kind.
// crypto/tls does not export typed errors for parse failures, so those are
// matched on the message.
func categorizeHandshakeError(parent context.Context, err error) error {
	if parent.Err() != nil && errors.Is(err, context.Canceled) {
		return ErrCanceled
	}

	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return ErrUntrusted
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "failed to parse certificate") ||
		strings.Contains(lower, "x509: malformed") ||
		strings.Contains(lower, "x509: invalid") {
		return ErrCertificateParse
	}

	return ErrHandshake
}

// categorizeDialError maps a failed TCP connect onto a failure kind
func categorizeDialError(parent context.Context) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return ErrCanceled
	}
	return ErrConnection
}
