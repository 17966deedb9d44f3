package scanner

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/idna"
)

// hostnameProfile maps a user supplied name the way a resolver would and
// enforces STD3 characters, label lengths and the BiDi rule.
var hostnameProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.VerifyDNSLength(true),
)

// NormalizeHostname converts hostname into the ASCII-compatible form sent in
// the SNI extension. ASCII names are only lower-cased and lose a trailing
// dot. IP literals are returned as-is since they are never sent as SNI.
func NormalizeHostname(hostname string) (string, error) {
	trimmed := strings.TrimSpace(hostname)
	if trimmed == "" {
		return "", fmt.Errorf("%w: hostname is empty", ErrEncoding)
	}

	if ip := net.ParseIP(strings.Trim(trimmed, "[]")); ip != nil {
		return ip.String(), nil
	}

	ascii, err := hostnameProfile.ToASCII(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrEncoding, hostname, err)
	}

	ascii = strings.TrimSuffix(ascii, ".")
	if ascii == "" {
		return "", fmt.Errorf("%w: %q has no labels", ErrEncoding, hostname)
	}

	return ascii, nil
}
