// Package certinfo extracts identity and validity attributes from X.509
// certificates and classifies how long a certificate remains valid.
package certinfo

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"time"
)

var (
	oidCommonName              = asn1.ObjectIdentifier{2, 5, 4, 3}
	oidOrganization            = asn1.ObjectIdentifier{2, 5, 4, 10}
	oidExtSubjectAlternateName = asn1.ObjectIdentifier{2, 5, 29, 17}
)

// Attributes are the identity and validity fields of a certificate.
// Each Optional field is independently absent when the certificate lacks it.
// Fields are ordered for optimal memory alignment
type Attributes struct {
	NotBefore          time.Time          `json:"not_before"`
	NotAfter           time.Time          `json:"not_after"`
	CommonName         Optional[string]   `json:"common_name"`
	IssuerOrganization Optional[string]   `json:"issuer_organization"`
	SerialNumber       string             `json:"serial_number"`
	FingerprintSHA256  string             `json:"fingerprint_sha256"`
	SignatureAlgorithm string             `json:"signature_algorithm"`
	SubjectAltNames    Optional[[]string] `json:"subject_alt_names"`
	IPAddresses        []string           `json:"ip_addresses,omitempty"`
	SelfSigned         bool               `json:"self_signed"`
}

// Extract reads every attribute from cert. A missing attribute never
// prevents the others from being read.
func Extract(cert *x509.Certificate) Attributes {
	attrs := Attributes{
		NotBefore:          NotBefore(cert),
		NotAfter:           NotAfter(cert),
		CommonName:         FromPair[string](CommonName(cert)),
		IssuerOrganization: FromPair[string](IssuerOrganization(cert)),
		SubjectAltNames:    FromPair[[]string](SubjectAltNames(cert)),
		SerialNumber:       serialNumber(cert),
		FingerprintSHA256:  Fingerprint(cert),
		SignatureAlgorithm: cert.SignatureAlgorithm.String(),
		SelfSigned:         bytes.Equal(cert.RawSubject, cert.RawIssuer),
	}

	for _, ip := range cert.IPAddresses {
		attrs.IPAddresses = append(attrs.IPAddresses, ip.String())
	}

	return attrs
}

// CommonName returns the first Common Name attribute of the subject.
// pkix.Name.CommonName keeps the last one, so the raw attributes are walked.
func CommonName(cert *x509.Certificate) (string, bool) {
	for _, atv := range cert.Subject.Names {
		if !atv.Type.Equal(oidCommonName) {
			continue
		}
		if s, ok := atv.Value.(string); ok {
			return s, true
		}
	}
	return "", false
}

// SubjectAltNames returns the DNS entries of the Subject Alternative Name
// extension in certificate order. It reports false only when the extension
// is missing; an extension without DNS entries yields an empty slice.
func SubjectAltNames(cert *x509.Certificate) ([]string, bool) {
	if !hasExtension(cert, oidExtSubjectAlternateName) {
		return nil, false
	}
	names := make([]string, len(cert.DNSNames))
	copy(names, cert.DNSNames)
	return names, true
}

// IssuerOrganization returns the first Organization attribute of the issuer
func IssuerOrganization(cert *x509.Certificate) (string, bool) {
	for _, atv := range cert.Issuer.Names {
		if !atv.Type.Equal(oidOrganization) {
			continue
		}
		if s, ok := atv.Value.(string); ok {
			return s, true
		}
	}
	return "", false
}

// NotBefore returns the start of the validity window
func NotBefore(cert *x509.Certificate) time.Time {
	return cert.NotBefore.UTC()
}

// NotAfter returns the end of the validity window
func NotAfter(cert *x509.Certificate) time.Time {
	return cert.NotAfter.UTC()
}

// Fingerprint returns the hex SHA-256 digest of the DER certificate
func Fingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

func serialNumber(cert *x509.Certificate) string {
	if cert.SerialNumber == nil {
		return ""
	}
	return cert.SerialNumber.String()
}

func hasExtension(cert *x509.Certificate, oid asn1.ObjectIdentifier) bool {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oid) {
			return true
		}
	}
	return false
}
