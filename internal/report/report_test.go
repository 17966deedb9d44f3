package report

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"fmt"
	"math/big"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/certwatch-app/cw-inspect/internal/scanner"
)

var now = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func newCert(t *testing.T, tmpl *x509.Certificate) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	tmpl.SerialNumber = big.NewInt(7)
	if tmpl.NotBefore.IsZero() {
		tmpl.NotBefore = now.Add(-30 * 24 * time.Hour)
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}
	return cert
}

func success(t *testing.T, hostname string, port int, tmpl *x509.Certificate) scanner.Outcome {
	t.Helper()

	cert := newCert(t, tmpl)
	return scanner.Outcome{
		Target: scanner.HostTarget{Hostname: hostname, Port: port},
		Info: &scanner.HostInfo{
			Certificate: cert,
			Chain:       []*x509.Certificate{cert},
			Hostname:    hostname,
			ServerName:  hostname,
			Port:        port,
			PeerAddress: &net.TCPAddr{IP: net.ParseIP("192.0.2.1"), Port: port},
			TLSVersion:  tls.VersionTLS13,
			CipherSuite: tls.TLS_AES_128_GCM_SHA256,
		},
		Duration: 42 * time.Millisecond,
		Attempts: 1,
	}
}

func failure(hostname string, port int) scanner.Outcome {
	return scanner.Outcome{
		Target: scanner.HostTarget{Hostname: hostname, Port: port},
		Err: &scanner.FetchError{
			Kind:     scanner.ErrConnection,
			Err:      fmt.Errorf("%w: dial tcp: connection refused", scanner.ErrConnection),
			Hostname: hostname,
			Port:     port,
		},
		Duration: time.Millisecond,
		Attempts: 2,
	}
}

func sampleOutcomes(t *testing.T) []scanner.Outcome {
	return []scanner.Outcome{
		success(t, "far.example.com", 443, &x509.Certificate{
			Subject:  pkix.Name{CommonName: "far.example.com", Organization: []string{"Example CA"}},
			DNSNames: []string{"far.example.com", "www.far.example.com"},
			NotAfter: now.Add(61 * 24 * time.Hour),
		}),
		failure("down.example.com", 443),
		success(t, "soon.example.com", 8443, &x509.Certificate{
			Subject:  pkix.Name{CommonName: "soon.example.com"},
			NotAfter: now.Add(20 * 24 * time.Hour),
		}),
		success(t, "gone.example.com", 443, &x509.Certificate{
			Subject:  pkix.Name{CommonName: "gone.example.com"},
			NotAfter: now.Add(-2 * 24 * time.Hour),
		}),
	}
}

func TestBuild(t *testing.T) {
	r := Build(sampleOutcomes(t), now)

	if len(r.Entries) != 4 {
		t.Fatalf("len(Entries) = %d, want 4", len(r.Entries))
	}
	wantOrder := []string{"far.example.com", "down.example.com", "soon.example.com", "gone.example.com"}
	for i, host := range wantOrder {
		if r.Entries[i].Hostname != host {
			t.Errorf("Entries[%d].Hostname = %v, want %v", i, r.Entries[i].Hostname, host)
		}
	}

	want := Summary{Total: 4, Succeeded: 3, Failed: 1, Expired: 1, ExpiringSoon: 1}
	if r.Summary != want {
		t.Errorf("Summary = %+v, want %+v", r.Summary, want)
	}
	if !r.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", r.GeneratedAt, now)
	}
}

func TestBuildEntry_Success(t *testing.T) {
	outcomes := sampleOutcomes(t)
	e := BuildEntry(&outcomes[0], now)

	if !e.OK() {
		t.Fatal("OK() = false, want true")
	}
	if e.Error != "" || e.ErrorKind != "" {
		t.Errorf("Error = %q, ErrorKind = %q, want empty", e.Error, e.ErrorKind)
	}
	if e.PeerAddress != "192.0.2.1:443" {
		t.Errorf("PeerAddress = %v, want 192.0.2.1:443", e.PeerAddress)
	}
	if e.TLSVersion != "TLS 1.3" {
		t.Errorf("TLSVersion = %v, want TLS 1.3", e.TLSVersion)
	}
	if e.CipherSuite != "TLS_AES_128_GCM_SHA256" {
		t.Errorf("CipherSuite = %v, want TLS_AES_128_GCM_SHA256", e.CipherSuite)
	}
	if e.Expiry.DaysRemaining != 61 || !e.Expiry.OverSixty {
		t.Errorf("Expiry = %+v, want 61 days and over sixty", e.Expiry)
	}
	if len(e.Chain) != 1 || !strings.Contains(e.Chain[0].Subject, "far.example.com") {
		t.Errorf("Chain = %+v, want one entry for far.example.com", e.Chain)
	}
	if e.DurationMS != 42 || e.Attempts != 1 {
		t.Errorf("DurationMS = %v, Attempts = %v, want 42, 1", e.DurationMS, e.Attempts)
	}
}

func TestBuildEntry_Failure(t *testing.T) {
	o := failure("down.example.com", 443)
	e := BuildEntry(&o, now)

	if e.OK() {
		t.Fatal("OK() = true, want false")
	}
	if e.ErrorKind != "connection" {
		t.Errorf("ErrorKind = %v, want connection", e.ErrorKind)
	}
	if !strings.Contains(e.Error, "connection refused") {
		t.Errorf("Error = %v, want connection refused", e.Error)
	}
	if e.Certificate != nil || e.Expiry != nil || e.PeerAddress != "" {
		t.Errorf("Entry = %+v, want no certificate fields", e)
	}
	if e.Attempts != 2 {
		t.Errorf("Attempts = %v, want 2", e.Attempts)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Build(sampleOutcomes(t), now)); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var decoded struct {
		Entries []map[string]any `json:"entries"`
		Summary Summary          `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.Summary.Failed != 1 {
		t.Errorf("Summary.Failed = %v, want 1", decoded.Summary.Failed)
	}

	far := decoded.Entries[0]
	expiry, ok := far["expiry"].(map[string]any)
	if !ok {
		t.Fatalf("entries[0].expiry = %v, want object", far["expiry"])
	}
	if expiry["under_thirty"] != "more than 30" {
		t.Errorf("under_thirty = %v, want more than 30", expiry["under_thirty"])
	}

	soon := decoded.Entries[2]
	cert := soon["certificate"].(map[string]any)
	if cert["subject_alt_names"] != nil {
		t.Errorf("subject_alt_names = %v, want null", cert["subject_alt_names"])
	}
	if cert["issuer_organization"] != nil {
		t.Errorf("issuer_organization = %v, want null", cert["issuer_organization"])
	}
	if days := soon["expiry"].(map[string]any)["under_thirty"]; days != float64(20) {
		t.Errorf("under_thirty = %v, want 20", days)
	}

	down := decoded.Entries[1]
	if _, ok := down["certificate"]; ok {
		t.Error("failed entry has a certificate field")
	}
	if down["error_kind"] != "connection" {
		t.Errorf("error_kind = %v, want connection", down["error_kind"])
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	err := RenderText(&buf, Build(sampleOutcomes(t), now), TextOptions{NoColor: true, ShowSummary: true})
	if err != nil {
		t.Fatalf("RenderText() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"» far.example.com « … 192.0.2.1:443\n",
		"\tcommonName: far.example.com\n",
		"\tSAN: far.example.com, www.far.example.com\n",
		"\tissuer: Example CA\n",
		"\tnotAfter:  2024-07-15 12:00:00 UTC\n",
		"\tlonger than 60 days: true\n",
		"\tunder 60 days: false\n",
		"\tunder 45 days: false\n",
		"\tdays left more than 30\n",
		"» down.example.com « ✗ ",
		"» soon.example.com:8443 « … 192.0.2.1:8443\n",
		"\tSAN: none\n",
		"\tissuer: none\n",
		"\tdays left 20\n",
		"\tdays left -2\n",
		"4 targets · 3 ok · 1 failed · 1 expired · 1 expiring within 30 days",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() output missing %q\n%s", want, out)
		}
	}
}

func TestRenderText_HideAddress(t *testing.T) {
	outcomes := sampleOutcomes(t)[:1]

	var buf bytes.Buffer
	if err := RenderText(&buf, Build(outcomes, now), TextOptions{NoColor: true, HideAddress: true}); err != nil {
		t.Fatalf("RenderText() error = %v", err)
	}

	if strings.Contains(buf.String(), "192.0.2.1") {
		t.Errorf("RenderText() shows the peer address with HideAddress:\n%s", buf.String())
	}
	if !strings.HasPrefix(buf.String(), "» far.example.com «\n") {
		t.Errorf("RenderText() first line = %q, want bare hostname", strings.SplitN(buf.String(), "\n", 2)[0])
	}
}

func TestRenderText_FailureNamesTargetOnce(t *testing.T) {
	outcomes := []scanner.Outcome{failure("down.example.com", 443), failure("down.example.com", 8443)}

	var buf bytes.Buffer
	if err := RenderText(&buf, Build(outcomes, now), TextOptions{NoColor: true}); err != nil {
		t.Fatalf("RenderText() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("RenderText() = %d lines, want 3:\n%s", len(lines), buf.String())
	}
	for _, line := range []string{lines[0], lines[2]} {
		if n := strings.Count(line, "down.example.com"); n != 1 {
			t.Errorf("line %q names the target %d times, want 1", line, n)
		}
		if !strings.Contains(line, "« ✗ connection") || !strings.Contains(line, "connection refused") {
			t.Errorf("line %q, want the error kind and cause", line)
		}
	}
}

func TestReport_WithoutAddresses(t *testing.T) {
	r := Build(sampleOutcomes(t), now)
	hidden := r.WithoutAddresses()

	for i := range hidden.Entries {
		if hidden.Entries[i].PeerAddress != "" {
			t.Errorf("Entries[%d].PeerAddress = %q, want empty", i, hidden.Entries[i].PeerAddress)
		}
	}
	if r.Entries[0].PeerAddress == "" {
		t.Error("WithoutAddresses() modified the original report")
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, hidden); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if strings.Contains(buf.String(), "peer_address") {
		t.Errorf("WriteJSON() still writes peer_address:\n%s", buf.String())
	}
}

func TestRenderText_Chain(t *testing.T) {
	outcomes := sampleOutcomes(t)[:1]

	var buf bytes.Buffer
	if err := RenderText(&buf, Build(outcomes, now), TextOptions{NoColor: true, ShowChain: true}); err != nil {
		t.Fatalf("RenderText() error = %v", err)
	}

	if !strings.Contains(buf.String(), "\t[0] CN=far.example.com,O=Example CA\n") {
		t.Errorf("RenderText() missing chain entry:\n%s", buf.String())
	}
}
