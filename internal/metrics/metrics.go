// Package metrics exposes Prometheus metrics for scans run in watch mode.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certwatch-app/cw-inspect/internal/report"
)

// Registry holds every cw-inspect metric plus the Go and process collectors
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HandshakeTotal,
		HandshakeDuration,
		CertificateDaysUntilExpiry,
		CertificateExpirySeconds,
		ScanDuration,
		PushTotal,
		PushDuration,
		AgentInfo,
		TargetsConfigured,
	)
}

var (
	// Handshake metrics

	// HandshakeTotal counts checks by result: "ok" or an error kind
	HandshakeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certwatch",
		Subsystem: "inspect",
		Name:      "handshake_total",
		Help:      "Total number of certificate checks by result",
	}, []string{"result"})

	// HandshakeDuration tracks the time spent on one target, retries included
	HandshakeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "certwatch",
		Subsystem: "inspect",
		Name:      "handshake_duration_seconds",
		Help:      "Duration of certificate checks in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	// Certificate metrics

	// CertificateDaysUntilExpiry tracks whole days until the leaf certificate expires
	CertificateDaysUntilExpiry = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "certwatch",
		Subsystem: "inspect",
		Name:      "certificate_days_until_expiry",
		Help:      "Days until certificate expires",
	}, []string{"hostname", "port"})

	// CertificateExpirySeconds tracks certificate expiry as Unix timestamp
	CertificateExpirySeconds = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "certwatch",
		Subsystem: "inspect",
		Name:      "certificate_expiry_seconds",
		Help:      "Unix timestamp of certificate expiry",
	}, []string{"hostname", "port"})

	// Scan metrics

	// ScanDuration tracks the wall time of a whole batch
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "certwatch",
		Subsystem: "inspect",
		Name:      "scan_duration_seconds",
		Help:      "Duration of a full scan in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	// PushTotal counts report pushes
	PushTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certwatch",
		Subsystem: "inspect",
		Name:      "push_total",
		Help:      "Total number of report push operations",
	}, []string{"status"})

	// PushDuration tracks report push duration
	PushDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "certwatch",
		Subsystem: "inspect",
		Name:      "push_duration_seconds",
		Help:      "Duration of report push operations in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	// Agent info metrics

	// AgentInfo provides agent metadata
	AgentInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "certwatch",
		Subsystem: "inspect",
		Name:      "agent_info",
		Help:      "Agent information",
	}, []string{"version", "agent_name"})

	// TargetsConfigured tracks the number of configured targets
	TargetsConfigured = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "certwatch",
		Subsystem: "inspect",
		Name:      "targets_configured",
		Help:      "Number of targets being inspected",
	})
)

// ResultOK is the handshake_total label for a successful check
const ResultOK = "ok"

// ObserveReport records one completed scan. Per-host gauges are reset first so
// that targets removed from the configuration stop being exported.
func ObserveReport(r *report.Report, scanDuration time.Duration) {
	ScanDuration.Observe(scanDuration.Seconds())

	CertificateDaysUntilExpiry.Reset()
	CertificateExpirySeconds.Reset()

	for i := range r.Entries {
		e := &r.Entries[i]
		HandshakeDuration.Observe(float64(e.DurationMS) / 1000)

		if !e.OK() {
			HandshakeTotal.WithLabelValues(e.ErrorKind).Inc()
			continue
		}
		HandshakeTotal.WithLabelValues(ResultOK).Inc()

		port := strconv.Itoa(e.Port)
		CertificateDaysUntilExpiry.WithLabelValues(e.Hostname, port).Set(float64(e.Expiry.DaysRemaining))
		CertificateExpirySeconds.WithLabelValues(e.Hostname, port).Set(float64(e.Certificate.NotAfter.Unix()))
	}
}

// ObservePush records the result of one report push
func ObservePush(err error, d time.Duration) {
	PushDuration.Observe(d.Seconds())
	if err != nil {
		PushTotal.WithLabelValues("error").Inc()
		return
	}
	PushTotal.WithLabelValues("success").Inc()
}

// SetAgentInfo publishes static agent metadata
func SetAgentInfo(version, agentName string, targets int) {
	AgentInfo.Reset()
	AgentInfo.WithLabelValues(version, agentName).Set(1)
	TargetsConfigured.Set(float64(targets))
}

// Handler serves Registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
