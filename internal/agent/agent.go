// Package agent runs certificate scans over the configured targets, once or
// on an interval, and publishes the results.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/certwatch-app/cw-inspect/internal/config"
	"github.com/certwatch-app/cw-inspect/internal/metrics"
	"github.com/certwatch-app/cw-inspect/internal/report"
	"github.com/certwatch-app/cw-inspect/internal/scanner"
	"github.com/certwatch-app/cw-inspect/internal/sync"
	"github.com/certwatch-app/cw-inspect/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Pusher exports a finished report
type Pusher interface {
	Push(ctx context.Context, r *report.Report, meta map[scanner.HostTarget]sync.TargetMeta) (*sync.PushResponse, error)
}

// Agent orchestrates certificate scanning, metrics and report export
type Agent struct {
	config     *config.Config
	fetcher    scanner.Fetcher
	pusher     Pusher
	logger     *zap.Logger
	meta       map[scanner.HostTarget]sync.TargetMeta
	now        func() time.Time
	lastReport atomic.Pointer[report.Report]
}

// New creates a new Agent. A nil logger means a console logger at the
// configured level.
func New(cfg *config.Config, logger *zap.Logger) (*Agent, error) {
	if logger == nil {
		logger = setupLogger(cfg.Agent.LogLevel)
	}

	opts, err := cfg.ScannerOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid scan settings: %w", err)
	}

	a := &Agent{
		config:  cfg,
		fetcher: scanner.New(opts, logger.Named("scanner")),
		logger:  logger,
		meta:    make(map[scanner.HostTarget]sync.TargetMeta, len(cfg.Targets)),
		now:     time.Now,
	}

	for _, t := range cfg.Targets {
		a.meta[t.HostTarget()] = sync.TargetMeta{Tags: t.Tags, Notes: t.Notes}
	}

	if cfg.PushEnabled() {
		a.pusher = sync.New(sync.Options{
			Endpoint:  cfg.Push.Endpoint,
			APIKey:    cfg.Push.Key,
			AgentName: cfg.Agent.Name,
			Timeout:   cfg.Push.Timeout,
		}, logger.Named("push"))
	}

	return a, nil
}

// Scan checks every configured target once
func (a *Agent) Scan(ctx context.Context) (*report.Report, error) {
	return a.ScanTargets(ctx, a.config.HostTargets())
}

// ScanTargets checks targets and builds a report in target order. The
// returned error is only set when ctx ended before the batch finished;
// per-target failures are recorded in the report.
func (a *Agent) ScanTargets(ctx context.Context, targets []scanner.HostTarget) (*report.Report, error) {
	start := time.Now()
	a.logger.Info("starting certificate scan",
		zap.Int("targets", len(targets)),
		zap.Int("concurrency", a.config.Scan.Concurrency),
		zap.String("trust_policy", a.config.Scan.TrustPolicy),
	)

	opts := a.config.BatchOptions()
	opts.OnRetry = func(target scanner.HostTarget, attempt uint, err error) {
		a.logger.Debug("retrying target",
			zap.String("target", target.String()),
			zap.Uint("attempt", attempt+1),
			zap.Error(err),
		)
	}

	outcomes := scanner.CheckAll(ctx, a.fetcher, targets, opts)
	r := report.Build(outcomes, a.now())
	elapsed := time.Since(start)

	for i := range r.Entries {
		e := &r.Entries[i]
		if !e.OK() {
			a.logger.Warn("target failed",
				zap.String("hostname", e.Hostname),
				zap.Int("port", e.Port),
				zap.String("kind", e.ErrorKind),
				zap.String("error", e.Error),
			)
			continue
		}
		if e.Expiry.Expired() {
			a.logger.Warn("certificate expired",
				zap.String("hostname", e.Hostname),
				zap.Int("port", e.Port),
				zap.Time("not_after", e.Certificate.NotAfter),
			)
		}
	}

	a.logger.Info("scan complete",
		zap.Duration("duration", elapsed),
		zap.Int("success", r.Summary.Succeeded),
		zap.Int("failed", r.Summary.Failed),
		zap.Int("expired", r.Summary.Expired),
		zap.Int("expiring_soon", r.Summary.ExpiringSoon),
	)

	metrics.ObserveReport(&r, elapsed)
	a.lastReport.Store(&r)

	if err := ctx.Err(); err != nil {
		return &r, err
	}
	return &r, nil
}

// LastReport returns the most recent report, or nil before the first scan
func (a *Agent) LastReport() *report.Report {
	return a.lastReport.Load()
}

// Run scans on the configured interval until ctx ends, serving metrics when
// a metrics port is set and pushing each report when push is enabled.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent starting",
		zap.String("name", a.config.Agent.Name),
		zap.String("version", version.GetVersion()),
		zap.Int("targets", len(a.config.Targets)),
		zap.Duration("scan_interval", a.config.Agent.ScanInterval),
		zap.Int("metrics_port", a.config.Agent.MetricsPort),
		zap.Bool("push", a.pusher != nil),
	)

	metrics.SetAgentInfo(version.GetVersion(), a.config.Agent.Name, len(a.config.Targets))

	g, ctx := errgroup.WithContext(ctx)

	if a.config.Agent.MetricsPort > 0 {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", a.config.Agent.MetricsPort),
			Handler:           a.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			return a.serve(ctx, srv)
		})
	}

	g.Go(func() error {
		return a.loop(ctx)
	})

	err := g.Wait()
	a.logger.Info("agent stopping")
	return err
}

func (a *Agent) loop(ctx context.Context) error {
	a.scanAndPush(ctx)

	ticker := time.NewTicker(a.config.Agent.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			a.logger.Debug("scan interval triggered")
			a.scanAndPush(ctx)
		}
	}
}

func (a *Agent) scanAndPush(ctx context.Context) {
	r, err := a.Scan(ctx)
	if err != nil {
		a.logger.Debug("scan interrupted", zap.Error(err))
		return
	}

	if err := a.push(ctx, r); err != nil {
		a.logger.Error("push failed", zap.Error(err))
	}
}

func (a *Agent) push(ctx context.Context, r *report.Report) error {
	if a.pusher == nil {
		return nil
	}

	start := time.Now()
	resp, err := a.pusher.Push(ctx, r, a.meta)
	metrics.ObservePush(err, time.Since(start))
	if err != nil {
		return err
	}

	a.logger.Info("push complete",
		zap.Duration("duration", time.Since(start)),
		zap.Int("accepted", resp.Data.Accepted),
		zap.Int("rejected", resp.Data.Rejected),
	)

	for _, pushErr := range resp.Data.Errors {
		a.logger.Warn("target push error",
			zap.String("hostname", pushErr.Hostname),
			zap.Int("port", pushErr.Port),
			zap.String("error", pushErr.Error),
		)
	}

	return nil
}

func (a *Agent) serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("metrics server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Handler serves /metrics, /healthz and /report
func (a *Agent) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/report", func(w http.ResponseWriter, _ *http.Request) {
		r := a.LastReport()
		if r == nil {
			http.Error(w, "no scan completed yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(r); err != nil {
			a.logger.Debug("failed to write report", zap.Error(err))
		}
	})
	return mux
}
