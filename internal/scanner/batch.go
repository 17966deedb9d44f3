package scanner

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of handshakes a batch runs at once
const DefaultConcurrency = 4

// Fetcher retrieves the certificate for a single target
type Fetcher interface {
	Fetch(ctx context.Context, hostname string, port int) (*HostInfo, error)
}

// BatchOptions controls CheckAll.
// Fields are ordered for optimal memory alignment
type BatchOptions struct {
	// OnRetry, when set, is called before each repeated attempt
	OnRetry func(target HostTarget, attempt uint, err error)
	// RetryDelay is the fixed pause between attempts on the same target
	RetryDelay time.Duration
	// Concurrency caps in-flight fetches. Values below 1 mean DefaultConcurrency.
	Concurrency int
	// Retries is the number of extra attempts after a connection or
	// handshake failure. Zero disables retrying.
	Retries int
}

// CheckAll fetches every target with at most opts.Concurrency fetches in
// flight and returns exactly one Outcome per target. A failing target never
// affects the others. Outcomes currently follow input order but callers that
// need a stable order should use SortOutcomes.
//
// When ctx ends, in-flight fetches are interrupted and targets that have not
// started yet are recorded with ErrCanceled.
func CheckAll(ctx context.Context, f Fetcher, targets []HostTarget, opts BatchOptions) []Outcome {
	limit := opts.Concurrency
	if limit < 1 {
		limit = DefaultConcurrency
	}

	outcomes := make([]Outcome, len(targets))

	// A plain Group: one target's error must not cancel its siblings
	var g errgroup.Group
	g.SetLimit(limit)

	for i, target := range targets {
		g.Go(func() error {
			outcomes[i] = check(ctx, f, target, opts)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never return an error
	return outcomes
}

func check(ctx context.Context, f Fetcher, target HostTarget, opts BatchOptions) Outcome {
	out := Outcome{Target: target}

	if err := ctx.Err(); err != nil {
		out.Err = canceled(target, err)
		return out
	}

	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	start := time.Now()
	info, err := retry.DoWithData(
		func() (*HostInfo, error) {
			out.Attempts++
			return f.Fetch(ctx, target.Hostname, target.Port)
		},
		retry.Context(ctx),
		retry.Attempts(uint(retries)+1),
		retry.Delay(opts.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if opts.OnRetry != nil {
				opts.OnRetry(target, n+1, err)
			}
		}),
	)
	out.Duration = time.Since(start)

	if err != nil {
		out.Err = normalizeError(ctx, target, err)
		return out
	}

	out.Info = info
	return out
}

// normalizeError makes sure every recorded failure carries a kind, including
// bare context errors surfaced by the retry loop.
func normalizeError(ctx context.Context, target HostTarget, err error) error {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return canceled(target, err)
	}
	return &FetchError{
		Kind:     ErrHandshake,
		Err:      err,
		Hostname: target.Hostname,
		Port:     target.Port,
	}
}

func canceled(target HostTarget, err error) error {
	return &FetchError{
		Kind:     ErrCanceled,
		Err:      err,
		Hostname: target.Hostname,
		Port:     target.Port,
	}
}

// SortOutcomes orders outcomes by hostname, then port
func SortOutcomes(outcomes []Outcome) {
	slices.SortStableFunc(outcomes, func(a, b Outcome) int {
		if c := cmp.Compare(a.Target.Hostname, b.Target.Hostname); c != 0 {
			return c
		}
		return cmp.Compare(a.Target.Port, b.Target.Port)
	})
}

// Tally counts successful and failed outcomes
func Tally(outcomes []Outcome) (succeeded, failed int) {
	for i := range outcomes {
		if outcomes[i].OK() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
