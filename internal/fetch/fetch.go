// Package fetch performs outbound upstream calls with bounded retry,
// response validation and a post-success cool-down.
package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/metrics"
)

const (
	userAgent   = "animebot/1.0 (+https://github.com/varoOP/animebot)"
	maxBodySize = 8 << 20
	// MaxAttempts is the ceiling for Settings.MaxAttempts
	MaxAttempts = 3
)

// Request describes one outbound call
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Body   []byte
	// AcceptStatus lists non-2xx statuses whose body is still handed to the
	// validator, for upstreams that report "no match" with an error status
	AcceptStatus []int
}

// Validator checks the shape of a 2xx body. A non-nil error makes the
// attempt a failure subject to retry.
type Validator func(body []byte) error

// Settings configures a Fetcher
type Settings struct {
	// Name identifies the upstream in logs, metrics and the circuit breaker
	Name        string
	MaxAttempts int
	RetryDelay  time.Duration
	Cooldown    time.Duration
}

// DefaultSettings returns 3 attempts, 2s between attempts and a 500ms cool-down
func DefaultSettings(name string) Settings {
	return Settings{
		Name:        name,
		MaxAttempts: MaxAttempts,
		RetryDelay:  2 * time.Second,
		Cooldown:    500 * time.Millisecond,
	}
}

// Fetcher wraps a single upstream with retry and a circuit breaker
type Fetcher struct {
	log      zerolog.Logger
	client   *http.Client
	settings Settings
	breaker  *gobreaker.CircuitBreaker[[]byte]
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithSleep replaces the delay function, for tests
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// New creates a Fetcher. A nil client uses http.DefaultClient.
func New(log zerolog.Logger, client *http.Client, settings Settings, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if settings.MaxAttempts < 1 {
		settings.MaxAttempts = 1
	}
	if settings.MaxAttempts > MaxAttempts {
		settings.MaxAttempts = MaxAttempts
	}

	f := &Fetcher{
		log:      log.With().Str("module", "fetch").Str("upstream", settings.Name).Logger(),
		client:   client,
		settings: settings,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}

	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(0)
	f.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return f
}

// Execute performs req with up to MaxAttempts attempts and a fixed delay in
// between. Network errors, non-2xx statuses not listed in req.AcceptStatus and
// bodies rejected by validate are all retried. When every attempt failed, or the circuit is open, the returned
// error wraps domain.ErrUnavailable. A successful response is returned after
// the configured cool-down.
func (f *Fetcher) Execute(ctx context.Context, req Request, validate Validator) ([]byte, error) {
	body, err := f.breaker.Execute(func() ([]byte, error) {
		return f.attempt(ctx, req, validate)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamAttempts.WithLabelValues(f.settings.Name, "circuit_open").Inc()
			return nil, errors.Wrapf(domain.ErrUnavailable, "%s: circuit open", f.settings.Name)
		}
		return nil, err
	}

	if err := f.sleep(ctx, f.settings.Cooldown); err != nil {
		f.log.Debug().Err(err).Msg("cool-down interrupted")
	}

	return body, nil
}

func (f *Fetcher) attempt(ctx context.Context, req Request, validate Validator) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= f.settings.MaxAttempts; attempt++ {
		body, err := f.do(ctx, req)
		if err == nil && validate != nil {
			if verr := validate(body); verr != nil {
				err = errors.Wrap(verr, "invalid response")
			}
		}
		if err == nil {
			metrics.UpstreamAttempts.WithLabelValues(f.settings.Name, "ok").Inc()
			return body, nil
		}

		lastErr = err
		metrics.UpstreamAttempts.WithLabelValues(f.settings.Name, "error").Inc()
		f.log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", f.settings.MaxAttempts).Msg("upstream request failed")

		if ctx.Err() != nil {
			break
		}
		if attempt < f.settings.MaxAttempts {
			if err := f.sleep(ctx, f.settings.RetryDelay); err != nil {
				break
			}
		}
	}

	return nil, errors.Wrapf(domain.ErrUnavailable, "%s: %v", f.settings.Name, lastErr)
}

func (f *Fetcher) do(ctx context.Context, r Request) ([]byte, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	target := r.URL
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if r.Body != nil {
		reqBody = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if (resp.StatusCode < 200 || resp.StatusCode >= 300) && !slices.Contains(r.AcceptStatus, resp.StatusCode) {
		return nil, errors.Errorf("unexpected status code %d from %s", resp.StatusCode, r.URL)
	}

	return body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
