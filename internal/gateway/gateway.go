// Package gateway performs upstream GETs through an ordered list of public
// relay proxies. A transport failure or malformed body rotates to the next
// relay; an upstream 429 backs off and retries the whole logical request;
// 403 and 404 are terminal for every relay.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"

	"league-tracker/internal/constants"
	"league-tracker/internal/metrics"
)

type Gateway struct {
	client  *fasthttp.Client
	relays  []Relay
	logger  zerolog.Logger
	metrics *metrics.Metrics

	retryBudget uint64
	backoff     time.Duration
}

type Option func(*Gateway)

// WithRelays replaces the default rotation, mainly for tests.
func WithRelays(relays []Relay) Option {
	return func(g *Gateway) { g.relays = relays }
}

// WithRetry overrides the 429 retry budget and backoff.
func WithRetry(budget uint64, backoff time.Duration) Option {
	return func(g *Gateway) {
		g.retryBudget = budget
		g.backoff = backoff
	}
}

func New(logger zerolog.Logger, m *metrics.Metrics, opts ...Option) *Gateway {
	g := &Gateway{
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.RelayTimeout,
			WriteTimeout:        constants.RelayTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		relays:      DefaultRelays(),
		logger:      logger,
		metrics:     m,
		retryBudget: constants.RateLimitRetries,
		backoff:     constants.RateLimitBackoff,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Get performs one logical upstream GET. The credential is appended as a
// query parameter before the target is handed to the relays. A nil, nil
// return means the upstream answered 404, which callers must treat as a
// meaningful empty result.
func (g *Gateway) Get(ctx context.Context, target, apiKey string) ([]byte, error) {
	if apiKey != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target = target + sep + "api_key=" + url.QueryEscape(apiKey)
	}

	var result []byte
	backoff := retry.WithMaxRetries(g.retryBudget, retry.NewConstant(g.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		body, err := g.tryRelays(ctx, target)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				g.metrics.RateLimitRetry()
				g.logger.Warn().Dur("backoff", g.backoff).Msg("upstream rate limited, backing off")
				return retry.RetryableError(err)
			}
			return err
		}
		result = body
		return nil
	})
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

// tryRelays walks the rotation once. Only transport-level problems move to
// the next relay; upstream verdicts (404, 403, 429) apply to all of them.
func (g *Gateway) tryRelays(ctx context.Context, target string) ([]byte, error) {
	var lastErr error
	for _, relay := range g.relays {
		status, body, err := g.attempt(ctx, relay, target)
		if err != nil {
			g.metrics.RelayAttempt(relay.Name, "transport_error")
			g.logger.Warn().Err(err).Str("relay", relay.Name).Msg("relay attempt failed")
			lastErr = fmt.Errorf("relay %s: %w", relay.Name, err)
			continue
		}

		// A passthrough relay surfaces the upstream status directly; the
		// envelope relay may instead pass a 200 whose body carries the
		// upstream error object.
		if status == fasthttp.StatusOK {
			if wrapped := wrappedStatus(body); wrapped != 0 {
				status = wrapped
			}
		}

		switch {
		case status == fasthttp.StatusNotFound:
			g.metrics.RelayAttempt(relay.Name, "not_found")
			return nil, errNotFound
		case status == fasthttp.StatusForbidden:
			g.metrics.RelayAttempt(relay.Name, "forbidden")
			return nil, ErrForbidden
		case status == fasthttp.StatusTooManyRequests:
			g.metrics.RelayAttempt(relay.Name, "rate_limited")
			return nil, ErrRateLimited
		case status >= 200 && status < 300:
			if !json.Valid(body) {
				g.metrics.RelayAttempt(relay.Name, "bad_body")
				lastErr = fmt.Errorf("relay %s: non-JSON body", relay.Name)
				continue
			}
			g.metrics.RelayAttempt(relay.Name, "ok")
			return body, nil
		default:
			g.metrics.RelayAttempt(relay.Name, "bad_status")
			lastErr = fmt.Errorf("relay %s: upstream status %d", relay.Name, status)
			continue
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no relays configured")
	}
	return nil, fmt.Errorf("all relays failed: %w", lastErr)
}

func (g *Gateway) attempt(ctx context.Context, relay Relay, target string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(relay.Wrap(target))
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := time.Now().Add(constants.RelayTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := g.client.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, err
	}

	// The response buffer is pooled, copy before release.
	body := append([]byte(nil), resp.Body()...)
	return relay.Unwrap(resp.StatusCode(), body)
}

// riotErrorEnvelope is the upstream's error body: {"status":{"status_code":N}}.
type riotErrorEnvelope struct {
	Status struct {
		StatusCode int `json:"status_code"`
	} `json:"status"`
}

func wrappedStatus(body []byte) int {
	var env riotErrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return 0
	}
	return env.Status.StatusCode
}
