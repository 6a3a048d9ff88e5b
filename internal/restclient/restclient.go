// Package restclient is the shared REST helper used by every venue
// adapter for snapshot fetches and listen-key lifecycle calls (spec §5
// "REST calls ... bounded by per-call timeouts (10s default)"). It rate
// limits outbound calls and trips a circuit breaker around a venue's
// endpoint so a persistently failing REST dependency doesn't get
// hammered while the websocket side keeps reconnecting.
package restclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/shiftfx/mdcore/internal/venueerr"
)

// DefaultTimeout is the spec §5 default per-call REST timeout.
const DefaultTimeout = 10 * time.Second

// Client is a small rate-limited, circuit-broken HTTP client.
type Client struct {
	venue   string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// New constructs a Client for venue, allowing up to rps requests/sec
// (burst of rps+1) before limiting, and opening its circuit
// breaker after 5 consecutive failures.
func New(venue string, rps float64) *Client {
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		venue:   venue,
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        venue + "-rest",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Request describes one outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    io.Reader
}

// Do executes req, waiting on the rate limiter and routing through the
// circuit breaker. Non-2xx responses and transport failures are
// classified as venueerr.Connection; the body is returned on success.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (any, error) {
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, req.Body)
		if err != nil {
			return nil, err
		}
		for k, v := range req.Headers {
			httpReq.Header.Set(k, v)
		}
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
		}
		return body, nil
	})
	if err != nil {
		return nil, venueerr.Connf(c.venue, "rest call to %s failed: %w", req.URL, err)
	}
	return result.([]byte), nil
}
