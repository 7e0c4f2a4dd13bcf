// Package binary implements the binary backend: JSON artifact manifests,
// asset downloads into a content-addressed cache, and framework installation
// into the output tree.
package binary

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
	circuit "github.com/rubyist/circuitbreaker"
	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/zerr"
)

// Client fetches binary manifests and assets over HTTPS with per-host
// circuit breaking and exponential-backoff retries. file:// URLs read the
// local filesystem directly.
type Client struct {
	httpClient *http.Client
	creds      CredentialStore

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

// CredentialStore supplies credentials for a request host. A nil store or a
// miss sends anonymous requests.
type CredentialStore interface {
	Lookup(host string) (user, password string, ok bool)
}

// NewClient creates a Client. creds may be nil.
func NewClient(creds CredentialStore) *Client {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var dialer net.Dialer
			var lastErr error
			for _, ip := range ips {
				conn, dialErr := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if dialErr == nil {
					return conn, nil
				}
				lastErr = dialErr
			}
			return nil, lastErr
		},
		MaxIdleConnsPerHost: 4,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: 5 * time.Minute},
		creds:      creds,
		breakers:   make(map[string]*circuit.Breaker),
	}
}

// Get fetches rawURL and writes the body to w. Transient failures retry with
// exponential backoff; repeated failures trip the host's circuit breaker.
func (c *Client) Get(ctx context.Context, rawURL string, w io.Writer) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrNetworkFailure.Error()), "url", rawURL)
	}

	if parsed.Scheme == "file" {
		return c.readLocal(parsed.Path, w)
	}

	breaker := c.breaker(parsed.Host)
	return breaker.Call(func() error {
		return c.getWithRetry(ctx, rawURL, w)
	}, 0)
}

func (c *Client) readLocal(path string, w io.Writer) error {
	f, err := os.Open(path) //nolint:gosec // path comes from a user-declared file URL
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrNetworkFailure.Error()), "url", "file://"+path)
	}
	defer f.Close() //nolint:errcheck // best effort close

	if _, err := io.Copy(w, f); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read local asset"), "path", path)
	}
	return nil
}

func (c *Client) breaker(host string) *circuit.Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if breaker, ok := c.breakers[host]; ok {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Reset()

	breaker := circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
	c.breakers[host] = breaker
	return breaker
}

func (c *Client) getWithRetry(ctx context.Context, rawURL string, w io.Writer) error {
	attempt := func() error {
		return c.getOnce(ctx, rawURL, w, true)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(attempt, backoff.WithContext(policy, ctx))
}

func (c *Client) getOnce(ctx context.Context, rawURL string, w io.Writer, authenticated bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return backoff.Permanent(zerr.With(zerr.Wrap(err, domain.ErrNetworkFailure.Error()), "url", rawURL))
	}

	if authenticated && c.creds != nil {
		if user, password, ok := c.creds.Lookup(req.URL.Hostname()); ok {
			req.SetBasicAuth(user, password)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrNetworkFailure.Error()), "url", rawURL)
	}
	defer resp.Body.Close() //nolint:errcheck // best effort close

	switch {
	case resp.StatusCode == http.StatusOK:
		if _, err := io.Copy(w, resp.Body); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read response body"), "url", rawURL)
		}
		return nil
	case authenticated && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden):
		// Fall back once to an anonymous request; some hosts reject
		// credentials scoped to a different realm.
		return c.getOnce(ctx, rawURL, w, false)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return zerr.With(zerr.With(domain.ErrNetworkFailure, "url", rawURL), "status", fmt.Sprint(resp.StatusCode))
	default:
		return backoff.Permanent(zerr.With(zerr.With(domain.ErrNetworkFailure, "url", rawURL),
			"status", fmt.Sprint(resp.StatusCode)))
	}
}
