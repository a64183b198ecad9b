package assessment

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitalwatch/vitalwatch/internal/config"
)

// sleepFunc suspends until d elapses or ctx is cancelled.
// Injectable so tests control time without sleeping.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// authRoundTripper injects authentication and tracing headers into every
// outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	switch t.auth.Mode {
	case "apikey":
		req.Header.Set(t.auth.Header, t.auth.Key())
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	return t.base.RoundTrip(req)
}

// newHTTPClient constructs an http.Client for the API's auth and TLS settings.
func newHTTPClient(api config.APIConfig) *http.Client {
	transport := &authRoundTripper{
		base: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: api.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
			},
		},
		auth: api.Auth,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   api.Timeout,
	}
}

// baseURL normalizes the configured base so paths can be appended directly.
func baseURL(api config.APIConfig) string {
	return strings.TrimRight(api.BaseURL, "/")
}
