package source

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const userAgent = "medicine-catalog/1.0"

// ClientOption customizes NewHTTPClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	rps float64
}

// WithRateLimit caps outgoing requests per second. Zero or less disables it.
func WithRateLimit(rps float64) ClientOption {
	return func(o *clientOptions) { o.rps = rps }
}

// NewHTTPClient returns the client used for both the landing page and the
// spreadsheet download. Requests are traced when a tracer provider is set.
func NewHTTPClient(timeout time.Duration, opts ...ClientOption) *http.Client {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	var transport http.RoundTripper = http.DefaultTransport
	if o.rps > 0 {
		transport = &rateLimitedTransport{
			limiter: rate.NewLimiter(rate.Limit(o.rps), 1),
			next:    transport,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(transport),
	}
}

// rateLimitedTransport waits for a token before each request.
type rateLimitedTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

func newGetRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
