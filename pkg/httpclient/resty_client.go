package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Option tunes the underlying resty client.
type Option func(*resty.Client)

// WithUserAgent sets the User-Agent sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *resty.Client) {
		if ua != "" {
			c.SetHeader("User-Agent", ua)
		}
	}
}

// RestyClient is the resty-backed Client.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient returns a Client. A zero timeout leaves requests unbounded,
// so only the caller's context can cancel them.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	return &RestyClient{client: NewRestyHTTPClient(timeout, opts...)}
}

// NewRestyHTTPClient returns a bare resty client for callers that need other verbs.
func NewRestyHTTPClient(timeout time.Duration, opts ...Option) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get sends one GET. Non-2xx statuses are not errors here; see CheckStatus.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp}, nil
}

type restyResponse struct {
	*resty.Response
}

func (r restyResponse) Header(key string) string { return r.Response.Header().Get(key) }
