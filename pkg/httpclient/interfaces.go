package httpclient

import "context"

// Client issues GET requests. Implementations must be safe for concurrent use.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Response is the subset of an HTTP response callers inspect.
type Response interface {
	Body() []byte
	StatusCode() int
	Header(key string) string
}
