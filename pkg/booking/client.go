package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/booking-harvester/pkg/httpclient"
)

// DefaultURL is the public booking endpoint.
const DefaultURL = "https://hh.frontend.ark.software/api/booking"

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	URL        string
	HTTPClient httpclient.Client
	Logger     Logger
}

// Client fetches booking data from a single endpoint. It keeps no state
// between calls and is safe for concurrent use.
type Client struct {
	url  string
	http httpclient.Client
	log  Logger
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		url = DefaultURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = httpclient.NewRestyClient(0)
	}
	return &Client{
		url:  url,
		http: client,
		log:  ensureLogger(opts.Logger),
	}
}

// URL returns the endpoint the client reads from.
func (c *Client) URL() string { return c.url }

// FetchBookingData performs one GET against the endpoint and decodes the body.
// Failures are logged once and returned wrapped; errors.As reaches the
// transport error, *httpclient.StatusError, or the json decode error.
func (c *Client) FetchBookingData(ctx context.Context) (*BookingData, error) {
	resp, err := c.get(ctx)
	if err != nil {
		return nil, err
	}

	data, err := Decode(resp.Body())
	if err != nil {
		c.logFailure("decode", err, resp)
		return nil, err
	}
	c.log.DebugObj("booking data fetched", "booking_fetch", map[string]any{
		"url":    c.url,
		"tables": len(data.Tables),
		"bytes":  len(data.Raw),
	})
	return data, nil
}

// FetchRaw performs one GET and returns the body untouched once it is known
// to be valid JSON.
func (c *Client) FetchRaw(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.get(ctx)
	if err != nil {
		return nil, err
	}

	body := resp.Body()
	var probe any
	if err := json.Unmarshal(body, &probe); err != nil {
		err = fmt.Errorf("decode booking data: %w", err)
		c.logFailure("decode", err, resp)
		return nil, err
	}
	return append(json.RawMessage(nil), body...), nil
}

func (c *Client) get(ctx context.Context) (httpclient.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := c.http.Get(ctx, c.url, map[string]string{"Accept": "application/json"})
	if err != nil {
		err = fmt.Errorf("fetch booking data: %w", err)
		c.logFailure("request", err, nil)
		return nil, err
	}
	if err := httpclient.CheckStatus(c.url, resp); err != nil {
		err = fmt.Errorf("fetch booking data: %w", err)
		c.logFailure("status", err, resp)
		return nil, err
	}
	return resp, nil
}

func (c *Client) logFailure(stage string, err error, resp httpclient.Response) {
	fields := map[string]any{
		"url":   c.url,
		"stage": stage,
		"error": err.Error(),
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		fields["cancelled"] = true
	}
	if resp != nil {
		contentType := resp.Header("Content-Type")
		fields["status"] = resp.StatusCode()
		fields["content_type"] = contentType
		fields["body"] = httpclient.Snippet(resp.Body())
		if title := pageTitle(resp.Body(), contentType); title != "" {
			fields["page_title"] = title
		}
	}
	c.log.ErrorObj("booking data fetch failed", "booking_fetch_error", fields)
}
