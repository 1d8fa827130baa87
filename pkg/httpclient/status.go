package httpclient

import (
	"fmt"
	"net/http"
	"strings"
)

const snippetLimit = 512

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s failed with status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Snippet returns a trimmed, length-limited excerpt of the response body.
func (e *StatusError) Snippet() string {
	return Snippet(e.Body)
}

// CheckStatus returns a *StatusError when resp carries a non-2xx status.
func CheckStatus(url string, resp Response) error {
	if resp == nil {
		return fmt.Errorf("request %s returned no response", url)
	}
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}
	return &StatusError{URL: url, StatusCode: code, Body: resp.Body()}
}

// Snippet trims body and caps it for logging.
func Snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "<empty>"
	}
	if len(s) > snippetLimit {
		return s[:snippetLimit] + "..."
	}
	return s
}
