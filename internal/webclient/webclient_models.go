package webclient

import (
	"net/http"
	"time"
)

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time

	// Truncated is set when the body exceeded MaxBodyBytes and was cut.
	Truncated bool
	// BodyErr is set when status and headers arrived but reading the body
	// failed. Body is then empty.
	BodyErr error
}

// BodyComplete reports whether Body holds the whole payload.
func (r *Response) BodyComplete() bool {
	return !r.Truncated && r.BodyErr == nil
}

// IsRedirect reports whether the response is a 3xx.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}
