package webclient

import "context"

// WebClient fetches a single resource. Implementations never follow redirects
// on their own; the caller walks the chain so every hop can be recorded.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Get(ctx context.Context, url string) (*Response, error)
	Close() error
}
