package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

const DefaultUserAgent = "Mozilla/5.0 (compatible; PhishSentry/1.0; +https://github.com/phishsentry/phishsentry)"

// Config is shared by every backend; fields a backend does not use are ignored.
type Config struct {
	Client Client `yaml:"client"`

	// Timeout bounds a single request when the caller's context has no deadline.
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`

	// MaxBodyBytes caps how much of a response body is read. Zero means the default.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// chromedp only.
	IdleAfter time.Duration `yaml:"idle_after"`
	Headless  *bool         `yaml:"headless"`
}

func DefaultConfig() Config {
	return Config{
		Client:       ClientNetHTTP,
		Timeout:      10 * time.Second,
		UserAgent:    DefaultUserAgent,
		MaxBodyBytes: 2 << 20,
		IdleAfter:    500 * time.Millisecond,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Client == "" {
		c.Client = d.Client
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.IdleAfter <= 0 {
		c.IdleAfter = d.IdleAfter
	}
	return c
}
