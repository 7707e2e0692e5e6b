package scanner

import (
	"time"

	"github.com/phishsentry/phishsentry/internal/webclient"
)

// Config controls a single scan.
type Config struct {
	// Timeout bounds the whole redirect traversal, not each hop.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRedirects is the number of hops recorded before traversal stops.
	MaxRedirects int `yaml:"max_redirects"`

	UserAgent string `yaml:"user_agent"`

	// DefaultScheme is prepended to inputs without one.
	DefaultScheme string `yaml:"default_scheme"`

	// Render uses the rendering backend, when one is attached, for the
	// terminal page's content analysis.
	Render bool `yaml:"render"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:       10 * time.Second,
		MaxRedirects:  10,
		UserAgent:     webclient.DefaultUserAgent,
		DefaultScheme: "http",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = d.MaxRedirects
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.DefaultScheme == "" {
		c.DefaultScheme = d.DefaultScheme
	}
	return c
}
