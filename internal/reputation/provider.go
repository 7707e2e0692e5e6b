// Package reputation supplies third-party style verdicts for a URL. The
// engine treats every provider as optional: ErrUnavailable or any other
// error simply contributes nothing.
package reputation

import (
	"context"
	"errors"
	"strings"

	"github.com/phishsentry/phishsentry/internal/utils"
)

// ErrUnavailable means the provider has no opinion (not configured, offline,
// quota exhausted).
var ErrUnavailable = errors.New("reputation provider unavailable")

// Verdict is a provider's opinion about a URL. Score uses the same 0..4
// scale as the engine's virustotal sub-score; the engine clamps it anyway.
type Verdict struct {
	Score   float64  `json:"score"`
	Threats []string `json:"threats,omitempty"`
	Source  string   `json:"source,omitempty"`
}

type Provider interface {
	Lookup(ctx context.Context, rawURL string) (*Verdict, error)
}

// Noop is always unavailable.
type Noop struct{}

func (Noop) Lookup(context.Context, string) (*Verdict, error) { return nil, ErrUnavailable }

// Static answers from a fixed host → verdict map. Hosts are matched exactly,
// then by registrable domain. Unknown hosts get a zero verdict.
type Static map[string]Verdict

func (s Static) Lookup(ctx context.Context, rawURL string) (*Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	host := utils.Hostname(rawURL)
	if host == "" {
		return nil, ErrUnavailable
	}
	for _, key := range []string{host, utils.RegistrableDomain(host)} {
		if v, ok := s[strings.ToLower(key)]; ok {
			out := v
			out.Threats = append([]string(nil), v.Threats...)
			return &out, nil
		}
	}
	return &Verdict{Source: "static"}, nil
}
