package scanner

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/phishsentry/phishsentry/internal/model"
	"github.com/phishsentry/phishsentry/internal/utils"
)

// securityIndicators is derived from the final URL and, when reachable, the
// terminal response headers.
func (s *Scanner) securityIndicators(finalURL string, headers http.Header) *model.SecurityIndicators {
	si := &model.SecurityIndicators{URLLength: len(finalURL)}
	u, err := url.Parse(finalURL)
	if err != nil {
		return si
	}
	host := strings.ToLower(u.Hostname())
	si.HTTPS = u.Scheme == "https"
	si.SubdomainCount = utils.SubdomainCount(host)
	if suffix := utils.PublicSuffix(host); suffix != "" {
		si.SuspiciousTLD = s.tables.IsSuspiciousTLD(suffix)
	}
	for _, h := range s.tables.SecurityHeaders {
		if headers.Get(h) != "" {
			si.HasSecurityHeaders = true
			break
		}
	}
	return si
}

// describeError reduces a transport error to a short reason.
func describeError(ctx context.Context, err error) string {
	var (
		dnsErr     *net.DNSError
		certErr    *tls.CertificateVerificationError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
		recordErr  tls.RecordHeaderError
		netErr     net.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &dnsErr):
		return "dns lookup failed: " + dnsErr.Name
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset"
	case errors.As(err, &certErr), errors.As(err, &unknownCA), errors.As(err, &hostErr), errors.As(err, &invalidErr):
		return "tls certificate error"
	case errors.As(err, &recordErr):
		return "tls handshake failed"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	}
	return "request failed: " + err.Error()
}
