package scanner

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/phishsentry/phishsentry/internal/heuristics"
	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/model"
)

// isHTML decides from Content-Type, sniffing the body when the header is absent.
func isHTML(headers http.Header, body []byte) bool {
	ct := headers.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.Contains(strings.ToLower(ct), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// parsePage returns the terminal page, or nil when the body is incomplete
// or not HTML. With rendering enabled the post-JavaScript DOM replaces the
// raw body, and a failed render falls back to it.
func (s *Scanner) parsePage(ctx context.Context, last hop) *heuristics.Page {
	if !last.resp.BodyComplete() {
		s.logger.Debug("skipping content analysis of incomplete body",
			logging.Field{Key: "url", Value: last.url},
			logging.Field{Key: "truncated", Value: last.resp.Truncated},
			logging.Field{Key: "error", Value: last.resp.BodyErr})
		return nil
	}
	if len(last.resp.Body) == 0 || !isHTML(last.resp.Headers, last.resp.Body) {
		return nil
	}
	body := last.resp.Body

	if s.cfg.Render && s.renderer != nil {
		rendered, err := s.renderer.Get(ctx, last.url)
		if err != nil {
			s.logger.Warn("render failed, using raw body",
				logging.Field{Key: "url", Value: last.url},
				logging.Field{Key: "error", Value: err})
		} else if len(rendered.Body) > 0 {
			body = rendered.Body
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.logger.Debug("html parse failed",
			logging.Field{Key: "url", Value: last.url},
			logging.Field{Key: "error", Value: err})
		return nil
	}
	u, err := url.Parse(last.url)
	if err != nil {
		return nil
	}
	return heuristics.NewPage(doc, u)
}

func (s *Scanner) contentAnalysis(p *heuristics.Page) *model.ContentAnalysis {
	doc := p.Doc
	ca := &model.ContentAnalysis{
		Title:       strings.Join(strings.Fields(doc.Find("title").First().Text()), " "),
		IframeCount: doc.Find("iframe").Length(),
	}

	forms := doc.Find("form")
	ca.HasForms = forms.Length() > 0
	forms.Each(func(_ int, f *goquery.Selection) {
		if hasPasswordInput(f) {
			ca.LoginForms++
		}
	})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if p.IsExternal(href) {
			ca.ExternalLinks++
		}
	})

	doc.Find("script").Each(func(_ int, sc *goquery.Selection) {
		src, _ := sc.Attr("src")
		if s.tables.IsObfuscated(sc.Text()) || (src != "" && s.tables.IsObfuscated(src)) {
			ca.SuspiciousScripts++
		}
	})
	return ca
}

func hasPasswordInput(form *goquery.Selection) bool {
	found := false
	form.Find("input[type]").EachWithBreak(func(_ int, in *goquery.Selection) bool {
		t, _ := in.Attr("type")
		found = strings.EqualFold(strings.TrimSpace(t), "password")
		return !found
	})
	return found
}
