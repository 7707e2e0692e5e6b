package heuristics

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/phishsentry/phishsentry/internal/utils"
)

// Page is a parsed terminal document plus the URL it was served from.
type Page struct {
	Doc         *goquery.Document
	URL         *url.URL
	Host        string
	Registrable string

	// Text is the lower-cased visible text (script and style bodies excluded).
	Text string
}

// NewPage wraps a parsed document served from finalURL.
func NewPage(doc *goquery.Document, finalURL *url.URL) *Page {
	p := &Page{Doc: doc, URL: finalURL}
	if finalURL != nil {
		p.Host = strings.ToLower(finalURL.Hostname())
		p.Registrable = utils.RegistrableDomain(p.Host)
	}
	if doc != nil {
		p.Text = strings.ToLower(visibleText(doc.Selection))
	}
	return p
}

// visibleText concatenates text nodes, skipping script/style/noscript/template.
func visibleText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ResolveHost resolves ref against the page URL and returns the host, or ""
// for non-network references (javascript:, mailto:, fragments).
func (p *Page) ResolveHost(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if p.URL != nil {
		u = p.URL.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IsExternal reports whether ref points off the page's registrable domain.
func (p *Page) IsExternal(ref string) bool {
	host := p.ResolveHost(ref)
	if host == "" {
		return false
	}
	return !utils.SameSite(host, p.Host)
}

// ─── content detectors ─────────────────────────────────────────────────

func countOccurrences(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		n += strings.Count(text, kw)
	}
	return n
}

func detectCredentialKeywords(p *Page, t *Tables) int {
	return countOccurrences(p.Text, t.CredentialKeywords)
}

func detectUrgencyKeywords(p *Page, t *Tables) int {
	return countOccurrences(p.Text, t.UrgencyKeywords)
}

// detectBrandMentions counts brand names presented as the page's identity
// (title, headings, form text, logo alt text) on a domain the brand does not own.
func detectBrandMentions(p *Page, t *Tables) int {
	var b strings.Builder
	b.WriteString(p.Doc.Find("title").Text())
	b.WriteByte(' ')
	p.Doc.Find("h1, h2, h3, form, label, button").Each(func(_ int, s *goquery.Selection) {
		b.WriteString(s.Text())
		b.WriteByte(' ')
	})
	p.Doc.Find("img[alt]").Each(func(_ int, s *goquery.Selection) {
		alt, _ := s.Attr("alt")
		b.WriteString(alt)
		b.WriteByte(' ')
	})
	words := strings.FieldsFunc(strings.ToLower(b.String()), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	n := 0
	for _, w := range words {
		if _, ok := t.Brands[w]; ok && !t.BrandOwns(w, p.Registrable) {
			n++
		}
	}
	return n
}

func detectObfuscatedScripts(p *Page, t *Tables) int {
	n := 0
	p.Doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if t.IsObfuscated(s.Text()) || (src != "" && t.IsObfuscated(src)) {
			n++
		}
	})
	return n
}

func detectExternalFormActions(p *Page, _ *Tables) int {
	n := 0
	p.Doc.Find("form[action]").Each(func(_ int, s *goquery.Selection) {
		action, _ := s.Attr("action")
		if p.IsExternal(action) {
			n++
		}
	})
	return n
}

func detectHiddenIframes(p *Page, _ *Tables) int {
	n := 0
	p.Doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		w, _ := s.Attr("width")
		h, _ := s.Attr("height")
		style, _ := s.Attr("style")
		style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
		_, hidden := s.Attr("hidden")
		if hidden || strings.TrimSpace(w) == "0" || strings.TrimSpace(h) == "0" ||
			strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") ||
			strings.Contains(style, "width:0") || strings.Contains(style, "height:0") {
			n++
		}
	})
	return n
}

func detectMetaRefresh(p *Page, _ *Tables) int {
	n := 0
	p.Doc.Find("meta[http-equiv]").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("http-equiv")
		if strings.EqualFold(strings.TrimSpace(v), "refresh") {
			n++
		}
	})
	return n
}
