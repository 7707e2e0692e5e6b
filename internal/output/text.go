// Package output renders reports for terminals and machines.
package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/phishsentry/phishsentry/internal/heuristics"
	"github.com/phishsentry/phishsentry/internal/model"
)

const (
	maxTitleRunes    = 50
	maxRedirectRunes = 60
	redirectsPreview = 3
	separatorWidth   = 60
)

// Printer writes human-readable reports.
type Printer struct {
	w io.Writer

	heading  *color.Color
	good     *color.Color
	warn     *color.Color
	bad      *color.Color
	critical *color.Color
	dim      *color.Color

	title cases.Caser
}

// NewPrinter returns a Printer writing to w. ANSI colors are emitted only
// when colorize is true.
func NewPrinter(w io.Writer, colorize bool) *Printer {
	p := &Printer{
		w:        w,
		heading:  color.New(color.FgCyan, color.Bold),
		good:     color.New(color.FgGreen),
		warn:     color.New(color.FgYellow),
		bad:      color.New(color.FgRed),
		critical: color.New(color.FgHiRed, color.Bold),
		dim:      color.New(color.FgHiBlack),
		title:    cases.Title(language.English),
	}
	if !colorize {
		for _, c := range []*color.Color{p.heading, p.good, p.warn, p.bad, p.critical, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) section(name string) {
	p.printf("\n")
	_, _ = p.heading.Fprintf(p.w, "[%s]\n", name)
}

// Separator prints a full-width rule with an optional caption.
func (p *Printer) Separator(caption string) {
	rule := strings.Repeat("=", separatorWidth)
	p.printf("\n%s\n", rule)
	if caption != "" {
		p.printf("%s\n%s\n", caption, rule)
	}
}

func (p *Printer) riskColor(level model.RiskLevel) *color.Color {
	switch level {
	case model.RiskLow:
		return p.good
	case model.RiskMedium:
		return p.warn
	case model.RiskHigh:
		return p.bad
	case model.RiskCritical:
		return p.critical
	}
	return p.dim
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// PatternName turns an indicator key such as "url_shortener" into
// "Url Shortener".
func (p *Printer) PatternName(key string) string {
	return p.title.String(strings.ReplaceAll(key, "_", " "))
}

// PrintReport writes every section of rep.
func (p *Printer) PrintReport(rep *model.Report) {
	if rep == nil || rep.Scan == nil || rep.Score == nil {
		return
	}
	scan, score := rep.Scan, rep.Score

	p.section("SCAN RESULTS")
	p.printf("   URL: %s\n", scan.URL)
	p.printf("   Accessible: %s\n", yesNo(scan.Accessible))
	if scan.StatusCode != nil {
		p.printf("   Status Code: %d\n", *scan.StatusCode)
	} else {
		p.printf("   Status Code: N/A\n")
	}
	p.printf("   Response Time: %.2fs\n", scan.ResponseTime)
	if scan.Error != "" {
		p.printf("   Error: %s\n", scan.Error)
	}

	p.section("REPUTATION ASSESSMENT")
	level := score.RiskLevel
	p.printf("   Risk Level: ")
	_, _ = p.riskColor(level).Fprintf(p.w, "[%s] %s\n", strings.ToUpper(string(level)), strings.ToUpper(string(level)))
	p.printf("   Total Score: %.1f/10\n", score.TotalScore)
	if len(score.Threats) > 0 {
		p.printf("   Threats: %s\n", strings.Join(score.Threats, ", "))
	}
	if len(score.PatternThreats) > 0 {
		p.printf("   Pattern Threats: %s\n", strings.Join(score.PatternThreats, ", "))
	}

	p.section("SCORE BREAKDOWN")
	p.printf("   Base Score: %.1f/%g\n", score.BaseScore, model.MaxBaseScore)
	p.printf("   Content Score: %.1f/%g\n", score.ContentScore, model.MaxContentScore)
	p.printf("   Security Score: %.1f/%g\n", score.SecurityScore, model.MaxSecurityScore)
	p.printf("   Pattern Score: %.1f/%g\n", score.PatternScore, model.MaxPatternScore)
	p.printf("   VirusTotal Score: %.1f/%g\n", score.VirusTotalScore, model.MaxVirusTotalScore)

	p.printPatterns(scan.PatternAnalysis)

	if scan.Accessible && scan.ContentAnalysis != nil {
		ca := scan.ContentAnalysis
		p.section("CONTENT ANALYSIS")
		p.printf("   Title: %s\n", truncate(ca.Title, maxTitleRunes))
		if ca.HasForms {
			p.printf("   Forms: Yes\n")
		} else {
			p.printf("   Forms: No\n")
		}
		p.printf("   Login Forms: %d\n", ca.LoginForms)
		p.printf("   External Links: %d\n", ca.ExternalLinks)
		p.printf("   Suspicious Scripts: %d\n", ca.SuspiciousScripts)
		p.printf("   iFrames: %d\n", ca.IframeCount)
	}

	if si := scan.SecurityIndicators; si != nil {
		p.section("SECURITY INDICATORS")
		p.printf("   HTTPS: %s\n", yesNo(si.HTTPS))
		p.printf("   Security Headers: %s\n", yesNo(si.HasSecurityHeaders))
		p.printf("   URL Length: %d chars\n", si.URLLength)
		p.printf("   Subdomains: %d\n", si.SubdomainCount)
		if si.SuspiciousTLD {
			p.printf("   Suspicious TLD: YES\n")
		}
	}

	if n := len(scan.Redirects); n > 0 {
		p.printf("\n")
		_, _ = p.heading.Fprintf(p.w, "[REDIRECTS] (%d)\n", n)
		p.printRedirects(scan.Redirects)
	}
}

func (p *Printer) printPatterns(pa model.PatternAnalysis) {
	urlFired := firedInOrder(heuristics.URLIndicators(), pa.URLPatterns)
	contentFired := firedInOrder(heuristics.ContentIndicators(), pa.ContentPatterns)
	if len(urlFired) == 0 && len(contentFired) == 0 {
		return
	}
	p.section("PATTERN ANALYSIS")
	p.printFired("URL Patterns", urlFired, pa.URLPatterns)
	p.printFired("Content Patterns", contentFired, pa.ContentPatterns)
}

func (p *Printer) printFired(caption string, fired []heuristics.Indicator, values map[string]int) {
	if len(fired) == 0 {
		return
	}
	p.printf("   %s:\n", caption)
	for _, ind := range fired {
		c := p.warn
		if ind.Severity == heuristics.SeverityHigh {
			c = p.bad
		}
		value := fmt.Sprint(values[ind.Key])
		if ind.Kind == heuristics.KindBool {
			value = "YES"
		}
		_, _ = c.Fprintf(p.w, "     * %s: %s\n", p.PatternName(ind.Key), value)
	}
}

func firedInOrder(indicators []heuristics.Indicator, values map[string]int) []heuristics.Indicator {
	var out []heuristics.Indicator
	for _, ind := range indicators {
		if values[ind.Key] > 0 {
			out = append(out, ind)
		}
	}
	return out
}

func (p *Printer) printRedirects(redirects []model.Redirect) {
	for i, r := range redirects {
		if i == redirectsPreview {
			p.printf("   ... and %d more\n", len(redirects)-redirectsPreview)
			break
		}
		p.printf("   %d. %d -> %s\n", i+1, r.Status, truncate(r.To, maxRedirectRunes))
	}
}

// PrintError reports a URL that could not be scanned at all.
func (p *Printer) PrintError(rawURL string, err error) {
	_, _ = p.bad.Fprintf(p.w, "[ERROR] %s: %v\n", rawURL, err)
}

// PrintSummary closes a run.
func (p *Printer) PrintSummary(succeeded, total int) {
	p.Separator(fmt.Sprintf("SCAN SUMMARY: %d/%d URLs scanned successfully", succeeded, total))
	_, _ = p.dim.Fprintln(p.w, "\nNOTE: Verify results with multiple sources before acting on them.")
}
