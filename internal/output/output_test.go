package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/phishsentry/phishsentry/internal/model"
	"github.com/phishsentry/phishsentry/internal/output"
)

func sampleReport() *model.Report {
	scan := &model.ScanResult{
		URL:          "http://login.example.tk/verify",
		RequestedURL: "http://bit.ly/x",
		Accessible:   true,
		StatusCode:   model.IntPtr(200),
		ResponseTime: 0.25,
		Redirects: []model.Redirect{
			{Status: 301, To: "http://a.example/1"},
			{Status: 302, To: "http://a.example/2"},
			{Status: 302, To: "http://a.example/3"},
			{Status: 302, To: "http://a.example/4"},
			{Status: 302, To: "http://login.example.tk/verify"},
		},
		ContentAnalysis: &model.ContentAnalysis{
			Title:      strings.Repeat("T", 80),
			HasForms:   true,
			LoginForms: 1,
		},
		SecurityIndicators: &model.SecurityIndicators{URLLength: 30, SuspiciousTLD: true},
		PatternAnalysis: model.PatternAnalysis{
			URLPatterns:     map[string]int{"url_shortener": 1, "suspicious_keywords": 2, "at_symbol": 0},
			ContentPatterns: map[string]int{"credential_keywords": 3},
		},
		ScannedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	score := &model.ReputationScore{
		BaseScore:      1.0,
		ContentScore:   1.5,
		SecurityScore:  2.0,
		PatternScore:   2.25,
		Threats:        []string{"No HTTPS", "Login form present"},
		PatternThreats: []string{"URL shortening service"},
	}
	score.Recalculate()
	return model.NewReport(scan, score)
}

func TestPrinter_PrintReport(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	output.NewPrinter(&buf, false).PrintReport(sampleReport())
	out := buf.String()

	for _, want := range []string{
		"[SCAN RESULTS]",
		"   Accessible: YES",
		"   Status Code: 200",
		"   Response Time: 0.25s",
		"[REPUTATION ASSESSMENT]",
		"   Risk Level: [HIGH] HIGH",
		"   Total Score: 6.8/10",
		"   Threats: No HTTPS, Login form present",
		"   Pattern Threats: URL shortening service",
		"   Base Score: 1.0/4",
		"   Security Score: 2.0/2",
		"     * Url Shortener: YES",
		"     * Suspicious Keywords: 2",
		"     * Credential Keywords: 3",
		"   Title: " + strings.Repeat("T", 50) + "\n",
		"   Forms: Yes",
		"   Suspicious TLD: YES",
		"[REDIRECTS] (5)",
		"   3. 302 -> http://a.example/3",
		"   ... and 2 more",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "At Symbol") {
		t.Error("zero-valued pattern printed")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("ANSI escapes emitted with color disabled")
	}
}

func TestPrinter_UnreachableOmitsContent(t *testing.T) {
	t.Parallel()
	rep := sampleReport()
	rep.Scan.Accessible = false
	rep.Scan.StatusCode = nil
	rep.Scan.Error = "connection refused"
	rep.Scan.Redirects = []model.Redirect{}

	var buf bytes.Buffer
	output.NewPrinter(&buf, false).PrintReport(rep)
	out := buf.String()
	if strings.Contains(out, "[CONTENT ANALYSIS]") || strings.Contains(out, "[REDIRECTS]") {
		t.Errorf("unexpected sections:\n%s", out)
	}
	if !strings.Contains(out, "Status Code: N/A") || !strings.Contains(out, "Error: connection refused") {
		t.Errorf("missing unreachable details:\n%s", out)
	}
}

func TestPrinter_SummaryAndError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	p := output.NewPrinter(&buf, false)
	p.PrintError("ftp://x", errors.New("invalid url"))
	p.PrintSummary(1, 2)
	out := buf.String()
	if !strings.Contains(out, "[ERROR] ftp://x: invalid url") || !strings.Contains(out, "SCAN SUMMARY: 1/2") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestPrintBanner(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	output.PrintBanner(&buf, false)
	if !strings.Contains(buf.String(), "Phishing URL scanner") {
		t.Errorf("banner = %q", buf.String())
	}
}

func TestJSONLWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := output.NewJSONLWriter(&buf)
	if err := w.Write(sampleReport()); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(map[string]string{"url": "a&b"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	var got model.Report
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Score.RiskLevel != model.RiskHigh || len(got.Scan.Redirects) != 5 {
		t.Errorf("round trip lost data: %+v", got.Score)
	}
	if !strings.Contains(lines[1], "a&b") {
		t.Errorf("HTML escaping applied: %s", lines[1])
	}
}
