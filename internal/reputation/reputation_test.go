package reputation_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/reputation"
)

func openBlocklist(t *testing.T) *reputation.SQLiteBlocklist {
	t.Helper()
	bl, err := reputation.OpenBlocklist(filepath.Join(t.TempDir(), "blocklist.db"), logging.Nop{})
	if err != nil {
		t.Fatalf("OpenBlocklist: %v", err)
	}
	t.Cleanup(func() { _ = bl.Close() })
	return bl
}

func TestNoop_IsUnavailable(t *testing.T) {
	t.Parallel()
	_, err := reputation.Noop{}.Lookup(context.Background(), "http://example.com/")
	if !errors.Is(err, reputation.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestStatic_Lookup(t *testing.T) {
	t.Parallel()
	s := reputation.Static{
		"evil.example": {Score: 3, Threats: []string{"Known phishing domain"}},
	}
	ctx := context.Background()

	v, err := s.Lookup(ctx, "https://login.evil.example/x")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if v.Score != 3 || len(v.Threats) != 1 {
		t.Errorf("verdict = %+v", v)
	}
	v.Threats[0] = "mutated"
	again, _ := s.Lookup(ctx, "https://evil.example/")
	if again.Threats[0] != "Known phishing domain" {
		t.Error("Lookup leaked internal slice")
	}

	clean, err := s.Lookup(ctx, "https://example.org/")
	if err != nil || clean.Score != 0 {
		t.Errorf("clean verdict = %+v, %v", clean, err)
	}
}

func TestSQLiteBlocklist_AddLookupRemove(t *testing.T) {
	t.Parallel()
	bl := openBlocklist(t)
	ctx := context.Background()

	if err := bl.Add(ctx, reputation.Entry{Host: "Secure-Login.TK", Threats: []string{"Phishing kit"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// subdomain falls back to the registrable domain entry
	v, err := bl.Lookup(ctx, "http://paypal.secure-login.tk/verify")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if v.Score != 4 {
		t.Errorf("default score = %v, want 4", v.Score)
	}
	if len(v.Threats) != 1 || v.Threats[0] != "Phishing kit" {
		t.Errorf("threats = %v", v.Threats)
	}

	miss, err := bl.Lookup(ctx, "https://example.com/")
	if err != nil || miss.Score != 0 {
		t.Errorf("miss = %+v, %v", miss, err)
	}

	if err := bl.Remove(ctx, "secure-login.tk"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := bl.Remove(ctx, "secure-login.tk"); !errors.Is(err, reputation.ErrEntryNotFound) {
		t.Errorf("second Remove err = %v, want ErrEntryNotFound", err)
	}
	v, _ = bl.Lookup(ctx, "http://paypal.secure-login.tk/verify")
	if v.Score != 0 {
		t.Errorf("score after remove = %v", v.Score)
	}
}

func TestSQLiteBlocklist_AddUpserts(t *testing.T) {
	t.Parallel()
	bl := openBlocklist(t)
	ctx := context.Background()

	_ = bl.Add(ctx, reputation.Entry{Host: "bad.example", Score: 1})
	if err := bl.Add(ctx, reputation.Entry{Host: "bad.example", Score: 2.5, Source: "feed"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	e, err := bl.Get(ctx, "bad.example")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Score != 2.5 || e.Source != "feed" {
		t.Errorf("entry = %+v", e)
	}
	entries, err := bl.List(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("List = %v, %v", entries, err)
	}
}

func TestSQLiteBlocklist_Import(t *testing.T) {
	t.Parallel()
	bl := openBlocklist(t)
	ctx := context.Background()

	n, err := bl.Import(ctx, strings.NewReader("# feed\nphish.example\n\nhttps://other.example/login\n"), "test-feed")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d, want 2", n)
	}
	if _, err := bl.Get(ctx, "other.example"); err != nil {
		t.Errorf("URL line not reduced to host: %v", err)
	}
}

func TestSQLiteBlocklist_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bl.db")
	ctx := context.Background()

	bl, err := reputation.OpenBlocklist(path, nil)
	if err != nil {
		t.Fatalf("OpenBlocklist: %v", err)
	}
	if err := bl.Add(ctx, reputation.Entry{Host: "kept.example"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	_ = bl.Close()

	bl, err = reputation.OpenBlocklist(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer bl.Close()
	if _, err := bl.Get(ctx, "kept.example"); err != nil {
		t.Fatalf("entry lost after reopen: %v", err)
	}
}
