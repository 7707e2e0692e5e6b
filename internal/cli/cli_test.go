package cli_test

import (
	"errors"
	"flag"
	"reflect"
	"testing"
	"time"

	"github.com/phishsentry/phishsentry/internal/cli"
)

func TestParseArgs_ScanDefaults(t *testing.T) {
	t.Parallel()
	a, err := cli.ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if a.Command != cli.CommandScan {
		t.Errorf("Command = %q", a.Command)
	}
	if !reflect.DeepEqual(a.URLs, cli.DefaultTargets) {
		t.Errorf("URLs = %v, want defaults", a.URLs)
	}
}

func TestParseArgs_ScanFlags(t *testing.T) {
	t.Parallel()
	a, err := cli.ParseArgs([]string{
		"-timeout", "3s", "-max-redirects", "4", "-user-agent", "ua/1",
		"-json", "-render", "-concurrency", "2", "-url", "a.example",
		"b.example", "-",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if a.Timeout != 3*time.Second || a.MaxRedirects != 4 || a.UserAgent != "ua/1" {
		t.Errorf("unexpected overrides: %+v", a)
	}
	if !a.JSON || !a.Render || a.Concurrency != 2 {
		t.Errorf("unexpected booleans: %+v", a)
	}
	if !reflect.DeepEqual(a.URLs, []string{"a.example", "b.example"}) {
		t.Errorf("URLs = %v", a.URLs)
	}
	if !a.Stdin {
		t.Error("expected Stdin for -")
	}
}

func TestParseArgs_StdinOnlyHasNoDefaults(t *testing.T) {
	t.Parallel()
	a, err := cli.ParseArgs([]string{"scan", "-"})
	if err != nil {
		t.Fatal(err)
	}
	if len(a.URLs) != 0 || !a.Stdin {
		t.Errorf("URLs = %v, Stdin = %v", a.URLs, a.Stdin)
	}
}

func TestParseArgs_Serve(t *testing.T) {
	t.Parallel()
	a, err := cli.ParseArgs([]string{"serve", "-addr", ":9000", "-blocklist", "bl.db"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Command != cli.CommandServe || a.ListenAddr != ":9000" || a.BlocklistPath != "bl.db" {
		t.Errorf("unexpected: %+v", a)
	}
	if _, err := cli.ParseArgs([]string{"serve", "extra"}); err == nil {
		t.Error("expected error for positional args to serve")
	}
}

func TestParseArgs_Blocklist(t *testing.T) {
	t.Parallel()
	a, err := cli.ParseArgs([]string{"blocklist", "-blocklist", "bl.db", "-score", "3", "add", "evil.example"})
	if err != nil {
		t.Fatal(err)
	}
	if a.BlocklistAction != "add" || a.Score != 3 || !reflect.DeepEqual(a.BlocklistArgs, []string{"evil.example"}) {
		t.Errorf("unexpected: %+v", a)
	}

	bad := [][]string{
		{"blocklist", "list"},
		{"blocklist", "-blocklist", "bl.db"},
		{"blocklist", "-blocklist", "bl.db", "add"},
		{"blocklist", "-blocklist", "bl.db", "frobnicate"},
	}
	for _, args := range bad {
		if _, err := cli.ParseArgs(args); err == nil {
			t.Errorf("ParseArgs(%v) succeeded, want error", args)
		}
	}
}

func TestParseArgs_Errors(t *testing.T) {
	t.Parallel()
	if _, err := cli.ParseArgs([]string{"-timeout", "-1s"}); err == nil {
		t.Error("expected error for negative timeout")
	}
	if _, err := cli.ParseArgs([]string{"-nope"}); err == nil {
		t.Error("expected error for unknown flag")
	}
	if _, err := cli.ParseArgs([]string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h error = %v, want flag.ErrHelp", err)
	}
}
