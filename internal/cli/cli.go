package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// Commands understood by ParseArgs.
const (
	CommandScan      = "scan"
	CommandServe     = "serve"
	CommandBlocklist = "blocklist"
)

// DefaultTargets are scanned when no URL is given.
var DefaultTargets = []string{"https://google.com", "https://github.com"}

// ErrHelp is returned when -h or -help was requested.
var ErrHelp = flag.ErrHelp

// CLIArgs are the command-line arguments for one invocation. Zero values mean
// "use config default".
type CLIArgs struct {
	Command string

	// URLs to scan. Stdin is set when "-" was given, asking the caller to read
	// one URL per line from standard input.
	URLs  []string
	Stdin bool

	ConfigPath    string
	BlocklistPath string
	Timeout       time.Duration
	MaxRedirects  int
	UserAgent     string
	Concurrency   int
	Render        bool
	JSON          bool
	Verbose       bool

	// ListenAddr for the serve command.
	ListenAddr string

	// BlocklistAction and BlocklistArgs for the blocklist command
	// (add|remove|list|import).
	BlocklistAction string
	BlocklistArgs   []string
	Score           float64
	Threat          string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// ParseArgs parses a slice of args (without the program name) and returns
// CLIArgs. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	return ParseArgsOutput(args, io.Discard)
}

// ParseArgsOutput is ParseArgs with usage text written to out.
func ParseArgsOutput(args []string, out io.Writer) (*CLIArgs, error) {
	cmd := CommandScan
	rest := args
	if len(args) > 0 {
		switch args[0] {
		case CommandScan, CommandServe, CommandBlocklist:
			cmd = args[0]
			rest = args[1:]
		}
	}

	fs := flag.NewFlagSet("phishsentry "+cmd, flag.ContinueOnError)
	fs.SetOutput(out)

	a := &CLIArgs{Command: cmd, RawArgs: args}
	fs.StringVar(&a.ConfigPath, "config", "", "YAML config file")
	fs.StringVar(&a.BlocklistPath, "blocklist", "", "SQLite blocklist database used as reputation provider")
	fs.BoolVar(&a.Verbose, "v", false, "Verbose (debug) logging")

	var urls multiFlag
	switch cmd {
	case CommandScan:
		fs.Var(&urls, "url", "URL to scan (repeatable; positional arguments work too)")
		fs.DurationVar(&a.Timeout, "timeout", 0, "Per-scan time budget, e.g. 10s")
		fs.IntVar(&a.MaxRedirects, "max-redirects", 0, "Maximum redirect hops to follow")
		fs.StringVar(&a.UserAgent, "user-agent", "", "User-Agent header")
		fs.IntVar(&a.Concurrency, "concurrency", 0, "Parallel scans when several URLs are given")
		fs.BoolVar(&a.Render, "render", false, "Render pages in headless Chrome before content analysis")
		fs.BoolVar(&a.JSON, "json", false, "Print reports as JSON")
	case CommandServe:
		fs.StringVar(&a.ListenAddr, "addr", "", "HTTP listen address, e.g. :8080")
	case CommandBlocklist:
		fs.Float64Var(&a.Score, "score", 0, "Provider score for added hosts (0..4, default 4)")
		fs.StringVar(&a.Threat, "threat", "", "Threat label for added hosts")
	}

	if err := fs.Parse(rest); err != nil {
		return nil, err
	}
	if a.Timeout < 0 {
		return nil, fmt.Errorf("-timeout must not be negative")
	}
	if a.MaxRedirects < 0 || a.Concurrency < 0 {
		return nil, fmt.Errorf("-max-redirects and -concurrency must not be negative")
	}

	switch cmd {
	case CommandScan:
		for _, u := range append([]string(urls), fs.Args()...) {
			if u == "-" {
				a.Stdin = true
				continue
			}
			if u = strings.TrimSpace(u); u != "" {
				a.URLs = append(a.URLs, u)
			}
		}
		if len(a.URLs) == 0 && !a.Stdin {
			a.URLs = append([]string(nil), DefaultTargets...)
		}
	case CommandServe:
		if fs.NArg() > 0 {
			return nil, fmt.Errorf("serve: unexpected arguments %v", fs.Args())
		}
	case CommandBlocklist:
		if err := parseBlocklist(a, fs.Args()); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func parseBlocklist(a *CLIArgs, args []string) error {
	if a.BlocklistPath == "" {
		return errors.New("blocklist: -blocklist path is required")
	}
	if len(args) == 0 {
		return errors.New("blocklist: missing action (add|remove|list|import)")
	}
	a.BlocklistAction, a.BlocklistArgs = args[0], args[1:]
	switch a.BlocklistAction {
	case "list":
		return nil
	case "add", "remove", "import":
		if len(a.BlocklistArgs) == 0 {
			return fmt.Errorf("blocklist %s: missing argument", a.BlocklistAction)
		}
		return nil
	}
	return fmt.Errorf("blocklist: unknown action %q", a.BlocklistAction)
}
