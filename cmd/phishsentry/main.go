// Command phishsentry scans URLs for phishing indicators and scores their
// reputation. It can also serve the same functionality over HTTP.
//
// Usage:
//
//	phishsentry [scan] [flags] [url ...]      scan URLs ("-" reads stdin)
//	phishsentry serve [-addr :8080]           run the HTTP API
//	phishsentry blocklist -blocklist FILE add|remove|list|import ...
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/phishsentry/phishsentry/internal/app"
	"github.com/phishsentry/phishsentry/internal/batch"
	"github.com/phishsentry/phishsentry/internal/cli"
	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/output"
	"github.com/phishsentry/phishsentry/internal/reputation"
	"github.com/phishsentry/phishsentry/internal/server"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	args, err := cli.ParseArgsOutput(argv, stderr)
	if errors.Is(err, cli.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}

	cfg, err := app.LoadConfig(args.ConfigPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	cfg.ApplyArgs(args)

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	// Reports own stdout in scan mode; keep routine logs out of the way.
	if args.Command == cli.CommandScan && !args.Verbose && level < logging.LevelWarn {
		level = logging.LevelWarn
	}
	logger := logging.NewStdoutLogger("phishsentry").SetLevel(level).SetOutput(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args.Command {
	case cli.CommandServe:
		return serve(ctx, cfg, logger, stderr)
	case cli.CommandBlocklist:
		return manageBlocklist(ctx, args, logger, stdout, stderr)
	default:
		return scan(ctx, cfg, args, logger, stdin, stdout, stderr)
	}
}

func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func scan(ctx context.Context, cfg *app.Config, args *cli.CLIArgs, logger logging.Logger, stdin io.Reader, stdout, stderr io.Writer) int {
	urls := args.URLs
	if args.Stdin {
		more, err := readURLs(stdin)
		if err != nil {
			fmt.Fprintln(stderr, "error: reading stdin:", err)
			return 2
		}
		urls = append(urls, more...)
	}
	if len(urls) == 0 {
		fmt.Fprintln(stderr, "error: no urls to scan")
		return 2
	}

	application, err := app.NewApplication(cfg, args, logger)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer func() { _ = application.Shutdown(context.Background()) }()

	colorize := !color.NoColor && stdout == io.Writer(os.Stdout)
	printer := output.NewPrinter(stdout, colorize)
	if !args.JSON {
		output.PrintBanner(stdout, colorize)
	}

	items := application.Orch.ScanURLs(ctx, urls, nil)

	failed := 0
	if args.JSON {
		w := output.NewJSONLWriter(stdout)
		for _, it := range items {
			if it.Err != nil {
				failed++
			}
			if err := w.Write(jsonItem(it)); err != nil {
				fmt.Fprintln(stderr, "error:", err)
				return 1
			}
		}
		_ = w.Close()
	} else {
		for _, it := range items {
			printer.Separator("SCANNING URL: " + it.URL)
			if it.Err != nil {
				failed++
				printer.PrintError(it.URL, it.Err)
				continue
			}
			printer.PrintReport(it.Report)
		}
		printer.PrintSummary(len(items)-failed, len(items))
	}

	if failed > 0 {
		return 1
	}
	return 0
}

// jsonItem flattens a batch item: the report itself on success, or the URL
// and error otherwise.
func jsonItem(it batch.Item) any {
	if it.Report != nil {
		return it.Report
	}
	return map[string]string{"url": it.URL, "error": it.Error}
}

func serve(ctx context.Context, cfg *app.Config, logger logging.Logger, stderr io.Writer) int {
	srv, err := server.NewServer(server.Config{
		ListenAddr: cfg.ListenAddr,
		AppConfig:  cfg,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer func() { _ = srv.Close() }()

	httpServer := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: httpServer.Addr})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(stderr, "error: shutdown:", err)
			return 1
		}
	}
	return 0
}

func manageBlocklist(ctx context.Context, args *cli.CLIArgs, logger logging.Logger, stdout, stderr io.Writer) int {
	bl, err := reputation.OpenBlocklist(args.BlocklistPath, logger)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer bl.Close()

	var threats []string
	if args.Threat != "" {
		threats = []string{args.Threat}
	}

	switch args.BlocklistAction {
	case "add":
		for _, host := range args.BlocklistArgs {
			e := reputation.Entry{Host: host, Score: args.Score, Threats: threats, Source: "cli"}
			if err := bl.Add(ctx, e); err != nil {
				fmt.Fprintln(stderr, "error:", err)
				return 1
			}
		}
		fmt.Fprintf(stdout, "added %d host(s)\n", len(args.BlocklistArgs))
	case "remove":
		for _, host := range args.BlocklistArgs {
			if err := bl.Remove(ctx, host); err != nil {
				fmt.Fprintf(stderr, "error: %s: %v\n", host, err)
				return 1
			}
		}
		fmt.Fprintf(stdout, "removed %d host(s)\n", len(args.BlocklistArgs))
	case "import":
		total := 0
		for _, path := range args.BlocklistArgs {
			f, err := os.Open(path)
			if err != nil {
				fmt.Fprintln(stderr, "error:", err)
				return 1
			}
			n, err := bl.Import(ctx, f, path)
			_ = f.Close()
			if err != nil {
				fmt.Fprintln(stderr, "error:", err)
				return 1
			}
			total += n
		}
		fmt.Fprintf(stdout, "imported %d host(s)\n", total)
	case "list":
		entries, err := bl.List(ctx)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		for _, e := range entries {
			fmt.Fprintf(stdout, "%-40s %.1f  %s  %s\n", e.Host, e.Score, e.AddedAt.Format(time.DateOnly), strings.Join(e.Threats, "; "))
		}
	}
	return 0
}
