package app

import (
	"context"
	"errors"
	"time"

	"github.com/phishsentry/phishsentry/internal/cli"
	"github.com/phishsentry/phishsentry/internal/logging"
)

// Application is the global runtime state container.
// It holds config, parsed CLI args and the core services that are shared
// across commands (orchestrator, logger).
type Application struct {
	Config *Config
	Args   *cli.CLIArgs
	Logger logging.Logger
	Orch   *Orchestrator
}

// ApplyArgs layers command-line overrides on top of the loaded config.
func (c *Config) ApplyArgs(args *cli.CLIArgs) {
	if args == nil {
		return
	}
	if args.BlocklistPath != "" {
		c.BlocklistPath = args.BlocklistPath
	}
	if args.Timeout > 0 {
		c.Scanner.Timeout = args.Timeout
	}
	if args.MaxRedirects > 0 {
		c.Scanner.MaxRedirects = args.MaxRedirects
	}
	if args.UserAgent != "" {
		c.Scanner.UserAgent = args.UserAgent
	}
	if args.Concurrency > 0 {
		c.Batch.MaxConcurrency = args.Concurrency
	}
	if args.Render {
		c.Scanner.Render = true
	}
	if args.ListenAddr != "" {
		c.ListenAddr = args.ListenAddr
	}
	if args.Verbose {
		c.LogLevel = "debug"
	}
}

// NewApplication builds the orchestrator for cfg. Extra options are passed to
// NewComponents.
func NewApplication(cfg *Config, args *cli.CLIArgs, logger logging.Logger, opts ...ComponentOption) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	comps, err := NewComponents(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	orch, err := NewOrchestrator(cfg, comps, logger)
	if err != nil {
		_ = comps.Close()
		return nil, err
	}
	return &Application{
		Config: cfg,
		Args:   args,
		Logger: logger,
		Orch:   orch,
	}, nil
}

// Shutdown attempts a graceful shutdown, delegating to the orchestrator.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if a.Orch != nil {
		if err := a.Orch.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("orchestrator shutdown returned error", logging.Field{Key: "error", Value: err.Error()})
			return err
		}
	}
	return nil
}
