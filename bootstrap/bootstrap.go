// Package bootstrap wires all dependencies and starts the compiler.
// Configuration comes from a YAML file with TLGEN_* environment
// overrides; the CLI merges its flags into the config before handing
// it over.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/IbnNafis007/tlgen/adapters/clock"
	"github.com/IbnNafis007/tlgen/adapters/idgen"
	"github.com/IbnNafis007/tlgen/adapters/metrics"
	"github.com/IbnNafis007/tlgen/app"
	"github.com/IbnNafis007/tlgen/config"
	"github.com/IbnNafis007/tlgen/core/events"
	"github.com/IbnNafis007/tlgen/ports"
)

// App represents the initialized application.
type App struct {
	Logger   zerolog.Logger
	Config   *config.Config
	Holder   *config.Holder // non-nil only when built from a config file
	Metrics  *metrics.Collector
	Bus      *events.Bus
	Compiler *app.CompileService
	Tracker  *app.Tracker

	// HTTPServer is non-nil while the watch status server runs.
	HTTPServer *http.Server

	// registry backs the /metrics endpoint when metrics are enabled.
	registry *prometheus.Registry

	compileMetrics ports.CompileMetrics
	clk            ports.Clock
	version        string

	statusMu   sync.RWMutex
	statusAddr string
}

// Options provides optional overrides for application construction.
type Options struct {
	// Version is reported by the status server and the startup log.
	Version string

	// Clock overrides the wall clock (tests).
	Clock ports.Clock

	// IDGen overrides run id generation (tests).
	IDGen ports.IDGenerator
}

// New creates and initializes the application from a loaded config.
func New(cfg *config.Config) (*App, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates and initializes the application with custom options.
func NewWithOptions(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	logger := setupLogger(cfg.Logging)

	a := &App{
		Logger:  logger,
		Config:  cfg,
		version: opts.Version,
	}
	if a.version == "" {
		a.version = "dev"
	}

	a.clk = opts.Clock
	if a.clk == nil {
		a.clk = clock.Real{}
	}
	idGen := opts.IDGen
	if idGen == nil {
		idGen = idgen.UUID{}
	}

	// Metrics are opt-in. The collector gets its own registry so the
	// /metrics endpoint serves only tlgen series plus runtime collectors.
	a.compileMetrics = ports.NopMetrics{}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(prometheus.NewGoCollector())
		a.registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
		a.Metrics = metrics.NewWithRegistry(a.registry)
		a.compileMetrics = a.Metrics
		logger.Info().Msg("prometheus metrics enabled")
	}

	a.Bus = events.NewBus(logger)
	a.Tracker = app.NewTracker()
	a.Compiler = app.NewCompileService(app.CompileDeps{
		Clock:   a.clk,
		IDGen:   idGen,
		Metrics: a.compileMetrics,
		Bus:     a.Bus,
		Logger:  logger,
	})

	logger.Debug().
		Str("version", a.version).
		Int("schema_files", len(cfg.Schema.Files)).
		Msg("tlgen initialized")

	return a, nil
}

// NewFromFile loads configuration from path and creates the application.
// The returned app keeps a config holder so Watch can pick up config
// edits and SIGHUP reloads.
func NewFromFile(path string) (*App, error) {
	return NewFromFileWithOptions(path, Options{})
}

// NewFromFileWithOptions is NewFromFile with construction overrides.
func NewFromFileWithOptions(path string, opts Options) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a, err := NewWithOptions(cfg, opts)
	if err != nil {
		return nil, err
	}

	holder, err := config.NewHolder(path, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("config holder: %w", err)
	}
	a.Holder = holder

	return a, nil
}

// currentConfig returns the live config, preferring the holder when the
// app was built from a file.
func (a *App) currentConfig() *config.Config {
	if a.Holder != nil {
		return a.Holder.Get()
	}
	return a.Config
}

func (a *App) compileOptions() app.CompileOptions {
	cfg := a.currentConfig()
	return app.CompileOptions{
		Files:           cfg.Schema.Files,
		OutputDir:       cfg.Output.Dir,
		Package:         cfg.Output.Package,
		WireImport:      cfg.Output.WireImport,
		WriteGo:         cfg.WantsFormat(config.FormatGo),
		WriteDescriptor: cfg.WantsFormat(config.FormatDescriptor),
		DescriptorFile:  cfg.Output.DescriptorFile,
		Workers:         cfg.Generate.Workers,
		Strict:          cfg.Generate.Strict,
	}
}

// RunOnce performs a single compile run, writes artifacts, and records
// the result in the tracker.
func (a *App) RunOnce(ctx context.Context) (*app.Result, error) {
	res, err := a.Compiler.Run(ctx, a.compileOptions())
	if res != nil {
		a.Tracker.Record(res)
	}
	return res, err
}

// Check runs the pipeline without writing artifacts or reporting:
// parse, validate, resolve, derive, build the registry.
func (a *App) Check(ctx context.Context) (*app.Result, error) {
	return a.Compiler.Compile(ctx, a.compileOptions())
}

// Close releases resources held by the app. Safe to call more than once.
func (a *App) Close() {
	if a.Holder != nil {
		a.Holder.Stop()
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Logs go to stderr so generated output and command results own stdout.
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}
