// Package app provides application services that orchestrate the compiler core.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/IbnNafis007/tlgen/core/codegen"
	"github.com/IbnNafis007/tlgen/core/descriptor"
	"github.com/IbnNafis007/tlgen/core/events"
	"github.com/IbnNafis007/tlgen/core/registry"
	"github.com/IbnNafis007/tlgen/core/render"
	"github.com/IbnNafis007/tlgen/core/schema"
	"github.com/IbnNafis007/tlgen/ports"
)

// CompileService runs the schema compilation pipeline.
type CompileService struct {
	clock   ports.Clock
	idGen   ports.IDGenerator
	metrics ports.CompileMetrics
	bus     *events.Bus
	logger  zerolog.Logger
}

// CompileDeps contains dependencies for CompileService. Bus may be nil;
// a nil Metrics falls back to the noop recorder.
type CompileDeps struct {
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.CompileMetrics
	Bus     *events.Bus
	Logger  zerolog.Logger
}

// CompileOptions contains the per-run settings.
type CompileOptions struct {
	Files           []string
	OutputDir       string
	Package         string
	WireImport      string
	WriteGo         bool
	WriteDescriptor bool
	DescriptorFile  string
	Workers         int
	Strict          bool // any diagnostic fails the run
}

// Result is the outcome of one compilation run.
type Result struct {
	RunID       string
	Outcome     string // ports.OutcomeSuccess, OutcomePartial or OutcomeFailed
	StartedAt   time.Time
	Duration    time.Duration
	Definitions int // parsed definitions
	Types       int // compiled type constructors
	Functions   int // compiled functions
	Skipped     int // definitions excluded by diagnostics
	Diagnostics schema.Diagnostics
	Registry    *registry.Registry
	Artifacts   []string // paths written by Run
}

// NewCompileService creates a new compile service.
func NewCompileService(deps CompileDeps) *CompileService {
	if deps.Metrics == nil {
		deps.Metrics = ports.NopMetrics{}
	}
	return &CompileService{
		clock:   deps.Clock,
		idGen:   deps.IDGen,
		metrics: deps.Metrics,
		bus:     deps.Bus,
		logger:  deps.Logger,
	}
}

// Compile runs the pipeline without writing artifacts or reporting to the
// bus and metrics: parse, validate, resolve, derive layouts, build the
// registry. Check runs call it directly; Run adds artifact writes and
// reporting around it.
//
// The returned Result is non-nil whenever the pipeline started, so callers
// can read diagnostics even when err is set.
func (s *CompileService) Compile(ctx context.Context, opts CompileOptions) (*Result, error) {
	start := s.clock.Now()
	res := &Result{
		RunID:     s.idGen.New(),
		StartedAt: start,
	}

	s.logger.Debug().
		Str("run_id", res.RunID).
		Int("files", len(opts.Files)).
		Msg("compilation started")

	if len(opts.Files) == 0 {
		return s.finish(res, ports.OutcomeFailed), fmt.Errorf("no schema files to compile")
	}

	// 1. Parse all files into one document (sequential; section state and
	// declaration order are per-file).
	doc, diags, err := schema.ParseFiles(opts.Files)
	if err != nil {
		return s.finish(res, ports.OutcomeFailed), err
	}
	res.Definitions = len(doc.Definitions)

	// 2. Batch validation: duplicate ids, flag rules.
	diags = append(diags, schema.Validate(doc)...)

	// 3. Name resolution pre-pass over the full set.
	gen := codegen.NewGenerator(doc.Definitions)
	diags = append(diags, gen.Check(doc.Definitions)...)
	res.Diagnostics = diags

	if opts.Strict && len(diags) > 0 {
		return s.finish(res, ports.OutcomeFailed), fmt.Errorf("strict mode: %d diagnostic(s)", len(diags))
	}
	if diags.HasConflicts() {
		return s.finish(res, ports.OutcomeFailed), fmt.Errorf("conflicting definitions: %w", diags.Err())
	}

	// 4. Drop definitions that carry their own diagnostics; the rest of
	// the batch still compiles.
	excluded := diags.ExcludedDefinitions()
	var defs []*schema.Definition
	for _, def := range doc.Definitions {
		if excluded[def.FullName()] {
			continue
		}
		defs = append(defs, def)
	}

	// 5. Derive wire layouts in parallel. Name resolution is already
	// complete, so per-definition generation is independent; results are
	// reassembled by index to keep declaration order.
	specs, genDiags := s.generateAll(gen, defs, opts.Workers)
	if len(genDiags) > 0 {
		diags = append(diags, genDiags...)
		res.Diagnostics = diags
		if opts.Strict {
			return s.finish(res, ports.OutcomeFailed), fmt.Errorf("strict mode: %d diagnostic(s)", len(diags))
		}
	}
	res.Skipped = res.Definitions - len(specs)

	for _, spec := range specs {
		if spec.Def.IsFunction {
			res.Functions++
		} else {
			res.Types++
		}
	}

	// 6. Registry build is all-or-nothing.
	reg, err := registry.Build(specs)
	if err != nil {
		return s.finish(res, ports.OutcomeFailed), err
	}
	res.Registry = reg

	outcome := ports.OutcomeSuccess
	if res.Skipped > 0 || len(res.Diagnostics) > 0 {
		outcome = ports.OutcomePartial
	}
	return s.finish(res, outcome), nil
}

// Run compiles, writes the configured artifacts, and reports the run on the
// bus and metrics. Generated files land in opts.OutputDir; each write goes
// through a temp file and rename so readers never observe a half-written
// artifact.
func (s *CompileService) Run(ctx context.Context, opts CompileOptions) (*Result, error) {
	s.publishStarted(ctx, opts)

	res, err := s.Compile(ctx, opts)
	if err != nil {
		return s.reportFailure(ctx, res, err)
	}

	if opts.WriteGo || opts.WriteDescriptor {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return s.reportFailure(ctx, res, fmt.Errorf("create output dir: %w", err))
		}
	}

	if opts.WriteGo {
		files, err := render.Files(res.Registry, render.Options{
			Package:    opts.Package,
			WireImport: opts.WireImport,
		})
		if err != nil {
			return s.reportFailure(ctx, res, err)
		}
		for _, f := range files {
			path := filepath.Join(opts.OutputDir, f.Name)
			if err := atomicWrite(path, f.Content); err != nil {
				return s.reportFailure(ctx, res, fmt.Errorf("write %s: %w", f.Name, err))
			}
			res.Artifacts = append(res.Artifacts, path)
		}
	}

	if opts.WriteDescriptor {
		doc, err := descriptor.Build(res.Registry)
		if err != nil {
			return s.reportFailure(ctx, res, err)
		}
		data, err := doc.JSON()
		if err != nil {
			return s.reportFailure(ctx, res, err)
		}
		path := opts.DescriptorFile
		if path == "" {
			path = "descriptor.json"
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(opts.OutputDir, path)
		}
		if err := atomicWrite(path, data); err != nil {
			return s.reportFailure(ctx, res, fmt.Errorf("write descriptor: %w", err))
		}
		res.Artifacts = append(res.Artifacts, path)
	}

	s.finish(res, res.Outcome)

	s.metrics.RunCompleted(res.Outcome, res.Duration)
	s.metrics.DefinitionsCompiled(res.Types, res.Functions)
	s.metrics.FilesWritten(len(res.Artifacts))
	s.reportDiagnostics(res.Diagnostics)

	s.logger.Info().
		Str("run_id", res.RunID).
		Str("outcome", res.Outcome).
		Int("types", res.Types).
		Int("functions", res.Functions).
		Int("skipped", res.Skipped).
		Int("artifacts", len(res.Artifacts)).
		Dur("duration", res.Duration).
		Msg("compilation finished")

	s.publish(ctx, events.CompileSucceeded, res, map[string]any{
		"outcome":   res.Outcome,
		"types":     res.Types,
		"functions": res.Functions,
		"skipped":   res.Skipped,
		"artifacts": len(res.Artifacts),
	})

	return res, nil
}

// finish stamps outcome and duration on res and returns it.
func (s *CompileService) finish(res *Result, outcome string) *Result {
	res.Outcome = outcome
	res.Duration = s.clock.Now().Sub(res.StartedAt)
	return res
}

// generateAll derives layouts over a bounded worker pool and restores
// declaration order by index. Failures become per-definition diagnostics.
func (s *CompileService) generateAll(gen *codegen.Generator, defs []*schema.Definition, workers int) ([]*codegen.Spec, schema.Diagnostics) {
	if len(defs) == 0 {
		return nil, nil
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(defs) {
		workers = len(defs)
	}

	type slot struct {
		spec *codegen.Spec
		err  error
	}
	slots := make([]slot, len(defs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				spec, err := gen.Generate(defs[i])
				slots[i] = slot{spec: spec, err: err}
			}
		}()
	}
	for i := range defs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var specs []*codegen.Spec
	var diags schema.Diagnostics
	for i, sl := range slots {
		if sl.err != nil {
			def := defs[i]
			diags = append(diags, schema.Diagnostic{
				Kind:       schema.KindSemantic,
				File:       def.File,
				Line:       def.Line,
				Definition: def.FullName(),
				Text:       def.Raw,
				Message:    sl.err.Error(),
			})
			continue
		}
		specs = append(specs, sl.spec)
	}
	return specs, diags
}

// reportFailure records a failed run on metrics, log and bus.
func (s *CompileService) reportFailure(ctx context.Context, res *Result, err error) (*Result, error) {
	res.Outcome = ports.OutcomeFailed
	res.Duration = s.clock.Now().Sub(res.StartedAt)

	s.metrics.RunCompleted(ports.OutcomeFailed, res.Duration)
	s.reportDiagnostics(res.Diagnostics)

	s.logger.Error().
		Str("run_id", res.RunID).
		Err(err).
		Int("diagnostics", len(res.Diagnostics)).
		Msg("compilation failed")

	s.publish(ctx, events.CompileFailed, res, map[string]any{
		"error":       err.Error(),
		"diagnostics": len(res.Diagnostics),
	})

	return res, err
}

func (s *CompileService) reportDiagnostics(diags schema.Diagnostics) {
	counts := make(map[string]int)
	for _, d := range diags {
		counts[d.Kind.String()]++
	}
	for kind, n := range counts {
		s.metrics.DiagnosticsReported(kind, n)
	}
}

func (s *CompileService) publishStarted(ctx context.Context, opts CompileOptions) {
	if s.bus == nil {
		return
	}
	source := ""
	if len(opts.Files) > 0 {
		source = opts.Files[0]
	}
	s.bus.Publish(ctx, events.Event{
		Name:   events.CompileStarted,
		Source: source,
		Data:   map[string]any{"files": len(opts.Files)},
	})
}

func (s *CompileService) publish(ctx context.Context, name string, res *Result, data map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.Event{
		Name:  name,
		RunID: res.RunID,
		Data:  data,
	})
}

// atomicWrite writes data to path through a temp file in the same
// directory, then renames it into place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tlgen-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
