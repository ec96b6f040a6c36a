package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apihttp "github.com/IbnNafis007/tlgen/adapters/http"
	"github.com/IbnNafis007/tlgen/config"
	"github.com/IbnNafis007/tlgen/core/events"
)

// Watch runs the compiler as a daemon: one initial compile, then a
// debounced recompile whenever a schema file changes. Blocks until ctx
// is cancelled.
func (a *App) Watch(ctx context.Context) error {
	cfg := a.currentConfig()
	if len(cfg.Schema.Files) == 0 {
		return fmt.Errorf("no schema files configured to watch")
	}

	// Initial compile. Failures do not stop the daemon; the watcher
	// stays up so the next edit can fix the schema.
	if _, err := a.RunOnce(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("initial compile failed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	targets := watchTargets(cfg.Schema.Files)
	for _, dir := range targets.dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	// Config edits recompile with the new settings.
	configChanged := make(chan struct{}, 1)
	if a.Holder != nil {
		a.Holder.OnChange(func(updated *config.Config) {
			select {
			case configChanged <- struct{}{}:
			default:
			}
		})
		if err := a.Holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config watch unavailable")
		}
		a.Holder.WatchSignals()
		defer a.Holder.Stop()
	}

	// The listen address and the initial debounce come from the
	// construction-time config: the CLI merges its flags there, and
	// watch.listen is not reloadable.
	if a.Config.Watch.Listen != "" {
		if err := a.startStatusServer(a.Config.Watch.Listen); err != nil {
			return err
		}
		defer a.stopStatusServer()
	}

	debounce := a.Config.Watch.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	a.Logger.Info().
		Int("files", len(cfg.Schema.Files)).
		Dur("debounce", debounce).
		Msg("watching schema files")

	var (
		pending    <-chan time.Time
		lastChange string
	)

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info().Msg("watch stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets.matches(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			a.Logger.Debug().
				Str("file", ev.Name).
				Str("op", ev.Op.String()).
				Msg("schema change detected")
			lastChange = ev.Name
			// Later events push the deadline out.
			pending = time.After(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.Logger.Warn().Err(err).Msg("watcher error")

		case <-configChanged:
			cfg = a.currentConfig()
			if cfg.Watch.Debounce > 0 {
				debounce = cfg.Watch.Debounce
			}
			next := watchTargets(cfg.Schema.Files)
			for _, dir := range next.dirs {
				if !targets.hasDir(dir) {
					if err := watcher.Add(dir); err != nil {
						a.Logger.Warn().Err(err).Str("dir", dir).Msg("cannot watch new schema dir")
					}
				}
			}
			// Stale directories stay watched; events are filtered by path.
			targets = next
			a.recompile(ctx, "config reload")

		case <-pending:
			pending = nil
			a.recompile(ctx, lastChange)
		}
	}
}

// recompile is the debounced change handler.
func (a *App) recompile(ctx context.Context, source string) {
	a.publishWatchTriggered(ctx, source)

	res, err := a.RunOnce(ctx)
	a.compileMetrics.ReloadRecorded(err)
	if err != nil {
		a.Logger.Error().Err(err).Str("source", source).Msg("recompile failed")
		return
	}

	a.Logger.Info().
		Str("run_id", res.RunID).
		Str("outcome", res.Outcome).
		Str("source", source).
		Msg("recompiled")
}

func (a *App) publishWatchTriggered(ctx context.Context, source string) {
	if a.Bus == nil {
		return
	}
	a.Bus.Publish(ctx, events.Event{
		Name:   events.WatchTriggered,
		Source: source,
		Data:   map[string]any{"file": source},
	})
}

// startStatusServer serves /healthz, /v1/status and /v1/registry, plus
// /metrics when metrics are enabled, while the daemon runs.
func (a *App) startStatusServer(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	routerCfg := apihttp.RouterConfig{Version: a.version}
	if a.registry != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		})
	}

	status := apihttp.NewStatusHandler(a.Tracker, a.Logger)
	router := apihttp.NewRouter(status, a.Logger, routerCfg)

	a.HTTPServer = &http.Server{
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	a.statusMu.Lock()
	a.statusAddr = ln.Addr().String()
	a.statusMu.Unlock()

	go func() {
		a.Logger.Info().Str("addr", ln.Addr().String()).Msg("status server listening")
		if err := a.HTTPServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.Logger.Error().Err(err).Msg("status server error")
		}
	}()
	return nil
}

func (a *App) stopStatusServer() {
	if a.HTTPServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("status server shutdown error")
	}
	a.HTTPServer = nil

	a.statusMu.Lock()
	a.statusAddr = ""
	a.statusMu.Unlock()
}

// StatusAddr returns the bound address of the status server, or ""
// when it is not running.
func (a *App) StatusAddr() string {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.statusAddr
}

// watchSet tracks the schema files to react to and the directories that
// hold them. Directories are watched because editors replace files on
// save and a direct file watch breaks on rename.
type watchSet struct {
	files map[string]bool
	dirs  []string
}

func watchTargets(files []string) watchSet {
	ws := watchSet{files: make(map[string]bool)}
	seen := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = filepath.Clean(f)
		}
		ws.files[abs] = true

		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			ws.dirs = append(ws.dirs, dir)
		}
	}
	return ws
}

func (ws watchSet) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = filepath.Clean(name)
	}
	return ws.files[abs]
}

func (ws watchSet) hasDir(dir string) bool {
	for _, d := range ws.dirs {
		if d == dir {
			return true
		}
	}
	return false
}
