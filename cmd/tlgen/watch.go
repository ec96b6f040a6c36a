package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IbnNafis007/tlgen/bootstrap"
	"github.com/IbnNafis007/tlgen/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompile whenever a schema file changes",
	Long: `Run the compiler as a daemon: compile once, then watch the
schema files and recompile after each change, debounced so editor
save storms compile once.

When the config file exists it is watched too; edits and SIGHUP
reload it. With --listen (or watch.listen), a status server exposes:
  /healthz          liveness
  /v1/status        last run summary including diagnostics
  /v1/registry      compiled constructor listing
  /metrics          prometheus metrics (when metrics.enabled)

Examples:
  tlgen watch
  tlgen watch --listen 127.0.0.1:9180
  tlgen watch --debounce 1s`,
	RunE: runWatch,
}

var (
	watchListen   string
	watchDebounce time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchListen, "listen", "", "status server address (e.g. 127.0.0.1:9180)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "delay between a change and the recompile")
}

func runWatch(cmd *cobra.Command, args []string) error {
	var (
		a   *bootstrap.App
		err error
	)

	opts := bootstrap.Options{Version: version}

	if _, statErr := os.Stat(cfgFile); statErr == nil {
		// Config file present: keep a holder so edits reload it.
		a, err = bootstrap.NewFromFileWithOptions(cfgFile, opts)
	} else {
		var cfg *config.Config
		cfg, err = config.LoadFromEnv()
		if err == nil {
			a, err = bootstrap.NewWithOptions(cfg, opts)
		}
	}
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer a.Close()

	cfg := a.Config
	if cmd.Flags().Changed("listen") {
		cfg.Watch.Listen = watchListen
	}
	if cmd.Flags().Changed("debounce") {
		cfg.Watch.Debounce = watchDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	return a.Watch(ctx)
}
