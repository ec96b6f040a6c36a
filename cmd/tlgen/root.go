package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/IbnNafis007/tlgen/config"
	"github.com/IbnNafis007/tlgen/core/schema"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tlgen",
	Short: "TL schema compiler: typed codecs and a constructor registry from .tl files",
	Long: `tlgen compiles TL (Type Language) schema files into Go source with
typed binary codecs, plus a JSON descriptor of the derived wire layout.

Quick start:
  tlgen check api.tl     # Parse and validate a schema
  tlgen generate api.tl  # Compile into Go source

Daemon:
  tlgen watch            # Recompile whenever the schema changes

Inspection:
  tlgen registry         # List compiled constructors
  tlgen version          # Show version information`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console, json")
}

// loadMergedConfig loads the config file (with env fallback) and applies
// the global logging flags over it.
func loadMergedConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func printDiagnostics(w io.Writer, diags schema.Diagnostics) {
	for _, d := range diags {
		fmt.Fprintf(w, "  %s %s\n", crossMark, d.Error())
	}
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
	warnMark  = "\033[33m!\033[0m"
)
