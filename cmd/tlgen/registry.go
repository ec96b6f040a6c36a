package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IbnNafis007/tlgen/bootstrap"
	"github.com/IbnNafis007/tlgen/core/formatter"
)

var registryCmd = &cobra.Command{
	Use:   "registry [schema files...]",
	Short: "List the constructors a schema compiles to",
	Long: `Compile the schema in memory and list every registered
constructor with its id, kind, name, argument count and result type.

Examples:
  tlgen registry
  tlgen registry --format json
  tlgen registry --kind functions --no-header`,
	RunE: runRegistry,
}

var (
	registryFormat   string
	registryKind     string
	registryNoHeader bool
	registryCompact  bool
)

func init() {
	rootCmd.AddCommand(registryCmd)

	registryCmd.Flags().StringVarP(&registryFormat, "format", "f", "table",
		"output format: "+strings.Join(formatter.List(), ", "))
	registryCmd.Flags().StringVar(&registryKind, "kind", "", "filter by kind: types or functions")
	registryCmd.Flags().BoolVar(&registryNoHeader, "no-header", false, "disable header row (table format)")
	registryCmd.Flags().BoolVar(&registryCompact, "compact", false, "compact output (json/yaml)")
}

func runRegistry(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		cfg.Schema.Files = args
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a, err := bootstrap.NewWithOptions(cfg, bootstrap.Options{Version: version})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Check(context.Background())
	if err != nil {
		if res != nil && len(res.Diagnostics) > 0 {
			printDiagnostics(os.Stderr, res.Diagnostics)
		}
		return err
	}

	rows := formatter.Rows(res.Registry)
	if registryKind != "" {
		want := strings.TrimSuffix(registryKind, "s")
		if want != "type" && want != "function" {
			return fmt.Errorf("unknown kind %q (want types or functions)", registryKind)
		}

		filtered := rows[:0]
		for _, r := range rows {
			if r.Kind == want {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	f, ok := formatter.Get(registryFormat)
	if !ok {
		return fmt.Errorf("unknown format %q (have: %s)", registryFormat, strings.Join(formatter.List(), ", "))
	}

	opts := formatter.FormatOptions{
		NoHeader: registryNoHeader,
		Compact:  registryCompact,
	}
	return f.FormatRows(os.Stdout, rows, opts)
}
