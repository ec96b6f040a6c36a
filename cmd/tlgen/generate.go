package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IbnNafis007/tlgen/bootstrap"
	"github.com/IbnNafis007/tlgen/ports"
)

var generateCmd = &cobra.Command{
	Use:   "generate [schema files...]",
	Short: "Compile TL schema files into Go source",
	Long: `Compile TL schema files into Go source and a JSON descriptor.

Schema files come from the config file, from TLGEN_SCHEMA_FILES, or
from positional arguments (which take precedence).

Definitions with diagnostics are skipped and the rest are compiled;
--strict turns any diagnostic into a failed run. Duplicate constructor
ids always fail the whole run.

Examples:
  tlgen generate
  tlgen generate api.tl service.tl --out ./tl --package tl
  tlgen generate --format go --format descriptor --strict`,
	RunE: runGenerate,
}

var (
	genSchemas []string
	genOut     string
	genPackage string
	genFormats []string
	genStrict  bool
	genWorkers int
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringSliceVar(&genSchemas, "schema", nil, "schema file (repeatable)")
	generateCmd.Flags().StringVar(&genOut, "out", "", "output directory")
	generateCmd.Flags().StringVar(&genPackage, "package", "", "generated package name")
	generateCmd.Flags().StringSliceVar(&genFormats, "format", nil, "output formats: go, descriptor")
	generateCmd.Flags().BoolVar(&genStrict, "strict", false, "fail on any diagnostic")
	generateCmd.Flags().IntVar(&genWorkers, "workers", 0, "parallel generation workers (default: CPU count)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("schema") {
		cfg.Schema.Files = genSchemas
	}
	if len(args) > 0 {
		cfg.Schema.Files = args
	}
	if cmd.Flags().Changed("out") {
		cfg.Output.Dir = genOut
	}
	if cmd.Flags().Changed("package") {
		cfg.Output.Package = genPackage
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Formats = genFormats
	}
	if cmd.Flags().Changed("strict") {
		cfg.Generate.Strict = genStrict
	}
	if cmd.Flags().Changed("workers") {
		cfg.Generate.Workers = genWorkers
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a, err := bootstrap.NewWithOptions(cfg, bootstrap.Options{Version: version})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.RunOnce(context.Background())
	if err != nil {
		if res != nil && len(res.Diagnostics) > 0 {
			printDiagnostics(os.Stderr, res.Diagnostics)
		}
		return err
	}

	if len(res.Diagnostics) > 0 {
		printDiagnostics(os.Stderr, res.Diagnostics)
	}

	mark := checkMark
	if res.Outcome == ports.OutcomePartial {
		mark = warnMark
	}
	fmt.Printf("%s Compiled %d definitions (%d types, %d functions)\n",
		mark, res.Types+res.Functions, res.Types, res.Functions)
	if res.Skipped > 0 {
		fmt.Printf("  %d skipped due to diagnostics\n", res.Skipped)
	}
	fmt.Printf("  Wrote %d files to %s\n", len(res.Artifacts), cfg.Output.Dir)

	return nil
}
