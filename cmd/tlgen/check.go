package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IbnNafis007/tlgen/bootstrap"
)

var checkCmd = &cobra.Command{
	Use:   "check [schema files...]",
	Short: "Parse and validate schema files without generating code",
	Long: `Parse schema files, validate them, and resolve every type
reference, without writing anything.

Prints one line per diagnostic in file:line form. Exit status is 1
when any diagnostic is reported.

Examples:
  tlgen check
  tlgen check api.tl service.tl`,
	RunE: runCheck,
}

var checkSchemas []string

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringSliceVar(&checkSchemas, "schema", nil, "schema file (repeatable)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("schema") {
		cfg.Schema.Files = checkSchemas
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
			printDiagnostics(os.Stdout, res.Diagnostics)
		}
		return err
	}

	if len(res.Diagnostics) > 0 {
		printDiagnostics(os.Stdout, res.Diagnostics)
		return fmt.Errorf("%d diagnostic(s) in %d definitions", len(res.Diagnostics), res.Definitions)
	}

	fmt.Printf("%s %d definitions OK (%d types, %d functions)\n",
		checkMark, res.Definitions, res.Types, res.Functions)
	return nil
}
