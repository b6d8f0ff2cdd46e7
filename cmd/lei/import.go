package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ersonp/lei-resolver/internal/application/handlers"
)

type importFlags struct {
	format     string
	dryRun     bool
	activeOnly bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <entities|isins> <file>",
		Short: "Import entities or ISIN mappings",
		Long: "Imports GLEIF golden-copy CSV or JSON entity arrays (entities), or ISIN-to-LEI " +
			"mapping CSV files (isins), into the relational store. Run 'lei index' afterwards.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "Entity file format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().BoolVar(&flags.activeOnly, "active-only", false, "Keep only ACTIVE entities with an ISSUED registration")

	return cmd
}

func runImport(cmd *cobra.Command, kind, filePath string, flags importFlags) error {
	if !slices.Contains([]string{handlers.ImportEntities, handlers.ImportISINs}, kind) {
		return fmt.Errorf("invalid import kind %q (valid: %s, %s)", kind, handlers.ImportEntities, handlers.ImportISINs)
	}

	ctx := cmd.Context()

	return withStore(ctx, writeStore, func(d *storeDeps) error {
		opts := handlers.ImportOptions{
			Kind:       kind,
			Format:     flags.format,
			DryRun:     flags.dryRun,
			ActiveOnly: flags.activeOnly,
		}

		fmt.Printf("Importing %s from %s...\n", kind, filePath)

		result, err := d.ImportHandler.Handle(ctx, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e.Error())
			}
		}

		fmt.Println()
		if flags.dryRun {
			fmt.Printf("Dry run: %d %s would be imported", result.Imported, kind)
		} else {
			fmt.Printf("Imported: %d %s", result.Imported, kind)
		}
		if result.Skipped > 0 {
			fmt.Printf(", %d skipped (not active)", result.Skipped)
		}
		if len(result.Errors) > 0 {
			fmt.Printf(", %d errors", len(result.Errors))
		}
		fmt.Println()

		return nil
	})
}
