package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ersonp/lei-resolver/internal/domain/services"
)

type resolveFlags struct {
	topK   int
	format string
}

func newResolveCmd() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve <isin-or-name>",
		Short: "Resolve an ISIN or company name to LEIs",
		Long: "Looks the query up in the relational store, then ranks semantically similar " +
			"entities from the vector index. Input shaped like an ISIN is treated as one.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args[0], flags)
		},
	}

	cmd.Flags().IntVarP(&flags.topK, "top-k", "k", services.DefaultTopK, "Maximum number of candidates")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "text", "Output format (text, json)")
	cmd.Flags().Bool("json", false, "Shorthand for --format json")

	return cmd
}

func runResolve(cmd *cobra.Command, query string, flags resolveFlags) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		flags.format = "json"
	}
	if !slices.Contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	ctx := cmd.Context()

	return withDeps(ctx, readStore, func(d *Deps) error {
		result, err := d.ResolveHandler.Handle(ctx, query, flags.topK)
		if err != nil {
			return err
		}

		if flags.format == "json" {
			return writeResolveJSON(os.Stdout, result)
		}
		return writeResolveText(os.Stdout, result)
	})
}
