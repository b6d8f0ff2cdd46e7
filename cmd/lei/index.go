package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/lei-resolver/internal/application/handlers"
)

type indexFlags struct {
	lei       string
	isin      string
	all       bool
	batchSize int
}

func newIndexCmd() *cobra.Command {
	var flags indexFlags

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed entities into the vector index",
		Long: "Renders each entity's template, embeds it and upserts it into Qdrant. " +
			"Re-running replaces existing documents.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.lei, "lei", "", "Index a single LEI")
	cmd.Flags().StringVar(&flags.isin, "isin", "", "Index every entity mapped to an ISIN")
	cmd.Flags().BoolVar(&flags.all, "all", false, "Index every stored entity")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", DefaultIndexBatchSize, "Entities per embedding request")
	cmd.MarkFlagsMutuallyExclusive("lei", "isin", "all")
	cmd.MarkFlagsOneRequired("lei", "isin", "all")

	return cmd
}

func runIndex(cmd *cobra.Command, flags indexFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, readStore, func(d *Deps) error {
		result, err := d.IndexHandler.Handle(ctx, handlers.IndexOptions{
			LEI:       flags.lei,
			ISIN:      flags.isin,
			All:       flags.all,
			BatchSize: flags.batchSize,
		})
		if err != nil {
			return err
		}

		if flags.all {
			fmt.Printf("Indexed %d entities in %d batches\n", result.Indexed, result.Batches)
		} else {
			for _, lei := range result.LEIs {
				fmt.Printf("Indexed %s\n", lei)
			}
		}
		fmt.Printf("Collection %s now holds %d documents\n", d.Config.Qdrant.Collection, result.Documents)
		return nil
	})
}
