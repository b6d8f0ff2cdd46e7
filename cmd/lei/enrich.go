package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/lei-resolver/internal/application/handlers"
)

type enrichFlags struct {
	all       bool
	batchSize int
	noReindex bool
}

func newEnrichCmd() *cobra.Command {
	var flags enrichFlags

	cmd := &cobra.Command{
		Use:   "enrich [lei-or-isin]",
		Short: "Fill missing industry codes from Wikidata",
		Long: "Looks up entities without an industry code on Wikidata by LEI and stores the first " +
			"industry label. Each LEI is looked up once. Enriched entities are re-indexed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			return runEnrich(cmd, target, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.all, "all", false, "Enrich every stored entity missing an industry code")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", DefaultEnrichBatchSize, "LEIs per Wikidata query")
	cmd.Flags().BoolVar(&flags.noReindex, "no-reindex", false, "Do not re-embed enriched entities")

	return cmd
}

func runEnrich(cmd *cobra.Command, target string, flags enrichFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, writeStore, func(d *Deps) error {
		result, err := d.EnrichHandler.Handle(ctx, target, handlers.EnrichOptions{
			All:       flags.all,
			BatchSize: flags.batchSize,
			Reindex:   !flags.noReindex,
		})
		if err != nil {
			return err
		}

		for _, e := range result.Entities {
			industry := e.IndustryCode
			if industry == "" {
				industry = "(unknown)"
			}
			fmt.Printf("%s  %s  industry: %s\n", e.LEI, e.LegalName, industry)
		}
		fmt.Printf("Checked %d, enriched %d, re-indexed %d\n", result.Checked, len(result.Enriched), result.Reindexed)
		return nil
	})
}
