package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/lei-resolver/internal/application/handlers"
	"github.com/ersonp/lei-resolver/internal/infrastructure/config"
	"github.com/ersonp/lei-resolver/internal/infrastructure/vectordb/qdrant"
)

func newInitCmd() *cobra.Command {
	var recreate bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the LEI resolver stores",
		Long: "Creates a .lei directory with default configuration (if missing), the SQLite schema " +
			"and the Qdrant collection sized for the configured embedder.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, recreate)
		},
	}

	cmd.Flags().BoolVar(&recreate, "recreate", false, "Drop existing data and recreate both stores")

	return cmd
}

func runInit(cmd *cobra.Command, recreate bool) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if !config.Exists(cwd) {
		if err := config.WriteDefault(cwd); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
		fmt.Printf("Created %s\n", config.ConfigFilePath(cwd))
	}

	return withStore(ctx, writeStore, func(s *storeDeps) error {
		repo, err := qdrant.NewRepository(s.Config.Qdrant)
		if err != nil {
			return fmt.Errorf("connecting to qdrant: %w", err)
		}
		defer repo.Close()

		handler := handlers.NewInitHandler(s.relationalDB, repo, s.Config.Embedder.Dimension)
		result, err := handler.Handle(ctx, handlers.InitOptions{Recreate: recreate})
		if err != nil {
			return err
		}

		if result.Recreated {
			fmt.Println("Dropped existing data")
		}
		fmt.Printf("SQLite database: %s (%d entities)\n", s.Config.SQLite.Path, result.Entities)
		fmt.Printf("Qdrant collection: %s (vector size %d)\n", s.Config.Qdrant.Collection, result.VectorSize)
		fmt.Println("LEI resolver initialized successfully!")
		return nil
	})
}
