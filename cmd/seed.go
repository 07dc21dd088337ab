package main

import (
	"context"
	"fmt"

	"github.com/oubia/medtriage/config"
	"github.com/oubia/medtriage/internal/rag"
	srv "github.com/oubia/medtriage/internal/server"
	"github.com/oubia/medtriage/internal/store"
	"github.com/oubia/medtriage/provider"
	"github.com/spf13/cobra"
)

// seedCMD ingests the bundled medical reference articles so a fresh
// deployment has something to retrieve against. Requires postgres so
// the chunks survive restarts.
func seedCMD() *cobra.Command {
	var cfgPath string
	var seed = &cobra.Command{
		Use:   "seed",
		Short: "Load the sample medical knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			ctx := context.Background()

			llm, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return err
			}
			dsn, err := cfg.Storage.Postgres.DSN()
			if err != nil {
				return fmt.Errorf("postgres not configured: %w", err)
			}
			if err := srv.Migrate("file://migrations", dsn, "up", 0); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			st, err := store.NewWithDSN(ctx, dsn)
			if err != nil {
				return fmt.Errorf("connecting postgres: %w", err)
			}

			index, err := rag.NewIndex()
			if err != nil {
				return err
			}
			splitter := rag.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
			retriever := rag.NewService(llm, index, rag.DefaultGraph(), splitter, st, nil, cfg.Retrieval.TopK)

			articles := rag.SeedArticles()
			total := 0
			for i, article := range articles {
				n, err := retriever.IngestText(ctx, article.Document(), rag.ArticleSource(article.Title))
				if err != nil {
					return fmt.Errorf("ingesting %q: %w", article.Title, err)
				}
				total += n
				fmt.Printf("[%d/%d] %s: %d chunks\n", i+1, len(articles), article.Title, n)
			}
			fmt.Printf("ingested %d topics, %d chunks total\n", len(articles), total)
			return nil
		},
	}
	seed.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return seed
}
