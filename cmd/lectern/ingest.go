package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lectern-ai/lectern/config"
	"github.com/lectern-ai/lectern/internal/chunker"
	"github.com/lectern-ai/lectern/internal/docstore"
	"github.com/lectern-ai/lectern/internal/vectorstore/memory"
	"github.com/lectern-ai/lectern/internal/vectorstore/qdrant"
	openai_provider "github.com/lectern-ai/lectern/provider/openai"
)

// ingestCMD loads a corpus directory into the configured vector store and
// prints a per-course summary. With the memory backend this is a dry run
// useful for validating transcripts before serving.
func ingestCMD() *cobra.Command {
	var cfgPath string
	var docsDir string
	ingest := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Ingest course transcripts into the vector store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			if len(args) > 0 {
				docsDir = args[0]
			}
			if docsDir == "" {
				docsDir = cfg.Ingest.DocsDir
			}
			return runIngest(cfg, docsDir)
		},
	}
	ingest.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")
	return ingest
}

func runIngest(cfg *config.Config, docsDir string) error {
	if cfg.Providers.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY not configured")
	}
	embedder := openai_provider.NewEmbedder(
		cfg.Providers.OpenAI.APIKey,
		cfg.Providers.OpenAI.EmbeddingModel,
		cfg.Providers.OpenAI.BaseURL,
		cfg.Providers.OpenAI.Timeout,
	)

	var docs *docstore.Store
	var err error
	logger := log.New(os.Stderr, "[INGEST] ", log.LstdFlags)
	ch := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	switch cfg.VectorStore.Backend {
	case "qdrant":
		store := qdrant.NewStore(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    cfg.VectorStore.Qdrant.Timeout,
		})
		docs, err = docstore.New(store, embedder, ch, cfg.Search.MaxResults, logger)
	default:
		docs, err = docstore.New(memory.NewStore(), embedder, ch, cfg.Search.MaxResults, logger)
		color.Yellow("vector store backend is %q: this ingest will not persist", cfg.VectorStore.Backend)
	}
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(docsDir)
	if err != nil {
		return fmt.Errorf("read docs dir: %w", err)
	}

	ctx := context.Background()
	total := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		path := filepath.Join(docsDir, e.Name())
		course, added, err := docs.AddCourse(ctx, path)
		switch {
		case err != nil:
			color.Red("  %s: %v", e.Name(), err)
		case added == 0:
			color.Yellow("  %s: %q already ingested, skipped", e.Name(), course.Title)
		default:
			color.Green("  %s: %q (%d lessons, %d chunks)", e.Name(), course.Title, len(course.Lessons), added)
			total += added
		}
	}
	fmt.Printf("done: %d courses, %d chunks\n", docs.CourseCount(), total)
	return nil
}
