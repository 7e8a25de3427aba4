package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/lectern-ai/lectern/config"
	"github.com/lectern-ai/lectern/internal/chunker"
	"github.com/lectern-ai/lectern/internal/docstore"
	"github.com/lectern-ai/lectern/internal/rag"
	"github.com/lectern-ai/lectern/internal/vectorstore"
	"github.com/lectern-ai/lectern/internal/vectorstore/memory"
	"github.com/lectern-ai/lectern/internal/vectorstore/qdrant"
	"github.com/lectern-ai/lectern/provider"
	anthropic_provider "github.com/lectern-ai/lectern/provider/anthropic"
	openai_provider "github.com/lectern-ai/lectern/provider/openai"
	"github.com/lectern-ai/lectern/session"
	"github.com/lectern-ai/lectern/tools"
)

// Run wires the service together and serves HTTP until the process exits.
func Run(cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	httpLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = newHTTPErrorHandler(httpLogger)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	docs, llm, err := buildCore(cfg)
	if err != nil {
		return err
	}

	sessions, err := session.NewStore(session.Backend(cfg.Sessions.Backend), session.Options{
		MaxExchanges:  cfg.Sessions.MaxExchanges,
		TTL:           cfg.Sessions.TTL,
		RedisAddr:     cfg.Sessions.Redis.Addr(),
		RedisPassword: cfg.Sessions.Redis.Password,
		RedisDB:       cfg.Sessions.Redis.DB,
	})
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewCourseSearchTool(docs)); err != nil {
		return err
	}
	if err := registry.Register(tools.NewCourseOutlineTool(docs)); err != nil {
		return err
	}

	ragLogger := log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	orch := rag.NewOrchestrator(llm, registry, sessions, ragLogger)

	qh := &QueryHandler{RAG: orch, Docs: docs}
	qh.Register(e.Group("/api"))

	log.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}

// newHTTPErrorHandler produces the unified error handler: every failure
// goes out as {"detail": ...}, the body shape the frontend expects.
func newHTTPErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"detail": msg})
		}
	}
}

// buildCore constructs the document store (with startup corpus ingestion)
// and the completion provider.
func buildCore(cfg *appconfig.Config) (*docstore.Store, provider.Provider, error) {
	if cfg.Providers.Anthropic.APIKey == "" {
		return nil, nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	if cfg.Providers.OpenAI.APIKey == "" {
		return nil, nil, errors.New("OPENAI_API_KEY not configured")
	}

	llm := anthropic_provider.NewClient(
		cfg.Providers.Anthropic.APIKey,
		cfg.Providers.Anthropic.Model,
		cfg.Providers.Anthropic.BaseURL,
		cfg.Providers.Anthropic.MaxTokens,
		cfg.Providers.Anthropic.Temperature,
		cfg.Providers.Anthropic.Timeout,
	)
	embedder := openai_provider.NewEmbedder(
		cfg.Providers.OpenAI.APIKey,
		cfg.Providers.OpenAI.EmbeddingModel,
		cfg.Providers.OpenAI.BaseURL,
		cfg.Providers.OpenAI.Timeout,
	)

	vectors, err := buildVectorStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	docsLogger := log.New(log.Writer(), "[DOCS] ", log.LstdFlags)
	docs, err := docstore.New(
		vectors,
		embedder,
		chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap),
		cfg.Search.MaxResults,
		docsLogger,
	)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Ingest.DocsDir != "" {
		courses, chunks, err := docs.AddCoursesFromDir(context.Background(), cfg.Ingest.DocsDir)
		if err != nil {
			docsLogger.Printf("corpus load from %s: %v", cfg.Ingest.DocsDir, err)
		} else {
			docsLogger.Printf("corpus loaded: %d courses, %d chunks", courses, chunks)
		}
	}
	return docs, llm, nil
}

func buildVectorStore(cfg *appconfig.Config) (vectorstore.Store, error) {
	switch cfg.VectorStore.Backend {
	case "memory", "":
		return memory.NewStore(), nil
	case "qdrant":
		return qdrant.NewStore(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    cfg.VectorStore.Qdrant.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported vector store backend: %s", cfg.VectorStore.Backend)
	}
}
