package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oubia/medtriage/config"
	"github.com/oubia/medtriage/internal/rag"
	"github.com/oubia/medtriage/internal/store"
	"github.com/oubia/medtriage/internal/telemetry"
	"github.com/oubia/medtriage/internal/triage"
	"github.com/oubia/medtriage/internal/vision"
	"github.com/oubia/medtriage/provider"
)

const serviceVersion = "1.0.0"

// Deps carries everything the HTTP layer needs. Handlers receive their
// dependencies explicitly; nothing is package-global.
type Deps struct {
	Workflow  *triage.Workflow
	Retriever *rag.Service
	Images    *vision.Store
	Sessions  *SessionStore
	Registry  *prometheus.Registry
}

// Run loads configuration, wires the full service and serves HTTP
// until the listener fails.
func Run(cfgPath string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	logger := log.New(log.Writer(), "[SERVER] ", log.LstdFlags)
	ctx := context.Background()

	tele, err := telemetry.Setup(ctx, cfg.Telemetry, "medtriage", serviceVersion)
	if err != nil {
		return err
	}

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	var chunkStore rag.ChunkStore
	if dsn, err := cfg.Storage.Postgres.DSN(); err == nil {
		if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		st, err := store.NewWithDSN(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connecting postgres: %w", err)
		}
		chunkStore = st
	} else {
		logger.Printf("postgres not configured, chunks will not survive restarts: %v", err)
	}

	imageStore, err := vision.NewStore(cfg.Images.StorageDir)
	if err != nil {
		return err
	}
	analyzer := vision.NewAnalyzer(llm, imageStore, cfg.Prompts)

	index, err := rag.NewIndex()
	if err != nil {
		return err
	}
	graph := rag.DefaultGraph()
	if cfg.Retrieval.GraphFile != "" {
		graph, err = rag.LoadGraph(cfg.Retrieval.GraphFile)
		if err != nil {
			return fmt.Errorf("loading graph file: %w", err)
		}
	}
	logger.Printf("knowledge graph ready with %d entities", graph.Size())

	retriever := rag.NewService(llm, index, graph, rag.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap), chunkStore, analyzer, cfg.Retrieval.TopK)
	if chunkStore != nil {
		n, err := retriever.Rehydrate(ctx)
		if err != nil {
			return fmt.Errorf("rehydrating index: %w", err)
		}
		logger.Printf("rehydrated %d chunks into the vector index", n)
	}

	workflow := triage.NewWorkflow(llm, retriever, analyzer, cfg.Prompts)

	var sessions *SessionStore
	if cfg.Storage.Redis.Host != "" {
		client, err := Conn(ctx, cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
		if err != nil {
			return fmt.Errorf("connecting redis: %w", err)
		}
		sessions = NewSessionStore(client, cfg.Storage.Redis.SessionTTL)
		logger.Printf("session history backed by redis at %s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port)
	}

	e := NewRouter(Deps{
		Workflow:  workflow,
		Retriever: retriever,
		Images:    imageStore,
		Sessions:  sessions,
		Registry:  tele.Registry,
	})
	return e.Start(cfg.Server.Address)
}

// NewRouter assembles the echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "Medical Triage System",
			"version": serviceVersion,
			"agents":  []string{"router", "rag", "triage", "self_care", "clarification", "doctor_referral"},
		})
	})
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/health", func(c echo.Context) error {
		ragStatus := "ok"
		if _, err := deps.Retriever.KeywordSearch("test", 1); err != nil {
			ragStatus = fmt.Sprintf("error: %v", err)
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":        "healthy",
			"rag_service":   ragStatus,
			"agent_service": "ok",
		})
	})
	if deps.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	} else {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	(&ChatHandler{Workflow: deps.Workflow, Sessions: deps.Sessions}).Register(api)
	(&KnowledgeHandler{Retriever: deps.Retriever}).Register(api)
	(&ImagesHandler{Store: deps.Images}).Register(api.Group("/images"))

	return e
}
