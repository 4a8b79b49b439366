package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/merchantiq/docengine/internal/ai"
	"github.com/merchantiq/docengine/internal/chain"
	"github.com/merchantiq/docengine/internal/classify"
	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/extract"
	"github.com/merchantiq/docengine/internal/filestore"
	"github.com/merchantiq/docengine/internal/handler"
	"github.com/merchantiq/docengine/internal/ingest"
	"github.com/merchantiq/docengine/internal/job"
	"github.com/merchantiq/docengine/internal/middleware"
	"github.com/merchantiq/docengine/internal/repo"
	"github.com/merchantiq/docengine/internal/schedule"
	"github.com/merchantiq/docengine/internal/search"
	"github.com/merchantiq/docengine/internal/service"
	"github.com/merchantiq/docengine/internal/vector"
	"github.com/merchantiq/docengine/internal/websearch"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docengine",
		Short: "document intelligence and retrieval engine",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the api server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, db)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "reindex unprocessed documents and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			env, err := buildEnv(cfg, db)
			if err != nil {
				return err
			}
			outcome, err := env.reindexer.ReindexBatch(cmd.Context(), cfg.Jobs.ReindexLimit, "default")
			if err != nil {
				return err
			}
			logutil.GetLogger(cmd.Context()).Info("reindex finished",
				zap.Int("processed", outcome.Processed),
				zap.Int("succeeded", outcome.Succeeded),
				zap.Int("failed", outcome.Failed))
			return nil
		},
	}
	reindexCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	rootCmd.AddCommand(runCmd, reindexCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func bootstrap(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	db, err := repo.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := repo.ApplyMigrations(db); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, db, nil
}

// env holds the wired engine components shared by the server and the
// one-shot reindex command.
type env struct {
	docRepo    *repo.DocumentRepo
	chunkRepo  *repo.ChunkRepo
	nsRepo     *repo.NamespaceRepo
	store      filestore.Store
	index      vector.Index
	reindexer  *ingest.Reindexer
	searcher   *search.Manager
	router     *classify.Router
	aiManager  *ai.Manager
	webClient  *websearch.Client
	documents  *service.DocumentService
	extraction *extract.Service
}

func buildEnv(cfg *config.Config, db *sql.DB) (*env, error) {
	docRepo := repo.NewDocumentRepo(db)
	chunkRepo := repo.NewChunkRepo(db)
	nsRepo := repo.NewNamespaceRepo(db)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return nil, fmt.Errorf("init file store: %w", err)
	}

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	manager := ai.NewManager(
		ai.NewCompleter(provider, cfg.AI.Model),
		ai.NewEmbedder(provider, cfg.AI.EmbedModel),
		ai.ManagerConfig{Timeout: cfg.AI.Timeout},
	)

	index := vector.New(db, manager, cfg.Vector)
	ocrClient := extract.NewOCRClient(cfg.OCR)
	extraction := extract.NewService(ocrClient, cfg.OCR, cfg.Ingest.MinTextLength)
	reindexer := ingest.NewReindexer(docRepo, chunkRepo, store, extraction, index, cfg.Ingest)
	searcher := search.NewManager(docRepo, index, cfg.Search)
	router := classify.NewRouter(nsRepo)
	webClient := websearch.New(cfg.WebSearch)
	documents := service.NewDocumentService(docRepo, chunkRepo, store, index)

	return &env{
		docRepo:    docRepo,
		chunkRepo:  chunkRepo,
		nsRepo:     nsRepo,
		store:      store,
		index:      index,
		reindexer:  reindexer,
		searcher:   searcher,
		router:     router,
		aiManager:  manager,
		webClient:  webClient,
		documents:  documents,
		extraction: extraction,
	}, nil
}

func runServer(cfg *config.Config, db *sql.DB) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_host", cfg.Database.Host),
		zap.String("file_store", cfg.FileStore.Type),
		zap.Bool("vector_index", cfg.Vector.Enabled),
	)

	env, err := buildEnv(cfg, db)
	if err != nil {
		return err
	}
	if err := env.router.EnsureDefaults(ctx, "default"); err != nil {
		return fmt.Errorf("seed namespaces: %w", err)
	}

	var web chain.IWebSearcher
	if env.webClient != nil {
		web = env.webClient
	}
	orchestrator := chain.NewOrchestrator(env.aiManager, env.searcher, env.router, web)

	deps := handler.RouterDeps{
		Documents:  handler.NewDocumentHandler(env.documents),
		Ingest:     handler.NewIngestHandler(env.reindexer, cfg.Jobs.ReindexLimit),
		Retrieval:  handler.NewRetrievalHandler(env.searcher, env.router, orchestrator),
		Namespaces: handler.NewNamespaceHandler(env.nsRepo),
		Health:     handler.NewHealthHandler(env.searcher, env.chunkRepo),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllow),
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewReindexJob(env.reindexer, cfg.Jobs.ReindexLimit), cfg.Jobs.ReindexSpec); err != nil {
		return fmt.Errorf("schedule reindex: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
