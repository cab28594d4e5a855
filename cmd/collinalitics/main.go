package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/collinsayidan/Collinalitics/internal/ai"
	"github.com/collinsayidan/Collinalitics/internal/chunker"
	"github.com/collinsayidan/Collinalitics/internal/config"
	"github.com/collinsayidan/Collinalitics/internal/db"
	"github.com/collinsayidan/Collinalitics/internal/docsource"
	"github.com/collinsayidan/Collinalitics/internal/embedcache"
	"github.com/collinsayidan/Collinalitics/internal/handler"
	"github.com/collinsayidan/Collinalitics/internal/job"
	"github.com/collinsayidan/Collinalitics/internal/middleware"
	"github.com/collinsayidan/Collinalitics/internal/repo"
	"github.com/collinsayidan/Collinalitics/internal/schedule"
	"github.com/collinsayidan/Collinalitics/internal/service"
)

type app struct {
	cfg       *config.Config
	db        *sql.DB
	corpus    *service.CorpusService
	answers   *service.AnswerService
	cacheRepo *repo.EmbeddingCacheRepo
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "collinalitics",
		Short: "knowledge base answering service",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the api server",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup(configPath)
			if err != nil {
				return err
			}
			defer application.db.Close()
			return runServer(application)
		},
	}

	rebuildCmd := &cobra.Command{
		Use:   "rebuild",
		Short: "rebuild corpus embeddings",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup(configPath)
			if err != nil {
				return err
			}
			defer application.db.Close()
			count, err := application.corpus.RebuildEmbeddings(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("rebuilt %d embeddings\n", count)
			return nil
		},
	}

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "import documents from the configured source and rebuild",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup(configPath)
			if err != nil {
				return err
			}
			defer application.db.Close()
			source, err := docsource.New(application.cfg.Ingest)
			if err != nil {
				return err
			}
			raws, err := source.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			written, err := application.corpus.IngestDocuments(cmd.Context(), raws)
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d documents\n", written)
			return nil
		},
	}

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "answer one question from the command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup(configPath)
			if err != nil {
				return err
			}
			defer application.db.Close()
			result, err := application.answers.Answer(cmd.Context(), args[0], 0)
			if err != nil {
				return err
			}
			fmt.Println(result.Answer)
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, rebuildCmd, ingestCmd, askCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*app, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
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

	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	genProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	embedProvider := genProvider
	if cfg.AI.EmbedProvider != cfg.AI.Provider {
		embedProvider, err = ai.NewProvider(cfg.AI.EmbedProvider, cfg.AI.EmbedData)
		if err != nil {
			return nil, fmt.Errorf("init embed provider: %w", err)
		}
	}

	cacheRepo := repo.NewEmbeddingCacheRepo(database)
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.CacheSize, time.Duration(cfg.AI.CacheTTLHours)*time.Hour)
	generator := ai.NewGenerator(genProvider, cfg.AI.GenerateModel)

	docRepo := repo.NewDocumentRepo(database)
	embeddingRepo := repo.NewEmbeddingRepo(database)
	interactionRepo := repo.NewInteractionRepo(database)

	splitter := chunker.NewMarkdownChunker(cfg.Retrieval.ChunkMaxChars)
	corpus := service.NewCorpusService(docRepo, embeddingRepo, embedder, splitter)
	retriever := service.NewRetriever(embedder, embeddingRepo, docRepo, service.RetrieverConfig{
		TopK:          cfg.Retrieval.TopK,
		MinScore:      cfg.Retrieval.MinScore,
		MaxQueryChars: cfg.AI.MaxInputChars,
	})
	answers := service.NewAnswerService(retriever, generator, interactionRepo, service.AnswerConfig{
		MaxContextChars: cfg.Retrieval.MaxContextChars,
		Timeout:         time.Duration(cfg.AI.Timeout) * time.Second,
	})

	return &app{
		cfg:       cfg,
		db:        database,
		corpus:    corpus,
		answers:   answers,
		cacheRepo: cacheRepo,
	}, nil
}

func runServer(application *app) error {
	cfg := application.cfg
	logutil.GetLogger(context.Background()).Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("provider", cfg.AI.Provider),
		zap.String("embed_model", cfg.AI.EmbedModel),
	)

	deps := handler.RouterDeps{
		Ask:       handler.NewAskHandler(application.answers),
		Documents: handler.NewDocumentHandler(application.corpus),
	}
	if cfg.AskRateLimitSeconds > 0 {
		deps.AskLimiter = middleware.RateLimit(time.Duration(cfg.AskRateLimitSeconds) * time.Second)
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if spec := cfg.Schedule.CacheCleanupSpec; spec != "" {
		if err := scheduler.AddJob(job.NewCacheCleanupJob(application.cacheRepo, cfg.Schedule.CacheKeepDays), spec); err != nil {
			return err
		}
	}
	if spec := cfg.Schedule.AutoRebuildSpec; spec != "" {
		if err := scheduler.AddJob(job.NewRebuildJob(application.corpus), spec); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
