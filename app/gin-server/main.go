package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/config"
	"github.com/Phoenix-070/Edutranscribe/internal/api/handlers"
	"github.com/Phoenix-070/Edutranscribe/internal/api/middleware"
	"github.com/Phoenix-070/Edutranscribe/internal/api/routes"
	"github.com/Phoenix-070/Edutranscribe/internal/cache"
	"github.com/Phoenix-070/Edutranscribe/internal/logger"
	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/embed"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/llm"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/media"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/stt"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/translate"
	"github.com/Phoenix-070/Edutranscribe/internal/providers/tts"
	mongorepo "github.com/Phoenix-070/Edutranscribe/internal/repositories/mongo"
	pgrepo "github.com/Phoenix-070/Edutranscribe/internal/repositories/postgres"
	"github.com/Phoenix-070/Edutranscribe/internal/services"
	"github.com/Phoenix-070/Edutranscribe/internal/storage"
	"github.com/Phoenix-070/Edutranscribe/internal/workers"
	"github.com/Phoenix-070/Edutranscribe/pkg/executor"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	cfg, err := config.LoadServer()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("MongoDB index error")
	}
	log.Info("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init error")
	}
	if err := config.MigratePostgres(&models.ChatLog{}, &models.DocumentChunk{}); err != nil {
		log.WithError(err).Fatal("PostgreSQL migration error")
	}
	log.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	log.Info("Redis connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Providers
	var closers []io.Closer
	must := func(c io.Closer, err error, what string) {
		if err != nil {
			log.WithError(err).Fatalf("%s init error", what)
		}
		closers = append(closers, c)
	}

	store, err := storage.NewGCSStore(ctx, cfg.GCSBucket)
	must(store, err, "GCS")
	speech, err := stt.NewGoogleSpeech(ctx)
	must(speech, err, "Speech")
	gemini, err := llm.NewVertexGemini(ctx, cfg.GCPProject, cfg.GCPLocation, cfg.GeminiModel)
	must(gemini, err, "Gemini")
	voice, err := tts.NewGoogleTTS(ctx)
	must(voice, err, "TTS")
	google, err := translate.NewGoogle(ctx)
	must(google, err, "Translate")
	embedder, err := embed.NewGenAI(ctx, cfg.GeminiAPIKey, cfg.GCPProject, cfg.GCPLocation, cfg.EmbeddingModel, cfg.EmbeddingDim)
	if err != nil {
		log.WithError(err).Fatal("embedding client init error")
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	var nllb translate.Provider
	if cfg.NLLBEndpoint != "" {
		nllb = translate.NewNLLB(cfg.NLLBEndpoint, cfg.NLLBToken)
	}

	// Repositories
	docs := mongorepo.NewDocumentRepo(config.MongoDatabase())
	chunks := pgrepo.NewChunkRepo(config.PostgresDB)
	chatLogs := pgrepo.NewChatLogRepo(config.PostgresDB)
	rcache := cache.NewRedisCache(config.RedisClient)

	// Services
	tools := media.NewTools(executor.New(), cfg.YTDLPPath, cfg.FFmpegPath)
	summarySvc := services.NewSummaryService(gemini, log)
	transcriptSvc := services.NewTranscriptionService(tools, speech, store, cfg.SpeechLanguage, cfg.TempDir, log)
	translateSvc := services.NewTranslationService(google, nllb)
	speechSvc := services.NewSpeechService(voice, rcache)
	queue := workers.NewStreamQueue(config.RedisClient, cfg.IndexStream)
	paperSvc := services.NewPaperService(docs, store, queue, rcache, summarySvc, services.PaperConfig{
		MaxBytes:        cfg.MaxUploadBytes,
		SummaryCacheTTL: cfg.SummaryCacheTTL,
	}, log)
	chatSvc := services.NewChatService(paperSvc, chunks, chatLogs, embedder, gemini, log)

	// Workers
	pool := &workers.IndexWorkerPool{
		Redis: config.RedisClient,
		Indexer: &workers.Indexer{
			Docs:   docs,
			Store:  store,
			Chunks: chunks,
			Embed:  embedder,
		},
		NumWorkers: cfg.IndexWorkers,
		Logger:     log,
		Stream:     cfg.IndexStream,
		Group:      cfg.IndexGroup,
	}
	if err := pool.Start(ctx); err != nil {
		log.WithError(err).Fatal("index workers failed to start")
	}

	// HTTP
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	routes.RegisterRoutes(r, routes.Deps{
		Pipeline:    handlers.NewPipelineHandler(transcriptSvc, summarySvc, translateSvc, speechSvc),
		Papers:      handlers.NewPaperHandler(paperSvc),
		Chat:        handlers.NewChatHandler(chatSvc),
		WS:          handlers.NewWSHandler(paperSvc, handlers.NewRedisStatusFeed(config.RedisClient), originChecker(cfg.CORSOrigins)),
		Auth:        middleware.AuthConfig{Secret: cfg.JWTSecret, Disabled: cfg.AuthDisabled},
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})
	if cfg.AuthDisabled {
		log.Warn("authentication disabled; all requests run as the local user")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
	closeStores(shutdownCtx, log)
}

// originChecker admits websocket upgrades from the configured CORS origins.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := map[string]struct{}{}
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func closeStores(ctx context.Context, log logrus.FieldLogger) {
	if config.MongoClient != nil {
		if err := config.MongoClient.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("mongo disconnect failed")
		}
	}
	if config.RedisClient != nil {
		_ = config.RedisClient.Close()
	}
	if config.PostgresDB != nil {
		if db, err := config.PostgresDB.DB(); err == nil {
			_ = db.Close()
		}
	}
}
