package main

// @title           Similarity Core API
// @version         1.0
// @description     Plagiarism and similarity detection for course submissions. Similarity Core ingests materials, embeds their chunks and scores submissions against the course corpus and registered external references.

// @contact.name   Custodia Labs OSS
// @contact.url    https://github.com/custodia-labs/similarity-core/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/custodia-labs/similarity-core/docs"
	"github.com/custodia-labs/similarity-core/internal/adapters/driven/ai"
	"github.com/custodia-labs/similarity-core/internal/adapters/driven/auth"
	"github.com/custodia-labs/similarity-core/internal/adapters/driven/postgres"
	postgresqueue "github.com/custodia-labs/similarity-core/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/custodia-labs/similarity-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/custodia-labs/similarity-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/similarity-core/internal/adapters/driven/storage"
	"github.com/custodia-labs/similarity-core/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/similarity-core/internal/adapters/driving/http"
	"github.com/custodia-labs/similarity-core/internal/config"
	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
	"github.com/custodia-labs/similarity-core/internal/core/services"
	"github.com/custodia-labs/similarity-core/internal/normalisers"
	"github.com/custodia-labs/similarity-core/internal/postprocessors"
	"github.com/custodia-labs/similarity-core/internal/runtime"
	"github.com/custodia-labs/similarity-core/internal/worker"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line arg overrides RUN_MODE and the config file
	mode := cfg.Server.Mode
	if len(os.Args) > 1 {
		mode = os.Args[1]
		cfg.Server.Mode = mode
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	log.Printf("similarity-core %s starting in %s mode", version, mode)
	if cfg.UsesDefaultSecret() {
		log.Println("Warning: JWT_SECRET is not set, using the development secret")
	}

	// Cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
		ConnectBackoff:  cfg.Database.ConnectBackoff,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize schema (idempotent)
	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Object storage (optional) =====
	var objectStore driven.ObjectStore
	if cfg.Storage.Endpoint != "" {
		store, err := storage.NewMinioStore(cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to configure object storage: %v", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to prepare bucket %s: %v", cfg.Storage.Bucket, err)
		}
		objectStore = store
		log.Printf("Using object storage at %s (bucket %s)", cfg.Storage.Endpoint, cfg.Storage.Bucket)
	} else {
		log.Println("Object storage not configured: only inline text materials are accepted")
	}

	// ===== PostgreSQL Stores =====
	materialStore := postgres.NewMaterialStore(db)
	chunkStore := postgres.NewChunkStore(db)
	reportStore := postgres.NewReportStore(db)

	// ===== Task Queue (Redis if available, otherwise PostgreSQL) =====
	var taskQueue driven.TaskQueue
	if redisClient != nil {
		q, err := redisqueue.NewQueue(ctx, redisClient, consumerName())
		if err != nil {
			log.Fatalf("Failed to create task queue: %v", err)
		}
		taskQueue = q
		log.Println("Using Redis task queue")
	} else {
		taskQueue = postgresqueue.NewQueue(db.DB)
		log.Println("Using PostgreSQL task queue")
	}
	defer taskQueue.Close()

	// ===== Distributed Lock (Redis if available, otherwise PostgreSQL advisory locks) =====
	var distributedLock driven.DistributedLock
	var redisPinger http.Pinger
	if redisClient != nil {
		redisLock := redisadapter.NewLock(redisClient)
		distributedLock = redisLock
		redisPinger = redisLock
		log.Println("Using Redis distributed lock")
	} else {
		distributedLock = postgres.NewAdvisoryLock(db)
		log.Println("Using PostgreSQL advisory lock")
	}

	// ===== Embedding cache (Redis only) =====
	var embeddingCache driven.EmbeddingCache
	if redisClient != nil && cfg.Embedding.CacheTTL > 0 {
		embeddingCache = redisadapter.NewEmbeddingCache(redisClient)
		log.Printf("Using Redis embedding cache (ttl %s)", cfg.Embedding.CacheTTL)
	}

	// ===== Corpus Index =====
	var corpusIndex driven.CorpusIndex
	switch cfg.Index.Backend {
	case config.IndexPGVector:
		corpusIndex = postgres.NewCorpusIndex(db)
		log.Println("Using pgvector corpus index")
	default:
		index := memory.NewIndex()
		n, err := index.Warm(ctx, chunkStore)
		if err != nil {
			log.Fatalf("Failed to warm corpus index: %v", err)
		}
		corpusIndex = index
		log.Printf("Using in-memory corpus index (%d chunks loaded)", n)
	}

	// ===== Runtime services =====
	queueBackend, lockBackend := "postgres", "postgres"
	if redisClient != nil {
		queueBackend, lockBackend = "redis", "redis"
	}
	runtimeConfig := domain.NewRuntimeConfig(queueBackend, lockBackend, cfg.Index.Backend)
	runtimeServices := runtime.NewServices(runtimeConfig)
	defer runtimeServices.Close()

	embedder, err := ai.NewFactory().CreateEmbeddingService(&cfg.Embedding.EmbeddingSettings)
	if err != nil {
		log.Fatalf("Failed to create embedding service: %v", err)
	}
	runtimeServices.SetEmbeddingService(embedder)
	if err := runtimeServices.CheckHealth(ctx); err != nil {
		// The scheduler keeps probing; checks return 503 until it recovers
		log.Printf("Warning: embedding health check failed: %v (checks unavailable)", err)
	}

	// Initialize registries (shared across all modes)
	normaliserRegistry := normalisers.DefaultRegistry()
	postProcessorPipeline, err := postprocessors.DefaultPipeline(cfg.Chunking)
	if err != nil {
		log.Fatalf("Invalid chunking configuration: %v", err)
	}

	// Services (core business logic)
	materialService := services.NewMaterialService(services.MaterialServiceConfig{
		MaterialStore:  materialStore,
		ChunkStore:     chunkStore,
		CorpusIndex:    corpusIndex,
		ObjectStore:    objectStore,
		NormaliserReg:  normaliserRegistry,
		Pipeline:       postProcessorPipeline,
		Lock:           distributedLock,
		Services:       runtimeServices,
		EmbeddingCache: embeddingCache,
		Embed:          cfg.Embedding.Pipeline(),
		Logger:         logger,
	})
	plagiarismService := services.NewPlagiarismService(services.PlagiarismServiceConfig{
		MaterialService: materialService,
		MaterialStore:   materialStore,
		ChunkStore:      chunkStore,
		CorpusIndex:     corpusIndex,
		ReportStore:     reportStore,
		Lock:            distributedLock,
		Services:        runtimeServices,
		Match:           cfg.Matching,
		LockConfig:      cfg.Lock,
		Logger:          logger,
	})
	taskService := services.NewTaskService(taskQueue, logger)

	// Log startup configuration
	space := runtimeConfig.EmbeddingSpace()
	log.Printf("Runtime config: queue=%s, lock=%s, index=%s, embedding=%s/%d available=%t",
		runtimeConfig.QueueBackend,
		runtimeConfig.LockBackend,
		runtimeConfig.IndexBackend,
		space.Model,
		space.Dimension,
		runtimeConfig.EmbeddingAvailable())

	// Create scheduler for worker mode (if enabled)
	var scheduler *services.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = services.NewScheduler(services.SchedulerConfig{
			MaterialStore: materialStore,
			TaskQueue:     taskQueue,
			Lock:          distributedLock,
			Services:      runtimeServices,
			Logger:        logger,
			PollInterval:  cfg.Scheduler.PollInterval,
			PendingGrace:  cfg.Scheduler.PendingGrace,
			BatchSize:     cfg.Scheduler.BatchSize,
		})
		log.Printf("Scheduler enabled (poll_interval=%s)", cfg.Scheduler.PollInterval)
	} else {
		log.Println("Scheduler disabled via SCHEDULER_ENABLED=false")
	}

	verifier := auth.NewAdapter(cfg.Auth.JWTSecret)

	switch mode {
	case config.ModeAPI:
		// API-only mode: HTTP server, no worker
		runAPI(ctx, cfg, materialService, plagiarismService, taskService, verifier, runtimeConfig, db, redisPinger, objectStore, nil)

	case config.ModeWorker:
		// Worker-only mode: task processing and scheduler, no HTTP server
		w := newWorker(cfg, taskQueue, materialService, plagiarismService, scheduler)
		runWorkerMode(ctx, w)

	case config.ModeAll:
		// Combined mode: worker in the background, API in the foreground
		w := newWorker(cfg, taskQueue, materialService, plagiarismService, scheduler)
		workerDone := make(chan struct{})
		go func() {
			defer close(workerDone)
			runWorkerMode(ctx, w)
		}()
		runAPI(ctx, cfg, materialService, plagiarismService, taskService, verifier, runtimeConfig, db, redisPinger, objectStore, w)
		<-workerDone

	default:
		log.Fatalf("Unknown mode: %s (use: api, worker, or all)", mode)
	}

	log.Println("similarity-core stopped")
}

func runAPI(
	ctx context.Context,
	cfg *config.Config,
	materialService driving.MaterialService,
	plagiarismService driving.PlagiarismService,
	taskService driving.TaskService,
	verifier driven.TokenVerifier,
	runtimeConfig *domain.RuntimeConfig,
	db http.Pinger,
	redisPinger http.Pinger,
	objectStore driven.ObjectStore,
	w *worker.Worker,
) {
	server := http.NewServer(
		http.Config{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			Version:        version,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			CheckTimeout:   cfg.Server.CheckTimeout,
		},
		materialService,
		plagiarismService,
		taskService,
		verifier,
		runtimeConfig,
		db,
		redisPinger,
	)
	if objectStore != nil {
		server.AddReadinessCheck("storage", objectStore)
	}
	if w != nil {
		server.AddReadinessCheck("worker", w)
	}

	log.Printf("API server starting on %s", server.Addr())
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("API server stopped")
}

func newWorker(
	cfg *config.Config,
	taskQueue driven.TaskQueue,
	materialService driving.MaterialService,
	plagiarismService driving.PlagiarismService,
	scheduler *services.Scheduler,
) *worker.Worker {
	return worker.NewWorker(worker.WorkerConfig{
		TaskQueue:      taskQueue,
		Materials:      materialService,
		Plagiarism:     plagiarismService,
		Scheduler:      scheduler,
		Logger:         slog.Default(),
		Concurrency:    cfg.Worker.Concurrency,
		DequeueTimeout: cfg.Worker.DequeueTimeout,
	})
}

// runWorkerMode starts the worker and scheduler and blocks until ctx is done.
func runWorkerMode(ctx context.Context, w *worker.Worker) {
	log.Println("Starting worker mode...")

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Worker started, processing tasks...")
	log.Println("Worker handles:")
	log.Println("  - ingest_material: Extract, chunk, embed and index a material")
	log.Println("  - check_submission: Compute and store a submission's report")

	<-ctx.Done()

	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}

// consumerName identifies this process in the Redis consumer group
func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
