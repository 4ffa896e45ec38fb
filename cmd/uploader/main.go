package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bot-file-system/conf"
	"bot-file-system/controller"
	"bot-file-system/database"
	"bot-file-system/logging"
	"bot-file-system/node"
	"bot-file-system/service/download_service"
	"bot-file-system/service/quota_service"
	"bot-file-system/service/transfer_service"
	"bot-file-system/service/upload_service"

	"github.com/redis/go-redis/v9"
)

var ENV string

func init() {
	flag.StringVar(&ENV, "env", "example", "Environment: loc/prod/test/example")
}

// @title           Bot File System Uploader API
// @version         1.0
// @description     Chunked, resumable file storage on top of size-limited blob backends

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:7282
// @BasePath  /api/v1

// @schemes http https

func main() {
	// Initialize all components
	cleanupProcessor, srv, cleanup := initAll()
	defer cleanup()

	// Start expired session sweeper (in goroutine)
	if cleanupProcessor != nil {
		cleanupProcessor.Start()
	}

	// Start HTTP API service (in goroutine)
	go startServer(srv)
	log.Println("Uploader API service started successfully")

	// Wait for shutdown signal
	waitForShutdown()

	log.Println("Shutting down uploader service...")

	if cleanupProcessor != nil {
		cleanupProcessor.Stop()
	}

	// Gracefully shutdown HTTP service
	shutdownServer(srv)

	log.Println("Server exited")
}

// initEnv initialize environment
func initEnv() {
	env, err := conf.ParseEnvironment(ENV)
	if err != nil {
		log.Fatalf("Invalid -env flag: %v", err)
	}
	conf.SystemEnvironmentEnum = env
	fmt.Printf("Environment: %s\n", ENV)
}

// initAll initialize all components
func initAll() (*upload_service.CleanupProcessor, *http.Server, func()) {
	// Parse command line parameters
	flag.Parse()

	// Set environment
	initEnv()

	// Initialize configuration
	if err := conf.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	cfg := conf.Cfg
	log.Printf("Configuration loaded: env=%s, port=%s, nodes=%d", ENV, cfg.Port, len(cfg.Nodes))

	logger := logging.New(os.Stdout, cfg.Log.Level)

	// Initialize database
	db, err := initDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (optional, won't fail if disabled or unavailable)
	redisClient, err := database.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		log.Printf("Redis initialization failed (cache will be disabled): %v", err)
		redisClient = nil
	}
	var redisCmd redis.Cmdable
	var fileCache download_service.FileCache
	if redisClient != nil {
		redisCmd = redisClient
		fileCache = database.NewRedisFileCache(redisClient, time.Duration(cfg.Redis.CacheTTL)*time.Second)
	}

	quota, err := quota_service.NewQuota(cfg.Quota, redisCmd)
	if err != nil {
		log.Fatalf("Failed to initialize quota: %v", err)
	}

	// Initialize backend nodes
	registry, err := node.NewRegistry(cfg.Nodes, nil)
	if err != nil {
		log.Fatalf("Failed to initialize nodes: %v", err)
	}
	if registry.Len() == 0 {
		log.Printf("No backend node has a credential, uploads will fail until one is configured")
	}
	log.Printf("Backend nodes initialized: %d", registry.Len())

	transfer := transfer_service.NewTransfer(node.NewSelector(registry),
		transfer_service.RetryPolicyFromConfig(cfg.Transfer), logger.With("component", "transfer"))
	chunker := transfer_service.NewChunker(transfer, cfg.Transfer, logger.With("component", "chunker"))

	uploadService := upload_service.NewUploadService(db, transfer, chunker, quota, cfg.Upload, logger.With("component", "upload"))
	downloadService := download_service.NewDownloadService(db, chunker, fileCache, logger.With("component", "download"))

	var cleanupProcessor *upload_service.CleanupProcessor
	if cfg.Upload.CleanupEnabled {
		cleanupProcessor = upload_service.NewCleanupProcessor(uploadService, cfg.Upload)
	}

	// Setup uploader service router
	router := controller.SetupUploaderRouter(cfg, controller.Services{
		Upload:   uploadService,
		Download: downloadService,
		Registry: registry,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Return cleanup function
	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Printf("Failed to close Redis: %v", err)
			}
		}
	}

	return cleanupProcessor, srv, cleanup
}

// initDatabase initialize database based on configuration
func initDatabase(cfg conf.DatabaseConfig) (database.Database, error) {
	switch database.DBType(cfg.Type) {
	case database.DBTypeMySQL:
		return database.NewDatabase(database.DBTypeMySQL, &database.MySQLConfig{
			DSN:          cfg.Dsn,
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
		})

	case database.DBTypePebble:
		return database.NewDatabase(database.DBTypePebble, &database.PebbleConfig{
			DataDir: cfg.DataDir,
		})

	default:
		return nil, fmt.Errorf("%w: %s", database.ErrUnsupportedDBType, cfg.Type)
	}
}

// startServer start HTTP server
func startServer(srv *http.Server) {
	log.Printf("Uploader API service starting on %s...", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// waitForShutdown wait for shutdown signal
func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}

// shutdownServer gracefully shutdown server
func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}
