package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"propvest/internal/clients"
	"propvest/internal/config"
	"propvest/internal/engine"
	"propvest/internal/logging"
	"propvest/internal/metrics"
	"propvest/internal/repository"
	"propvest/internal/service"
	"propvest/internal/transport/auth"
	"propvest/internal/transport/rest"
	"propvest/internal/transport/websocket"
	"propvest/pkg/database/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.Log)
	slog.SetDefault(log)
	if envErr != nil {
		log.Info("no .env file found, using system env or defaults")
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := mustInitPostgres(log, cfg.Postgres)
	redisClient := mustInitRedis(ctx, log, cfg.Redis)

	m := metrics.New()

	storageClient, err := clients.NewLocalStorage(cfg.Storage.Dir, cfg.Storage.PublicPrefix, cfg.Storage.ExternalURL)
	if err != nil {
		fatal(log, "storage init error", err)
	}
	var files service.FileStore = storageClient
	if cfg.S3.Enabled {
		s3Client, err := clients.NewS3Client(ctx, clients.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			UseSSL:          cfg.S3.UseSSL,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			URLTTL:          cfg.S3.URLTTL,
		})
		if err != nil {
			fatal(log, "s3 init error", err)
		}
		files = s3Client
		log.Info("exports stored in s3", "bucket", cfg.S3.Bucket)
	}

	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)
	wsClient := clients.NewWebSocketClient(wsHub)

	portfolioRepo := repository.NewPortfolioRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	calcSvc := service.NewCalculatorService(redisClient, cfg.Engine.CacheTTL, m, log)
	portfolioSvc := service.NewPortfolioService(portfolioRepo, redisClient, cfg.Engine.CacheTTL, m, log)
	exportSvc := service.NewExportService(redisClient, files, wsClient, calcSvc, portfolioSvc, m, log, cfg.Engine.ExportTTL)

	region, err := engine.ParseRegion(cfg.Engine.DefaultRegion)
	if err != nil {
		fatal(log, "invalid ENGINE_DEFAULT_REGION", err)
	}

	handler := rest.NewHandler(calcSvc, portfolioSvc, exportSvc, exportSvc, region, log)
	router := handler.InitRouterWithAuth(auth.TokenMiddleware(tokenRepo, log), func(r chi.Router) {
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			userID, err := auth.GetUserID(r.Context())
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			log.Debug("ws connected", "user_id", userID)
			wsHub.HandleWebSocket(w, r, userID)
		})
	})

	// public routes sit on the root router; the api router keeps its own auth group
	root := chi.NewRouter()
	root.Handle("/metrics", m.Handler())
	root.Get("/files/{file}", func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		path, ok := storageClient.Path(file)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to access file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", clients.DownloadName(file)))
		http.ServeFile(w, r, path)
	})
	root.Mount("/", router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withCORS(root),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	// local exports are short lived; s3 objects expire through bucket lifecycle rules
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := storageClient.CleanupOlderThan(cfg.Storage.MaxAge); err != nil {
					log.Warn("storage cleanup error", "error", err)
				}
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Error("http server error", "error", err)
		}
	case sig := <-stop:
		log.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown error", "error", err)
		}
	}

	// stops the websocket hub and the cleaner
	cancel()

	if err := postgres.Close(db); err != nil {
		log.Error("postgres close error", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Error("redis close error", "error", err)
	}

	log.Info("shutdown complete")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

func mustInitPostgres(log *slog.Logger, cfg config.PostgresConfig) *sql.DB {
	db, err := postgres.NewPostgresConnection(postgres.ConnectionInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Password: cfg.Password,
	})
	if err != nil {
		fatal(log, "postgres init error", err)
	}
	return db
}

func mustInitRedis(ctx context.Context, log *slog.Logger, cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(ctx, clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		PoolSize:    cfg.PoolSize,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		fatal(log, "redis init error", err)
	}
	return client
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
