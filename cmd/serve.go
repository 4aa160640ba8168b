package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/shenikar/incident_response_system/docs"
	"github.com/shenikar/incident_response_system/internal/config"
	"github.com/shenikar/incident_response_system/internal/dispatch"
	"github.com/shenikar/incident_response_system/internal/dispatch/twilio"
	"github.com/shenikar/incident_response_system/internal/gateway/gemini"
	v1 "github.com/shenikar/incident_response_system/internal/handler/http/v1"
	"github.com/shenikar/incident_response_system/internal/handler/ws"
	"github.com/shenikar/incident_response_system/internal/metrics"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/nearby"
	"github.com/shenikar/incident_response_system/internal/notify"
	"github.com/shenikar/incident_response_system/internal/pipeline"
	"github.com/shenikar/incident_response_system/internal/repository"
	"github.com/shenikar/incident_response_system/internal/service"
	"github.com/shenikar/incident_response_system/internal/settings"
	"github.com/shenikar/incident_response_system/internal/storage"
	"github.com/shenikar/incident_response_system/internal/webhook"
	"github.com/shenikar/incident_response_system/pkg/logger"
	"github.com/shenikar/incident_response_system/pkg/postgres"
	redisclient "github.com/shenikar/incident_response_system/pkg/redis"
)

const (
	shutdownTimeout        = 10 * time.Second
	sessionCleanupInterval = 10 * time.Minute
)

func serveCommand() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return serve(cmd.Context(), cfg, skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on start")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, skipMigrations bool) error {
	// Инициализация логгера
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Запуск миграций
	if !skipMigrations {
		log.Info("Running database migrations...")
		if err := postgres.Migrate(cfg.DatabaseURL, cfg.MigrationsSource, postgres.Up); err != nil {
			return err
		}
		log.Info("Database migrations applied successfully")
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Внешние сервисы
	gw := gemini.New(gemini.Config{
		BaseURL:  cfg.GeminiBaseURL,
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		TTSModel: cfg.GeminiTTSModel,
		Voice:    cfg.GeminiVoice,
		Timeout:  cfg.GatewayTimeout,
	}, log)

	host, err := buildMediaHost(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.WithField("provider", host.Provider()).Info("Media host ready")

	caller := twilio.NewClient(cfg.TwilioBaseURL, cfg.GatewayTimeout, log)
	dispatcher := dispatch.NewDispatcher(gw, host, caller, log)

	notifier, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}

	// Конвейер инцидентов
	p := pipeline.NewPipeline(
		gw,
		dispatcher,
		buildLocator(cfg, dbpool, log),
		settings.NewRedisStore(redisClient, cfg.SessionTTL),
		notifier,
		pipeline.Config{
			ProgressInterval: cfg.ProgressInterval,
			GatewayTimeout:   cfg.GatewayTimeout,
			SessionTTL:       cfg.SessionTTL,
			CleanupInterval:  sessionCleanupInterval,
			Defaults: &models.DispatchCredentials{
				AccountSID: cfg.TwilioAccountSID,
				AuthToken:  cfg.TwilioAuthToken,
				From:       cfg.TwilioFrom,
				To:         cfg.TwilioTo,
			},
		},
		log,
	)
	defer p.Close()

	// Лента сообщества
	feedRepo := repository.NewFeedRepository(dbpool, redisClient)
	feedService := service.NewFeedService(feedRepo, log)

	// Настройка Gin роутера
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware())

	api := router.Group("/api/v1")
	v1.NewHandler(p, feedService, log, cfg).RegisterRoutes(api)
	ws.NewEventsHandler(p, log).RegisterRoutes(api)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if local, ok := host.(*storage.LocalHost); ok {
		router.Static("/media", local.Root())
	}

	// Запуск HTTP-сервера
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	select {
	case err := <-errCh:
		return fmt.Errorf("error starting HTTP server: %w", err)
	case <-ctx.Done():
	}
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server gracefully stopped")
	return nil
}

func buildMediaHost(ctx context.Context, cfg *config.Config, log *logrus.Logger) (storage.MediaHost, error) {
	switch cfg.MediaProvider {
	case storage.ProviderS3:
		return storage.NewS3Host(storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			AccountID:       cfg.S3AccountID,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
			URLExpiry:       cfg.MediaURLExpiry,
			PathStyle:       cfg.S3PathStyle,
		}, log)
	case storage.ProviderMinio:
		return storage.NewMinioHost(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			URLExpiry: cfg.MediaURLExpiry,
		}, log)
	default:
		return storage.NewLocalHost(cfg.MediaLocalPath, cfg.MediaBaseURL, log)
	}
}

func buildLocator(cfg *config.Config, db *pgxpool.Pool, log *logrus.Logger) nearby.Locator {
	if cfg.NearbySource != nearby.SourcePostgres {
		return nearby.OffsetLocator{}
	}
	return nearby.NewFallbackLocator(
		repository.NewServiceLocator(db, cfg.NearbyRadiusMeters),
		nearby.OffsetLocator{},
		log,
	)
}

// buildNotifier собирает внешние каналы: вебхук и адреса shoutrrr
func buildNotifier(cfg *config.Config, log *logrus.Logger) (*notify.Multi, error) {
	var notifiers []notify.Notifier
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, webhook.NewNotifier(cfg, log))
	}
	if len(cfg.NotifyURLs) > 0 {
		sh, err := notify.NewShoutrrr(cfg.NotifyURLs, cfg.WebhookTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid NOTIFY_URLS: %w", err)
		}
		notifiers = append(notifiers, sh)
	}
	log.WithField("channels", len(notifiers)).Info("Notifiers configured")
	return notify.NewMulti(log, notifiers...), nil
}
