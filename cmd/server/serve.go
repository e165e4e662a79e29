package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/koihire-backend/internal/cache"
	"github.com/ignatzorin/koihire-backend/internal/config"
	"github.com/ignatzorin/koihire-backend/internal/db"
	httpHandlers "github.com/ignatzorin/koihire-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/koihire-backend/internal/http/router"
	"github.com/ignatzorin/koihire-backend/internal/logger"
	"github.com/ignatzorin/koihire-backend/internal/processor"
	"github.com/ignatzorin/koihire-backend/internal/repository"
	"github.com/ignatzorin/koihire-backend/internal/service"
	"github.com/ignatzorin/koihire-backend/internal/telemetry"
	"github.com/ignatzorin/koihire-backend/internal/ws"
)

func serveCommand(cfg **config.Config) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP сервер",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*cfg, !skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "не применять миграции при старте")
	return cmd
}

func serve(cfg *config.Config, runMigrations bool) error {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logger.Log.WithError(err).Warn("main: ошибка остановки трейсера")
		}
	}()

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer safeClose(dbConn)

	if runMigrations {
		n, err := db.Migrate(dbConn, migrate.Up)
		if err != nil {
			return err
		}
		logger.Log.WithField("applied", n).Info("main: миграции применены")
	}

	statusCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		return err
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	payments := processor.NewClient(cfg.PaymentsAPIURL, cfg.PaymentsSecretKey, cfg.PaymentsCurrency)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	go hub.Run()

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn)
	serviceOrderRepo := repository.NewServiceOrderRepository(dbConn)
	escrowRepo := repository.NewEscrowRepository(dbConn)
	noteRepo := repository.NewWorkNoteRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Сервисы.
	notificationService := service.NewNotificationService(notificationRepo, hub)
	authService := service.NewAuthService(userRepo, tokenManager)
	projectService := service.NewProjectService(projectRepo, userRepo, escrowRepo, notificationService)
	serviceOrderService := service.NewServiceOrderService(serviceOrderRepo, notificationService)
	escrowService := service.NewEscrowService(escrowRepo, projectRepo, userRepo, payments, notificationService)
	connectService := service.NewConnectService(userRepo, payments, statusCache, cfg.ConnectStatusCacheTTL, cfg.ConnectRefreshURL, cfg.ConnectReturnURL)
	workService := service.NewWorkService(projectRepo, serviceOrderRepo, noteRepo)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth: httpHandlers.NewAuthHandler(authService, tokenManager, httpHandlers.SessionCookie{
			Name:   cfg.SessionCookieName,
			Domain: cfg.SessionCookieDomain,
			Secure: cfg.IsProduction(),
		}),
		Work:         httpHandlers.NewWorkHandler(workService),
		Payment:      httpHandlers.NewPaymentHandler(escrowService, connectService),
		Project:      httpHandlers.NewProjectHandler(projectService),
		ServiceOrder: httpHandlers.NewServiceOrderHandler(serviceOrderService),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Health:       httpHandlers.NewHealthHandler(dbConn),
		Proxy: httpHandlers.NewProxyHandler(httpHandlers.ProxyConfig{
			FileStoreURL:       cfg.FileStoreURL,
			ApplicationsAPIURL: cfg.ApplicationsAPIURL,
			MaxUploadSize:      cfg.UploadProxyMaxSize,
			Timeout:            cfg.ProxyTimeout,
		}),
	}, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("main: сервер завершился с ошибкой: %w", err)
	}
	return nil
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Log.WithError(err).Warn("main: ошибка закрытия базы")
	}
}
