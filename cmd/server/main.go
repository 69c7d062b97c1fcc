package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/kevinzhao/taskflow/internal/application/port"
	"github.com/kevinzhao/taskflow/internal/application/service"
	taskwf "github.com/kevinzhao/taskflow/internal/application/workflow"
	"github.com/kevinzhao/taskflow/internal/config"
	"github.com/kevinzhao/taskflow/internal/httpapi"
	"github.com/kevinzhao/taskflow/internal/infrastructure/notify"
	"github.com/kevinzhao/taskflow/internal/infrastructure/persistence/repository"
	"github.com/kevinzhao/taskflow/internal/infrastructure/persistence/sqlite"
	"github.com/kevinzhao/taskflow/internal/report"
	"github.com/kevinzhao/taskflow/pkg/database"
	"github.com/kevinzhao/taskflow/pkg/utils"
)

func main() {
	// Environment overrides from .env, ignored when absent
	gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting taskflow server", zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	store := sqlite.NewDB(db.DB, logger)
	taskRepo := repository.NewTaskRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)

	var notifier port.Notifier
	if cfg.Notifier.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notifier.WebhookURL, cfg.Notifier.Timeout, logger)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	table, err := taskwf.BuildTaskLifecycle(notifier, logger)
	if err != nil {
		logger.Fatal("Failed to build task lifecycle", zap.Error(err))
	}

	taskService := service.NewTaskService(table, taskRepo, historyRepo, store, logger)
	exporter := report.NewHistoryExporter(logger)
	handler := httpapi.NewHandler(taskService, historyRepo, exporter, logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(handler, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
