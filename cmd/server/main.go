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

	"go.uber.org/zap"

	"gaokao/internal/config"
	"gaokao/internal/database"
	"gaokao/internal/handler"
	"gaokao/internal/importer"
	"gaokao/internal/logger"
	"gaokao/internal/middleware"
	"gaokao/internal/repository"
	"gaokao/internal/service"
)

func main() {
	// 1. конфиг
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	// 2. логгер
	log, err := logger.Init(cfg.Log, cfg.App.Mode)
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		zap.L().Error("server stopped with error", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// 3. БД и миграции
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)

	accounts := service.NewAccountService(userRepo)
	if err := accounts.EnsureDefaults(ctx, cfg.Seed.AdminPassword, cfg.Seed.UserPassword); err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}

	// 4. импорт таблицы в пустую базу
	imp := importer.New(admissionRepo, cfg.Data.ImportBatchSize)
	if _, err := imp.Run(ctx, importer.WorkbookSource{Path: cfg.Data.Workbook}); err != nil {
		return err
	}

	// 5. маршруты
	views, err := handler.NewRenderer()
	if err != nil {
		return err
	}
	router := handler.NewRouter(middleware.NewSessions(cfg.App.SessionSecret), views, handler.Services{
		Accounts: accounts,
		Records:  service.NewRecordService(admissionRepo),
		Search:   service.NewSearchService(admissionRepo),
		Catalog:  service.NewCatalogService(admissionRepo),
		Guides:   service.NewGuideService(cfg.Data.GuideFile, cfg.Data.TipsFile),
	})

	// 6. сервер с мягкой остановкой
	server := &http.Server{
		Addr:              cfg.App.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting http server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	zap.L().Info("server exited")
	return nil
}
