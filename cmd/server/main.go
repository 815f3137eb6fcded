package main

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/document"
	"BiomassLedger/internal/handlers"
	"BiomassLedger/internal/middleware"
	"BiomassLedger/internal/notify"
	"BiomassLedger/internal/repo"
	"BiomassLedger/internal/service"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("invalid configuration", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	identityRepo := repo.NewIdentityRepository(gormDB)
	artifactRepo := repo.NewArtifactRepository(gormDB)
	notifier := notify.New(cfg, sugar)

	approvalService := service.NewApprovalService(identityRepo, notifier, sugar, cfg)
	catalogService := service.NewCatalogService(repo.NewCustomerRepository(gormDB), repo.NewMaterialRepository(gormDB), sugar)
	ledgerService := service.NewLedgerService(repo.NewLedgerRepository(gormDB), artifactRepo, sugar)
	deliveryService := service.NewDeliveryService(catalogService, ledgerService, document.NewGenerator(), notifier, sugar, cfg)

	if len(cfg.AdminSecrets) == 0 {
		sugar.Warnw("no admin secrets configured, admin login is disabled")
	}

	h := handlers.NewHandler(approvalService, catalogService, ledgerService, deliveryService, sugar, cfg)

	addr := cfg.BaseURL
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sugar.Infow(
		"Starting server",
		"addr", addr,
		"url", cfg.ServerURL,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDSN", cfg.DatabaseDSN,
		"AdminEmail", cfg.AdminEmail,
		"SMTPConfigured", cfg.SMTPConfigured(),
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}
	}()

	if cfg.EnableHTTPS {
		err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}
