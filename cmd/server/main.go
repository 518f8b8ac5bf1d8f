package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/cache"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/config"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/db"
	googlevision "github.com/dheekshanaveen/agentic-lending-systems/internal/google-vision"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/handlers"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/kyc"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/llm"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/metrics"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/ocr"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/repository"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/router"
	"github.com/dheekshanaveen/agentic-lending-systems/internal/tesseract"
)

// main wires configuration, storage, the OCR engine and the HTTP router,
// then serves until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	gdb, err := db.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	store := repository.NewGormStore(gdb)

	m := metrics.New()

	engine, closeEngine, err := newEngine(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	profiles := kyc.DefaultProfiles()
	if cfg.KYC.ProfilesFile != "" {
		if profiles, err = kyc.LoadProfiles(cfg.KYC.ProfilesFile); err != nil {
			return err
		}
		logger.Info("document profiles loaded", "file", cfg.KYC.ProfilesFile)
	}
	extractor := kyc.NewExtractor(
		kyc.WithProfiles(profiles),
		kyc.WithRegionRecognizer(engine),
		kyc.WithLogger(logger),
	)
	reconciler := kyc.NewReconciler(profiles, kyc.WithThresholds(cfg.KYC.NameThreshold, cfg.KYC.AddressThreshold))

	deps := handlers.Deps{
		Store:           store,
		Engine:          engine,
		Extractor:       extractor,
		Reconciler:      reconciler,
		Metrics:         m,
		Logger:          logger,
		ShareSecret:     []byte(cfg.Auth.ShareSecret),
		FrontendBaseURL: cfg.Auth.FrontendBaseURL,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		OCRTimeout:      cfg.OCR.Timeout,
	}
	if cfg.LLM.Enabled {
		assistant, err := llm.New(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout, logger)
		if err != nil {
			return err
		}
		defer assistant.Close()
		deps.Assistant = assistant
		logger.Info("llm assist enabled", "model", cfg.LLM.Model)
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, agent routes are unauthenticated")
	}

	h := handlers.New(deps)
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: router.RegisterRouter(h, router.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			JWTSecret:      []byte(cfg.Auth.JWTSecret),
			Logger:         logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "ocr_engine", engine.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newEngine builds the configured OCR engine, wrapped in the Redis cache
// when REDIS_ADDR is set.
func newEngine(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (ocr.Engine, func(), error) {
	var (
		engine  ocr.Engine
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.OCR.Engine {
	case tesseract.EngineName:
		engine = tesseract.New(tesseract.Config{
			Bin:         cfg.OCR.TesseractBin,
			Lang:        cfg.OCR.TesseractLang,
			TessdataDir: cfg.OCR.TessdataDir,
		}, logger)
	default:
		client, err := googlevision.New(ctx, cfg.OCR.CredentialsFile, logger)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		engine = client
	}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		engine = cache.NewCachedEngine(engine, rdb, cfg.Redis.TTL, m, logger)
		logger.Info("ocr cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}
	return engine, closeAll, nil
}
