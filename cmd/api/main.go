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

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/config"
	v1 "github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/handler/v1"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/middleware"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/repository"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/service"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/auth"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/database"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/logger"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/metrics"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/storage"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "carelink: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	baseLog, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	log := logger.With(baseLog, cfg.App)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return fmt.Errorf("initialising tracing: %w", err)
	}

	collector := metrics.NewCollector(cfg.App.Name, prometheus.NewRegistry())

	db, err := database.Connect(ctx, cfg.Database, log, collector.DBQueryDuration)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	blobs, err := storage.NewS3Store(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}

	identityRepo := repository.NewIdentityRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	illnessRepo := repository.NewIllnessRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), collector, log)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	authSvc := service.NewAuthService(identityRepo, jwtManager, auditSvc, collector, log)
	profileSvc := service.NewProfileService(profileRepo, identityRepo, illnessRepo, messageRepo, auditSvc, collector, log)
	illnessSvc := service.NewIllnessService(illnessRepo, profileRepo, auditSvc, collector, log)
	messageSvc := service.NewMessageService(messageRepo, profileRepo, auditSvc, collector, log)
	documentSvc := service.NewDocumentService(documentRepo, blobs, cfg.Storage.MaxUploadBytes, auditSvc, collector, log)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize)
	authLimiter := middleware.PerMinute(cfg.RateLimit.AuthRequestsPerMinute)

	router := v1.NewRouter(v1.RouterConfig{
		Log:         log,
		Metrics:     collector,
		JWT:         jwtManager,
		CORS:        cfg.CORS,
		Limiter:     limiter,
		AuthLimiter: authLimiter,
		Auth:        v1.NewAuthHandler(authSvc, log),
		Profiles:    v1.NewProfileHandler(profileSvc, log),
		Illnesses:   v1.NewIllnessHandler(illnessSvc, log),
		Messages:    v1.NewMessageHandler(messageSvc, log),
		Documents:   v1.NewDocumentHandler(documentSvc, cfg.Storage.MaxUploadBytes, log),
		Health: v1.NewHealthHandler(cfg.App.Version, map[string]v1.Pinger{
			"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
			"storage":  blobs.Ping,
		}, log),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		authLimiter.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown failed", zap.Error(err))
		}
		if err := auditSvc.Shutdown(shutdownCtx); err != nil {
			log.Warn("audit queue not fully drained", zap.Error(err))
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("tracer shutdown failed", zap.Error(err))
		}
		return nil
	})

	start := time.Now()
	err = g.Wait()
	log.Info("stopped", zap.Duration("uptime", time.Since(start)))
	return err
}
