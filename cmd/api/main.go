// @title           Event Registry API
// @version         1.0
// @description     Event registration admin API with participant number allocation.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"eventregistry/config"
	_ "eventregistry/docs"
	"eventregistry/internal/adapters/auth"
	"eventregistry/internal/adapters/draftstore"
	"eventregistry/internal/adapters/email"
	httpdelivery "eventregistry/internal/delivery/http"
	"eventregistry/internal/delivery/http/controllers"
	"eventregistry/internal/job"
	"eventregistry/internal/metrics"
	"eventregistry/internal/repository/postgres"
	"eventregistry/internal/services"
)

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("database ready")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewWithRegistry(registry, logger)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}

	// Repositories
	txManager := postgres.NewTxManager(db)
	store := postgres.NewStore(db)
	eventRepo := postgres.NewEventRepository(db)
	registrantRepo := postgres.NewRegistrantRepository(db)
	adminRepo := postgres.NewAdminRepository(db)

	// Services
	jwtAuth := auth.NewJWT(cfg.JWTSecret)
	authService := services.NewAuthService(adminRepo, auth.NewBcryptHasher(bcrypt.DefaultCost), jwtAuth, cfg.JWTExpiry)
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), m, logger)
	eventService := services.NewEventService(eventRepo, cfg.DefaultMaxNumber, cfg.RequestTimeout)
	poolService := services.NewNumberPoolService(txManager, cfg.RequestTimeout)
	registrantService := services.NewRegistrantService(txManager, store, m, logger, cfg.RequestTimeout)
	reservedService := services.NewReservedNumberService(txManager, store, logger, cfg.RequestTimeout)
	fixedService := services.NewFixedNumberService(txManager, store, emailService, cfg.AdminNotifyEmail, m, logger, cfg.RequestTimeout)
	draftService := services.NewDraftService(draftstore.NewRedisStore(rdb, cfg.DraftTTL), eventRepo, registrantService, logger, cfg.RequestTimeout)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		admin, created, err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, "Administrator")
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info("bootstrap admin created", "admin_id", admin.ID, "email", admin.Email)
		}
	}

	// Background jobs
	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.AuditCron, job.NewNumberAuditJob(registrantRepo, m, logger, time.Minute)); err != nil {
		return fmt.Errorf("schedule number audit %q: %w", cfg.AuditCron, err)
	}
	if _, err := scheduler.AddJob(cfg.DBStatsCron, job.NewDBStatsJob(db, m)); err != nil {
		return fmt.Errorf("schedule db stats %q: %w", cfg.DBStatsCron, err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	handler := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:        controllers.NewAuthController(logger, authService),
		Events:      controllers.NewEventController(logger, eventService),
		Registrants: controllers.NewRegistrantController(logger, registrantService),
		Numbers:     controllers.NewNumberController(logger, poolService, reservedService, fixedService),
		Drafts:      controllers.NewDraftController(logger, draftService),
		Health: controllers.NewHealthController(logger, map[string]controllers.Pinger{
			"postgres": db,
			"redis":    redisPinger{rdb},
		}),
	}, httpdelivery.RouterConfig{
		Verifier:    jwtAuth,
		Logger:      logger,
		Metrics:     m,
		Gatherer:    registry,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
