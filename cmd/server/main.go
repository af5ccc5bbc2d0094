// main wires the registration service: credential store, profile client,
// cache, audit trail and the reconcile worker, then runs the HTTP server
// until signalled. Business logic lives in the internal services.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"registrar/internal/account/cache"
	accounthandler "registrar/internal/account/handler"
	"registrar/internal/account/metrics"
	"registrar/internal/account/service"
	accountstore "registrar/internal/account/store"
	"registrar/internal/platform/config"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/kafka"
	"registrar/internal/platform/logger"
	platformpostgres "registrar/internal/platform/postgres"
	platformredis "registrar/internal/platform/redis"
	profileclient "registrar/internal/profile/client"
	"registrar/internal/reconcile"
	httptransport "registrar/internal/transport/http"
	"registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/publisher"
	auditmemory "registrar/pkg/platform/audit/store/memory"
	auditpostgres "registrar/pkg/platform/audit/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var checks []httptransport.HealthCheck

	// Credential and audit stores share the database when one is configured.
	var (
		accounts   accountstore.CredentialStore
		auditStore audit.Store
		db         *sql.DB
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = platformpostgres.Open(cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := platformpostgres.Migrate(db); err != nil {
			return err
		}
		accounts = accountstore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
		log.Info("using postgres credential store")
	} else {
		accounts = accountstore.NewInMemory()
		auditStore = auditmemory.New()
		log.Warn("no postgres dsn configured, using in-memory stores")
	}

	var viewCache *cache.ViewCache
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		viewCache = cache.New(redisClient, cfg.Redis.ViewTTL, log)
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: redisClient.Health})
		log.Info("account view cache enabled")
	}

	auditOpts := []publisher.Option{
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, log)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, cfg.KafkaTopic); err != nil {
			return err
		}
		auditOpts = append(auditOpts, publisher.WithSink(kafka.NewAuditSink(producer, cfg.KafkaTopic)))
		log.Info("kafka audit sink enabled", "topic", cfg.KafkaTopic)
	}
	auditPub := publisher.NewPublisher(auditStore, auditOpts...)
	defer auditPub.Close()

	var profiles profileclient.Client
	if cfg.ProfileServiceURL != "" {
		profiles = profileclient.NewHTTP(cfg.ProfileServiceURL, log)
	} else {
		profiles = profileclient.NewInMemory()
		log.Warn("no profile service url configured, using in-process fake")
	}

	regMetrics := metrics.New()
	repairs := make(chan reconcile.Task, 64)

	svc := service.New(service.Config{
		Accounts:       accounts,
		Profiles:       profiles,
		Hasher:         service.NewBcryptHasher(cfg.BcryptCost),
		Logger:         log,
		Metrics:        regMetrics,
		Audit:          auditPub,
		Cache:          viewCache,
		Repairs:        repairs,
		ProfileTimeout: cfg.ProfileTimeout,
		ProfileRetries: cfg.ProfileRetries,
		ProfileBackoff: cfg.ProfileBackoff,
	})

	worker := reconcile.NewWorker(reconcile.Config{
		Profiles: profiles,
		Audit:    auditPub,
		Metrics:  regMetrics,
		Logger:   log,
		Inbox:    repairs,
		Timeout:  cfg.ProfileTimeout,
	})

	router := httptransport.NewRouter(accounthandler.New(svc, log), log, checks...)
	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting registrar", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
