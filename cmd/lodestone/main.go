package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/lodestone-dev/lodestone/pkg/api"
	"github.com/lodestone-dev/lodestone/pkg/audit"
	"github.com/lodestone-dev/lodestone/pkg/cache"
	"github.com/lodestone-dev/lodestone/pkg/config"
	"github.com/lodestone-dev/lodestone/pkg/forum"
	"github.com/lodestone-dev/lodestone/pkg/httputil"
	"github.com/lodestone-dev/lodestone/pkg/jobs"
	"github.com/lodestone-dev/lodestone/pkg/members"
	"github.com/lodestone-dev/lodestone/pkg/observability"
	"github.com/lodestone-dev/lodestone/pkg/perms"
	"github.com/lodestone-dev/lodestone/pkg/projects"
	"github.com/lodestone-dev/lodestone/pkg/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	// An inconsistent role registry must stop the process before it serves
	// anything.
	roleRegistry, err := perms.BuildRegistry()
	if err != nil {
		logger.WithError(err).Error("invalid role registry")
		os.Exit(1)
	}

	db, err := postgres.Open(postgres.Config{
		URL:         cfg.Database.URL,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		Timeout:     cfg.Database.Timeout,
		MaxLifetime: cfg.Database.MaxLifetime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	if err := postgres.RunMigrations(db); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	var metrics *observability.Metrics
	promRegistry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(promRegistry)
	}

	// Stores.
	projectStore := projects.NewStore(db)
	ownerStore := projects.NewOwnerStore(db)
	channelStore := projects.NewChannelStore(db)
	pageStore := projects.NewPageStore(db)
	memberStore := members.NewStore(db)
	jobStore := jobs.NewStore(db)

	files, err := projects.NewFiles(cfg.Projects.FilesRoot)
	if err != nil {
		logger.WithError(err).Error("failed to initialize project file area")
		os.Exit(1)
	}

	auditLogger, err := audit.NewDBLogger(db)
	if err != nil {
		logger.WithError(err).Error("failed to initialize audit logger")
		os.Exit(1)
	}
	auditSink := audit.NewProjectAudit(auditLogger, logger)

	// Listing caches: redis when configured, in-process otherwise.
	listingSource := cache.NewDBSource(db, cfg.Cache.HomeListingSize)
	var listings cache.Listings
	var redisClient *redis.Client
	if cfg.Cache.RedisURL != "" {
		redisCache, err := cache.NewRedis(listingSource, cfg.Cache.RedisURL, cfg.Cache.TTL, metrics)
		if err != nil {
			logger.WithError(err).Error("failed to connect to redis")
			os.Exit(1)
		}
		defer redisCache.Close()
		listings = redisCache
		redisClient = redisCache.Client()
	} else {
		listings = cache.NewMemory(listingSource, cfg.Cache.TTL, metrics)
	}

	factory := projects.NewFactory(projects.FactoryConfig{
		MaxNameLen:          cfg.Projects.MaxNameLen,
		NamePattern:         cfg.Projects.CompiledNamePattern(),
		DefaultChannelName:  cfg.Channels.DefaultName,
		DefaultChannelColor: cfg.Channels.DefaultColor,
		HomePageName:        cfg.Pages.HomeName,
		HomePageMessage:     cfg.Pages.HomeMessage,
	}, projectStore, ownerStore, channelStore, pageStore, memberStore, jobStore, files, listings, auditSink, logger, metrics)

	// Job scheduler with the forum sync executors.
	forumClient := forum.NewClient(forum.ClientConfig{
		BaseURL: cfg.Forum.BaseURL,
		APIKey:  cfg.Forum.APIKey,
		APIUser: cfg.Forum.APIUser,
		Timeout: cfg.Forum.Timeout,
	}, logger, metrics)
	scheduler := jobs.NewScheduler(jobStore, jobs.SchedulerConfig{
		CheckInterval: cfg.Jobs.CheckInterval,
		Concurrency:   cfg.Jobs.Concurrency,
		Retry: jobs.RetryConfig{
			MaxRetries:        cfg.Jobs.MaxRetries,
			InitialDelay:      cfg.Jobs.InitialDelay,
			MaxDelay:          cfg.Jobs.MaxDelay,
			BackoffMultiplier: cfg.Jobs.BackoffMultiplier,
		},
	}, logger, metrics)
	forum.NewExecutors(forumClient, projectStore, logger).Register(scheduler)
	scheduler.Start(context.Background())

	// Periodic maintenance: crash recovery for stuck jobs and gauge
	// refreshes.
	maintenance := cron.New()
	maintenance.AddFunc("@every 5m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
		defer cancel()
		reaped, err := jobStore.ReapStale(ctx, cfg.Jobs.StaleAfter)
		if err != nil {
			logger.WithError(err).Error("failed to reap stale jobs")
			return
		}
		if reaped > 0 {
			logger.WithField("count", reaped).Warn("returned stale jobs to pending")
			if metrics != nil {
				metrics.JobsReapedTotal.Add(float64(reaped))
			}
		}
	})
	maintenance.AddFunc("@every 30s", func() {
		if metrics == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
		defer cancel()
		if pending, err := jobStore.CountPending(ctx); err == nil {
			metrics.JobsPending.Set(float64(pending))
		}
		metrics.UpdateDBStats(db)
	})
	maintenance.Start()

	// API server.
	resolver := members.NewResolver(memberStore, roleRegistry)
	apiRouter := mux.NewRouter()
	apiRouter.Use(httputil.RecoveryMiddleware(logger))
	apiRouter.Use(httputil.LoggingMiddleware(logger))
	api.NewProjectHandlers(factory, projectStore, ownerStore, resolver, memberStore, logger).RegisterRoutes(apiRouter)
	api.NewListingHandlers(listings, roleRegistry, logger).RegisterRoutes(apiRouter)
	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Ops server: health probes and metrics.
	health := observability.NewHealthChecker(db, redisClient)
	router := mux.NewRouter()
	router.HandleFunc("/healthz", health.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/readyz", health.Readiness).Methods(http.MethodGet)
	if cfg.Observability.MetricsEnabled {
		router.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return apiServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		scheduler.Stop()
		return nil
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		stopCtx := maintenance.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
		return nil
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return db.Close()
	})

	go func() {
		logger.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("api server failed")
		}
	}()
	go func() {
		logger.WithField("addr", server.Addr).Info("ops server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("ops server failed")
		}
	}()

	logger.
		WithField("roles", len(roleRegistry.Values(perms.CategoryProject))+len(roleRegistry.Values(perms.CategoryOrganization))+len(roleRegistry.Values(perms.CategoryGlobal))).
		Info("lodestone started")

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("shutdown failed")
		os.Exit(1)
	}
}
