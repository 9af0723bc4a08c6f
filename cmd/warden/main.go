package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/Warden/internal/adapter/filecatalog"
	"github.com/Strob0t/Warden/internal/adapter/fileregistry"
	whttp "github.com/Strob0t/Warden/internal/adapter/http"
	wmcp "github.com/Strob0t/Warden/internal/adapter/mcp"
	wnats "github.com/Strob0t/Warden/internal/adapter/nats"
	"github.com/Strob0t/Warden/internal/adapter/opa"
	wotel "github.com/Strob0t/Warden/internal/adapter/otel"
	"github.com/Strob0t/Warden/internal/adapter/postgres"
	"github.com/Strob0t/Warden/internal/adapter/ristretto"
	"github.com/Strob0t/Warden/internal/adapter/ws"
	"github.com/Strob0t/Warden/internal/config"
	"github.com/Strob0t/Warden/internal/logger"
	"github.com/Strob0t/Warden/internal/middleware"
	"github.com/Strob0t/Warden/internal/port/messagequeue"
	"github.com/Strob0t/Warden/internal/port/policyeval"
	"github.com/Strob0t/Warden/internal/port/toolcatalog"
	"github.com/Strob0t/Warden/internal/resilience"
	"github.com/Strob0t/Warden/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	shutdownTracer := wotel.InitTracer(cfg.Logging.Service)
	defer func() { _ = shutdownTracer(context.Background()) }()

	ctx := context.Background()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		natsQueue, err := wnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = natsQueue.Close() }()
		queue = natsQueue
	} else {
		log.Warn("nats disabled, kill-switch flips stay process-local")
	}

	defCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer defCache.Close()

	// --- Services ---

	hub := ws.NewHub()
	registry := postgres.NewDefinitionStore(pool)
	fallback := fileregistry.New(cfg.Registry.FallbackDir)
	resolver := service.NewDefinitionService(registry, fallback, defCache, cfg.Cache.DefinitionTTL, log)

	trail := service.NewAuditService(
		postgres.NewAuditStore(pool), hub, log,
		cfg.Audit.BufferSize, cfg.Audit.BatchSize, cfg.Audit.FlushInterval, cfg.Audit.QueryCap,
	)
	defer trail.Stop()

	ks := service.NewKillSwitchService(queue, log)
	ks.SetBroadcaster(hub)
	if queue != nil {
		cancelSub, err := ks.StartSubscriber(ctx)
		if err != nil {
			return fmt.Errorf("kill-switch subscriber: %w", err)
		}
		defer cancelSub()
	}

	var evaluator *opa.Client
	if cfg.Evaluator.URL != "" {
		evaluator = opa.NewClient(cfg.Evaluator.URL, cfg.Evaluator.Timeout)
		evaluator.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	}
	policies := service.NewPolicyService(evaluatorOrNil(evaluator), cfg.Evaluator.Timeout, log)

	loaders := []toolcatalog.Loader{toolcatalog.Builtins{}}
	var catalog toolcatalog.Catalog
	if cfg.Catalog.Path != "" {
		fc, err := filecatalog.Load(cfg.Catalog.Path)
		if err != nil {
			log.Warn("tool catalog not loaded", "path", cfg.Catalog.Path, "error", err)
		} else {
			catalog = fc
			loaders = append(loaders, fc)
		}
	}

	runtimes := service.NewRuntimeService(resolver, ks, policies, trail, log, loaders...)
	if metrics, err := wotel.NewMetrics(); err != nil {
		log.Warn("metrics not registered", "error", err)
	} else {
		runtimes.SetMetrics(metrics)
		policies.SetMetrics(metrics)
		trail.SetMetrics(metrics)
	}

	mesh := service.NewInvocationService(runtimes, trail, log)
	if err := mesh.LoadAllowlist(cfg.Mesh.AllowlistPath); err != nil {
		return fmt.Errorf("invocation allowlist: %w", err)
	}

	// --- MCP ---

	if cfg.MCP.Addr != "" {
		mcpSrv := wmcp.NewServer(wmcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    "warden",
			Version: "0.1.0",
			APIKey:  cfg.Admin.Token,
		}, wmcp.ServerDeps{
			Definitions: resolver,
			KillSwitch:  ks,
			Policies:    policies,
			Trail:       trail,
			Runtimes:    runtimes,
			Catalog:     catalog,
		}, log)
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mcpSrv.Stop(stopCtx)
		}()
	}

	// --- HTTP ---

	handlers := &whttp.Handlers{
		Definitions: resolver,
		Registry:    registry,
		KillSwitch:  ks,
		Policies:    policies,
		Trail:       trail,
		Runtimes:    runtimes,
		Mesh:        mesh,
		Catalog:     catalog,
		Queue:       queue,
	}

	r := chi.NewRouter()

	r.Use(whttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(whttp.Logger)
	r.Use(wotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/ws", hub.HandleWS)
	whttp.MountRoutes(r, handlers, cfg.Admin.Token)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
		}
	}()

	<-done
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// evaluatorOrNil keeps a disabled evaluator as a true nil interface so the
// policy tier falls straight through to the local fallbacks.
func evaluatorOrNil(c *opa.Client) policyeval.Evaluator {
	if c == nil {
		return nil
	}
	return c
}
