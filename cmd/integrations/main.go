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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/integrations/pkg/config"
	"github.com/dmitrymomot/integrations/pkg/document"
	"github.com/dmitrymomot/integrations/pkg/email"
	"github.com/dmitrymomot/integrations/pkg/file"
	"github.com/dmitrymomot/integrations/pkg/httpserver"
	"github.com/dmitrymomot/integrations/pkg/ingest"
	"github.com/dmitrymomot/integrations/pkg/logger"
	"github.com/dmitrymomot/integrations/pkg/redis"
	"github.com/dmitrymomot/integrations/pkg/requestid"
	"github.com/dmitrymomot/integrations/pkg/rpc"
	"github.com/dmitrymomot/integrations/pkg/rpc/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("integrations service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg settings
	if err := loadSettings(&cfg); err != nil {
		return err
	}

	log := logger.New(append([]logger.Option{
		logger.WithEnvironment(cfg.App.Env, cfg.App.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}, cfg.Log.Options()...)...)
	logger.SetAsDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, filesHandler, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	observer, err := ingest.NewPrometheusObserver(cfg.App.MetricsPrefix, reg)
	if err != nil {
		return err
	}
	files := ingest.NewService(store,
		ingest.WithLogger(log),
		ingest.WithObserver(observer),
		ingest.WithMaxUploadSize(cfg.App.MaxUploadSize),
		ingest.WithVerifyAfterPut(cfg.App.VerifyUploads),
	)

	mailer, err := email.New(ctx, cfg.Email)
	if err != nil {
		return err
	}

	var documents commands.DocumentLookup
	if cfg.Document.Token != "" {
		docs, err := document.NewClient(cfg.Document)
		if err != nil {
			return err
		}
		documents = docs
	} else {
		log.WarnContext(ctx, "document verification disabled: DECOLECTA_API_TOKEN is not set")
	}

	router := rpc.NewRouter(
		rpc.WithNamespace(cfg.App.Namespace),
		rpc.WithLogger(log),
		rpc.WithErrorMappings(commands.ErrorMappings()...),
	)
	commands.Register(router, commands.Deps{
		Files:     files,
		Email:     mailer,
		Documents: documents,
		Logger:    log,
		Now:       time.Now,
	})

	checks := []httpserver.Check{{Name: "email", Func: mailer.Verify}}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Redis.Enabled {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		checks = append(checks, httpserver.Check{Name: "redis", Func: redis.Healthcheck(client)})
		consumer := rpc.NewRedisServer(client, router,
			rpc.WithKeyPrefix(cfg.App.RedisPrefix),
			rpc.WithConcurrency(cfg.App.Concurrency),
			rpc.WithRequestTimeout(cfg.App.RPCTimeout),
			rpc.WithRedisLogger(log),
		)
		g.Go(consumer.Run(ctx))
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, requestid.Middleware, middleware.Recoverer)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, cfg.App.ReadyTimeout, checks...))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Mount("/rpc", rpc.HTTPHandler(router, rpc.WithMaxBodySize(cfg.App.MaxBodySize)))
	if filesHandler != nil {
		r.Mount("/files", http.StripPrefix("/files/", filesHandler))
	}

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log), httpserver.WithName("http"))
	g.Go(srv.Runner(ctx, r))

	log.InfoContext(ctx, "integrations service started",
		slog.String("storage", cfg.App.StorageDriver),
		slog.String("email", string(cfg.Email.Driver)),
		slog.Bool("redis", cfg.Redis.Enabled),
		slog.Int("commands", len(router.Commands())),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadSettings(s *settings) error {
	err := errors.Join(
		config.Load(&s.App),
		config.Load(&s.Log),
		config.Load(&s.HTTP),
		config.Load(&s.Redis),
		config.Load(&s.Email),
		config.Load(&s.Document),
		config.Load(&s.S3),
		config.Load(&s.MinIO),
		config.Load(&s.Local),
	)
	if err != nil {
		return err
	}
	return checkDeployment(*s)
}

// newObjectStore builds the configured backend. The local backend also
// returns the handler that serves its signed URLs.
func newObjectStore(ctx context.Context, cfg settings) (file.ObjectStore, http.Handler, error) {
	switch cfg.App.StorageDriver {
	case driverMinIO:
		store, err := file.NewMinIOStorage(cfg.MinIO)
		return store, nil, err
	case driverLocal:
		store, err := file.NewLocalStorage(cfg.Local)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Handler(), nil
	default:
		store, err := file.NewS3Storage(ctx, cfg.S3)
		return store, nil, err
	}
}
