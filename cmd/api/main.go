package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/printshop-backend/api/routes"
	"github.com/angelmondragon/printshop-backend/internal/auth"
	"github.com/angelmondragon/printshop-backend/internal/catalog"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/internal/profiles"
	"github.com/angelmondragon/printshop-backend/internal/session"
	"github.com/angelmondragon/printshop-backend/internal/workspace"
	authsession "github.com/angelmondragon/printshop-backend/pkg/auth/session"
	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/backend/embedded"
	"github.com/angelmondragon/printshop-backend/pkg/backend/hosted"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/migrate"
	"github.com/angelmondragon/printshop-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	var closers []func() error
	closers = append(closers, redisClient.Close)

	svc, dbClose, err := newBackend(ctx, cfg, logg, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap backend", closeAll(err, closers))
		os.Exit(1)
	}
	if dbClose != nil {
		closers = append(closers, dbClose)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc = backend.Instrument(svc, metrics.NewBackendMetrics(reg))

	profileRepo, err := profiles.NewRepository(svc.Tables())
	exitOnErr(ctx, logg, "failed to create profile repository", err)
	orderRepo, err := orders.NewRepository(svc.Tables())
	exitOnErr(ctx, logg, "failed to create order repository", err)
	orderService, err := orders.NewService(orderRepo, logg)
	exitOnErr(ctx, logg, "failed to create order service", err)
	catalogService, err := catalog.NewService(svc.Tables(), logg)
	exitOnErr(ctx, logg, "failed to create catalog service", err)
	authService, err := auth.NewService(profileRepo, logg)
	exitOnErr(ctx, logg, "failed to create auth service", err)

	store, err := session.NewRedisStore(redisClient, cfg.Session.TTL)
	exitOnErr(ctx, logg, "failed to create session store", err)
	registry, err := workspace.NewRegistry(workspace.Params{
		Auth:        svc.Auth(),
		Store:       store,
		Profiles:    profileRepo,
		Orders:      orderService,
		Logger:      logg,
		IdleTimeout: cfg.Session.IdleTimeout,
	})
	exitOnErr(ctx, logg, "failed to create workspace registry", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": cfg.Backend.Mode,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			svc,
			registry,
			authService,
			catalogService,
			orderService,
			metrics.NewHTTPMetrics(reg),
			metrics.Handler(reg),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		runErr = server.Shutdown(shutdownCtx)
		cancel()
	}

	registry.Close()
	runErr = closeAll(runErr, closers)
	if runErr != nil {
		logg.Error(serverCtx, "api server stopped with errors", runErr)
		os.Exit(1)
	}
}

// newBackend builds the configured backend. The returned close function is
// nil for the hosted backend, which holds no local resources.
func newBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client) (backend.Service, func() error, error) {
	if !cfg.Backend.IsEmbedded() {
		client, err := hosted.New(cfg.Backend, logg)
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	}

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return nil, nil, err
	}
	fail := func(err error) (backend.Service, func() error, error) {
		return nil, nil, multierr.Append(err, dbClient.Close())
	}

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return fail(err)
	}
	sessions, err := authsession.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return fail(err)
	}
	svc, err := embedded.New(embedded.Deps{
		DB:          dbClient,
		Redis:       redisClient,
		Sessions:    sessions,
		JWT:         cfg.JWT,
		Password:    cfg.Password,
		OneTimeCode: cfg.OneTimeCode,
		Sender:      embedded.LogCodeSender{Logger: logg},
		Logger:      logg,
	})
	if err != nil {
		return fail(err)
	}
	return svc, dbClient.Close, nil
}

// closeAll runs every closer and folds their failures into err.
func closeAll(err error, closers []func() error) error {
	for _, closeFn := range closers {
		err = multierr.Append(err, closeFn())
	}
	return err
}

func exitOnErr(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
