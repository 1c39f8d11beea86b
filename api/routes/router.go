package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/printshop-backend/api/controllers"
	"github.com/angelmondragon/printshop-backend/api/middleware"
	"github.com/angelmondragon/printshop-backend/internal/auth"
	"github.com/angelmondragon/printshop-backend/internal/catalog"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/internal/workspace"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	backendP controllers.Pinger,
	registry *workspace.Registry,
	authService auth.Service,
	catalogService catalog.Service,
	ordersService orders.Service,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"sign-in",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signUpPolicy := middleware.NewAuthRateLimitPolicy(
		"sign-up",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	resetPolicy := middleware.NewAuthRateLimitPolicy(
		"password-reset",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var (
		limiter middleware.RateLimitStore
		redisP  controllers.Pinger
	)
	if redisClient != nil {
		limiter = redisClient
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisP, backendP))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Workspace(registry, cfg.Session, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signUpPolicy, limiter, logg)).Post("/sign-up", controllers.AuthSignUp(authService, logg))
			r.With(middleware.AuthRateLimit(signInPolicy, limiter, logg)).Post("/sign-in", controllers.AuthSignIn(authService, logg))
			r.Post("/sign-out", controllers.AuthSignOut(authService, logg))
			r.Route("/password-reset", func(r chi.Router) {
				r.Use(middleware.AuthRateLimit(resetPolicy, limiter, logg))
				r.Post("/request", controllers.PasswordResetRequest(authService, logg))
				r.Post("/confirm", controllers.PasswordResetConfirm(authService, logg))
			})
		})

		r.Post("/forms/phone", controllers.FormatPhone(logg))

		r.Get("/view", controllers.ViewCurrent(logg))
		r.Put("/view/page", controllers.ViewNavigate(logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireProfile(logg))

			r.Get("/materials", controllers.MaterialsList(catalogService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(ordersService, logg))
				r.Post("/", controllers.OrdersSubmit(ordersService, logg))
				r.Route("/draft", func(r chi.Router) {
					r.Get("/", controllers.DraftGet(logg))
					r.Put("/notes", controllers.DraftSetNotes(logg))
					r.Post("/items", controllers.DraftAddItem(logg))
					r.Patch("/items/{index}", controllers.DraftPatchItem(logg))
					r.Delete("/items/{index}", controllers.DraftRemoveItem(logg))
					r.Post("/submit", controllers.DraftSubmit(ordersService, logg))
				})
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.Workspace(registry, cfg.Session, logg),
			middleware.RequireProfile(logg),
			middleware.RequireRole(enums.RoleAdmin, logg),
		)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderStatus(logg))
		})
		r.Route("/materials", func(r chi.Router) {
			r.Get("/", controllers.AdminMaterialsList(catalogService, logg))
			r.Post("/", controllers.AdminMaterialCreate(catalogService, logg))
			r.Delete("/{materialId}", controllers.AdminMaterialDelete(catalogService, logg))
		})
	})

	return r
}
