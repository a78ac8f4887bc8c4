package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bugabuga/commerce-backend/api/controllers"
	"github.com/bugabuga/commerce-backend/api/middleware"
	authsvc "github.com/bugabuga/commerce-backend/internal/auth"
	cartsvc "github.com/bugabuga/commerce-backend/internal/cart"
	catalogsvc "github.com/bugabuga/commerce-backend/internal/catalog"
	ordersvc "github.com/bugabuga/commerce-backend/internal/orders"
	paymentsvc "github.com/bugabuga/commerce-backend/internal/payments"
	reviewsvc "github.com/bugabuga/commerce-backend/internal/reviews"
	storesvc "github.com/bugabuga/commerce-backend/internal/stores"
	"github.com/bugabuga/commerce-backend/pkg/config"
	"github.com/bugabuga/commerce-backend/pkg/db"
	"github.com/bugabuga/commerce-backend/pkg/logger"
	"github.com/bugabuga/commerce-backend/pkg/metrics"
	"github.com/bugabuga/commerce-backend/pkg/redis"
)

var storeStaffRoles = []string{"store_owner", "admin"}

// NewRouter assembles the HTTP surface. The redis client, metrics collector
// and registry may all be nil; the affected features degrade rather than
// block startup.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	registry *prometheus.Registry,
	authService authsvc.Service,
	catalogService catalogsvc.Service,
	storeService storesvc.Service,
	cartService cartsvc.Service,
	ordersService ordersvc.Service,
	paymentsService paymentsvc.Service,
	reviewsService reviewsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var cachePinger redis.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, database, cachePinger, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authThrottle(registerPolicy, redisClient, logg)).Post("/register", controllers.Register(authService, logg))
			r.With(authThrottle(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(authService, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.Me(authService, logg))
		})

		// public storefront
		r.Group(func(r chi.Router) {
			r.Get("/products", controllers.ProductList(catalogService, logg))
			r.Get("/products/recent", controllers.ProductsRecent(catalogService, logg))
			r.Get("/products/{productID}", controllers.ProductDetail(catalogService, logg))
			r.Get("/products/{productID}/reviews", controllers.ProductReviews(reviewsService, logg))

			r.Get("/categories", controllers.CategoryList(catalogService, logg))
			r.Get("/categories/{categoryID}", controllers.CategoryDetail(catalogService, logg))
			r.Get("/categories/{categoryID}/products", controllers.ProductsByCategory(catalogService, logg))

			r.Get("/stores", controllers.StoreList(storeService, logg))
			r.Get("/stores/{storeID}", controllers.StoreDetail(storeService, logg))
			r.Get("/stores/{storeID}/products", controllers.ProductsByStore(catalogService, logg))
		})

		// authenticated shoppers
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Put("/items/{productID}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{productID}", controllers.CartRemoveItem(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
			})

			r.Post("/checkout", controllers.Checkout(ordersService, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(ordersService, logg))
				r.Get("/{orderID}", controllers.OrderDetail(ordersService, logg))
				r.Post("/{orderID}/payment", controllers.PaymentProcess(paymentsService, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/history", controllers.PaymentHistory(paymentsService, logg))
				r.Get("/{paymentID}", controllers.PaymentInfo(paymentsService, logg))
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Post("/", controllers.ReviewCreate(reviewsService, logg))
				r.Get("/mine", controllers.MyReviews(reviewsService, logg))
				r.Put("/{reviewID}", controllers.ReviewUpdate(reviewsService, logg))
				r.Delete("/{reviewID}", controllers.ReviewDelete(reviewsService, logg))
			})
		})

		// store owners and admins
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireAnyRole(storeStaffRoles, logg))

			r.Get("/stores/mine", controllers.MyStores(storeService, logg))
			r.Post("/stores", controllers.StoreCreate(storeService, logg))
			r.Put("/stores/{storeID}", controllers.StoreUpdate(storeService, logg))
			r.Delete("/stores/{storeID}", controllers.StoreDeactivate(storeService, logg))

			r.Post("/products", controllers.ProductCreate(catalogService, logg))
			r.Put("/products/{productID}", controllers.ProductUpdate(catalogService, logg))
			r.Delete("/products/{productID}", controllers.ProductDelete(catalogService, logg))

			r.Patch("/orders/{orderID}/status", controllers.OrderUpdateStatus(ordersService, logg))
		})

		// admin only
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole("admin", logg))

			r.Post("/categories", controllers.CategoryCreate(catalogService, logg))
			r.Post("/payments/{paymentID}/refund", controllers.PaymentRefund(paymentsService, logg))
		})
	})

	return r
}

// authThrottle skips the limiter when Redis is not configured; a typed nil
// passed as an interface would otherwise look like a live store.
func authThrottle(policy middleware.AuthRateLimitPolicy, client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.AuthRateLimit(policy, client, logg)
}
