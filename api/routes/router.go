package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/stockroom-backend/api/controllers"
	"github.com/angelmondragon/stockroom-backend/api/middleware"
	"github.com/angelmondragon/stockroom-backend/internal/analytics"
	"github.com/angelmondragon/stockroom-backend/internal/auth"
	"github.com/angelmondragon/stockroom-backend/internal/licenses"
	"github.com/angelmondragon/stockroom-backend/internal/orders"
	"github.com/angelmondragon/stockroom-backend/pkg/auth/session"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/redis"
)

// Deps carries everything the HTTP surface is built from.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       *redis.Client
	// Idempotency overrides Redis as the replay store when set.
	Idempotency redis.IdempotencyStore
	Sessions    session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics

	Auth       auth.Service
	Accounts   controllers.AccountLookup
	Licenses   licenses.Service
	Catalog    controllers.CatalogService
	Warehouses controllers.WarehouseService
	Ledger     controllers.LedgerService
	Orders     orders.Service
	Analytics  analytics.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	idempotencyStore := deps.Idempotency
	var rateStore middleware.RateLimitStore
	if deps.Redis != nil {
		if idempotencyStore == nil {
			idempotencyStore = deps.Redis
		}
		rateStore = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		chimiddleware.StripSlashes,
	)

	readyDeps := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Redis != nil {
		readyDeps["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps))
	})
	r.Method(http.MethodGet, "/metrics", deps.HTTPMetrics.Handler())

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginPhoneLimit,
	)
	authenticate := middleware.Auth(cfg.JWT, deps.Sessions, logg)

	r.Route("/token", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/", controllers.AuthToken(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.With(authenticate).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	// Replay sits inside the license gate so a stored response is never
	// served to a caller the gate would now turn away.
	idempotent := middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, logg)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/me", controllers.Me(deps.Accounts, deps.Licenses, logg))
		r.With(idempotent).Post("/activate", controllers.Activate(deps.Licenses, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.LicenseGate(deps.Licenses, logg))
			r.Use(idempotent)
			mountInventory(r, deps, logg)
		})
	})

	return r
}

func mountInventory(r chi.Router, deps Deps, logg *logger.Logger) {
	catalog := deps.Catalog
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", controllers.CategoryList(catalog, logg))
		r.Post("/", controllers.CategoryCreate(catalog, logg))
		r.Route("/{categoryID}", func(r chi.Router) {
			r.Get("/", controllers.CategoryGet(catalog, logg))
			r.Put("/", controllers.CategoryUpdate(catalog, logg))
			r.Patch("/", controllers.CategoryUpdate(catalog, logg))
			r.Delete("/", controllers.CategoryDelete(catalog, logg))
		})
	})
	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", controllers.SupplierList(catalog, logg))
		r.Post("/", controllers.SupplierCreate(catalog, logg))
		r.Route("/{supplierID}", func(r chi.Router) {
			r.Get("/", controllers.SupplierGet(catalog, logg))
			r.Put("/", controllers.SupplierUpdate(catalog, logg))
			r.Patch("/", controllers.SupplierUpdate(catalog, logg))
			r.Delete("/", controllers.SupplierDelete(catalog, logg))
		})
	})
	r.Route("/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(catalog, logg))
		r.Post("/", controllers.ProductCreate(catalog, logg))
		r.Get("/low_stock", controllers.ProductLowStock(catalog, logg))
		r.Route("/{productID}", func(r chi.Router) {
			r.Get("/", controllers.ProductGet(catalog, logg))
			r.Put("/", controllers.ProductUpdate(catalog, logg))
			r.Patch("/", controllers.ProductUpdate(catalog, logg))
			r.Delete("/", controllers.ProductDelete(catalog, logg))
			r.Get("/components", controllers.ComponentList(catalog, logg))
			r.Post("/components", controllers.ComponentAdd(catalog, logg))
			r.Delete("/components/{componentID}", controllers.ComponentRemove(catalog, logg))
		})
	})

	wh := deps.Warehouses
	r.Route("/warehouses", func(r chi.Router) {
		r.Get("/", controllers.WarehouseList(wh, logg))
		r.Post("/", controllers.WarehouseCreate(wh, logg))
		r.Route("/{warehouseID}", func(r chi.Router) {
			r.Get("/", controllers.WarehouseGet(wh, logg))
			r.Put("/", controllers.WarehouseUpdate(wh, logg))
			r.Patch("/", controllers.WarehouseUpdate(wh, logg))
			r.Delete("/", controllers.WarehouseDelete(wh, logg))
		})
	})
	r.Route("/locations", func(r chi.Router) {
		r.Get("/", controllers.LocationList(wh, logg))
		r.Post("/", controllers.LocationCreate(wh, logg))
		r.Route("/{locationID}", func(r chi.Router) {
			r.Get("/", controllers.LocationGet(wh, logg))
			r.Put("/", controllers.LocationUpdate(wh, logg))
			r.Patch("/", controllers.LocationUpdate(wh, logg))
			r.Delete("/", controllers.LocationDelete(wh, logg))
		})
	})
	r.Route("/batches", func(r chi.Router) {
		r.Get("/", controllers.BatchList(wh, logg))
		r.Post("/", controllers.BatchCreate(wh, logg))
		r.Route("/{batchID}", func(r chi.Router) {
			r.Get("/", controllers.BatchGet(wh, logg))
			r.Put("/", controllers.BatchUpdate(wh, logg))
			r.Patch("/", controllers.BatchUpdate(wh, logg))
			r.Delete("/", controllers.BatchDelete(wh, logg))
		})
	})

	r.Route("/stock", func(r chi.Router) {
		r.Get("/", controllers.StockList(deps.Ledger, logg))
		r.Get("/{stockID}", controllers.StockGet(deps.Ledger, logg))
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", controllers.TransactionList(deps.Ledger, logg))
		r.Post("/", controllers.TransactionCreate(deps.Ledger, logg))
		r.Get("/{transactionID}", controllers.TransactionGet(deps.Ledger, logg))
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", controllers.OrderList(deps.Orders, logg))
		r.Post("/", controllers.OrderCreate(deps.Orders, logg))
		r.Route("/{orderID}", func(r chi.Router) {
			r.Get("/", controllers.OrderGet(deps.Orders, logg))
			r.Put("/", controllers.OrderUpdate(deps.Orders, logg))
			r.Patch("/", controllers.OrderUpdate(deps.Orders, logg))
			r.Delete("/", controllers.OrderDelete(deps.Orders, logg))
			r.Post("/complete_order", controllers.OrderComplete(deps.Orders, logg))
			r.Post("/confirm", controllers.OrderConfirm(deps.Orders, logg))
			r.Post("/cancel", controllers.OrderCancel(deps.Orders, logg))
		})
	})

	r.Get("/analytics/dashboard_stats", controllers.DashboardStats(deps.Analytics, logg))
}
