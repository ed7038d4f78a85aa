package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cravewave/api/internal/cart"
	"github.com/cravewave/api/internal/config"
	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/enum"
	"github.com/cravewave/api/internal/events"
	"github.com/cravewave/api/internal/handler"
	mw "github.com/cravewave/api/internal/middleware"
	"github.com/cravewave/api/internal/service"
	"github.com/cravewave/api/internal/ws"
)

// New creates a Chi router with all application routes wired up. The public
// storefront lives under /store; the authenticated back office is
// restaurant-scoped under /restaurants/{rid}.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, carts cart.Repository, hub *ws.Hub, publisher events.Publisher) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, queries, newOrderStore, hub, publisher)

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Public storefront
	restaurantsHandler := handler.NewRestaurantsHandler(queries)
	menuHandler := handler.NewMenuHandler(queries)
	cartHandler := handler.NewCartHandler(carts, queries, orderService)
	r.Route("/store", func(r chi.Router) {
		restaurantsHandler.RegisterPublicRoutes(r)
		menuHandler.RegisterPublicRoutes(r)
		cartHandler.RegisterRoutes(r)
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/restaurants/{rid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Owner-only platform management
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOwner))
			r.Post("/restaurants", restaurantsHandler.Create)
		})

		// Restaurant-scoped back office
		r.Route("/restaurants/{rid}", func(r chi.Router) {
			r.Use(mw.RequireRestaurant)

			r.Get("/", restaurantsHandler.Get)

			// Settings are management actions
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
				r.Put("/", restaurantsHandler.Update)
				r.Put("/tax-settings", restaurantsHandler.UpdateTaxSettings)
				r.Put("/theme", restaurantsHandler.UpdateTheme)
			})
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner))
				r.Delete("/", restaurantsHandler.Delete)
			})

			// Menu management
			r.Route("/menu", func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
				menuHandler.RegisterAdminRoutes(r)
			})

			// Orders: every role works the board
			ordersHandler := handler.NewOrdersHandler(orderService, queries)
			r.Route("/orders", ordersHandler.RegisterRoutes)

			// Expenses
			expensesHandler := handler.NewExpensesHandler(queries)
			r.Route("/expenses", func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
				expensesHandler.RegisterRoutes(r)
			})

			// Reports
			reportsHandler := handler.NewReportsHandler(queries)
			r.Route("/reports", func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
				reportsHandler.RegisterRoutes(r)
			})

			// Staff accounts
			usersHandler := handler.NewUsersHandler(queries)
			r.Route("/users", func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
				usersHandler.RegisterRoutes(r)
			})
		})
	})

	return r
}
