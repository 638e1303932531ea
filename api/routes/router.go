package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pawpal-io/pawpal-backend/api/controllers"
	"github.com/pawpal-io/pawpal-backend/api/middleware"
	"github.com/pawpal-io/pawpal-backend/internal/cart"
	"github.com/pawpal-io/pawpal-backend/internal/catalog"
	"github.com/pawpal-io/pawpal-backend/internal/dispense"
	"github.com/pawpal-io/pawpal-backend/internal/orders"
	"github.com/pawpal-io/pawpal-backend/internal/points"
	"github.com/pawpal-io/pawpal-backend/pkg/config"
	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	"github.com/pawpal-io/pawpal-backend/pkg/logger"
	"github.com/pawpal-io/pawpal-backend/pkg/redis"
)

// RouterParams carry everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    *redis.Client
	Pingers  []controllers.Pinger
	Catalog  catalog.Service
	Cart     cart.Service
	Orders   orders.Service
	Points   points.Service
	Dispense dispense.Service
}

// NewRouter assembles the API route tree.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Pingers...))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if p.Redis != nil {
			r.Use(middleware.RateLimit(p.Redis, logg))
			r.Use(middleware.Idempotency(p.Redis, logg))
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.Catalog, logg))
			r.Get("/{productId}", controllers.GetProduct(p.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(p.Cart, logg))
			r.Post("/", controllers.AddCartItem(p.Cart, logg))
			r.Put("/{itemId}", controllers.UpdateCartItem(p.Cart, logg))
			r.Delete("/{itemId}", controllers.RemoveCartItem(p.Cart, logg))
			r.Delete("/", controllers.ClearCart(p.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.PlaceOrder(p.Orders, logg))
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(p.Orders, logg))
		})

		r.Route("/points", func(r chi.Router) {
			r.Get("/balance", controllers.PointsBalance(p.Points, logg))
			r.Get("/history", controllers.PointsHistory(p.Points, logg))
		})

		r.Post("/schedules/{scheduleId}/dispense", controllers.DispenseNow(p.Dispense, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(p.Orders, logg))
				r.Post("/{orderId}/status", controllers.AdminUpdateOrderStatus(p.Orders, logg))
			})
			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(p.Catalog, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(p.Catalog, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(p.Catalog, logg))
			})
		})
	})

	return r
}
