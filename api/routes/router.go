package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/attirely/storefront-backend/api/controllers"
	"github.com/attirely/storefront-backend/api/middleware"
	"github.com/attirely/storefront-backend/internal/discount"
	"github.com/attirely/storefront-backend/internal/searches"
	"github.com/attirely/storefront-backend/internal/sessions"
	"github.com/attirely/storefront-backend/internal/wishlist"
	"github.com/attirely/storefront-backend/pkg/config"
	"github.com/attirely/storefront-backend/pkg/logger"
	"github.com/attirely/storefront-backend/pkg/metrics"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Sessions      *sessions.Manager
	Catalog       controllers.ProductLister
	Discounts     *discount.Resolver
	Wishlist      wishlist.Service
	Searches      searches.Service
	EngineMetrics *metrics.EngineMetrics
	HTTPMetrics   *metrics.HTTPMetrics
	Registry      *prometheus.Registry
	RedisPinger   controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Get("/live", controllers.HealthLive(cfg))
	r.Get("/ready", controllers.HealthReady(cfg, deps.RedisPinger))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(deps.Sessions, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.Catalog, logg))
			r.Get("/{productID}", controllers.ProductGet(deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(logg))
			r.Delete("/", controllers.CartClear(deps.EngineMetrics, logg))

			r.Post("/items", controllers.CartAddItem(deps.Catalog, deps.EngineMetrics, logg))
			r.Patch("/items", controllers.CartUpdateQuantity(deps.EngineMetrics, logg))
			r.Delete("/items", controllers.CartRemoveItem(deps.EngineMetrics, logg))
			r.Post("/items/increment", controllers.CartIncrement(deps.EngineMetrics, logg))
			r.Post("/items/decrement", controllers.CartDecrement(deps.EngineMetrics, logg))

			r.Post("/discount", controllers.CartApplyDiscount(deps.Discounts, deps.EngineMetrics, logg))
			r.Delete("/discount", controllers.CartRemoveDiscount(deps.EngineMetrics, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutBegin(deps.Sessions, logg))
			r.Get("/", controllers.CheckoutState(deps.Sessions, logg))
			r.Delete("/", controllers.CheckoutCancel(deps.Sessions, logg))

			r.Put("/shipping", controllers.CheckoutShipping(deps.Sessions, logg))
			r.Put("/payment", controllers.CheckoutPayment(deps.Sessions, logg))
			r.Post("/back", controllers.CheckoutBack(deps.Sessions, logg))
			r.Post("/submit", controllers.CheckoutSubmit(deps.Sessions, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistView(deps.Wishlist, logg))
			r.Post("/", controllers.WishlistAdd(deps.Wishlist, logg))
			r.Post("/toggle", controllers.WishlistToggle(deps.Wishlist, logg))
			r.Delete("/{productID}", controllers.WishlistRemove(deps.Wishlist, logg))
		})

		r.Route("/searches", func(r chi.Router) {
			r.Get("/", controllers.SearchesView(deps.Searches, logg))
			r.Post("/", controllers.SearchesRecord(deps.Searches, logg))
			r.Delete("/", controllers.SearchesClear(deps.Searches, logg))
		})
	})

	return r
}
