package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/supplierhq/suppliers-backend/api/controllers"
	"github.com/supplierhq/suppliers-backend/api/middleware"
	"github.com/supplierhq/suppliers-backend/internal/dispatch"
	"github.com/supplierhq/suppliers-backend/internal/history"
	"github.com/supplierhq/suppliers-backend/internal/relationships"
	"github.com/supplierhq/suppliers-backend/internal/suppliers"
	"github.com/supplierhq/suppliers-backend/pkg/config"
	"github.com/supplierhq/suppliers-backend/pkg/db"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
	"github.com/supplierhq/suppliers-backend/pkg/redis"
)

// Params bundle the router dependencies.
type Params struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Registry      *prometheus.Registry
	Suppliers     suppliers.Service
	Relationships relationships.Service
	History       history.Service
	Dispatch      dispatch.Service
}

// NewRouter wires the admin HTTP surface.
func NewRouter(p Params) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Use(middleware.RequireRole("admin", p.Logger))

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.SupplierList(p.Suppliers, p.Logger))
			r.Post("/", controllers.SupplierCreate(p.Suppliers, p.Logger))
			r.Get("/{supplierId}", controllers.SupplierDetail(p.Suppliers, p.Logger))
			r.Put("/{supplierId}", controllers.SupplierUpdate(p.Suppliers, p.Logger))
			r.Delete("/{supplierId}", controllers.SupplierDelete(p.Suppliers, p.Logger))
			r.Get("/{supplierId}/products", controllers.SupplierProducts(p.Relationships, p.Logger))
		})

		r.Route("/products/{productId}", func(r chi.Router) {
			r.Get("/suppliers", controllers.ProductSuppliers(p.Relationships, p.Logger))
			r.Post("/suppliers", controllers.ProductAssignSupplier(p.Relationships, p.Logger))
			r.Put("/suppliers", controllers.ProductReplaceSuppliers(p.Relationships, p.Logger))
			r.Delete("/suppliers/{supplierId}", controllers.ProductUnassignSupplier(p.Relationships, p.Logger))
			r.Post("/primary-supplier", controllers.ProductSetPrimary(p.Relationships, p.Logger))
			r.Delete("/primary-supplier", controllers.ProductClearPrimary(p.Relationships, p.Logger))
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", controllers.HistoryList(p.History, p.Logger))
			r.Get("/stats", controllers.HistoryStats(p.History, p.Logger))
		})

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/history", controllers.OrderHistory(p.History, p.Logger))
			r.Post("/notify", controllers.OrderNotify(p.Dispatch, p.Logger))
		})
	})

	return r
}
