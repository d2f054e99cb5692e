package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storelinehq/pricing-backend/api/controllers"
	"github.com/storelinehq/pricing-backend/api/middleware"
	"github.com/storelinehq/pricing-backend/internal/pricing"
	pricinggroup "github.com/storelinehq/pricing-backend/internal/pricinggroups"
	"github.com/storelinehq/pricing-backend/pkg/config"
	"github.com/storelinehq/pricing-backend/pkg/db"
	"github.com/storelinehq/pricing-backend/pkg/logger"
	"github.com/storelinehq/pricing-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	groupService pricinggroup.Service,
	pricingService pricing.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	r.Get("/healthz", controllers.HealthReady(cfg, logg, dbP, redisP))

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/admin", func(r chi.Router) {
		r.Route("/pricing-groups", func(r chi.Router) {
			r.Get("/", controllers.PricingGroupsList(groupService, logg))
			r.Post("/", controllers.PricingGroupCreate(groupService, logg))
			r.Post("/products/add", controllers.PricingGroupsAddProducts(groupService, logg))
			r.Post("/products/remove", controllers.PricingGroupsRemoveProducts(groupService, logg))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", controllers.PricingGroupGet(groupService, logg))
				r.Patch("/", controllers.PricingGroupUpdate(groupService, logg))
				r.Delete("/", controllers.PricingGroupDelete(groupService, logg))
				r.Get("/products", controllers.PricingGroupProducts(groupService, logg))
			})
		})
		r.Get("/products/{id}/pricing-groups", controllers.ProductPricingGroups(groupService, logg))
	})

	r.Route("/store", func(r chi.Router) {
		r.Post("/pricing/quote", controllers.PricingQuote(pricingService, logg))
	})

	return r
}
