package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// NewRouter wires the storefront HTTP surface. redisPinger, sessions and
// idempotency may be nil when redis is not configured.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisPinger redis.Pinger,
	sessions session.AccessSessionChecker,
	idempotency redis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	catalogLister controllers.CatalogLister,
	cartService cart.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	readiness := map[string]controllers.Pinger{"db": dbP}
	if redisPinger != nil {
		readiness["redis"] = redisPinger
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, sessions, logg))

		r.Get("/catalog/items", controllers.CatalogList(catalogLister, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.Idempotency(idempotency, logg))

			r.Get("/", cartcontrollers.CartView(cartService, logg))
			r.Get("/checkout", cartcontrollers.CartCheckout(cartService, logg))
			r.Post("/lines", cartcontrollers.CartAddLine(cartService, logg))
			r.Post("/lines/{lineId}/reduce", cartcontrollers.CartReduceLine(cartService, logg))
			r.Delete("/lines/{lineId}", cartcontrollers.CartRemoveLine(cartService, logg))
		})
	})

	return r
}
