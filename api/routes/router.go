package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-tcg/inkwell-backend/api/controllers"
	webhookcontrollers "github.com/inkwell-tcg/inkwell-backend/api/controllers/webhooks"
	"github.com/inkwell-tcg/inkwell-backend/api/middleware"
	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	authsvc "github.com/inkwell-tcg/inkwell-backend/internal/auth"
	"github.com/inkwell-tcg/inkwell-backend/internal/catalog"
	checkoutsvc "github.com/inkwell-tcg/inkwell-backend/internal/checkout"
	"github.com/inkwell-tcg/inkwell-backend/internal/inventory"
	"github.com/inkwell-tcg/inkwell-backend/internal/orders"
	"github.com/inkwell-tcg/inkwell-backend/internal/payments"
	"github.com/inkwell-tcg/inkwell-backend/internal/submissions"
	"github.com/inkwell-tcg/inkwell-backend/pkg/auth/session"
	"github.com/inkwell-tcg/inkwell-backend/pkg/config"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/mercadopago"
	"github.com/inkwell-tcg/inkwell-backend/pkg/ratelimit"
	"github.com/inkwell-tcg/inkwell-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    redis.Pinger
	Sessions session.AccessSessionChecker
	Limiter  *ratelimit.Limiter

	Auth          authsvc.Service
	Catalog       catalog.Service
	Inventory     inventory.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Payments      payments.Service
	Submissions   submissions.Service
	Activity      activity.Service
	Gateway       *mercadopago.Client
	WebhookGuard  *payments.IdempotencyGuard
	MetricsHandle http.Handler
}

// NewRouter assembles the public storefront, gateway webhook and admin APIs.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.MetricsHandle != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandle)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", controllers.ListCards(p.Catalog, logg))
			r.Get("/{cardId}", controllers.GetCard(p.Catalog, logg))
		})
		r.Post("/checkout/preference", controllers.CreateCheckoutPreference(p.Checkout, logg))
		r.Post("/submissions", controllers.SubmitCard(p.Submissions, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.WebhookRateLimit(p.Limiter, cfg.RateLimit, logg))
		r.Post("/mercadopago", webhookcontrollers.MercadoPago(p.Payments, p.WebhookGuard, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.AdminLogin(p.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
			r.Use(middleware.RequireAdmin(logg))

			r.Post("/auth/logout", controllers.AdminLogout(p.Auth, logg))

			r.Route("/cards", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateCard(p.Catalog, logg))
				r.Put("/{cardId}", controllers.AdminUpdateCard(p.Catalog, logg))
			})
			r.Route("/inventory", func(r chi.Router) {
				r.Post("/stock", controllers.AdminAdjustStock(p.Inventory, logg))
				r.Post("/price", controllers.AdminSetPrice(p.Inventory, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(p.Orders, logg))
				r.Post("/fulfill", controllers.AdminFulfillOrder(p.Payments, logg))
				r.Get("/{orderId}", controllers.AdminGetOrder(p.Orders, logg))
				r.Post("/{orderId}/fees/backfill", controllers.AdminBackfillOrderFees(p.Orders, p.Gateway, logg))
			})
			r.Route("/submissions", func(r chi.Router) {
				r.Get("/", controllers.AdminListSubmissions(p.Submissions, logg))
				r.Get("/{submissionId}", controllers.AdminGetSubmission(p.Submissions, logg))
				r.Post("/{submissionId}/approve", controllers.AdminApproveSubmission(p.Submissions, logg))
				r.Post("/{submissionId}/reject", controllers.AdminRejectSubmission(p.Submissions, logg))
			})
			r.Get("/activity", controllers.AdminListActivity(p.Activity, logg))
		})
	})

	return r
}
