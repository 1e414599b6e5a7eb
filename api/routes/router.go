package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/casahojaldre/chatbot-backend/api/controllers"
	"github.com/casahojaldre/chatbot-backend/api/middleware"
	"github.com/casahojaldre/chatbot-backend/internal/answers"
	internalorders "github.com/casahojaldre/chatbot-backend/internal/orders"
	pkgauth "github.com/casahojaldre/chatbot-backend/pkg/auth"
	"github.com/casahojaldre/chatbot-backend/pkg/config"
	"github.com/casahojaldre/chatbot-backend/pkg/db"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
	"github.com/casahojaldre/chatbot-backend/pkg/metrics"
	"github.com/casahojaldre/chatbot-backend/pkg/redis"
	"github.com/casahojaldre/chatbot-backend/pkg/telegram"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *redis.Client
	Bot        *telegram.Client
	Dispatcher controllers.Dispatcher
	Orders     internalorders.Service
	Knowledge  answers.KnowledgeRepository
	Auth       pkgauth.Checker
	Metrics    *metrics.BotMetrics
	Registry   *prometheus.Registry
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DB, params.Redis, logg))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.With(middleware.TelegramSecret(cfg.Telegram.WebhookSecret, logg)).
			Post("/telegram", controllers.TelegramWebhook(controllers.TelegramWebhookParams{
				Logger:     logg,
				Dispatcher: params.Dispatcher,
				Bot:        params.Bot,
				Dedupe:     params.Redis,
				Limiter:    params.Redis,
				Metrics:    params.Metrics,
				RateLimit:  cfg.RateLimit,
			}))
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.AdminAuth(params.Auth, pkgauth.CapabilityOrdersRead, logg)).
				Get("/", controllers.AdminListOrders(params.Orders, logg))
			r.With(middleware.AdminAuth(params.Auth, pkgauth.CapabilityOrdersRead, logg)).
				Get("/{orderId}", controllers.AdminGetOrder(params.Orders, logg))
			r.With(middleware.AdminAuth(params.Auth, pkgauth.CapabilityOrdersTransition, logg)).
				Post("/{orderId}/transition", controllers.AdminTransitionOrder(params.Orders, logg))
		})

		r.Route("/knowledge", func(r chi.Router) {
			r.With(middleware.AdminAuth(params.Auth, pkgauth.CapabilityKnowledgeWrite, logg)).
				Post("/", controllers.AdminCreateKnowledgeEntry(params.Knowledge, logg))
			r.With(middleware.AdminAuth(params.Auth, pkgauth.CapabilityKnowledgeWrite, logg)).
				Put("/{entryId}", controllers.AdminUpdateKnowledgeEntry(params.Knowledge, logg))
		})
	})

	return r
}
