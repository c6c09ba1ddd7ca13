package http

import (
	"log/slog"
	"net/http"

	"eventregistry/internal/delivery/http/controllers"
	"eventregistry/internal/delivery/http/middleware"
	"eventregistry/internal/domain"
	"eventregistry/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth        *controllers.AuthController
	Events      *controllers.EventController
	Registrants *controllers.RegistrantController
	Numbers     *controllers.NumberController
	Drafts      *controllers.DraftController
	Health      *controllers.HealthController
}

// RouterConfig carries the cross-cutting pieces of the HTTP stack.
type RouterConfig struct {
	Verifier    domain.TokenVerifier
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

// NewRouter initializes the HTTP router with all application routes and wraps it in
// recovery, metrics, logging and CORS middleware.
func NewRouter(c Controllers, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)

	// Public registration front-end
	mux.HandleFunc("POST /public/events/{eventID}/registrations", c.Registrants.Register)
	mux.HandleFunc("POST /public/events/{eventID}/drafts", c.Drafts.StartDraft)
	mux.HandleFunc("PATCH /public/drafts/{draftID}", c.Drafts.AdvanceDraft)
	mux.HandleFunc("POST /public/drafts/{draftID}/submit", c.Drafts.SubmitDraft)
	mux.HandleFunc("DELETE /public/drafts/{draftID}", c.Drafts.CancelDraft)

	// Auth
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("GET /auth/me", auth(c.Auth.Me))

	// Events
	mux.HandleFunc("POST /events", auth(c.Events.CreateEvent))
	mux.HandleFunc("GET /events", auth(c.Events.ListEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(c.Events.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(c.Events.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(c.Events.DeleteEvent))

	// Registrants
	mux.HandleFunc("GET /events/{eventID}/registrants", auth(c.Registrants.ListRegistrants))
	mux.HandleFunc("POST /events/{eventID}/registrants", auth(c.Registrants.Register))
	mux.HandleFunc("GET /registrants/{registrantID}", auth(c.Registrants.GetRegistrant))
	mux.HandleFunc("PATCH /registrants/{registrantID}", auth(c.Registrants.UpdateRegistrant))
	mux.HandleFunc("DELETE /registrants/{registrantID}", auth(c.Registrants.DeleteRegistrant))
	mux.HandleFunc("POST /registrants/{registrantID}/deactivate", auth(c.Registrants.DeactivateRegistrant))

	// Numbers
	mux.HandleFunc("GET /events/{eventID}/numbers/next", auth(c.Numbers.NextAvailable))
	mux.HandleFunc("GET /events/{eventID}/reserved-numbers", auth(c.Numbers.ListReserved))
	mux.HandleFunc("POST /events/{eventID}/reserved-numbers", auth(c.Numbers.AddReserved))
	mux.HandleFunc("DELETE /events/{eventID}/reserved-numbers", auth(c.Numbers.RemoveReserved))
	mux.HandleFunc("GET /fixed-numbers", auth(c.Numbers.ListFixed))
	mux.HandleFunc("POST /fixed-numbers", auth(c.Numbers.CreateFixed))
	mux.HandleFunc("POST /fixed-numbers/preview", auth(c.Numbers.PreviewFixed))
	mux.HandleFunc("DELETE /fixed-numbers/{id}", auth(c.Numbers.DeleteFixed))

	// Ops
	mux.HandleFunc("GET /healthz", c.Health.Healthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var h http.Handler = mux
	h = middleware.Metrics(cfg.Metrics, h)
	h = middleware.Recovery(cfg.Logger, h)
	h = middleware.LoggingMiddleware(cfg.Logger, h)
	return middleware.CORS(cfg.CORSOrigins, h)
}
