package http

import (
	"context"
	"net/http"

	"github.com/fairdatause/qualify-api/internal/config"
	"github.com/fairdatause/qualify-api/internal/metrics"
	"github.com/fairdatause/qualify-api/internal/transport/http/handler"
	appmiddleware "github.com/fairdatause/qualify-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds background
// work such as rate-limiter cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Logging)
	r.Use(appmiddleware.Metrics(rec))
	r.Use(appmiddleware.Errors(cfg.IsDevelopment()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 per client on the write endpoints.
	writeRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	healthH := handler.NewHealthHandler(cfg.PingMessage)
	qualifyH := handler.NewQualifyHandler(deps.Qualify)
	currencyH := handler.NewCurrencyHandler(deps.Currency)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", healthH.Ping)
		r.Method(http.MethodGet, "/companies", handler.HandlerFunc(qualifyH.Companies))
		r.Method(http.MethodGet, "/currency", handler.HandlerFunc(currencyH.Get))

		r.Group(func(r chi.Router) {
			r.Use(writeRL.Limit)
			r.Method(http.MethodPost, "/check-user-exists", handler.HandlerFunc(qualifyH.CheckUserExists))
			r.Method(http.MethodPost, "/social-qualify-form", handler.HandlerFunc(qualifyH.Submit))
			r.Method(http.MethodPost, "/contractor-request", handler.HandlerFunc(qualifyH.RequestContractor))
		})

		if deps.Tokens != nil {
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.Auth(deps.Tokens))
				r.Use(appmiddleware.RequireRole("authenticated"))
				r.Method(http.MethodGet, "/me", handler.HandlerFunc(handler.Me))
			})
		}
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Not found"}`))
	})

	return r
}
