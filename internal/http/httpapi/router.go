package httpapi

import (
	"net/http"
	"time"

	"server/internal/http/handlers"
	"server/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Options carries the router's cross-cutting knobs.
type Options struct {
	AllowedOrigins  []string
	DefaultLanguage string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.Language(opts.DefaultLanguage, opts.CountryLookup),
		middleware.OptionalAuth(app.JWTSecret),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/signup", app.Signup)
		r.Post("/login", app.Login)
		r.Post("/logout", app.Logout)
	})

	r.Get("/v1/me", app.Me)
	r.Get("/v1/plans", app.Plans)
	r.Post("/v1/plans/{tier}/upgrade", app.PlanUpgrade)
	r.Get("/v1/languages", app.Languages)

	r.Route("/v1/uploads", func(r chi.Router) {
		r.Post("/", app.UploadsCreate)
		r.Delete("/", app.UploadsDelete)
	})

	r.Route("/v1/transcriptions", func(r chi.Router) {
		r.Post("/", app.TranscriptionsCreate)
		r.Get("/{id}", app.TranscriptionsGet)
		r.Delete("/{id}", app.TranscriptionsCancel)
		r.Get("/{id}/events", app.TranscriptionsEvents)
		r.Get("/{id}/export/bundle", app.TranscriptionsExportBundle)
		r.Get("/{id}/export/{format}", app.TranscriptionsExport)
	})

	return r
}
