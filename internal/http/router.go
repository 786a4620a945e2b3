package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/tally/internal/http/actions"
	"github.com/MrJamesThe3rd/tally/internal/http/auth"
	"github.com/MrJamesThe3rd/tally/internal/http/export"
	"github.com/MrJamesThe3rd/tally/internal/http/importcsv"
	"github.com/MrJamesThe3rd/tally/internal/http/matching"
	"github.com/MrJamesThe3rd/tally/internal/http/rules"
	"github.com/MrJamesThe3rd/tally/internal/http/transaction"
)

type Options struct {
	AllowedOrigins []string
	// JWTSecret enables bearer authentication on /api/v1 when set.
	JWTSecret string
}

type Handlers struct {
	Ledger  *transaction.Handler
	Import  *importcsv.Handler
	Search  *matching.Handler
	Actions *actions.Handler
	Rules   *rules.Handler
	Export  *export.Handler
}

func New(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(auth.Middleware([]byte(opts.JWTSecret)))
		} else {
			slog.Warn("JWT_SECRET not set, the API is unauthenticated")
		}

		r.Route("/ledger", func(r chi.Router) {
			r.Route("/import", h.Import.Routes)
			h.Ledger.Routes(r)
		})

		r.Route("/search", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Search.Routes(r)
		})

		r.Route("/actions", h.Actions.Routes)

		r.Route("/rules", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Rules.Routes(r)
		})

		r.Route("/export", h.Export.Routes)
	})

	return router
}
