package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/roster-hq/roster/internal/access"
	"github.com/roster-hq/roster/internal/accounts"
	accountshttp "github.com/roster-hq/roster/internal/accounts/http"
	authhttp "github.com/roster-hq/roster/internal/auth/http"
	"github.com/roster-hq/roster/internal/observability"
)

// Requirements is the static operation → privilege table consulted when the
// routes are composed. Standard is the coarse default for every account
// operation; an entry in Overrides takes precedence for its operation.
func Requirements() access.Requirements {
	return access.Requirements{
		Default:   accounts.PrivilegeStandard,
		Overrides: map[string]accounts.Privilege{},
	}
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AuthHandler     *authhttp.Handler
	AccountsHandler *accountshttp.Handler
	Gate            access.Middleware
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Roster defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})

	r.Route("/accounts", func(r chi.Router) {
		params.AccountsHandler.MountRoutes(r, params.Gate, Requirements())
	})

	return r
}
