package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/whitepages/keystone/internal/assignment"
	"github.com/whitepages/keystone/internal/identity"
	"github.com/whitepages/keystone/internal/observability"
	"github.com/whitepages/keystone/internal/resource"
	"github.com/whitepages/keystone/internal/roles"
	"github.com/whitepages/keystone/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AssignmentHandler *assignment.Handler
	ResourceHandler   *resource.Handler
	IdentityHandler   *identity.Handler
	RolesHandler      *roles.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Keystone defaults.
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

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/v3", func(r chi.Router) {
		if params.ResourceHandler != nil {
			params.ResourceHandler.MountRoutes(r)
		}
		if params.IdentityHandler != nil {
			params.IdentityHandler.MountRoutes(r)
		}
		if params.RolesHandler != nil {
			params.RolesHandler.MountRoutes(r)
		}
		// Grant routes hang off the project, domain, user and group trees,
		// so they must be registered after those prefixes exist.
		if params.AssignmentHandler != nil {
			params.AssignmentHandler.MountRoutes(r)
		}
	})

	return r
}
