package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fleetrent/fleetrent/internal/audit"
	"github.com/fleetrent/fleetrent/internal/companies"
	"github.com/fleetrent/fleetrent/internal/customers"
	"github.com/fleetrent/fleetrent/internal/gateway"
	"github.com/fleetrent/fleetrent/internal/investors"
	"github.com/fleetrent/fleetrent/internal/observability"
	"github.com/fleetrent/fleetrent/internal/permissions"
	"github.com/fleetrent/fleetrent/internal/rentals"
	"github.com/fleetrent/fleetrent/internal/users"
	"github.com/fleetrent/fleetrent/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Gateway            *gateway.Middleware
	PermissionsHandler *permissions.Handler
	UsersHandler       *users.Handler
	CompaniesHandler   *companies.Handler
	InvestorsHandler   *investors.Handler
	CustomersHandler   *customers.Handler
	RentalsHandler     *rentals.Handler
	AuditHandler       *audit.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with FleetRent defaults.
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

	r.Route("/api", func(r chi.Router) {
		if params.Gateway != nil {
			r.Use(params.Gateway.Authenticate)
		}
		if params.PermissionsHandler != nil {
			params.PermissionsHandler.MountRoutes(r)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.CompaniesHandler != nil {
			r.Route("/companies", params.CompaniesHandler.MountRoutes)
		}
		if params.InvestorsHandler != nil {
			r.Route("/investors", params.InvestorsHandler.MountRoutes)
		}
		if params.CustomersHandler != nil {
			r.Route("/customers", params.CustomersHandler.MountRoutes)
		}
		if params.RentalsHandler != nil {
			r.Route("/rentals", params.RentalsHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
