package companies

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/platform/httpx"
)

// Requirer guards routes with a permission check.
type Requirer interface {
	Require(resource authz.Resource, action authz.Action) func(http.Handler) http.Handler
}

// Handler exposes the company JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   Requirer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Requirer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceCompanies, authz.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceCompanies, authz.ActionWrite))
		r.Post("/", h.create)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListCompanies(r.Context())
	if err != nil {
		h.logger.Error("list companies failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	company, err := h.service.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var company Company
	if err := httpx.DecodeJSON(r, &company); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	created, err := h.service.CreateCompany(r.Context(), company)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}
