package investors

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

// Handler exposes the investor share JSON API. Share rows drive the derived
// company access of investor accounts, so writes sit behind the companies
// write permission.
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

// MountRoutes registers investor share routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceCompanies, authz.ActionRead))
		r.Get("/companies/{companyID}/shares", h.listForCompany)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceCompanies, authz.ActionWrite))
		r.Post("/shares", h.createShare)
		r.Delete("/shares/{id}", h.deleteShare)
	})
}

func (h *Handler) listForCompany(w http.ResponseWriter, r *http.Request) {
	shares, err := h.service.ListSharesForCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.logger.Error("list shares failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"shares": shares})
}

func (h *Handler) createShare(w http.ResponseWriter, r *http.Request) {
	var share Share
	if err := httpx.DecodeJSON(r, &share); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	created, err := h.service.CreateShare(r.Context(), share)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) deleteShare(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteShare(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}
