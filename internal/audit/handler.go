package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/platform/httpx"
)

// Requirer guards routes with a permission check.
type Requirer interface {
	Require(resource authz.Resource, action authz.Action) func(http.Handler) http.Handler
}

// Handler exposes the audit trail JSON API. The trail records grant changes,
// so reading it requires the users read permission.
type Handler struct {
	logger *slog.Logger
	repo   Repository
	guard  Requirer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo Repository, guard Requirer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, repo: repo, guard: guard}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceUsers, authz.ActionRead))
		r.Get("/", h.list)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := Filter{
		UserID:    r.URL.Query().Get("userId"),
		CompanyID: r.URL.Query().Get("companyId"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be an integer")
			return
		}
		filter.Limit = limit
	}
	entries, err := h.repo.ListEntries(r.Context(), filter)
	if err != nil {
		h.logger.Error("list audit entries failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}
