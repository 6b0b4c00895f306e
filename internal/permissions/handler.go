package permissions

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/platform/httpx"
)

// Requirer guards routes with a permission check. The gateway middleware
// implements it.
type Requirer interface {
	Require(resource authz.Resource, action authz.Action) func(http.Handler) http.Handler
}

// Handler exposes the administrative grant CRUD surface.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    Requirer
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Requirer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers the admin permission routes. Managing grants is
// itself a users-resource operation.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceUsers, authz.ActionRead))
		r.Get("/users/{userID}/permissions", h.listForUser)
		r.Get("/companies/{companyID}/permissions", h.listForCompany)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceUsers, authz.ActionWrite))
		r.Put("/users/{userID}/permissions/{companyID}", h.setGrant)
		r.Delete("/users/{userID}/permissions/{companyID}", h.removeGrant)
		r.Post("/permissions/bulk", h.bulkSetGrants)
	})
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request) {
	grants, err := h.service.ListGrantsForUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.Error("list grants failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"grants": grants})
}

func (h *Handler) listForCompany(w http.ResponseWriter, r *http.Request) {
	grants, err := h.service.ListUsersForCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.logger.Error("list company grants failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"grants": grants})
}

type setGrantRequest struct {
	Permissions json.RawMessage `json:"permissions" validate:"required"`
}

func (h *Handler) setGrant(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	companyID := chi.URLParam(r, "companyID")

	var req setGrantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permissions object required")
		return
	}
	matrix, err := authz.ParseMatrixJSON(req.Permissions)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetGrant(r.Context(), userID, companyID, matrix); err != nil {
		h.logger.Error("set grant failed", slog.String("user_id", userID), slog.String("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) removeGrant(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	companyID := chi.URLParam(r, "companyID")
	if err := h.service.RemoveGrant(r.Context(), userID, companyID); err != nil {
		h.logger.Error("remove grant failed", slog.String("user_id", userID), slog.String("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

type bulkAssignment struct {
	UserID      string          `json:"userId" validate:"required"`
	CompanyID   string          `json:"companyId" validate:"required"`
	Permissions json.RawMessage `json:"permissions" validate:"required"`
}

type bulkSetRequest struct {
	Assignments []bulkAssignment `json:"assignments" validate:"required,min=1,dive"`
}

func (h *Handler) bulkSetGrants(w http.ResponseWriter, r *http.Request) {
	var req bulkSetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "assignments require userId, companyId and permissions")
		return
	}

	assignments := make([]Assignment, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		matrix, err := authz.ParseMatrixJSON(a.Permissions)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		assignments = append(assignments, Assignment{UserID: a.UserID, CompanyID: a.CompanyID, Matrix: matrix})
	}

	result, err := h.service.BulkSetGrants(r.Context(), assignments)
	if err != nil {
		h.logger.Error("bulk set grants failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
