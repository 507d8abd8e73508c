package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/whitepages/keystone/internal/platform/httpx"
)

// Handler manages role and implication endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Get("/", h.listRoles)
		r.Post("/", h.createRole)
		r.Get("/{roleID}", h.getRole)
		r.Delete("/{roleID}", h.deleteRole)
		r.Get("/{roleID}/implies", h.listImplied)
		r.Put("/{roleID}/implies/{impliedRoleID}", h.createImplication)
		r.Delete("/{roleID}/implies/{impliedRoleID}", h.deleteImplication)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRoles(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]roleView, 0, len(list))
	for _, role := range list {
		views = append(views, toRoleView(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": views})
}

type createRoleRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRoleView(role))
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleView(role))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listImplied(w http.ResponseWriter, r *http.Request) {
	edges, err := h.service.ListImplied(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	implied := make([]string, 0, len(edges))
	for _, e := range edges {
		implied = append(implied, e.ImpliedRoleID)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"prior_role_id": chi.URLParam(r, "roleID"),
		"implies":       implied,
	})
}

func (h *Handler) createImplication(w http.ResponseWriter, r *http.Request) {
	err := h.service.CreateImplication(r.Context(), chi.URLParam(r, "roleID"), chi.URLParam(r, "impliedRoleID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) deleteImplication(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteImplication(r.Context(), chi.URLParam(r, "roleID"), chi.URLParam(r, "impliedRoleID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type roleView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func toRoleView(role Role) roleView {
	return roleView{ID: role.ID, Name: role.Name, Description: role.Description}
}
