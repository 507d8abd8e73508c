package resource

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/whitepages/keystone/internal/platform/httpx"
)

// Handler manages domain and project endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers domain and project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/domains", func(r chi.Router) {
		r.Post("/", h.createDomain)
		r.Get("/{domainID}", h.getDomain)
		r.Get("/{domainID}/projects", h.listDomainProjects)
	})
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.createProject)
		r.Get("/{projectID}", h.getProject)
		r.Patch("/{projectID}", h.updateProject)
		r.Delete("/{projectID}", h.deleteProject)
		r.Get("/{projectID}/subtree", h.listSubtree)
		r.Get("/{projectID}/parents", h.listParents)
	})
}

type createDomainRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) createDomain(w http.ResponseWriter, r *http.Request) {
	var req createDomainRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	domain, err := h.service.CreateDomain(r.Context(), req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDomainView(domain))
}

func (h *Handler) getDomain(w http.ResponseWriter, r *http.Request) {
	domain, err := h.service.GetDomain(r.Context(), chi.URLParam(r, "domainID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDomainView(domain))
}

func (h *Handler) listDomainProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjectsInDomain(r.Context(), chi.URLParam(r, "domainID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"projects": toProjectViews(projects)})
}

type createProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	DomainID    string `json:"domain_id" validate:"required"`
	ParentID    string `json:"parent_id"`
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	project, err := h.service.CreateProject(r.Context(), Project{
		Name:        req.Name,
		Description: req.Description,
		DomainID:    req.DomainID,
		ParentID:    req.ParentID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toProjectView(project))
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProjectView(project))
}

type updateProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	Enabled     *bool  `json:"enabled"`
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	project, err := h.service.UpdateProject(r.Context(), Project{
		ID:          chi.URLParam(r, "projectID"),
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		Enabled:     enabled,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProjectView(project))
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSubtree(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListSubtree(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"projects": toProjectViews(projects)})
}

func (h *Handler) listParents(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListAncestors(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"projects": toProjectViews(projects)})
}

type projectView struct {
	ID          string `json:"id"`
	DomainID    string `json:"domain_id"`
	ParentID    string `json:"parent_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

type domainView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

func toProjectView(p Project) projectView {
	return projectView{ID: p.ID, DomainID: p.DomainID, ParentID: p.ParentID, Name: p.Name, Description: p.Description, Enabled: p.Enabled}
}

func toProjectViews(projects []Project) []projectView {
	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, toProjectView(p))
	}
	return views
}

func toDomainView(d Domain) domainView {
	return domainView{ID: d.ID, Name: d.Name, Description: d.Description, Enabled: d.Enabled}
}
