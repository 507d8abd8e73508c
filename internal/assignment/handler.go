package assignment

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/whitepages/keystone/internal/platform/httpx"
	"github.com/whitepages/keystone/internal/roles"
)

// Handler exposes assignment listings and grant management.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the assignment listing and the grant routes for
// every actor and target combination.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/role_assignments", h.listAssignments)

	for _, target := range []grantSegment{
		{segment: "projects", param: "projectID"},
		{segment: "domains", param: "domainID"},
	} {
		for _, actor := range []grantSegment{
			{segment: "users", param: "userID"},
			{segment: "groups", param: "groupID"},
		} {
			base := "/" + target.segment + "/{" + target.param + "}/" + actor.segment + "/{" + actor.param + "}/roles"
			r.Get(base, h.listGrantRoles(target, actor))
			r.Put(base+"/{roleID}", h.createGrant(target, actor))
			r.Head(base+"/{roleID}", h.checkGrant(target, actor))
			r.Delete(base+"/{roleID}", h.deleteGrant(target, actor))
		}
	}
}

type grantSegment struct {
	segment string
	param   string
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := Query{
		RoleID:    qs.Get("role_id"),
		UserID:    qs.Get("user_id"),
		GroupID:   qs.Get("group_id"),
		DomainID:  qs.Get("domain_id"),
		ProjectID: qs.Get("project_id"),
	}

	for name, dest := range map[string]*bool{
		"effective":       &q.Effective,
		"include_subtree": &q.IncludeSubtree,
		"include_names":   &q.IncludeNames,
	} {
		if v := qs.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Invalid Query", name+" must be a boolean")
				return
			}
			*dest = b
		}
	}
	if v := qs.Get("inherited"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "inherited must be a boolean")
			return
		}
		q.Inherited = &b
	}
	switch {
	case q.IncludeSubtree && q.ProjectID == "":
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "include_subtree requires project_id")
		return
	case q.DomainID != "" && q.ProjectID != "":
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "domain_id and project_id are mutually exclusive")
		return
	case q.UserID != "" && q.GroupID != "":
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "user_id and group_id are mutually exclusive")
		return
	case q.Effective && q.GroupID != "":
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "group_id cannot be combined with effective")
		return
	case q.Effective && q.DomainID != "" && q.Inherited != nil && *q.Inherited:
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "inherited domain assignments have no effective form")
		return
	}

	if q.IncludeNames {
		named, err := h.service.ListNamedRoleAssignments(r.Context(), q)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"role_assignments": named})
		return
	}
	refs, err := h.service.ListRoleAssignments(r.Context(), q)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_assignments": refs})
}

// grantFromRequest rebuilds the assignment named by the grant route. The
// inherited query parameter selects between a direct grant and one that
// applies to the target's descendants.
func grantFromRequest(r *http.Request, target, actor grantSegment, withRole bool) (Assignment, error) {
	a := Assignment{}
	switch target.segment {
	case "projects":
		a.ProjectID = chi.URLParam(r, target.param)
	case "domains":
		a.DomainID = chi.URLParam(r, target.param)
	}
	switch actor.segment {
	case "users":
		a.UserID = chi.URLParam(r, actor.param)
	case "groups":
		a.GroupID = chi.URLParam(r, actor.param)
	}
	if withRole {
		a.RoleID = chi.URLParam(r, "roleID")
	}
	if v := r.URL.Query().Get("inherited"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Assignment{}, err
		}
		a.Inherited = b
	}
	return a, nil
}

func (h *Handler) createGrant(target, actor grantSegment) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := grantFromRequest(r, target, actor, true)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "inherited must be a boolean")
			return
		}
		if err := h.service.CreateGrant(r.Context(), a); err != nil {
			httpx.RespondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) deleteGrant(target, actor grantSegment) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := grantFromRequest(r, target, actor, true)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "inherited must be a boolean")
			return
		}
		if err := h.service.DeleteGrant(r.Context(), a); err != nil {
			httpx.RespondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) checkGrant(target, actor grantSegment) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := grantFromRequest(r, target, actor, true)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "inherited must be a boolean")
			return
		}
		if err := h.service.CheckGrant(r.Context(), a); err != nil {
			httpx.RespondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) listGrantRoles(target, actor grantSegment) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := grantFromRequest(r, target, actor, false)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "inherited must be a boolean")
			return
		}
		granted, err := h.service.ListGrantRoles(r.Context(), a)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		views := make([]grantRoleView, 0, len(granted))
		for _, role := range granted {
			views = append(views, toGrantRoleView(role))
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"roles": views})
	}
}

type grantRoleView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func toGrantRoleView(role roles.Role) grantRoleView {
	return grantRoleView{ID: role.ID, Name: role.Name, Description: role.Description}
}
