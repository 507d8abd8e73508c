package identity

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/whitepages/keystone/internal/platform/httpx"
)

// Handler manages user and group endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers user and group routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/{userID}", h.getUser)
		r.Delete("/{userID}", h.deleteUser)
		r.Get("/{userID}/groups", h.listUserGroups)
	})
	r.Route("/groups", func(r chi.Router) {
		r.Post("/", h.createGroup)
		r.Get("/{groupID}", h.getGroup)
		r.Delete("/{groupID}", h.deleteGroup)
		r.Get("/{groupID}/users", h.listGroupUsers)
		r.Put("/{groupID}/users/{userID}", h.addUserToGroup)
		r.Delete("/{groupID}/users/{userID}", h.removeUserFromGroup)
		r.Head("/{groupID}/users/{userID}", h.checkUserInGroup)
	})
}

type createUserRequest struct {
	DomainID string `json:"domain_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.CreateUser(r.Context(), req.DomainID, req.Name, req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toUserView(user))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserView(user))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUserGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroupsForUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, toGroupView(g))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"groups": views})
}

type createGroupRequest struct {
	DomainID    string `json:"domain_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	group, err := h.service.CreateGroup(r.Context(), req.DomainID, req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toGroupView(group))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.service.GetGroup(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGroupView(group))
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGroup(r.Context(), chi.URLParam(r, "groupID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listGroupUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsersInGroup(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": views})
}

func (h *Handler) addUserToGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.service.AddUserToGroup(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "groupID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeUserFromGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveUserFromGroup(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "groupID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkUserInGroup(w http.ResponseWriter, r *http.Request) {
	ok, err := h.service.CheckUserInGroup(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "groupID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type userView struct {
	ID       string `json:"id"`
	DomainID string `json:"domain_id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Enabled  bool   `json:"enabled"`
}

type groupView struct {
	ID          string `json:"id"`
	DomainID    string `json:"domain_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func toUserView(u User) userView {
	return userView{ID: u.ID, DomainID: u.DomainID, Name: u.Name, Email: u.Email, Enabled: u.Enabled}
}

func toGroupView(g Group) groupView {
	return groupView{ID: g.ID, DomainID: g.DomainID, Name: g.Name, Description: g.Description}
}
