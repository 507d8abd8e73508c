package assignment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/whitepages/keystone/internal/shared"
)

// UserProject names one project-scoped token revocation.
type UserProject struct {
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id"`
}

// RevocationScope describes the tokens that must be revoked after a grant
// or role disappears. UserIDs lists users whose tokens are invalidated
// wholesale (their domain-level access changed); ProjectScoped lists
// narrower revocations for a single user on a single project.
type RevocationScope struct {
	UserIDs       []string      `json:"user_ids,omitempty"`
	ProjectScoped []UserProject `json:"project_scoped,omitempty"`
}

// IsEmpty reports whether the scope names nothing to revoke.
func (s RevocationScope) IsEmpty() bool {
	return len(s.UserIDs) == 0 && len(s.ProjectScoped) == 0
}

// revocationScopeForAssignments folds raw assignments into a revocation
// scope. Group grants are expanded into their membership; a group deleted
// concurrently is skipped since there is nobody left to revoke. Project
// pairs for users that are already invalidated wholesale are pruned.
func (s *Service) revocationScopeForAssignments(ctx context.Context, assignments []Assignment) (RevocationScope, error) {
	userIDs := make(map[string]struct{})
	var pairs []UserProject

	for _, a := range assignments {
		switch {
		case a.UserID != "" && a.ProjectID != "":
			pairs = append(pairs, UserProject{UserID: a.UserID, ProjectID: a.ProjectID})
		case a.UserID != "" && a.DomainID != "":
			userIDs[a.UserID] = struct{}{}
		case a.GroupID != "":
			members, err := s.users.ListUsersInGroup(ctx, a.GroupID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					s.logger.Debug("group not found during revocation, skipping",
						slog.String("group_id", a.GroupID))
					continue
				}
				return RevocationScope{}, err
			}
			for _, m := range members {
				if a.ProjectID != "" {
					pairs = append(pairs, UserProject{UserID: m.ID, ProjectID: a.ProjectID})
				} else {
					userIDs[m.ID] = struct{}{}
				}
			}
		}
	}

	scope := RevocationScope{}
	for id := range userIDs {
		scope.UserIDs = append(scope.UserIDs, id)
	}
	for _, p := range pairs {
		if _, done := userIDs[p.UserID]; done {
			continue
		}
		scope.ProjectScoped = append(scope.ProjectScoped, p)
	}
	return scope, nil
}

// RevocationScopeForRole computes the scope affected by removing every
// grant of the role.
func (s *Service) RevocationScopeForRole(ctx context.Context, roleID string) (RevocationScope, error) {
	assignments, err := s.driver.ListRoleAssignments(ctx, Filter{RoleID: roleID})
	if err != nil {
		return RevocationScope{}, err
	}
	return s.revocationScopeForAssignments(ctx, assignments)
}

// notifyRevocation hands the scope to the revocation pipeline. Failure to
// enqueue is logged, not surfaced: the grant mutation itself already
// succeeded.
func (s *Service) notifyRevocation(ctx context.Context, scope RevocationScope) {
	if s.notifier == nil || scope.IsEmpty() {
		return
	}
	if err := s.notifier.NotifyRevocation(ctx, scope); err != nil {
		s.logger.Warn("enqueue token revocation", slog.Any("error", err))
	}
}
