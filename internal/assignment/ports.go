package assignment

import (
	"context"

	"github.com/whitepages/keystone/internal/identity"
	"github.com/whitepages/keystone/internal/resource"
	"github.com/whitepages/keystone/internal/roles"
)

// HierarchyPort is the slice of the resource layer the resolver needs to
// walk project trees and enrich assignments with names.
type HierarchyPort interface {
	GetProject(ctx context.Context, id string) (resource.Project, error)
	GetDomain(ctx context.Context, id string) (resource.Domain, error)
	ListAncestors(ctx context.Context, projectID string) ([]resource.Project, error)
	ListSubtree(ctx context.Context, projectID string) ([]resource.Project, error)
	ListProjectsInDomain(ctx context.Context, domainID string) ([]resource.Project, error)
	ListProjectsByIDs(ctx context.Context, ids []string) ([]resource.Project, error)
	ListDomainsByIDs(ctx context.Context, ids []string) ([]resource.Domain, error)
}

// IdentityPort is the slice of the identity layer used for group expansion
// and name enrichment.
type IdentityPort interface {
	GetUser(ctx context.Context, id string) (identity.User, error)
	GetGroup(ctx context.Context, id string) (identity.Group, error)
	ListUsersInGroup(ctx context.Context, groupID string) ([]identity.User, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]identity.Group, error)
}

// RolesPort is the slice of the role layer used for implied-role expansion
// and name enrichment.
type RolesPort interface {
	GetRole(ctx context.Context, id string) (roles.Role, error)
	ListRolesByIDs(ctx context.Context, ids []string) ([]roles.Role, error)
	ListImplied(ctx context.Context, priorRoleID string) ([]roles.ImpliedRole, error)
}
