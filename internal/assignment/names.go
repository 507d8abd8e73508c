package assignment

import (
	"context"

	"github.com/whitepages/keystone/internal/resource"
)

// NamedAssignment is a resolved assignment enriched with the display names
// of every entity it references.
type NamedAssignment struct {
	ResolvedAssignment

	UserName       string `json:"user_name,omitempty"`
	UserDomainID   string `json:"user_domain_id,omitempty"`
	UserDomainName string `json:"user_domain_name,omitempty"`

	GroupName       string `json:"group_name,omitempty"`
	GroupDomainID   string `json:"group_domain_id,omitempty"`
	GroupDomainName string `json:"group_domain_name,omitempty"`

	ProjectName       string `json:"project_name,omitempty"`
	ProjectDomainID   string `json:"project_domain_id,omitempty"`
	ProjectDomainName string `json:"project_domain_name,omitempty"`

	DomainName string `json:"domain_name,omitempty"`
	RoleName   string `json:"role_name,omitempty"`
}

// namer resolves entity names for assignment listings. Domain lookups are
// memoized for the duration of one listing since every referenced entity
// pulls in its owning domain.
type namer struct {
	projects HierarchyPort
	users    IdentityPort
	roles    RolesPort

	domains map[string]resource.Domain
}

func newNamer(projects HierarchyPort, users IdentityPort, roles RolesPort) *namer {
	return &namer{
		projects: projects,
		users:    users,
		roles:    roles,
		domains:  make(map[string]resource.Domain),
	}
}

func (n *namer) domain(ctx context.Context, id string) (resource.Domain, error) {
	if d, ok := n.domains[id]; ok {
		return d, nil
	}
	d, err := n.projects.GetDomain(ctx, id)
	if err != nil {
		return resource.Domain{}, err
	}
	n.domains[id] = d
	return d, nil
}

func (n *namer) enrich(ctx context.Context, refs []ResolvedAssignment) ([]NamedAssignment, error) {
	out := make([]NamedAssignment, 0, len(refs))
	for _, ref := range refs {
		named := NamedAssignment{ResolvedAssignment: ref}

		if ref.UserID != "" {
			user, err := n.users.GetUser(ctx, ref.UserID)
			if err != nil {
				return nil, err
			}
			named.UserName = user.Name
			named.UserDomainID = user.DomainID
			userDomain, err := n.domain(ctx, user.DomainID)
			if err != nil {
				return nil, err
			}
			named.UserDomainName = userDomain.Name
		}
		if ref.GroupID != "" {
			group, err := n.users.GetGroup(ctx, ref.GroupID)
			if err != nil {
				return nil, err
			}
			named.GroupName = group.Name
			named.GroupDomainID = group.DomainID
			groupDomain, err := n.domain(ctx, group.DomainID)
			if err != nil {
				return nil, err
			}
			named.GroupDomainName = groupDomain.Name
		}
		if ref.ProjectID != "" {
			project, err := n.projects.GetProject(ctx, ref.ProjectID)
			if err != nil {
				return nil, err
			}
			named.ProjectName = project.Name
			named.ProjectDomainID = project.DomainID
			projectDomain, err := n.domain(ctx, project.DomainID)
			if err != nil {
				return nil, err
			}
			named.ProjectDomainName = projectDomain.Name
		}
		if ref.DomainID != "" {
			domain, err := n.domain(ctx, ref.DomainID)
			if err != nil {
				return nil, err
			}
			named.DomainName = domain.Name
		}
		if ref.RoleID != "" {
			role, err := n.roles.GetRole(ctx, ref.RoleID)
			if err != nil {
				return nil, err
			}
			named.RoleName = role.Name
		}

		out = append(out, named)
	}
	return out, nil
}
