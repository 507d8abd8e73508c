package assignment

import (
	"context"

	"github.com/whitepages/keystone/internal/resource"
)

// expandOptions carry the caller's filters down into indirect expansion.
// A non-empty subtreeIDs signals that inherited assignments must be spread
// over the requested subtree rather than pinned to the single projectID.
type expandOptions struct {
	userID       string
	projectID    string
	subtreeIDs   []string
	expandGroups bool
}

// indirectExpander turns a single raw assignment into the resolved
// assignments it stands for: group grants become one entry per member and
// inherited grants are applied to the projects below the grant point. The
// origin of each produced entry is recorded in its Indirect block.
type indirectExpander struct {
	projects HierarchyPort
	users    IdentityPort
}

func (e *indirectExpander) expand(ctx context.Context, raw Assignment, opt expandOptions) ([]ResolvedAssignment, error) {
	ref := resolvedFromRaw(raw)
	switch {
	case ref.Inherited:
		return e.expandInherited(ctx, ref, opt)
	case ref.GroupID != "" && opt.expandGroups:
		return e.expandGroup(ctx, ref, opt.userID)
	default:
		return []ResolvedAssignment{ref}, nil
	}
}

// expandGroup replaces a group grant with one assignment per group member,
// keeping the group in the Indirect block. When the caller filters by a
// user, membership is already implied by the query that fetched the grant,
// so the lookup is skipped.
func (e *indirectExpander) expandGroup(ctx context.Context, ref ResolvedAssignment, userID string) ([]ResolvedAssignment, error) {
	if userID != "" {
		return []ResolvedAssignment{groupMemberAssignment(ref, userID)}, nil
	}
	members, err := e.users.ListUsersInGroup(ctx, ref.GroupID)
	if err != nil {
		return nil, err
	}
	out := make([]ResolvedAssignment, 0, len(members))
	for _, m := range members {
		out = append(out, groupMemberAssignment(ref, m.ID))
	}
	return out, nil
}

func groupMemberAssignment(ref ResolvedAssignment, userID string) ResolvedAssignment {
	out := ref
	out.UserID = userID
	out.GroupID = ""
	out.Indirect.GroupID = ref.GroupID
	return out
}

// expandInherited applies an inherited grant to the projects below its
// grant point. Domain grants cover every project in the domain; project
// grants cover the grant point's subtree. When the caller filters by
// project the expansion is restricted to the project(s) of interest,
// except that a grant point sitting inside the requested subtree spreads
// over its own full subtree.
func (e *indirectExpander) expandInherited(ctx context.Context, ref ResolvedAssignment, opt expandOptions) ([]ResolvedAssignment, error) {
	var targetIDs []string
	switch {
	case opt.projectID != "":
		targetIDs = []string{opt.projectID}
		if len(opt.subtreeIDs) > 0 {
			targetIDs = append(targetIDs, opt.subtreeIDs...)
			if ref.ProjectID != "" && containsID(targetIDs, ref.ProjectID) {
				subtree, err := e.projects.ListSubtree(ctx, ref.ProjectID)
				if err != nil {
					return nil, err
				}
				targetIDs = projectIDs(subtree)
			}
		}
	case ref.DomainID != "":
		projects, err := e.projects.ListProjectsInDomain(ctx, ref.DomainID)
		if err != nil {
			return nil, err
		}
		targetIDs = projectIDs(projects)
	default:
		subtree, err := e.projects.ListSubtree(ctx, ref.ProjectID)
		if err != nil {
			return nil, err
		}
		targetIDs = projectIDs(subtree)
	}

	var bases []ResolvedAssignment
	if ref.GroupID != "" && opt.expandGroups {
		var err error
		bases, err = e.expandGroup(ctx, ref, opt.userID)
		if err != nil {
			return nil, err
		}
	} else {
		bases = []ResolvedAssignment{ref}
	}

	out := make([]ResolvedAssignment, 0, len(bases)*len(targetIDs))
	for _, base := range bases {
		for _, id := range targetIDs {
			out = append(out, inheritedTargetAssignment(base, id))
		}
	}
	return out, nil
}

func inheritedTargetAssignment(ref ResolvedAssignment, projectID string) ResolvedAssignment {
	out := ref
	if ref.ProjectID != "" {
		out.Indirect.ProjectID = ref.ProjectID
	} else {
		out.Indirect.DomainID = ref.DomainID
		out.DomainID = ""
	}
	out.ProjectID = projectID
	out.Inherited = false
	return out
}

func projectIDs(projects []resource.Project) []string {
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
