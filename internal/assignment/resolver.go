package assignment

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/whitepages/keystone/internal/observability"
	"github.com/whitepages/keystone/internal/shared"
)

// Resolver answers role assignment listings. In direct mode it is a thin
// filter over the grant store; in effective mode it expands group grants
// into member assignments, spreads inherited grants over project subtrees
// and closes the result over role inference rules.
type Resolver struct {
	driver   Driver
	projects HierarchyPort
	users    IdentityPort
	roles    RolesPort
	logger   *slog.Logger
	metrics  *observability.Metrics

	indirect *indirectExpander
	implied  *impliedExpander

	inheritanceEnabled bool
}

// ResolverConfig wires the resolver's collaborators.
type ResolverConfig struct {
	Driver   Driver
	Projects HierarchyPort
	Users    IdentityPort
	Roles    RolesPort
	Logger   *slog.Logger
	Metrics  *observability.Metrics

	// InferRoles enables implied-role expansion in effective mode.
	InferRoles bool
	// InheritanceEnabled enables inherited assignments; when off, inherited
	// grants are invisible to every listing.
	InheritanceEnabled bool
}

func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		driver:   cfg.Driver,
		projects: cfg.Projects,
		users:    cfg.Users,
		roles:    cfg.Roles,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		indirect: &indirectExpander{projects: cfg.Projects, users: cfg.Users},
		implied: &impliedExpander{
			roles:   cfg.Roles,
			logger:  cfg.Logger,
			enabled: cfg.InferRoles,
		},
		inheritanceEnabled: cfg.InheritanceEnabled,
	}
}

// ListRoleAssignments lists assignments matching the query. With
// Query.Effective set, group and inherited grants are expanded and the
// result reflects what actually lands in a token; otherwise raw grants are
// returned as stored.
func (r *Resolver) ListRoleAssignments(ctx context.Context, q Query) ([]ResolvedAssignment, error) {
	if !r.inheritanceEnabled {
		if q.Inherited != nil && *q.Inherited {
			return []ResolvedAssignment{}, nil
		}
		inherited := false
		q.Inherited = &inherited
	}

	var subtreeIDs []string
	if q.ProjectID != "" && q.IncludeSubtree {
		subtree, err := r.projects.ListSubtree(ctx, q.ProjectID)
		if err != nil {
			return nil, err
		}
		subtreeIDs = projectIDs(subtree)
	}

	var (
		refs []ResolvedAssignment
		err  error
		mode = "direct"
	)
	if q.Effective {
		mode = "effective"
		refs, err = r.listEffective(ctx, q, subtreeIDs)
	} else {
		refs, err = r.listDirect(ctx, q, subtreeIDs)
	}
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []ResolvedAssignment{}
	}
	if r.metrics != nil {
		r.metrics.ObserveResolution(mode, len(refs))
	}
	return refs, nil
}

// listDirect returns stored grants matching every filter, without any
// expansion.
func (r *Resolver) listDirect(ctx context.Context, q Query, subtreeIDs []string) ([]ResolvedAssignment, error) {
	f := Filter{
		RoleID:    q.RoleID,
		UserID:    q.UserID,
		DomainID:  q.DomainID,
		Inherited: q.Inherited,
	}
	if q.GroupID != "" {
		f.GroupIDs = []string{q.GroupID}
	}
	if q.ProjectID != "" {
		f.ProjectIDs = append([]string{q.ProjectID}, subtreeIDs...)
	}
	raw, err := r.driver.ListRoleAssignments(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]ResolvedAssignment, 0, len(raw))
	for _, a := range raw {
		out = append(out, resolvedFromRaw(a))
	}
	return out, nil
}

func (r *Resolver) listEffective(ctx context.Context, q Query, subtreeIDs []string) ([]ResolvedAssignment, error) {
	// Group grants are expanded into user assignments and domains never
	// receive inherited assignments, so either filter guarantees an empty
	// result.
	if q.GroupID != "" || (q.DomainID != "" && q.Inherited != nil && *q.Inherited) {
		return []ResolvedAssignment{}, nil
	}

	// SourceFromGroupIDs restricts which grants are considered before
	// expansion; combining it with a user filter is a coding error in the
	// caller, not bad input.
	if q.UserID != "" && len(q.SourceFromGroupIDs) > 0 {
		return nil, shared.NewUnexpected("cannot list assignments sourced from groups and filtered by user ID")
	}

	// Domains cannot inherit assignments, so a domain filter only ever
	// matches non-inherited grants.
	inherited := q.Inherited
	if q.DomainID != "" {
		f := false
		inherited = &f
	}

	// The role filter is applied after implied-role expansion; asking the
	// driver for just one role would hide the prior roles that imply it.
	// Grants held directly and grants held through group membership come
	// from independent queries, so they are fetched concurrently.
	var directRefs, groupRefs []Assignment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		directRefs, err = r.listForActor(gctx, actorQuery{
			userID:     q.UserID,
			groupIDs:   q.SourceFromGroupIDs,
			domainID:   q.DomainID,
			projectID:  q.ProjectID,
			subtreeIDs: subtreeIDs,
			inherited:  inherited,
		})
		return err
	})
	if len(q.SourceFromGroupIDs) == 0 && q.UserID != "" {
		g.Go(func() error {
			groups, err := r.users.ListGroupsForUser(gctx, q.UserID)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				return nil
			}
			groupIDs := make([]string, 0, len(groups))
			for _, grp := range groups {
				groupIDs = append(groupIDs, grp.ID)
			}
			groupRefs, err = r.listForActor(gctx, actorQuery{
				groupIDs:   groupIDs,
				domainID:   q.DomainID,
				projectID:  q.ProjectID,
				subtreeIDs: subtreeIDs,
				inherited:  inherited,
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opt := expandOptions{
		userID:       q.UserID,
		projectID:    q.ProjectID,
		subtreeIDs:   subtreeIDs,
		expandGroups: len(q.SourceFromGroupIDs) == 0,
	}
	var refs []ResolvedAssignment
	for _, raw := range append(directRefs, groupRefs...) {
		expanded, err := r.indirect.expand(ctx, raw, opt)
		if err != nil {
			return nil, err
		}
		refs = append(refs, expanded...)
	}

	refs, err := r.implied.expand(ctx, refs)
	if err != nil {
		return nil, err
	}
	if q.RoleID != "" {
		refs = filterByRoleID(q.RoleID, refs)
	}
	return refs, nil
}

// actorQuery describes one actor-centric driver listing: which actor, which
// targets could affect the result, and whether inherited grants are wanted.
// A nil inherited asks for both kinds.
type actorQuery struct {
	userID     string
	groupIDs   []string
	domainID   string
	projectID  string
	subtreeIDs []string
	inherited  *bool
}

// listForActor fetches the raw grants that could affect the queried actor
// and targets. Non-inherited grants are matched against the project(s) of
// interest directly. Inherited grants can only originate from the project's
// domain or from projects in the same tree, so those are queried instead of
// scanning every inherited grant.
func (r *Resolver) listForActor(ctx context.Context, aq actorQuery) ([]Assignment, error) {
	var projectIDsOfInterest []string
	if aq.projectID != "" {
		projectIDsOfInterest = append([]string{aq.projectID}, aq.subtreeIDs...)
	}

	wantDirect := aq.inherited == nil || !*aq.inherited
	wantInherited := aq.inherited == nil || *aq.inherited

	var refs []Assignment
	if wantDirect {
		f := false
		direct, err := r.driver.ListRoleAssignments(ctx, Filter{
			UserID:     aq.userID,
			GroupIDs:   aq.groupIDs,
			DomainID:   aq.domainID,
			ProjectIDs: projectIDsOfInterest,
			Inherited:  &f,
		})
		if err != nil {
			return nil, err
		}
		refs = append(refs, direct...)
	}

	if wantInherited {
		t := true
		if aq.projectID != "" {
			// The project and its subtree share one domain, so inherited
			// grants can only come from that domain or from parents of the
			// project (or, with a subtree listing, the subtree itself).
			project, err := r.projects.GetProject(ctx, aq.projectID)
			if err != nil {
				return nil, err
			}
			fromDomain, err := r.driver.ListRoleAssignments(ctx, Filter{
				UserID:    aq.userID,
				GroupIDs:  aq.groupIDs,
				DomainID:  project.DomainID,
				Inherited: &t,
			})
			if err != nil {
				return nil, err
			}
			refs = append(refs, fromDomain...)

			parents, err := r.projects.ListAncestors(ctx, aq.projectID)
			if err != nil {
				return nil, err
			}
			sourceIDs := projectIDs(parents)
			if len(aq.subtreeIDs) > 0 {
				sourceIDs = append(sourceIDs, projectIDsOfInterest...)
			}
			if len(sourceIDs) > 0 {
				fromParents, err := r.driver.ListRoleAssignments(ctx, Filter{
					UserID:     aq.userID,
					GroupIDs:   aq.groupIDs,
					ProjectIDs: sourceIDs,
					Inherited:  &t,
				})
				if err != nil {
					return nil, err
				}
				refs = append(refs, fromParents...)
			}
		} else {
			inheritedRefs, err := r.driver.ListRoleAssignments(ctx, Filter{
				UserID:    aq.userID,
				GroupIDs:  aq.groupIDs,
				Inherited: &t,
			})
			if err != nil {
				return nil, err
			}
			refs = append(refs, inheritedRefs...)
		}
	}
	return refs, nil
}

func filterByRoleID(roleID string, refs []ResolvedAssignment) []ResolvedAssignment {
	out := make([]ResolvedAssignment, 0, len(refs))
	for _, ref := range refs {
		if ref.RoleID == roleID {
			out = append(out, ref)
		}
	}
	return out
}
