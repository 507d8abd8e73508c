package assignment

import (
	"context"

	"github.com/whitepages/keystone/internal/shared"
)

// Driver is the current grant-store contract. Implementations persist raw
// assignments and answer filtered listings; they never expand groups,
// inheritance or implied roles.
type Driver interface {
	// ListRoleAssignments returns raw assignments matching the filter.
	ListRoleAssignments(ctx context.Context, f Filter) ([]Assignment, error)
	// CreateGrant stores a raw assignment. Storing an existing grant is a
	// no-op rather than a conflict.
	CreateGrant(ctx context.Context, a Assignment) error
	// DeleteGrant removes a raw assignment, failing with a NotFound error
	// when it does not exist.
	DeleteGrant(ctx context.Context, a Assignment) error
	// CheckGrant fails with a NotFound error when the grant is absent.
	CheckGrant(ctx context.Context, a Assignment) error
	// DeleteProjectAssignments removes every grant targeting the project.
	DeleteProjectAssignments(ctx context.Context, projectID string) error
	// DeleteDomainAssignments removes every grant targeting the domain.
	DeleteDomainAssignments(ctx context.Context, domainID string) error
	// DeleteRoleAssignments removes every grant of the role.
	DeleteRoleAssignments(ctx context.Context, roleID string) error
	// DeleteUserAssignments removes every grant held directly by the user.
	DeleteUserAssignments(ctx context.Context, userID string) error
	// DeleteGroupAssignments removes every grant held by the group.
	DeleteGroupAssignments(ctx context.Context, groupID string) error
}

// LegacyDriver is the older grant-store contract, still implemented by some
// backends: it can only enumerate every stored assignment and manage grants
// point-wise.
type LegacyDriver interface {
	ListAllRoleAssignments(ctx context.Context) ([]Assignment, error)
	CreateGrant(ctx context.Context, a Assignment) error
	DeleteGrant(ctx context.Context, a Assignment) error
	CheckGrant(ctx context.Context, a Assignment) error
}

// legacyAdapter upgrades a LegacyDriver to the current Driver interface.
// Filtered listing is emulated in memory; bulk deletion is a capability the
// old contract cannot provide and reports ErrNotSupported.
type legacyAdapter struct {
	legacy LegacyDriver
}

// NewLegacyAdapter wraps an old-contract driver.
func NewLegacyAdapter(legacy LegacyDriver) Driver {
	return &legacyAdapter{legacy: legacy}
}

func (d *legacyAdapter) ListRoleAssignments(ctx context.Context, f Filter) ([]Assignment, error) {
	all, err := d.legacy.ListAllRoleAssignments(ctx)
	if err != nil {
		return nil, err
	}
	var out []Assignment
	for _, a := range all {
		if matchesFilter(a, f) {
			out = append(out, a)
		}
	}
	return out, nil
}

func matchesFilter(a Assignment, f Filter) bool {
	if f.RoleID != "" && a.RoleID != f.RoleID {
		return false
	}
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if len(f.GroupIDs) > 0 {
		found := false
		for _, id := range f.GroupIDs {
			if a.GroupID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.DomainID != "" && a.DomainID != f.DomainID {
		return false
	}
	if len(f.ProjectIDs) > 0 {
		found := false
		for _, id := range f.ProjectIDs {
			if a.ProjectID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Inherited != nil && a.Inherited != *f.Inherited {
		return false
	}
	return true
}

func (d *legacyAdapter) CreateGrant(ctx context.Context, a Assignment) error {
	return d.legacy.CreateGrant(ctx, a)
}

func (d *legacyAdapter) DeleteGrant(ctx context.Context, a Assignment) error {
	return d.legacy.DeleteGrant(ctx, a)
}

func (d *legacyAdapter) CheckGrant(ctx context.Context, a Assignment) error {
	return d.legacy.CheckGrant(ctx, a)
}

func (d *legacyAdapter) DeleteProjectAssignments(ctx context.Context, projectID string) error {
	return shared.ErrNotSupported
}

func (d *legacyAdapter) DeleteDomainAssignments(ctx context.Context, domainID string) error {
	return shared.ErrNotSupported
}

func (d *legacyAdapter) DeleteRoleAssignments(ctx context.Context, roleID string) error {
	return shared.ErrNotSupported
}

func (d *legacyAdapter) DeleteUserAssignments(ctx context.Context, userID string) error {
	return shared.ErrNotSupported
}

func (d *legacyAdapter) DeleteGroupAssignments(ctx context.Context, groupID string) error {
	return shared.ErrNotSupported
}
