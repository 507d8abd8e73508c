package assignment

// Assignment is a raw grant as stored: an actor (user or group) holding a
// role on a target (project or domain), optionally inherited to the target's
// descendant projects. Exactly one of UserID/GroupID and exactly one of
// ProjectID/DomainID is set.
type Assignment struct {
	RoleID    string
	UserID    string
	GroupID   string
	ProjectID string
	DomainID  string
	Inherited bool
}

// Indirect records where a resolved assignment came from. GroupID is set
// when the entry was produced by group membership expansion; ProjectID or
// DomainID carry the original grant point of an inherited assignment; RoleID
// is the immediate prior role when the entry came from role implication.
type Indirect struct {
	GroupID   string `json:"group_id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	DomainID  string `json:"domain_id,omitempty"`
	RoleID    string `json:"role_id,omitempty"`
}

// IsZero reports whether no indirection marker is set.
func (i Indirect) IsZero() bool {
	return i == Indirect{}
}

// ResolvedAssignment is a computed assignment record, never persisted. It is
// a plain comparable value so result sets deduplicate and cycle-check by
// structural equality.
//
// In effective mode UserID is always a concrete user; GroupID appears only
// in direct mode (a stored group grant returned as-is) or in the internal
// sourced-from-groups mode where group expansion is suppressed.
type ResolvedAssignment struct {
	UserID    string   `json:"user_id,omitempty"`
	GroupID   string   `json:"group_id,omitempty"`
	ProjectID string   `json:"project_id,omitempty"`
	DomainID  string   `json:"domain_id,omitempty"`
	RoleID    string   `json:"role_id"`
	Inherited bool     `json:"inherited,omitempty"`
	Indirect  Indirect `json:"indirect,omitzero"`
}

// resolvedFromRaw converts a stored assignment without applying any
// expansion.
func resolvedFromRaw(a Assignment) ResolvedAssignment {
	return ResolvedAssignment{
		UserID:    a.UserID,
		GroupID:   a.GroupID,
		ProjectID: a.ProjectID,
		DomainID:  a.DomainID,
		RoleID:    a.RoleID,
		Inherited: a.Inherited,
	}
}

// Filter narrows a grant-store listing. A nil Inherited means both inherited
// and non-inherited records. ProjectIDs applies OR semantics across the list.
type Filter struct {
	RoleID     string
	UserID     string
	GroupIDs   []string
	DomainID   string
	ProjectIDs []string
	Inherited  *bool
}

// Query is the public filter surface of ListRoleAssignments.
//
// SourceFromGroupIDs is internal-only: it restricts which assignments are
// considered (those granted to the listed groups) before inheritance
// expansion, and suppresses expansion of those group grants into member
// assignments. It is only meaningful in effective mode and is mutually
// exclusive with UserID.
type Query struct {
	RoleID             string
	UserID             string
	GroupID            string
	DomainID           string
	ProjectID          string
	IncludeSubtree     bool
	Inherited          *bool
	Effective          bool
	IncludeNames       bool
	SourceFromGroupIDs []string
}
