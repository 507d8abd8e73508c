package roles

import "time"

// Role represents a named capability grouping referenced by assignments.
type Role struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ImpliedRole is a directed edge in the role inference graph: holding the
// prior role implies holding the implied role. Edges may chain; resolution
// walks the closure with cycle tolerance.
type ImpliedRole struct {
	PriorRoleID   string
	ImpliedRoleID string
}
