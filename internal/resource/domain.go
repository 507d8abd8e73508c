package resource

import "time"

// Domain is a top-level namespace owning projects, users and groups.
type Domain struct {
	ID          string
	Name        string
	Description string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Project is a scope for role assignments. Projects form a tree within a
// domain via ParentID; an empty ParentID marks a root project.
type Project struct {
	ID          string
	DomainID    string
	ParentID    string
	Name        string
	Description string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
