package identity

import "time"

// User is a concrete principal that role assignments resolve to.
type User struct {
	ID           string
	DomainID     string
	Name         string
	Email        string
	PasswordHash string
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Group collects users; group grants expand to one assignment per member.
type Group struct {
	ID          string
	DomainID    string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
