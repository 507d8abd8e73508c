package identity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/whitepages/keystone/internal/shared"
)

// RepositoryPort defines data access methods for users and groups.
type RepositoryPort interface {
	GetUser(ctx context.Context, id string) (User, error)
	GetGroup(ctx context.Context, id string) (Group, error)
	CreateUser(ctx context.Context, u User) error
	CreateGroup(ctx context.Context, g Group) error
	DeleteUser(ctx context.Context, id string) error
	DeleteGroup(ctx context.Context, id string) error
	AddUserToGroup(ctx context.Context, userID, groupID string) error
	RemoveUserFromGroup(ctx context.Context, userID, groupID string) error
	ListUsersInGroup(ctx context.Context, groupID string) ([]User, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]Group, error)
	CheckUserInGroup(ctx context.Context, userID, groupID string) (bool, error)
}

// DomainChecker validates that a referenced domain exists.
type DomainChecker interface {
	CheckDomain(ctx context.Context, domainID string) error
}

// Service handles user and group business logic.
type Service struct {
	repo        RepositoryPort
	domains     DomainChecker
	invalidator shared.Invalidator
	logger      *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, domains DomainChecker, invalidator shared.Invalidator, logger *slog.Logger) *Service {
	if invalidator == nil {
		invalidator = shared.NoopInvalidator{}
	}
	return &Service{repo: repo, domains: domains, invalidator: invalidator, logger: logger}
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// GetGroup fetches a group by ID.
func (s *Service) GetGroup(ctx context.Context, id string) (Group, error) {
	return s.repo.GetGroup(ctx, id)
}

// CreateUser registers a user, hashing the supplied password.
func (s *Service) CreateUser(ctx context.Context, domainID, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, shared.NewInvalidArgument("name", "user name required")
	}
	if s.domains != nil {
		if err := s.domains.CheckDomain(ctx, domainID); err != nil {
			return User{}, err
		}
	}
	hash := ""
	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		hash = string(hashed)
	}
	u := User{
		ID:           uuid.NewString(),
		DomainID:     domainID,
		Name:         name,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Enabled:      true,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return User{}, err
	}
	return s.repo.GetUser(ctx, u.ID)
}

// CreateGroup registers a group within a domain.
func (s *Service) CreateGroup(ctx context.Context, domainID, name, description string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, shared.NewInvalidArgument("name", "group name required")
	}
	if s.domains != nil {
		if err := s.domains.CheckDomain(ctx, domainID); err != nil {
			return Group{}, err
		}
	}
	g := Group{ID: uuid.NewString(), DomainID: domainID, Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.CreateGroup(ctx, g); err != nil {
		return Group{}, err
	}
	return s.repo.GetGroup(ctx, g.ID)
}

// DeleteUser removes a user. Group memberships are dropped by cascade.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
	return nil
}

// DeleteGroup removes a group.
func (s *Service) DeleteGroup(ctx context.Context, id string) error {
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return err
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
	return nil
}

// AddUserToGroup records a membership after checking both sides exist.
func (s *Service) AddUserToGroup(ctx context.Context, userID, groupID string) error {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.repo.AddUserToGroup(ctx, userID, groupID); err != nil {
		return err
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
	return nil
}

// RemoveUserFromGroup drops a membership.
func (s *Service) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error {
	if err := s.repo.RemoveUserFromGroup(ctx, userID, groupID); err != nil {
		return err
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
	return nil
}

// ListUsersInGroup returns group members, failing with NotFound when the
// group does not exist.
func (s *Service) ListUsersInGroup(ctx context.Context, groupID string) ([]User, error) {
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListUsersInGroup(ctx, groupID)
}

// ListGroupsForUser returns the groups the user belongs to.
func (s *Service) ListGroupsForUser(ctx context.Context, userID string) ([]Group, error) {
	return s.repo.ListGroupsForUser(ctx, userID)
}

// CheckUserInGroup reports whether a membership exists.
func (s *Service) CheckUserInGroup(ctx context.Context, userID, groupID string) (bool, error) {
	return s.repo.CheckUserInGroup(ctx, userID, groupID)
}
