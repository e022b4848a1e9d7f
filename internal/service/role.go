package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/memberctl/internal/models"
	"github.com/atinyakov/memberctl/internal/repository"
)

// RoleRepository defines the persistence operations required by the role service.
type RoleRepository interface {
	Create(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	CountMembers(ctx context.Context, name string) (int, error)
	Delete(ctx context.Context, name string, cascade bool) (bool, error)
	List(ctx context.Context) ([]string, error)
	AddMember(ctx context.Context, userID, role string) error
	RemoveMember(ctx context.Context, userID, role string) (bool, error)
	UsersInRole(ctx context.Context, role string) ([]string, error)
	RolesForUser(ctx context.Context, username string) ([]string, error)
}

// UserLookup resolves a username to the stored user.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// RoleService implements role management on top of a RoleRepository.
type RoleService struct {
	roles RoleRepository
	users UserLookup
}

// NewRoleService constructs a RoleService.
func NewRoleService(roles RoleRepository, users UserLookup) *RoleService {
	return &RoleService{roles: roles, users: users}
}

// CreateRole adds a new role.
func (s *RoleService) CreateRole(ctx context.Context, name string) error {
	name, err := roleName(name)
	if err != nil {
		return err
	}
	if err := s.roles.Create(ctx, name); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrRoleExists, name)
		}
		return err
	}
	return nil
}

// DeleteRole removes a role and reports whether it existed. Without cascade
// a role that still has members is refused with ErrRolePopulated.
func (s *RoleService) DeleteRole(ctx context.Context, name string, cascade bool) (bool, error) {
	name, err := roleName(name)
	if err != nil {
		return false, err
	}
	exists, err := s.roles.Exists(ctx, name)
	if err != nil || !exists {
		return false, err
	}
	if !cascade {
		n, err := s.roles.CountMembers(ctx, name)
		if err != nil {
			return false, err
		}
		if n > 0 {
			return false, fmt.Errorf("%w: %s", ErrRolePopulated, name)
		}
	}
	return s.roles.Delete(ctx, name, cascade)
}

// ListRoles returns every role name.
func (s *RoleService) ListRoles(ctx context.Context) ([]string, error) {
	return s.roles.List(ctx)
}

// AddUserToRole grants role to username.
func (s *RoleService) AddUserToRole(ctx context.Context, username, role string) error {
	u, role, err := s.member(ctx, username, role)
	if err != nil {
		return err
	}
	if err := s.roles.AddMember(ctx, u.ID, role); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s in %s", ErrAlreadyInRole, username, role)
		}
		return err
	}
	return nil
}

// RemoveUserFromRole revokes role from username.
func (s *RoleService) RemoveUserFromRole(ctx context.Context, username, role string) error {
	u, role, err := s.member(ctx, username, role)
	if err != nil {
		return err
	}
	removed, err := s.roles.RemoveMember(ctx, u.ID, role)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s in %s", ErrNotInRole, username, role)
	}
	return nil
}

// ListUsersInRole returns the usernames holding role.
func (s *RoleService) ListUsersInRole(ctx context.Context, role string) ([]string, error) {
	role, err := roleName(role)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, role); err != nil {
		return nil, err
	}
	return s.roles.UsersInRole(ctx, role)
}

// ListRolesForUser returns the roles held by username. Unknown users hold none.
func (s *RoleService) ListRolesForUser(ctx context.Context, username string) ([]string, error) {
	return s.roles.RolesForUser(ctx, username)
}

// member resolves username and the normalized role name, both of which
// must exist.
func (s *RoleService) member(ctx context.Context, username, role string) (*models.User, string, error) {
	role, err := roleName(role)
	if err != nil {
		return nil, "", err
	}
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, "", err
	}
	if err := s.requireRole(ctx, role); err != nil {
		return nil, "", err
	}
	return u, role, nil
}

func (s *RoleService) requireRole(ctx context.Context, role string) error {
	exists, err := s.roles.Exists(ctx, role)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, role)
	}
	return nil
}

func roleName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, ",") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoleName, name)
	}
	return name, nil
}
