package command

import (
	"context"
	"errors"

	"github.com/atinyakov/memberctl/internal/models"
	"github.com/google/uuid"
)

// fakeRoleStore records every call; unset funcs succeed with zero values.
type fakeRoleStore struct {
	calls []string

	CreateRoleFunc         func(name string) error
	DeleteRoleFunc         func(name string, cascade bool) (bool, error)
	ListRolesFunc          func() ([]string, error)
	AddUserToRoleFunc      func(username, role string) error
	RemoveUserFromRoleFunc func(username, role string) error
	ListUsersInRoleFunc    func(role string) ([]string, error)
	ListRolesForUserFunc   func(username string) ([]string, error)
}

func (f *fakeRoleStore) CreateRole(ctx context.Context, name string) error {
	f.calls = append(f.calls, "CreateRole")
	if f.CreateRoleFunc == nil {
		return nil
	}
	return f.CreateRoleFunc(name)
}

func (f *fakeRoleStore) DeleteRole(ctx context.Context, name string, cascade bool) (bool, error) {
	f.calls = append(f.calls, "DeleteRole")
	if f.DeleteRoleFunc == nil {
		return true, nil
	}
	return f.DeleteRoleFunc(name, cascade)
}

func (f *fakeRoleStore) ListRoles(ctx context.Context) ([]string, error) {
	f.calls = append(f.calls, "ListRoles")
	if f.ListRolesFunc == nil {
		return nil, nil
	}
	return f.ListRolesFunc()
}

func (f *fakeRoleStore) AddUserToRole(ctx context.Context, username, role string) error {
	f.calls = append(f.calls, "AddUserToRole")
	if f.AddUserToRoleFunc == nil {
		return nil
	}
	return f.AddUserToRoleFunc(username, role)
}

func (f *fakeRoleStore) RemoveUserFromRole(ctx context.Context, username, role string) error {
	f.calls = append(f.calls, "RemoveUserFromRole")
	if f.RemoveUserFromRoleFunc == nil {
		return nil
	}
	return f.RemoveUserFromRoleFunc(username, role)
}

func (f *fakeRoleStore) ListUsersInRole(ctx context.Context, role string) ([]string, error) {
	f.calls = append(f.calls, "ListUsersInRole")
	if f.ListUsersInRoleFunc == nil {
		return nil, nil
	}
	return f.ListUsersInRoleFunc(role)
}

func (f *fakeRoleStore) ListRolesForUser(ctx context.Context, username string) ([]string, error) {
	f.calls = append(f.calls, "ListRolesForUser")
	if f.ListRolesForUserFunc == nil {
		return nil, nil
	}
	return f.ListRolesForUserFunc(username)
}

// fakeUserStore records every call; unset funcs succeed with zero values.
type fakeUserStore struct {
	calls []string

	CreateUserFunc       func(username, password, email, question, answer string, approved bool, id uuid.UUID) (models.CreateStatus, error)
	DeleteUserFunc       func(username string, cascade bool) (bool, error)
	ListAllUsersFunc     func() ([]models.User, error)
	FindUsersByEmailFunc func(pattern string, pageIndex, pageSize int) ([]models.User, int, error)
	FindUsersByNameFunc  func(pattern string, pageIndex, pageSize int) ([]models.User, int, error)
	CountOnlineFunc      func() (int, error)
	ResetPasswordFunc    func(username, answer string) (string, error)
	UnlockUserFunc       func(username string) (bool, error)
	ValidateUserFunc     func(username, password string) (bool, error)
}

func (f *fakeUserStore) CreateUser(ctx context.Context, username, password, email, question, answer string, approved bool, id uuid.UUID) (models.CreateStatus, error) {
	f.calls = append(f.calls, "CreateUser")
	if f.CreateUserFunc == nil {
		return models.StatusSuccess, nil
	}
	return f.CreateUserFunc(username, password, email, question, answer, approved, id)
}

func (f *fakeUserStore) DeleteUser(ctx context.Context, username string, cascade bool) (bool, error) {
	f.calls = append(f.calls, "DeleteUser")
	if f.DeleteUserFunc == nil {
		return true, nil
	}
	return f.DeleteUserFunc(username, cascade)
}

func (f *fakeUserStore) ListAllUsers(ctx context.Context) ([]models.User, error) {
	f.calls = append(f.calls, "ListAllUsers")
	if f.ListAllUsersFunc == nil {
		return nil, nil
	}
	return f.ListAllUsersFunc()
}

func (f *fakeUserStore) FindUsersByEmail(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error) {
	f.calls = append(f.calls, "FindUsersByEmail")
	if f.FindUsersByEmailFunc == nil {
		return nil, 0, nil
	}
	return f.FindUsersByEmailFunc(pattern, pageIndex, pageSize)
}

func (f *fakeUserStore) FindUsersByName(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error) {
	f.calls = append(f.calls, "FindUsersByName")
	if f.FindUsersByNameFunc == nil {
		return nil, 0, nil
	}
	return f.FindUsersByNameFunc(pattern, pageIndex, pageSize)
}

func (f *fakeUserStore) CountOnline(ctx context.Context) (int, error) {
	f.calls = append(f.calls, "CountOnline")
	if f.CountOnlineFunc == nil {
		return 0, nil
	}
	return f.CountOnlineFunc()
}

func (f *fakeUserStore) ResetPassword(ctx context.Context, username, answer string) (string, error) {
	f.calls = append(f.calls, "ResetPassword")
	if f.ResetPasswordFunc == nil {
		return "", nil
	}
	return f.ResetPasswordFunc(username, answer)
}

func (f *fakeUserStore) UnlockUser(ctx context.Context, username string) (bool, error) {
	f.calls = append(f.calls, "UnlockUser")
	if f.UnlockUserFunc == nil {
		return true, nil
	}
	return f.UnlockUserFunc(username)
}

func (f *fakeUserStore) ValidateUser(ctx context.Context, username, password string) (bool, error) {
	f.calls = append(f.calls, "ValidateUser")
	if f.ValidateUserFunc == nil {
		return false, nil
	}
	return f.ValidateUserFunc(username, password)
}

var errUnknownConnection = errors.New("connection string not found")

type mapResolver map[string]string

func (m mapResolver) ConnectionString(name string) (string, error) {
	dsn, ok := m[name]
	if !ok {
		return "", errUnknownConnection
	}
	return dsn, nil
}
