package service

import (
	"context"
	"sync"
	"time"

	"github.com/atinyakov/memberctl/internal/models"
	"github.com/atinyakov/memberctl/internal/repository"
)

type mockUserRepo struct {
	CreateFunc              func(ctx context.Context, u *models.User) error
	GetByUsernameFunc       func(ctx context.Context, username string) (*models.User, error)
	EmailExistsFunc         func(ctx context.Context, email string) (bool, error)
	DeleteFunc              func(ctx context.Context, username string, cascade bool) (bool, error)
	ListFunc                func(ctx context.Context) ([]models.User, error)
	FindByNameFunc          func(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error)
	FindByEmailFunc         func(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error)
	CountActiveSinceFunc    func(ctx context.Context, cutoff time.Time) (int, error)
	SetPasswordFunc         func(ctx context.Context, id string, hash []byte) error
	RecordFailedAttemptFunc func(ctx context.Context, id string, at time.Time, window time.Duration, maxAttempts int) (int, bool, error)
	TouchFunc               func(ctx context.Context, id string, at time.Time) error
	UnlockFunc              func(ctx context.Context, username string) (bool, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *models.User) error {
	if m.CreateFunc == nil {
		return nil
	}
	return m.CreateFunc(ctx, u)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.GetByUsernameFunc(ctx, username)
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.EmailExistsFunc == nil {
		return false, nil
	}
	return m.EmailExistsFunc(ctx, email)
}

func (m *mockUserRepo) Delete(ctx context.Context, username string, cascade bool) (bool, error) {
	return m.DeleteFunc(ctx, username, cascade)
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	return m.ListFunc(ctx)
}

func (m *mockUserRepo) FindByName(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error) {
	return m.FindByNameFunc(ctx, pattern, pageIndex, pageSize)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error) {
	return m.FindByEmailFunc(ctx, pattern, pageIndex, pageSize)
}

func (m *mockUserRepo) CountActiveSince(ctx context.Context, cutoff time.Time) (int, error) {
	return m.CountActiveSinceFunc(ctx, cutoff)
}

func (m *mockUserRepo) SetPassword(ctx context.Context, id string, hash []byte) error {
	return m.SetPasswordFunc(ctx, id, hash)
}

func (m *mockUserRepo) RecordFailedAttempt(ctx context.Context, id string, at time.Time, window time.Duration, maxAttempts int) (int, bool, error) {
	if m.RecordFailedAttemptFunc == nil {
		return 1, false, nil
	}
	return m.RecordFailedAttemptFunc(ctx, id, at, window, maxAttempts)
}

// attemptCounter applies the store's failed-attempt rules to u in memory.
func attemptCounter(u *models.User) func(ctx context.Context, id string, at time.Time, window time.Duration, maxAttempts int) (int, bool, error) {
	var mu sync.Mutex
	return func(ctx context.Context, id string, at time.Time, window time.Duration, maxAttempts int) (int, bool, error) {
		mu.Lock()
		defer mu.Unlock()
		if u.FailedAttemptWindowStart == nil || u.FailedAttemptWindowStart.Before(at.Add(-window)) {
			u.FailedPasswordAttempts = 1
			u.FailedAttemptWindowStart = &at
		} else {
			u.FailedPasswordAttempts++
		}
		if maxAttempts > 0 && u.FailedPasswordAttempts >= maxAttempts && !u.IsLockedOut {
			u.IsLockedOut = true
			u.LastLockoutAt = &at
		}
		return u.FailedPasswordAttempts, u.IsLockedOut, nil
	}
}

func (m *mockUserRepo) Touch(ctx context.Context, id string, at time.Time) error {
	if m.TouchFunc == nil {
		return nil
	}
	return m.TouchFunc(ctx, id, at)
}

func (m *mockUserRepo) Unlock(ctx context.Context, username string) (bool, error) {
	return m.UnlockFunc(ctx, username)
}

type mockRoleRepo struct {
	CreateFunc       func(ctx context.Context, name string) error
	ExistsFunc       func(ctx context.Context, name string) (bool, error)
	CountMembersFunc func(ctx context.Context, name string) (int, error)
	DeleteFunc       func(ctx context.Context, name string, cascade bool) (bool, error)
	ListFunc         func(ctx context.Context) ([]string, error)
	AddMemberFunc    func(ctx context.Context, userID, role string) error
	RemoveMemberFunc func(ctx context.Context, userID, role string) (bool, error)
	UsersInRoleFunc  func(ctx context.Context, role string) ([]string, error)
	RolesForUserFunc func(ctx context.Context, username string) ([]string, error)
}

func (m *mockRoleRepo) Create(ctx context.Context, name string) error {
	return m.CreateFunc(ctx, name)
}

func (m *mockRoleRepo) Exists(ctx context.Context, name string) (bool, error) {
	if m.ExistsFunc == nil {
		return true, nil
	}
	return m.ExistsFunc(ctx, name)
}

func (m *mockRoleRepo) CountMembers(ctx context.Context, name string) (int, error) {
	return m.CountMembersFunc(ctx, name)
}

func (m *mockRoleRepo) Delete(ctx context.Context, name string, cascade bool) (bool, error) {
	return m.DeleteFunc(ctx, name, cascade)
}

func (m *mockRoleRepo) List(ctx context.Context) ([]string, error) {
	return m.ListFunc(ctx)
}

func (m *mockRoleRepo) AddMember(ctx context.Context, userID, role string) error {
	return m.AddMemberFunc(ctx, userID, role)
}

func (m *mockRoleRepo) RemoveMember(ctx context.Context, userID, role string) (bool, error) {
	return m.RemoveMemberFunc(ctx, userID, role)
}

func (m *mockRoleRepo) UsersInRole(ctx context.Context, role string) ([]string, error) {
	return m.UsersInRoleFunc(ctx, role)
}

func (m *mockRoleRepo) RolesForUser(ctx context.Context, username string) ([]string, error) {
	return m.RolesForUserFunc(ctx, username)
}
