package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/memberctl/internal/models"
	"github.com/atinyakov/memberctl/internal/repository"
)

func knownUsers(names ...string) *mockUserRepo {
	return &mockUserRepo{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			for _, n := range names {
				if n == username {
					return &models.User{ID: "id-" + n, Username: n}, nil
				}
			}
			return nil, repository.ErrNotFound
		},
	}
}

func TestCreateRole_Success(t *testing.T) {
	called := false
	roles := &mockRoleRepo{
		CreateFunc: func(ctx context.Context, name string) error {
			called = true
			if name != "admins" {
				t.Errorf("Create received name = %q; want %q", name, "admins")
			}
			return nil
		},
	}
	svc := NewRoleService(roles, knownUsers())

	if err := svc.CreateRole(context.Background(), "  admins "); err != nil {
		t.Fatalf("CreateRole returned error: %v", err)
	}
	if !called {
		t.Fatal("expected Create to be called on repo")
	}
}

func TestCreateRole_Errors(t *testing.T) {
	roles := &mockRoleRepo{
		CreateFunc: func(ctx context.Context, name string) error {
			return repository.ErrDuplicateKey
		},
	}
	svc := NewRoleService(roles, knownUsers())

	if err := svc.CreateRole(context.Background(), "admins"); !errors.Is(err, ErrRoleExists) {
		t.Errorf("error = %v; want ErrRoleExists", err)
	}
	for _, name := range []string{"", "   ", "a,b"} {
		if err := svc.CreateRole(context.Background(), name); !errors.Is(err, ErrInvalidRoleName) {
			t.Errorf("CreateRole(%q) error = %v; want ErrInvalidRoleName", name, err)
		}
	}
}

func TestDeleteRole_MissingRole(t *testing.T) {
	roles := &mockRoleRepo{
		ExistsFunc: func(ctx context.Context, name string) (bool, error) {
			return false, nil
		},
	}
	svc := NewRoleService(roles, knownUsers())

	deleted, err := svc.DeleteRole(context.Background(), "ghosts", true)
	if err != nil || deleted {
		t.Errorf("DeleteRole = %v, %v; want false, nil", deleted, err)
	}
}

func TestDeleteRole_PopulatedWithoutCascade(t *testing.T) {
	roles := &mockRoleRepo{
		CountMembersFunc: func(ctx context.Context, name string) (int, error) {
			return 2, nil
		},
		DeleteFunc: func(ctx context.Context, name string, cascade bool) (bool, error) {
			t.Fatal("populated role must not be deleted without cascade")
			return false, nil
		},
	}
	svc := NewRoleService(roles, knownUsers())

	if _, err := svc.DeleteRole(context.Background(), "admins", false); !errors.Is(err, ErrRolePopulated) {
		t.Errorf("error = %v; want ErrRolePopulated", err)
	}
}

func TestDeleteRole_Cascade(t *testing.T) {
	roles := &mockRoleRepo{
		DeleteFunc: func(ctx context.Context, name string, cascade bool) (bool, error) {
			if !cascade {
				t.Error("expected cascade delete")
			}
			return true, nil
		},
	}
	svc := NewRoleService(roles, knownUsers())

	deleted, err := svc.DeleteRole(context.Background(), "admins", true)
	if err != nil || !deleted {
		t.Errorf("DeleteRole = %v, %v; want true, nil", deleted, err)
	}
}

func TestAddUserToRole(t *testing.T) {
	var gotID, gotRole string
	roles := &mockRoleRepo{
		AddMemberFunc: func(ctx context.Context, userID, role string) error {
			gotID, gotRole = userID, role
			return nil
		},
	}
	svc := NewRoleService(roles, knownUsers("alice"))

	if err := svc.AddUserToRole(context.Background(), "alice", "admins"); err != nil {
		t.Fatalf("AddUserToRole returned error: %v", err)
	}
	if gotID != "id-alice" || gotRole != "admins" {
		t.Errorf("AddMember(%q, %q); want (id-alice, admins)", gotID, gotRole)
	}
}

func TestAddUserToRole_Errors(t *testing.T) {
	roles := &mockRoleRepo{
		AddMemberFunc: func(ctx context.Context, userID, role string) error {
			return repository.ErrDuplicateKey
		},
	}
	svc := NewRoleService(roles, knownUsers("alice"))

	if err := svc.AddUserToRole(context.Background(), "bob", "admins"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v; want ErrUserNotFound", err)
	}
	if err := svc.AddUserToRole(context.Background(), "alice", "admins"); !errors.Is(err, ErrAlreadyInRole) {
		t.Errorf("duplicate membership error = %v; want ErrAlreadyInRole", err)
	}

	roles.ExistsFunc = func(ctx context.Context, name string) (bool, error) {
		return false, nil
	}
	if err := svc.AddUserToRole(context.Background(), "alice", "ghosts"); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("unknown role error = %v; want ErrRoleNotFound", err)
	}
}

func TestRemoveUserFromRole(t *testing.T) {
	removed := true
	roles := &mockRoleRepo{
		RemoveMemberFunc: func(ctx context.Context, userID, role string) (bool, error) {
			return removed, nil
		},
	}
	svc := NewRoleService(roles, knownUsers("alice"))

	if err := svc.RemoveUserFromRole(context.Background(), "alice", "admins"); err != nil {
		t.Fatalf("RemoveUserFromRole returned error: %v", err)
	}

	removed = false
	if err := svc.RemoveUserFromRole(context.Background(), "alice", "admins"); !errors.Is(err, ErrNotInRole) {
		t.Errorf("error = %v; want ErrNotInRole", err)
	}
}

func TestMembershipChanges_NormalizeRoleName(t *testing.T) {
	var existsArgs, memberArgs []string
	roles := &mockRoleRepo{
		ExistsFunc: func(ctx context.Context, name string) (bool, error) {
			existsArgs = append(existsArgs, name)
			return true, nil
		},
		AddMemberFunc: func(ctx context.Context, userID, role string) error {
			memberArgs = append(memberArgs, role)
			return nil
		},
		RemoveMemberFunc: func(ctx context.Context, userID, role string) (bool, error) {
			memberArgs = append(memberArgs, role)
			return true, nil
		},
	}
	svc := NewRoleService(roles, knownUsers("alice"))
	ctx := context.Background()

	if err := svc.AddUserToRole(ctx, "alice", "  admins "); err != nil {
		t.Fatalf("AddUserToRole returned error: %v", err)
	}
	if err := svc.RemoveUserFromRole(ctx, "alice", "\tadmins"); err != nil {
		t.Fatalf("RemoveUserFromRole returned error: %v", err)
	}
	for _, got := range append(existsArgs, memberArgs...) {
		if got != "admins" {
			t.Errorf("store saw role %q; want admins", got)
		}
	}

	for _, bad := range []string{"", "  ", "a,b"} {
		if err := svc.AddUserToRole(ctx, "alice", bad); !errors.Is(err, ErrInvalidRoleName) {
			t.Errorf("AddUserToRole(%q) error = %v; want ErrInvalidRoleName", bad, err)
		}
		if err := svc.RemoveUserFromRole(ctx, "alice", bad); !errors.Is(err, ErrInvalidRoleName) {
			t.Errorf("RemoveUserFromRole(%q) error = %v; want ErrInvalidRoleName", bad, err)
		}
	}
}

func TestListUsersInRole(t *testing.T) {
	roles := &mockRoleRepo{
		UsersInRoleFunc: func(ctx context.Context, role string) ([]string, error) {
			return []string{"alice", "bob"}, nil
		},
	}
	svc := NewRoleService(roles, knownUsers())

	users, err := svc.ListUsersInRole(context.Background(), "admins")
	if err != nil {
		t.Fatalf("ListUsersInRole returned error: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("users = %v; want 2 entries", users)
	}

	roles.ExistsFunc = func(ctx context.Context, name string) (bool, error) {
		return false, nil
	}
	if _, err := svc.ListUsersInRole(context.Background(), "ghosts"); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("error = %v; want ErrRoleNotFound", err)
	}
}

func TestListRolesForUser_Error(t *testing.T) {
	wantErr := errors.New("db error")
	roles := &mockRoleRepo{
		RolesForUserFunc: func(ctx context.Context, username string) ([]string, error) {
			return nil, wantErr
		},
	}
	svc := NewRoleService(roles, knownUsers())

	if _, err := svc.ListRolesForUser(context.Background(), "alice"); err != wantErr {
		t.Errorf("error = %v; want %v", err, wantErr)
	}
}
