package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PostgresRoleRepository implements role and role-membership persistence
// using a PostgreSQL database.
type PostgresRoleRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresRoleRepository creates a new PostgresRoleRepository with the given database connection.
func NewPostgresRoleRepository(db *sql.DB) *PostgresRoleRepository {
	return &PostgresRoleRepository{DB: db}
}

// Create inserts a role. A clash on name returns ErrDuplicateKey.
func (r *PostgresRoleRepository) Create(ctx context.Context, name string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO membership_roles (lowered_name, name) VALUES ($1, $2)`,
		strings.ToLower(name), name)
	if err != nil {
		return fmt.Errorf("create role: %w", translate(err))
	}
	return nil
}

// Exists reports whether the role exists, ignoring case.
func (r *PostgresRoleRepository) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM membership_roles WHERE lowered_name = $1)`,
		strings.ToLower(name),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return exists, nil
}

// CountMembers returns the number of users in the role.
func (r *PostgresRoleRepository) CountMembers(ctx context.Context, name string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM membership_users_in_roles WHERE role_name = $1`,
		strings.ToLower(name),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// Delete removes a role. With cascade, its memberships are removed in the
// same transaction. Returns false if no such role exists.
func (r *PostgresRoleRepository) Delete(ctx context.Context, name string, cascade bool) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	lowered := strings.ToLower(name)
	if cascade {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM membership_users_in_roles WHERE role_name = $1`, lowered); err != nil {
			return false, fmt.Errorf("delete memberships: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM membership_roles WHERE lowered_name = $1`, lowered)
	if err != nil {
		return false, fmt.Errorf("delete role: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return rows > 0, nil
}

// List returns all role names ordered alphabetically.
func (r *PostgresRoleRepository) List(ctx context.Context) ([]string, error) {
	return r.names(ctx, `SELECT name FROM membership_roles ORDER BY lowered_name`)
}

// AddMember puts the user into the role. An existing membership returns ErrDuplicateKey.
func (r *PostgresRoleRepository) AddMember(ctx context.Context, userID, role string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO membership_users_in_roles (user_id, role_name) VALUES ($1, $2)`,
		userID, strings.ToLower(role))
	if err != nil {
		return fmt.Errorf("add member: %w", translate(err))
	}
	return nil
}

// RemoveMember takes the user out of the role. Returns false if the user was not a member.
func (r *PostgresRoleRepository) RemoveMember(ctx context.Context, userID, role string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM membership_users_in_roles WHERE user_id = $1 AND role_name = $2`,
		userID, strings.ToLower(role))
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	return rows > 0, nil
}

// UsersInRole returns the usernames in the role ordered alphabetically.
func (r *PostgresRoleRepository) UsersInRole(ctx context.Context, role string) ([]string, error) {
	return r.names(ctx, `
		SELECT u.username
		  FROM membership_users_in_roles ur
		  JOIN membership_users u ON u.id = ur.user_id
		 WHERE ur.role_name = $1
		 ORDER BY u.lowered_username
	`, strings.ToLower(role))
}

// RolesForUser returns the role names held by the user ordered alphabetically.
func (r *PostgresRoleRepository) RolesForUser(ctx context.Context, username string) ([]string, error) {
	return r.names(ctx, `
		SELECT r.name
		  FROM membership_users_in_roles ur
		  JOIN membership_roles r ON r.lowered_name = ur.role_name
		  JOIN membership_users u ON u.id = ur.user_id
		 WHERE u.lowered_username = $1
		 ORDER BY r.lowered_name
	`, strings.ToLower(username))
}

func (r *PostgresRoleRepository) names(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return names, nil
}
