package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/memberctl/internal/models"
)

const userColumns = `id, username, email, password_hash, password_question, password_answer_hash,
	is_approved, is_locked_out, failed_password_attempts, failed_attempt_window_start,
	last_activity_at, last_lockout_at, created_at`

// PostgresUserRepository implements membership user persistence using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		u           models.User
		windowStart sql.NullTime
		lastLockout sql.NullTime
		answerHash  []byte
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.PasswordQuestion, &answerHash,
		&u.IsApproved, &u.IsLockedOut, &u.FailedPasswordAttempts, &windowStart,
		&u.LastActivityAt, &lastLockout, &u.CreatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordAnswerHash = answerHash
	if windowStart.Valid {
		t := windowStart.Time
		u.FailedAttemptWindowStart = &t
	}
	if lastLockout.Valid {
		t := lastLockout.Time
		u.LastLockoutAt = &t
	}
	return u, nil
}

// Create inserts a new user. A clash on username returns ErrDuplicateKey.
func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO membership_users
			(id, username, lowered_username, email, lowered_email, password_hash,
			 password_question, password_answer_hash, is_approved, last_activity_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, u.ID, u.Username, strings.ToLower(u.Username), u.Email, strings.ToLower(u.Email), u.PasswordHash,
		u.PasswordQuestion, u.PasswordAnswerHash, u.IsApproved, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

// GetByUsername fetches a user by name, ignoring case. Returns ErrNotFound if absent.
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM membership_users WHERE lowered_username = $1`,
		strings.ToLower(username))
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, translate(err))
	}
	return &u, nil
}

// EmailExists reports whether any user already uses email, ignoring case.
func (r *PostgresUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM membership_users WHERE lowered_email = $1)`,
		strings.ToLower(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// Delete removes a user. With cascade, role memberships are removed in the
// same transaction; without it, existing memberships make the delete fail.
// Returns false if no such user exists.
func (r *PostgresUserRepository) Delete(ctx context.Context, username string, cascade bool) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	lowered := strings.ToLower(username)
	if cascade {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM membership_users_in_roles
			 WHERE user_id = (SELECT id FROM membership_users WHERE lowered_username = $1)
		`, lowered); err != nil {
			return false, fmt.Errorf("delete memberships: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM membership_users WHERE lowered_username = $1`, lowered)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return rows > 0, nil
}

// List returns every user ordered by username.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM membership_users ORDER BY lowered_username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// FindByName returns one page of users whose name matches the LIKE pattern,
// along with the total number of matches.
func (r *PostgresUserRepository) FindByName(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error) {
	return r.find(ctx, "lowered_username", pattern, pageIndex, pageSize)
}

// FindByEmail returns one page of users whose email matches the LIKE pattern,
// along with the total number of matches.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error) {
	return r.find(ctx, "lowered_email", pattern, pageIndex, pageSize)
}

// find is shared by FindByName and FindByEmail; column is never user input.
func (r *PostgresUserRepository) find(ctx context.Context, column, pattern string, pageIndex, pageSize int) ([]models.User, int, error) {
	lowered := strings.ToLower(pattern)

	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM membership_users WHERE `+column+` LIKE $1`, lowered,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM membership_users WHERE `+column+` LIKE $1
		 ORDER BY lowered_username LIMIT $2 OFFSET $3`,
		lowered, pageSize, pageIndex*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return users, nil
}

// CountActiveSince counts users whose last activity is after cutoff.
func (r *PostgresUserRepository) CountActiveSince(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM membership_users WHERE last_activity_at > $1`, cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count online: %w", err)
	}
	return n, nil
}

// SetPassword stores a new password hash and clears the failed-attempt counter.
func (r *PostgresUserRepository) SetPassword(ctx context.Context, id string, hash []byte) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE membership_users
		   SET password_hash = $2,
		       failed_password_attempts = 0,
		       failed_attempt_window_start = NULL
		 WHERE id = $1
	`, id, hash)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

// windowExpired is true when the row has no open attempt window or the
// window started before $3.
const windowExpired = `(failed_attempt_window_start IS NULL OR failed_attempt_window_start < $3)`

const nextAttempts = `CASE WHEN ` + windowExpired + ` THEN 1 ELSE failed_password_attempts + 1 END`

// RecordFailedAttempt counts one failed attempt at time at in a single
// statement. An attempt window older than window restarts at 1; reaching
// maxAttempts (when positive) locks the account. It returns the new count
// and lock state, or ErrNotFound if the user does not exist.
func (r *PostgresUserRepository) RecordFailedAttempt(ctx context.Context, id string, at time.Time, window time.Duration, maxAttempts int) (int, bool, error) {
	var (
		attempts int
		locked   bool
	)
	err := r.DB.QueryRowContext(ctx, `
		UPDATE membership_users
		   SET failed_password_attempts = `+nextAttempts+`,
		       failed_attempt_window_start = CASE WHEN `+windowExpired+` THEN $2 ELSE failed_attempt_window_start END,
		       is_locked_out = is_locked_out OR ($4 > 0 AND `+nextAttempts+` >= $4),
		       last_lockout_at = CASE WHEN NOT is_locked_out AND $4 > 0 AND `+nextAttempts+` >= $4 THEN $2 ELSE last_lockout_at END
		 WHERE id = $1
		RETURNING failed_password_attempts, is_locked_out
	`, id, at, at.Add(-window), maxAttempts).Scan(&attempts, &locked)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, fmt.Errorf("record failed attempt: %w", err)
	}
	return attempts, locked, nil
}

// Touch records activity at the given time and clears failed attempts.
func (r *PostgresUserRepository) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE membership_users
		   SET last_activity_at = $2,
		       failed_password_attempts = 0,
		       failed_attempt_window_start = NULL
		 WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return nil
}

// Unlock clears the lock and failed attempts. Returns false if no such user exists.
func (r *PostgresUserRepository) Unlock(ctx context.Context, username string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE membership_users
		   SET is_locked_out = false,
		       failed_password_attempts = 0,
		       failed_attempt_window_start = NULL
		 WHERE lowered_username = $1
	`, strings.ToLower(username))
	if err != nil {
		return false, fmt.Errorf("unlock user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unlock user: %w", err)
	}
	return rows > 0, nil
}
