// Package app wires configuration, storage, services and commands together
// for the CLI and the console server.
package app

import (
	"database/sql"
	"time"

	"github.com/atinyakov/memberctl/internal/command"
	"github.com/atinyakov/memberctl/internal/config"
	"github.com/atinyakov/memberctl/internal/db"
	"github.com/atinyakov/memberctl/internal/repository"
	"github.com/atinyakov/memberctl/internal/service"
	"go.uber.org/zap"
)

// Policy converts the configured membership settings into a provider policy.
func Policy(m config.Membership) service.Policy {
	p := service.DefaultPolicy()
	p.MinPasswordLength = m.MinPasswordLength
	p.MaxInvalidPasswordAttempts = m.MaxInvalidPasswordAttempts
	p.PasswordAttemptWindow = time.Duration(m.PasswordAttemptWindow)
	p.UserIsOnlineWindow = time.Duration(m.UserIsOnlineWindow)
	p.RequiresUniqueEmail = m.RequiresUniqueEmail
	p.RequiresQuestionAndAnswer = m.RequiresQuestionAndAnswer
	return p
}

// NewRegistry builds the role and user commands over the provider database.
func NewRegistry(conn *sql.DB, opts *config.Options, log *zap.Logger) *command.Registry {
	users := repository.NewPostgresUserRepository(conn)
	roles := repository.NewPostgresRoleRepository(conn)

	membership := service.NewMembershipService(users, Policy(opts.Membership))
	roleService := service.NewRoleService(roles, users)

	return command.NewRegistry(
		command.NewRoleCommand(roleService, log.Named("role")),
		command.NewUserCommand(membership, opts, db.Open, db.MembershipSchema, log.Named("user")),
	)
}

// OpenProvider opens the provider database without dialing it. When no
// default connection is configured the libpq environment defaults apply,
// so `user --install` still works against other named connections.
func OpenProvider(opts *config.Options, log *zap.Logger) (*sql.DB, error) {
	dsn, err := opts.DefaultDSN()
	if err != nil {
		log.Debug("no default connection configured, using libpq defaults", zap.Error(err))
		dsn = ""
	}
	return db.Open(dsn)
}
