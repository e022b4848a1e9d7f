package command

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RoleStore is the role provider used by RoleCommand.
type RoleStore interface {
	CreateRole(ctx context.Context, name string) error
	DeleteRole(ctx context.Context, name string, cascade bool) (bool, error)
	ListRoles(ctx context.Context) ([]string, error)
	AddUserToRole(ctx context.Context, username, role string) error
	RemoveUserFromRole(ctx context.Context, username, role string) error
	ListUsersInRole(ctx context.Context, role string) ([]string, error)
	ListRolesForUser(ctx context.Context, username string) ([]string, error)
}

const (
	roleCreate = "create"
	roleDelete = "delete"
	roleList   = "list"
	roleGive   = "give"
	roleTake   = "take"
	roleUsers  = "users"
	roleRoles  = "roles"
)

var roleOptions = []option{
	{name: "create", short: "c", op: roleCreate, usage: "create a role\nUSAGE: role --create rolename"},
	{name: "delete", short: "d", op: roleDelete, usage: "delete a role\nUSAGE: role --delete rolename"},
	{name: "list", short: "l", op: roleList, usage: "return a list of roles\nUSAGE: role --list"},
	{name: "give", short: "g", op: roleGive, usage: "add a user to a role\nUSAGE: role --give username rolename"},
	{name: "take", short: "t", op: roleTake, usage: "remove a user from a role\nUSAGE: role --take username rolename"},
	{name: "users", short: "u", op: roleUsers, usage: "list all users in a role\nUSAGE: role --users rolename"},
	{name: "roles", short: "r", op: roleRoles, usage: "list all roles for a user\nUSAGE: role --roles username"},
	{name: "help", short: "h", op: opHelp, usage: "show this list of options\nUSAGE: role --help"},
}

// RoleCommand manages membership roles.
type RoleCommand struct {
	store RoleStore
	log   *zap.Logger
}

// NewRoleCommand creates the role command over store.
func NewRoleCommand(store RoleStore, log *zap.Logger) *RoleCommand {
	return &RoleCommand{store: store, log: orNop(log)}
}

// Name returns "role".
func (c *RoleCommand) Name() string { return "role" }

// Summary returns the help summary.
func (c *RoleCommand) Summary() string {
	return "Manage membership roles using the default provider"
}

// Process parses args and runs the selected role operation.
func (c *RoleCommand) Process(ctx context.Context, args []string) (string, error) {
	inv, err := parse(c.Name(), roleOptions, args)
	if err != nil {
		return parseFailure(c.Name(), err), nil
	}
	c.log.Debug("dispatching command",
		zap.String("command", c.Name()),
		zap.String("op", inv.Op),
		zap.Int("args", len(inv.Args)),
	)

	var out strings.Builder
	err = c.run(ctx, &out, inv)
	if err != nil {
		c.log.Warn("role operation failed", zap.String("op", inv.Op), zap.Error(err))
	}
	return out.String(), err
}

func (c *RoleCommand) run(ctx context.Context, out *strings.Builder, inv Invocation) error {
	args := inv.Args

	switch inv.Op {
	case roleCreate:
		if len(args) != 1 {
			out.WriteString("USAGE: role --create rolename\n")
			return nil
		}
		if err := c.store.CreateRole(ctx, args[0]); err != nil {
			return err
		}
		out.WriteString("Role successfully created\n")

	case roleDelete:
		if len(args) != 1 {
			out.WriteString("USAGE: role --delete rolename\n")
			return nil
		}
		deleted, err := c.store.DeleteRole(ctx, args[0], true)
		switch {
		case err != nil:
			c.log.Warn("could not delete role", zap.String("role", args[0]), zap.Error(err))
			fmt.Fprintf(out, "Could not delete role: %s - %s\n", args[0], err)
		case deleted:
			out.WriteString("Role successfully deleted\n")
		default:
			fmt.Fprintf(out, "Could not delete role: %s\n", args[0])
		}

	case roleList:
		if len(args) != 0 {
			out.WriteString("USAGE: role --list\n")
			return nil
		}
		roles, err := c.store.ListRoles(ctx)
		if err != nil {
			return err
		}
		if len(roles) == 0 {
			out.WriteString("No roles found\n")
			return nil
		}
		writeLines(out, roles)

	case roleGive:
		if len(args) != 2 {
			out.WriteString("USAGE: role --give username rolename\n")
			return nil
		}
		if err := c.store.AddUserToRole(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added %s to %s\n", args[0], args[1])

	case roleTake:
		if len(args) != 2 {
			out.WriteString("USAGE: role --take username rolename\n")
			return nil
		}
		if err := c.store.RemoveUserFromRole(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %s from %s\n", args[0], args[1])

	case roleUsers:
		if len(args) != 1 {
			out.WriteString("USAGE: role --users rolename\n")
			return nil
		}
		users, err := c.store.ListUsersInRole(ctx, args[0])
		if err != nil {
			return err
		}
		if len(users) == 0 {
			out.WriteString("No users in role\n")
			return nil
		}
		fmt.Fprintf(out, "%d users in %s\n", len(users), args[0])
		writeLines(out, users)

	case roleRoles:
		if len(args) != 1 {
			out.WriteString("USAGE: role --roles username\n")
			return nil
		}
		roles, err := c.store.ListRolesForUser(ctx, args[0])
		if err != nil {
			return err
		}
		if len(roles) == 0 {
			out.WriteString("No roles found for user\n")
			return nil
		}
		fmt.Fprintf(out, "%d roles for %s\n", len(roles), args[0])
		writeLines(out, roles)

	default:
		out.WriteString(help(c.Name(), c.Summary(), roleOptions))
	}
	return nil
}

func writeLines(out *strings.Builder, lines []string) {
	for _, l := range lines {
		out.WriteString(l)
		out.WriteString("\n")
	}
}
