package command

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/atinyakov/memberctl/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserStore is the membership provider used by UserCommand.
type UserStore interface {
	CreateUser(ctx context.Context, username, password, email, question, answer string, approved bool, id uuid.UUID) (models.CreateStatus, error)
	DeleteUser(ctx context.Context, username string, cascade bool) (bool, error)
	ListAllUsers(ctx context.Context) ([]models.User, error)
	FindUsersByEmail(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error)
	FindUsersByName(ctx context.Context, pattern string, pageIndex, pageSize int) ([]models.User, int, error)
	CountOnline(ctx context.Context) (int, error)
	ResetPassword(ctx context.Context, username, answer string) (string, error)
	UnlockUser(ctx context.Context, username string) (bool, error)
	ValidateUser(ctx context.Context, username, password string) (bool, error)
}

// ConnectionResolver resolves a named connection string.
type ConnectionResolver interface {
	ConnectionString(name string) (string, error)
}

// Connector opens a database handle for a connection string.
type Connector func(dsn string) (*sql.DB, error)

const (
	userCreate   = "create"
	userDelete   = "delete"
	userList     = "list"
	userReset    = "reset"
	userFind     = "find"
	userUnlock   = "unlock"
	userOnline   = "online"
	userInstall  = "install"
	userValidate = "validate"
)

const (
	// placeholderQuestion and placeholderAnswer fill the security
	// question of users created from the console.
	placeholderQuestion = "question"
	placeholderAnswer   = "answer"

	findPageSize = 100
)

var userOptions = []option{
	{name: "create", short: "c", op: userCreate, usage: "create a user\nUSAGE: user --create username password email"},
	{name: "delete", short: "d", op: userDelete, usage: "delete a user\nUSAGE: user --delete username"},
	{name: "list", short: "l", op: userList, usage: "return a list of users"},
	{name: "reset", short: "r", op: userReset, usage: "reset a password\nUSAGE: user --reset username [answer]"},
	{name: "find", short: "f", op: userFind, takesValue: true, usage: "find a user by username or email\nUSAGE: user --find=`[name|email]` query"},
	{name: "unlock", short: "u", op: userUnlock, usage: "unlock a user\nUSAGE: user --unlock username"},
	{name: "online", short: "o", op: userOnline, usage: "get number of online users\nUSAGE: user --online"},
	{name: "install", short: "i", op: userInstall, usage: "applies the sql membership schema to the given database\nUSAGE: user --install connectionStringName"},
	{name: "validate", short: "v", op: userValidate, usage: "check a user's credentials\nUSAGE: user --validate username password"},
	{name: "help", short: "h", op: opHelp, usage: "show this list of options"},
}

// UserCommand manages membership users.
type UserCommand struct {
	store   UserStore
	conns   ConnectionResolver
	connect Connector
	schema  string
	log     *zap.Logger
}

// NewUserCommand creates the user command. conns and connect are used by
// --install to apply schema to a named database.
func NewUserCommand(store UserStore, conns ConnectionResolver, connect Connector, schema string, log *zap.Logger) *UserCommand {
	return &UserCommand{
		store:   store,
		conns:   conns,
		connect: connect,
		schema:  schema,
		log:     orNop(log),
	}
}

// Name returns "user".
func (c *UserCommand) Name() string { return "user" }

// Summary returns the help summary.
func (c *UserCommand) Summary() string {
	return "Manage membership users using the default provider"
}

// Process parses args and runs the selected user operation.
func (c *UserCommand) Process(ctx context.Context, args []string) (string, error) {
	inv, err := parse(c.Name(), userOptions, args)
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
		c.log.Warn("user operation failed", zap.String("op", inv.Op), zap.Error(err))
	}
	return out.String(), err
}

func (c *UserCommand) run(ctx context.Context, out *strings.Builder, inv Invocation) error {
	args := inv.Args

	switch inv.Op {
	case userCreate:
		if len(args) != 3 {
			out.WriteString("USAGE: user --create username password email\n")
			return nil
		}
		status, err := c.store.CreateUser(ctx, args[0], args[1], args[2], placeholderQuestion, placeholderAnswer, true, uuid.New())
		if err != nil {
			return fmt.Errorf("Error: %s: %w", status, err)
		}
		if status != models.StatusSuccess {
			return fmt.Errorf("Error: %s", status)
		}
		fmt.Fprintf(out, "User successfully created: %s\n", args[0])

	case userDelete:
		if len(args) != 1 {
			out.WriteString("USAGE: user --delete username\n")
			return nil
		}
		deleted, err := c.store.DeleteUser(ctx, args[0], true)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("Could not delete user: %s", args[0])
		}
		out.WriteString("User successfully deleted\n")

	case userList:
		if len(args) != 0 {
			out.WriteString("USAGE: user --list\n")
			return nil
		}
		users, err := c.store.ListAllUsers(ctx)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			out.WriteString("No users found\n")
			return nil
		}
		writeUsers(out, users)

	case userFind:
		return c.find(ctx, out, inv.Value, args)

	case userOnline:
		if len(args) != 0 {
			out.WriteString("USAGE: user --online\n")
			return nil
		}
		n, err := c.store.CountOnline(ctx)
		if err != nil {
			return err
		}
		if n == 1 {
			out.WriteString("There is currently 1 user online\n")
		} else {
			fmt.Fprintf(out, "There are currently %d users online\n", n)
		}

	case userReset:
		if len(args) < 1 || len(args) > 2 {
			out.WriteString("USAGE: user --reset username [answer]\n")
			return nil
		}
		answer := ""
		if len(args) == 2 {
			answer = args[1]
		}
		password, err := c.store.ResetPassword(ctx, args[0], answer)
		if err != nil {
			return err
		}
		if password != "" {
			fmt.Fprintf(out, "Password successfully reset.\nNew Password: %s\n", password)
		}

	case userUnlock:
		if len(args) != 1 {
			out.WriteString("USAGE: user --unlock username\n")
			return nil
		}
		unlocked, err := c.store.UnlockUser(ctx, args[0])
		if err != nil {
			return err
		}
		if unlocked {
			out.WriteString("User successfully unlocked\n")
		} else {
			fmt.Fprintf(out, "Could not unlock user: %s\n", args[0])
		}

	case userInstall:
		if len(args) != 1 {
			out.WriteString("USAGE: user --install connectionStringName\n")
			return nil
		}
		if err := c.install(ctx, out, args[0]); err != nil {
			return fmt.Errorf("Error: %w", err)
		}

	case userValidate:
		if len(args) != 2 {
			out.WriteString("USAGE: user --validate username password\n")
			return nil
		}
		ok, err := c.store.ValidateUser(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(out, "Credentials valid for %s\n", args[0])
		} else {
			fmt.Fprintf(out, "Invalid credentials for %s\n", args[0])
		}

	default:
		out.WriteString(help(c.Name(), c.Summary(), userOptions))
	}
	return nil
}

// find searches by email when mode is "email" and by name otherwise.
func (c *UserCommand) find(ctx context.Context, out *strings.Builder, mode string, args []string) error {
	byEmail := mode == "email"
	if len(args) != 1 {
		if byEmail {
			out.WriteString("USAGE: user --find=email emailaddress\n")
		} else {
			out.WriteString("USAGE: user --find=name\n")
		}
		return nil
	}

	query := args[0]
	search := c.store.FindUsersByName
	if byEmail {
		search = c.store.FindUsersByEmail
	}
	users, total, err := search(ctx, "%"+query+"%", 0, findPageSize)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintf(out, "No users found. query: %s\n", query)
		return nil
	}
	fmt.Fprintf(out, "%d users found. query: %s\n", total, query)
	writeUsers(out, users)
	return nil
}

func writeUsers(out *strings.Builder, users []models.User) {
	for _, u := range users {
		fmt.Fprintf(out, "%-20s %s\n", u.Username, u.Email)
	}
}
