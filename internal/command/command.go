package command

import (
	"context"

	"go.uber.org/zap"
)

// Command is a named console command.
type Command interface {
	// Name is the word that selects the command on a console line.
	Name() string
	// Summary is the one-line description shown in help.
	Summary() string
	// Process runs the command. The text is returned even when err is
	// non-nil; a non-nil error marks a hard failure.
	Process(ctx context.Context, args []string) (string, error)
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
