package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownCommand is returned by Registry.Run for an unregistered name.
var ErrUnknownCommand = errors.New("unknown command")

// ErrEmptyLine is returned by Registry.Run for a blank console line.
var ErrEmptyLine = errors.New("empty command line")

// Registry maps command names to commands. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	commands map[string]Command
}

// NewRegistry registers cmds by name.
func NewRegistry(cmds ...Command) *Registry {
	r := &Registry{commands: make(map[string]Command, len(cmds))}
	for _, c := range cmds {
		r.commands[c.Name()] = c
	}
	return r
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run splits a console line on whitespace, looks up the command named by
// the first word and processes the rest. It returns the command name so
// callers can label the outcome.
func (r *Registry) Run(ctx context.Context, line string) (string, string, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return "", "", ErrEmptyLine
	}
	cmd, ok := r.Lookup(words[0])
	if !ok {
		return words[0], "", fmt.Errorf("%w: %s", ErrUnknownCommand, words[0])
	}
	out, err := cmd.Process(ctx, words[1:])
	return words[0], out, err
}
