// Package command implements the role and user console commands. Each
// command parses raw argument lists the way a shell would hand them over
// and forwards the selected operation to a store.
package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// opHelp is the operation selected by --help or by no option at all.
const opHelp = ""

// option declares one switch of a command.
type option struct {
	name  string
	short string
	usage string
	// op is the operation the switch selects.
	op string
	// takesValue marks switches such as --find=mode.
	takesValue bool
}

// Invocation is the result of parsing one argument list.
type Invocation struct {
	// Op is the selected operation; the last switch on the line wins.
	Op string
	// Value is the argument of the selecting switch, if it takes one.
	Value string
	// Args are the positional arguments in order.
	Args []string
}

func newFlagSet(name string, options []option) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	for _, o := range options {
		if o.takesValue {
			fs.StringP(o.name, o.short, "", o.usage)
		} else {
			fs.BoolP(o.name, o.short, false, o.usage)
		}
	}
	return fs
}

// parse reads args against options. Switches are recorded in command-line
// order and the last one selects the operation.
func parse(name string, options []option, args []string) (Invocation, error) {
	byName := make(map[string]option, len(options))
	for _, o := range options {
		byName[o.name] = o
	}

	var inv Invocation
	fs := newFlagSet(name, options)
	err := fs.ParseAll(args, func(flag *pflag.Flag, value string) error {
		o := byName[flag.Name]
		inv.Op = o.op
		inv.Value = ""
		if o.takesValue {
			inv.Value = value
		}
		return nil
	})
	if err != nil {
		return Invocation{}, err
	}
	inv.Args = fs.Args()
	return inv, nil
}

// parseFailure renders a parse error with the --help hint.
func parseFailure(name string, err error) string {
	return fmt.Sprintf("%s: %s\nTry `%s --help' for more information.\n", name, err, name)
}

// help renders the usage header and the option descriptions.
func help(name, summary string, options []option) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s [OPTIONS]\n", name)
	b.WriteString(summary)
	b.WriteString("\n\nOptions:\n")
	b.WriteString(newFlagSet(name, options).FlagUsages())
	b.WriteString("\n")
	return b.String()
}
