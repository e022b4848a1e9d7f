package main

import (
	"context"
	"fmt"

	"github.com/atinyakov/memberctl/internal/command"
	"github.com/spf13/cobra"
)

// registryBuilder provides the commands run by the role and user subcommands.
type registryBuilder func(ctx context.Context) (*command.Registry, func(), error)

func newRootCmd(build registryBuilder) *cobra.Command {
	root := &cobra.Command{
		Use:   "memberctl",
		Short: "Administer membership users and roles.",
		Long: `memberctl manages membership users and roles stored in Postgres.

The role and user subcommands take their options verbatim, e.g.

	memberctl role --give alice admins
	memberctl user --find=email example.com

Configuration is read from memberctl.json (or the file named by CONFIG)
and MEMBERCTL_* environment variables.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		localCmd("role", "Manage membership roles using the default provider", build),
		localCmd("user", "Manage membership users using the default provider", build),
		newRemoteCmd(),
	)
	return root
}

// localCmd hands the raw arguments to the named console command.
func localCmd(name, short string, build registryBuilder) *cobra.Command {
	return &cobra.Command{
		Use:                name + " [OPTIONS] [ARGS...]",
		Short:              short,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, cleanup, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			c, ok := reg.Lookup(name)
			if !ok {
				return fmt.Errorf("%w: %s", command.ErrUnknownCommand, name)
			}
			out, err := c.Process(cmd.Context(), args)
			fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}
