package main

import (
	"fmt"
	"strings"

	"github.com/atinyakov/memberctl/internal/client"
	"github.com/spf13/cobra"
)

type remoteOptions struct {
	url  string
	cert string
	key  string
	ca   string
}

func newRemoteCmd() *cobra.Command {
	opts := remoteOptions{}
	cmd := &cobra.Command{
		Use:     "remote [flags] <command line>",
		Short:   "Run a console command on a remote membership server.",
		Example: "memberctl remote --cert certs/admin.crt --key certs/admin.key user --online",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			httpClient, err := client.LoadClientCertificate(opts.cert, opts.key, opts.ca)
			if err != nil {
				return err
			}
			console := &client.Console{HTTP: httpClient, BaseURL: opts.url}

			out, err := console.Run(cmd.Context(), strings.Join(args, " "))
			fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	flags := cmd.Flags()
	// everything after the first positional belongs to the remote command
	flags.SetInterspersed(false)
	flags.StringVar(&opts.url, "url", "https://localhost:8443", "console server base URL")
	flags.StringVar(&opts.cert, "cert", "certs/admin.crt", "operator certificate")
	flags.StringVar(&opts.key, "key", "certs/admin.key", "operator private key")
	flags.StringVar(&opts.ca, "ca", "certs/ca.crt", "console CA certificate")
	return cmd
}
