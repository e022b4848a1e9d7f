// Package main generates the console CA, a server certificate and operator
// client certificates, writing them to the certs directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atinyakov/memberctl/internal/certgen"
	"github.com/spf13/pflag"
)

func main() {
	dir := pflag.StringP("dir", "d", "certs", "output directory")
	hosts := pflag.StringSlice("host", []string{"localhost", "127.0.0.1"}, "server certificate hosts")
	operators := pflag.StringSlice("operator", []string{"admin"}, "operator certificates to issue")
	pflag.Parse()

	if err := run(*dir, *hosts, *operators); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Certificates generated into %s\n", *dir)
}

// run reuses dir/ca.crt and dir/ca.key when present and creates a new CA otherwise.
func run(dir string, hosts, operators []string) error {
	ca, err := certgen.LoadAuthority(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		if ca, err = certgen.NewAuthority("memberctl CA"); err != nil {
			return err
		}
		certPEM, keyPEM, err := ca.PEM()
		if err != nil {
			return err
		}
		if err := certgen.WriteFiles(dir, "ca", certPEM, keyPEM); err != nil {
			return err
		}
	}

	certPEM, keyPEM, err := ca.IssueServer(hosts...)
	if err != nil {
		return fmt.Errorf("issue server certificate: %w", err)
	}
	if err := certgen.WriteFiles(dir, "server", certPEM, keyPEM); err != nil {
		return err
	}

	for _, name := range operators {
		certPEM, keyPEM, err := ca.IssueOperator(name)
		if err != nil {
			return fmt.Errorf("issue operator %q: %w", name, err)
		}
		if err := certgen.WriteFiles(dir, name, certPEM, keyPEM); err != nil {
			return err
		}
	}
	return nil
}
