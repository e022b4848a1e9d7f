package main

import (
	"crypto/tls"
	"testing"

	"github.com/atinyakov/memberctl/internal/certgen"
)

func TestServerTLS(t *testing.T) {
	dir := t.TempDir()
	ca, err := certgen.NewAuthority("Test CA")
	if err != nil {
		t.Fatal(err)
	}
	caCert, caKey, err := ca.PEM()
	if err != nil {
		t.Fatal(err)
	}
	if err := certgen.WriteFiles(dir, "ca", caCert, caKey); err != nil {
		t.Fatal(err)
	}
	srvCert, srvKey, err := ca.IssueServer("localhost")
	if err != nil {
		t.Fatal(err)
	}
	if err := certgen.WriteFiles(dir, "server", srvCert, srvKey); err != nil {
		t.Fatal(err)
	}

	cfg, err := serverTLS(dir)
	if err != nil {
		t.Fatalf("serverTLS error: %v", err)
	}
	if cfg.ClientAuth != tls.VerifyClientCertIfGiven {
		t.Errorf("ClientAuth = %v", cfg.ClientAuth)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("expected 1 server certificate, got %d", len(cfg.Certificates))
	}
}

func TestServerTLS_MissingFiles(t *testing.T) {
	if _, err := serverTLS(t.TempDir()); err == nil {
		t.Error("expected error for an empty cert dir")
	}
}
