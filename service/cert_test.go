package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "private.key")

	var s CertService
	if err := s.writeFallback(certPath, keyPath); err != nil {
		t.Fatal(err)
	}

	cert, err := os.ReadFile(certPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(cert), "-----BEGIN CERTIFICATE-----") {
		t.Fatalf("cert.pem does not look like a certificate: %q", cert[:30])
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(key), "EC PRIVATE KEY") {
		t.Fatal("private.key does not look like a key")
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("private.key mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestEnsureCerts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var s CertService

	certPath, keyPath, err := s.EnsureCerts(dir)
	if err != nil {
		t.Fatal(err)
	}
	if certPath != filepath.Join(dir, "cert.pem") {
		t.Fatalf("cert path = %q", certPath)
	}
	if keyPath != filepath.Join(dir, "private.key") {
		t.Fatalf("key path = %q", keyPath)
	}

	// Either the openssl path or the embedded pair must have produced
	// both files.
	if _, err := os.Stat(certPath); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(keyPath); err != nil {
		t.Fatal(err)
	}
}
