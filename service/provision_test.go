package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fallwind/s-node/database"
	"github.com/fallwind/s-node/database/model"
)

func TestPrepareDirPreservesCredentials(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "node")
	t.Setenv("SNODE_WORK_DIR", dir)
	t.Setenv("SNODE_FRESH", "false")

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"uuid.txt":    "6cf29c1f-29d9-4914-b481-13356aba2e9c",
		"key.txt":     "PrivateKey: priv\nPublicKey: pub\n",
		"config.json": "{}",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s := NewProvisionService(nil, nil)
	got, err := s.prepareDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Fatalf("prepareDir returned %q, want %q", got, dir)
	}

	for _, name := range []string{"uuid.txt", "key.txt"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("%s did not survive the wipe: %v", name, err)
		}
		if string(data) != files[name] {
			t.Fatalf("%s content changed to %q", name, data)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); !os.IsNotExist(err) {
		t.Fatal("config.json should be gone after the wipe")
	}
}

func TestPrepareDirFresh(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "node")
	t.Setenv("SNODE_WORK_DIR", dir)
	t.Setenv("SNODE_FRESH", "true")

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "uuid.txt"), []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewProvisionService(nil, nil)
	if _, err := s.prepareDir(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "uuid.txt")); !os.IsNotExist(err) {
		t.Fatal("a fresh start must drop the persisted identity")
	}
}

func TestEnsureRealityKeysCached(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cached := "PrivateKey: cached-private\nPublicKey: cached-public\n"
	if err := os.WriteFile(filepath.Join(dir, "key.txt"), []byte(cached), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewProvisionService(nil, nil)
	privateKey, publicKey, err := s.ensureRealityKeys(dir, filepath.Join(dir, "missing-engine"))
	if err != nil {
		t.Fatal(err)
	}
	if privateKey != "cached-private" || publicKey != "cached-public" {
		t.Fatalf("keys = %q / %q", privateKey, publicKey)
	}
}

func TestEnsureRealityKeysUnparseable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "key.txt"), []byte("not a keypair"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewProvisionService(nil, nil)
	privateKey, publicKey, err := s.ensureRealityKeys(dir, filepath.Join(dir, "missing-engine"))
	if err != nil {
		t.Fatalf("unparseable cache must not be fatal: %v", err)
	}
	if privateKey != "" || publicKey != "" {
		t.Fatalf("keys should be empty, got %q / %q", privateKey, publicKey)
	}
}

func TestEnsureRealityKeysMissingEngine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewProvisionService(nil, nil)
	if _, _, err := s.ensureRealityKeys(dir, filepath.Join(dir, "missing-engine")); err == nil {
		t.Fatal("generation without an engine binary must fail")
	}
}

func TestWriteSubscription(t *testing.T) {
	t.Parallel()

	p := &Provision{
		Plan:         &PortPlan{Tuic: 40001, Hy2: 40002, Reality: 40001, HTTP: 40002},
		Dir:          t.TempDir(),
		PublicIP:     "203.0.113.10",
		FrontDomain:  "cf.090227.xyz",
		Identity:     "6cf29c1f-29d9-4914-b481-13356aba2e9c",
		PublicKey:    "pbk",
		ISP:          "ExampleNet-NL",
		TunnelDomain: "quiet-otter-example.trycloudflare.com",
	}

	s := NewProvisionService(nil, nil)
	if err := s.WriteSubscription(p); err != nil {
		t.Fatal(err)
	}

	sub, err := os.ReadFile(p.SubPath())
	if err != nil {
		t.Fatal(err)
	}
	list, err := os.ReadFile(filepath.Join(p.Dir, "list.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(sub) != string(list) {
		t.Fatal("sub.txt and list.txt must be identical")
	}
	if !strings.HasSuffix(string(sub), "\n") {
		t.Fatal("subscription document must end with a newline")
	}
	lines := strings.Split(strings.TrimRight(string(sub), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), sub)
	}
}

func TestSubscriptionURL(t *testing.T) {
	t.Parallel()

	p := &Provision{
		PublicIP: "203.0.113.10",
		Plan:     &PortPlan{HTTP: 40002},
	}
	s := NewProvisionService(nil, nil)
	if got := s.SubscriptionURL(p); got != "http://203.0.113.10:40002/sub" {
		t.Fatalf("subscription URL = %q", got)
	}
}

func TestGetRuns(t *testing.T) {
	openTestDB(t)

	db := database.GetDB()
	for i := 0; i < 3; i++ {
		run := &model.Run{DateTime: int64(1700000000 + i), PublicIP: "203.0.113.10"}
		if err := db.Create(run).Error; err != nil {
			t.Fatal(err)
		}
	}

	s := NewProvisionService(nil, nil)
	runs, err := s.GetRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Id < runs[1].Id {
		t.Fatal("runs must come back newest first")
	}
}
