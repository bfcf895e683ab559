package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func multiPortProvision() *Provision {
	return &Provision{
		Plan: &PortPlan{
			Tuic:    40001,
			Hy2:     40002,
			Reality: 40001,
			HTTP:    40002,
		},
		ArgoPort:   40001,
		Identity:   "6cf29c1f-29d9-4914-b481-13356aba2e9c",
		PrivateKey: "private-key-material",
		CertPath:   "/tmp/node/cert.pem",
		KeyPath:    "/tmp/node/private.key",
	}
}

func decodeConfig(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("generated config is not valid JSON: %v", err)
	}
	return parsed
}

func inboundsOf(t *testing.T, parsed map[string]interface{}) []map[string]interface{} {
	t.Helper()
	raw, ok := parsed["inbounds"].([]interface{})
	if !ok {
		t.Fatalf("inbounds missing: %v", parsed)
	}
	inbounds := make([]map[string]interface{}, 0, len(raw))
	for _, entry := range raw {
		inbounds = append(inbounds, entry.(map[string]interface{}))
	}
	return inbounds
}

func TestBuildMultiPort(t *testing.T) {
	t.Parallel()

	var s ConfigService
	data, err := s.Build(multiPortProvision())
	if err != nil {
		t.Fatal(err)
	}
	parsed := decodeConfig(t, data)

	if level := parsed["log"].(map[string]interface{})["level"]; level != "warn" {
		t.Fatalf("log level = %v, want warn", level)
	}

	inbounds := inboundsOf(t, parsed)
	if len(inbounds) != 4 {
		t.Fatalf("got %d inbounds, want 4", len(inbounds))
	}

	wantTypes := []string{"tuic", "hysteria2", "vless", "vless"}
	wantTags := []string{"tuic-in", "hy2-in", "vless-reality-in", "vless-argo-in"}
	for i, in := range inbounds {
		if in["type"] != wantTypes[i] || in["tag"] != wantTags[i] {
			t.Fatalf("inbound %d = %v/%v, want %v/%v", i, in["type"], in["tag"], wantTypes[i], wantTags[i])
		}
	}

	tuic := inbounds[0]
	if tuic["listen"] != "::" || tuic["listen_port"] != float64(40001) {
		t.Fatalf("tuic listen = %v:%v", tuic["listen"], tuic["listen_port"])
	}
	if tuic["congestion_control"] != "bbr" {
		t.Fatalf("tuic congestion_control = %v", tuic["congestion_control"])
	}
	tuicUser := tuic["users"].([]interface{})[0].(map[string]interface{})
	if tuicUser["uuid"] != "6cf29c1f-29d9-4914-b481-13356aba2e9c" || tuicUser["password"] != "admin" {
		t.Fatalf("tuic user = %v", tuicUser)
	}
	tuicTLS := tuic["tls"].(map[string]interface{})
	if tuicTLS["certificate_path"] != "/tmp/node/cert.pem" || tuicTLS["key_path"] != "/tmp/node/private.key" {
		t.Fatalf("tuic tls paths = %v", tuicTLS)
	}

	hy2 := inbounds[1]
	hy2User := hy2["users"].([]interface{})[0].(map[string]interface{})
	if hy2User["password"] != "6cf29c1f-29d9-4914-b481-13356aba2e9c" {
		t.Fatalf("hy2 user should carry the identity as password, got %v", hy2User)
	}
	if _, hasUUID := hy2User["uuid"]; hasUUID {
		t.Fatal("hy2 user must not carry a uuid")
	}

	reality := inbounds[2]
	realityUser := reality["users"].([]interface{})[0].(map[string]interface{})
	if realityUser["flow"] != "xtls-rprx-vision" {
		t.Fatalf("reality user flow = %v", realityUser["flow"])
	}
	realityTLS := reality["tls"].(map[string]interface{})
	if realityTLS["server_name"] != "www.nazhumi.com" {
		t.Fatalf("reality server_name = %v", realityTLS["server_name"])
	}
	realityBlock := realityTLS["reality"].(map[string]interface{})
	if realityBlock["private_key"] != "private-key-material" {
		t.Fatalf("reality private_key = %v", realityBlock["private_key"])
	}
	handshake := realityBlock["handshake"].(map[string]interface{})
	if handshake["server"] != "www.nazhumi.com" || handshake["server_port"] != float64(443) {
		t.Fatalf("reality handshake = %v", handshake)
	}
	shortIDs := realityBlock["short_id"].([]interface{})
	if len(shortIDs) != 1 || shortIDs[0] != "" {
		t.Fatalf("reality short_id = %v, want a single empty entry", shortIDs)
	}

	argo := inbounds[3]
	if argo["listen"] != "127.0.0.1" || argo["listen_port"] != float64(40001) {
		t.Fatalf("argo inbound listen = %v:%v", argo["listen"], argo["listen_port"])
	}
	transport := argo["transport"].(map[string]interface{})
	if transport["type"] != "ws" {
		t.Fatalf("argo transport type = %v", transport["type"])
	}
	if transport["path"] != "/6cf29c1f-29d9-4914-b481-13356aba2e9c-vless" {
		t.Fatalf("argo ws path = %v", transport["path"])
	}

	outbounds := parsed["outbounds"].([]interface{})
	out := outbounds[0].(map[string]interface{})
	if out["type"] != "direct" || out["tag"] != "direct" {
		t.Fatalf("outbound = %v", out)
	}
}

func TestBuildSinglePort(t *testing.T) {
	t.Parallel()

	p := multiPortProvision()
	p.Plan = &PortPlan{SinglePort: true, Hy2: 443, HTTP: 443}
	p.ArgoPort = 40001

	var s ConfigService
	data, err := s.Build(p)
	if err != nil {
		t.Fatal(err)
	}
	inbounds := inboundsOf(t, decodeConfig(t, data))

	if len(inbounds) != 2 {
		t.Fatalf("got %d inbounds, want hy2 plus argo only", len(inbounds))
	}
	if inbounds[0]["tag"] != "hy2-in" || inbounds[1]["tag"] != "vless-argo-in" {
		t.Fatalf("inbound tags = %v, %v", inbounds[0]["tag"], inbounds[1]["tag"])
	}
}

func TestBuildSinglePortTuic(t *testing.T) {
	t.Parallel()

	p := multiPortProvision()
	p.Plan = &PortPlan{SinglePort: true, Tuic: 443, HTTP: 443}

	var s ConfigService
	data, err := s.Build(p)
	if err != nil {
		t.Fatal(err)
	}
	inbounds := inboundsOf(t, decodeConfig(t, data))

	if len(inbounds) != 2 {
		t.Fatalf("got %d inbounds, want tuic plus argo only", len(inbounds))
	}
	if inbounds[0]["tag"] != "tuic-in" {
		t.Fatalf("first inbound tag = %v", inbounds[0]["tag"])
	}
	for _, in := range inbounds {
		if in["tag"] == "vless-reality-in" {
			t.Fatal("single port plan must not emit a reality inbound")
		}
	}
}

func TestGenerateWritesConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var s ConfigService
	path, err := s.Generate(dir, multiPortProvision())
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "config.json") {
		t.Fatalf("config path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	decodeConfig(t, data)
}
