package sub

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/fallwind/s-node/service"
)

type stubSource struct {
	p *service.Provision
}

func (s *stubSource) Current() *service.Provision {
	return s.p
}

func testProvision(t *testing.T) *service.Provision {
	t.Helper()
	p := &service.Provision{
		Dir:      t.TempDir(),
		Identity: "6cf29c1f-29d9-4914-b481-13356aba2e9c",
		PublicIP: "203.0.113.10",
		Plan:     &service.PortPlan{HTTP: 40002},
	}
	content := "tuic://example\nhysteria2://example\n"
	if err := os.WriteFile(p.SubPath(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func serve(t *testing.T, source ProvisionSource, path string) *httptest.ResponseRecorder {
	t.Helper()
	server := NewServer(source, &service.StatsService{})
	router := server.initRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestServeSubPath(t *testing.T) {
	p := testProvision(t)
	w := serve(t, &stubSource{p: p}, "/sub")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want, _ := os.ReadFile(p.SubPath())
	if w.Body.String() != string(want) {
		t.Fatalf("body = %q, want the subscription document", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestServeIdentityPath(t *testing.T) {
	p := testProvision(t)

	for _, path := range []string{
		"/" + p.Identity,
		"/v1/" + p.Identity + "/extra",
		"/nested/sub/path",
	} {
		w := serve(t, &stubSource{p: p}, path)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, w.Code)
		}
	}
}

func TestServeUnknownPath(t *testing.T) {
	p := testProvision(t)
	w := serve(t, &stubSource{p: p}, "/nothing-here")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if w.Body.String() != "404" {
		t.Fatalf("body = %q, want 404", w.Body.String())
	}
}

func TestServeBeforeProvision(t *testing.T) {
	w := serve(t, &stubSource{}, "/sub")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if w.Body.String() != "404" {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestServeUnreadableDocument(t *testing.T) {
	p := testProvision(t)
	if err := os.Remove(p.SubPath()); err != nil {
		t.Fatal(err)
	}

	w := serve(t, &stubSource{p: p}, "/sub")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, a missing document still answers 200", w.Code)
	}
	if w.Body.String() != "error" {
		t.Fatalf("body = %q, want error", w.Body.String())
	}
}

func TestMatches(t *testing.T) {
	identity := "6cf29c1f-29d9-4914-b481-13356aba2e9c"
	tests := []struct {
		path string
		want bool
	}{
		{"/sub", true},
		{"/sub/extra", true},
		{"/api/subscription", true},
		{"/" + identity, true},
		{"/prefix/" + identity, true},
		{"/", false},
		{"/other", false},
	}
	for _, tc := range tests {
		if got := matches(tc.path, identity); got != tc.want {
			t.Errorf("matches(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestStopWithoutStart(t *testing.T) {
	server := NewServer(&stubSource{p: testProvision(t)}, &service.StatsService{})
	if err := server.Stop(); err != nil {
		t.Fatalf("stop before start should be a no-op, got %v", err)
	}
}
