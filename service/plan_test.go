package service

import (
	"testing"
)

func TestResolvePortPlanSingle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		udpProto string
		wantTuic int
		wantHy2  int
	}{
		{name: "hy2 default", udpProto: "hy2", wantTuic: 0, wantHy2: 443},
		{name: "tuic", udpProto: "tuic", wantTuic: 443, wantHy2: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := ResolvePortPlan([]string{"443"}, tc.udpProto)
			if err != nil {
				t.Fatal(err)
			}
			if !plan.SinglePort {
				t.Fatal("expected a single port plan")
			}
			if plan.Tuic != tc.wantTuic || plan.Hy2 != tc.wantHy2 {
				t.Fatalf("got tuic=%d hy2=%d, want tuic=%d hy2=%d", plan.Tuic, plan.Hy2, tc.wantTuic, tc.wantHy2)
			}
			if plan.Reality != 0 {
				t.Fatalf("single port plan must not offer reality, got %d", plan.Reality)
			}
			if plan.HTTP != 443 {
				t.Fatalf("HTTP share port = %d, want 443", plan.HTTP)
			}
		})
	}
}

func TestResolvePortPlanMulti(t *testing.T) {
	t.Parallel()

	plan, err := ResolvePortPlan([]string{"40001", "40002", "40003"}, "hy2")
	if err != nil {
		t.Fatal(err)
	}
	if plan.SinglePort {
		t.Fatal("expected a multi port plan")
	}
	if plan.Tuic != 40001 || plan.Reality != 40001 {
		t.Fatalf("tuic=%d reality=%d, both should be 40001", plan.Tuic, plan.Reality)
	}
	if plan.Hy2 != 40002 || plan.HTTP != 40002 {
		t.Fatalf("hy2=%d http=%d, both should be 40002", plan.Hy2, plan.HTTP)
	}
}

func TestResolvePortPlanInvalid(t *testing.T) {
	t.Parallel()

	for _, ports := range [][]string{
		{},
		{"0"},
		{"65536"},
		{"abc"},
		{"443", "xyz"},
	} {
		if _, err := ResolvePortPlan(ports, "hy2"); err == nil {
			t.Fatalf("ResolvePortPlan(%q) should fail", ports)
		}
	}
}

func TestPortPlanMode(t *testing.T) {
	t.Parallel()

	multi, err := ResolvePortPlan([]string{"1000", "2000"}, "hy2")
	if err != nil {
		t.Fatal(err)
	}
	if got := multi.Mode(); got != "multi port (TUIC + HY2 + Reality + Argo)" {
		t.Fatalf("multi mode = %q", got)
	}

	tuic, err := ResolvePortPlan([]string{"1000"}, "tuic")
	if err != nil {
		t.Fatal(err)
	}
	if got := tuic.Mode(); got != "single port (TUIC + Argo)" {
		t.Fatalf("single tuic mode = %q", got)
	}

	hy2, err := ResolvePortPlan([]string{"1000"}, "hy2")
	if err != nil {
		t.Fatal(err)
	}
	if got := hy2.Mode(); got != "single port (HY2 + Argo)" {
		t.Fatalf("single hy2 mode = %q", got)
	}
}
