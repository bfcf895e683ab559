package telegram

import (
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	command, args := parseCommand("/logs 20 debug")
	if command != "/logs" {
		t.Fatalf("command = %q", command)
	}
	if len(args) != 2 || args[0] != "20" || args[1] != "debug" {
		t.Fatalf("args = %v", args)
	}

	command, args = parseCommand("  /sub  ")
	if command != "/sub" || len(args) != 0 {
		t.Fatalf("command = %q, args = %v", command, args)
	}

	command, args = parseCommand("")
	if command != "" || args != nil {
		t.Fatalf("empty text parsed to %q, %v", command, args)
	}
}

func TestIsAdmin(t *testing.T) {
	adminIDs = map[int64]bool{42: true}
	defer func() { adminIDs = make(map[int64]bool) }()

	if !isAdmin(42) {
		t.Fatal("42 should be an admin")
	}
	if isAdmin(7) {
		t.Fatal("7 should not be an admin")
	}
}

func TestProcessLine(t *testing.T) {
	if got := processLine("engine", map[string]interface{}{"running": false}); got != "- engine: stopped\n" {
		t.Fatalf("stopped line = %q", got)
	}

	got := processLine("tunnel", map[string]interface{}{
		"running": true,
		"pid":     123,
		"mode":    "quick",
	})
	if got != "- tunnel: running (quick), PID 123\n" {
		t.Fatalf("tunnel line = %q", got)
	}

	got = processLine("engine", map[string]interface{}{
		"running": true,
		"pid":     456,
	})
	if !strings.HasPrefix(got, "- engine: running, PID 456") {
		t.Fatalf("engine line = %q", got)
	}

	if got := processLine("engine", nil); got != "" {
		t.Fatalf("nil info line = %q", got)
	}
}
