package config

import (
	"testing"
	"time"

	kit "reposcope/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	gh := root.Prefix("GITHUB_")
	if got := gh.key("TOKEN"); got != "GITHUB_TOKEN" {
		t.Fatalf("key() = %q, want %q", got, "GITHUB_TOKEN")
	}
	// nested prefix
	ghLog := gh.Prefix("LOG_")
	if got := ghLog.key("LEVEL"); got != "GITHUB_LOG_LEVEL" {
		t.Fatalf("nested key() = %q, want %q", got, "GITHUB_LOG_LEVEL")
	}
}

// Must* panics

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  reposcope ")
	got := c.MustString("NAME")
	if got != "reposcope" {
		t.Fatalf("MustString = %q, want %q", got, "reposcope")
	}

	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustPort(t *testing.T) {
	c := New().Prefix("P_")
	t.Setenv("P_PORT", "4000")
	if got := c.MustPort("PORT"); got != ":4000" {
		t.Fatalf("MustPort = %q, want %q", got, ":4000")
	}
	t.Setenv("P_BAD", "abc")
	kit.MustPanic(t, func() { _ = c.MustPort("BAD") })
	t.Setenv("P_OOB", "70000")
	kit.MustPanic(t, func() { _ = c.MustPort("OOB") })
}

func TestRequire(t *testing.T) {
	c := New().Prefix("REQ_")
	t.Setenv("REQ_A", "x")
	t.Setenv("REQ_B", "y")
	// should not panic
	c.Require("A", "B")

	// missing C should panic
	kit.MustPanic(t, func() { c.Require("A", "C") })
}

// May* fallbacks

func TestMayString(t *testing.T) {
	c := New().Prefix("S_")
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q, want %q", got, "def")
	}
	t.Setenv("S_NAME", " reposcope ")
	if got := c.MayString("NAME", "x"); got != "reposcope" {
		t.Fatalf("MayString value = %q, want %q", got, "reposcope")
	}
}

func TestMayInt(t *testing.T) {
	c := New().Prefix("I_")
	if got := c.MayInt("MISSING", 9); got != 9 {
		t.Fatalf("MayInt default = %d, want 9", got)
	}
	t.Setenv("I_CONC", " 8 ")
	if got := c.MayInt("CONC", 1); got != 8 {
		t.Fatalf("MayInt value = %d, want 8", got)
	}
	t.Setenv("I_BAD", "x")
	if got := c.MayInt("BAD", 7); got != 7 {
		t.Fatalf("MayInt invalid = %d, want default 7", got)
	}
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("B_")
	if got := c.MayBool("MISSING", true); !got {
		t.Fatalf("MayBool default expected true")
	}
	t.Setenv("B_ON", "false")
	if got := c.MayBool("ON", true); got {
		t.Fatalf("MayBool value expected false")
	}
	t.Setenv("B_BAD", "notabool")
	if got := c.MayBool("BAD", true); !got {
		t.Fatalf("MayBool invalid expected default true")
	}
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("D_")
	if got := c.MayDuration("MISSING", time.Second); got != time.Second {
		t.Fatalf("MayDuration default = %v", got)
	}
	t.Setenv("D_TIMEOUT", "250ms")
	if got := c.MayDuration("TIMEOUT", time.Second); got != 250*time.Millisecond {
		t.Fatalf("MayDuration value = %v", got)
	}
	t.Setenv("D_BAD", "nope")
	if got := c.MayDuration("BAD", 2*time.Second); got != 2*time.Second {
		t.Fatalf("MayDuration invalid = %v, want default", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("C_")
	def := []string{"a"}
	if got := c.MayCSV("MISSING", def); len(got) != 1 || got[0] != "a" {
		t.Fatalf("MayCSV default mismatch: %v", got)
	}
	t.Setenv("C_TOKENS", " t1 , ,t2 ")
	got := c.MayCSV("TOKENS", nil)
	if len(got) != 2 || got[0] != "t1" || got[1] != "t2" {
		t.Fatalf("MayCSV parse mismatch: %v", got)
	}
	t.Setenv("C_EMPTYISH", " , , ")
	if got := c.MayCSV("EMPTYISH", def); len(got) != 1 || got[0] != "a" {
		t.Fatalf("MayCSV all-empty should fall back: %v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	if got := c.MayEnum("MISSING", "archive", "archive", "clone"); got != "archive" {
		t.Fatalf("MayEnum default = %q", got)
	}
	t.Setenv("E_STRATEGY", "Clone")
	if got := c.MayEnum("STRATEGY", "archive", "archive", "clone"); got != "Clone" {
		t.Fatalf("MayEnum case-insensitive match = %q", got)
	}
	t.Setenv("E_BAD", "zipline")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "archive", "archive", "clone") })
}
