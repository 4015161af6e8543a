package config

import (
	"testing"
	"time"

	"scanhub/internal/platform/testkit"
)

func TestPrefixNesting(t *testing.T) {
	t.Setenv("CORE_SCAN_REQUEST_TIMEOUT", "45s")

	c := New().Prefix("CORE_").Prefix("SCAN_")
	if got := c.MayDuration("REQUEST_TIMEOUT", time.Second); got != 45*time.Second {
		t.Fatalf("got %v", got)
	}
}

func TestMayDefaults(t *testing.T) {
	c := New().Prefix("SCANHUB_TEST_UNSET_")

	if got := c.MayString("S", "fallback"); got != "fallback" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayInt("I", 7); got != 7 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayBool("B", true); !got {
		t.Fatal("MayBool fallback lost")
	}
	if got := c.MayCSV("C", []string{"a"}); len(got) != 1 || got[0] != "a" {
		t.Fatalf("MayCSV = %v", got)
	}
}

func TestMayCSVSplitsAndTrims(t *testing.T) {
	t.Setenv("SCANHUB_TEST_TOKENS", " u1:t1 , u2:t2 ")
	c := New().Prefix("SCANHUB_TEST_")
	got := c.MayCSV("TOKENS", nil)
	if len(got) != 2 || got[0] != "u1:t1" || got[1] != "u2:t2" {
		t.Fatalf("got %v", got)
	}
}

func TestMustStringPanicsWhenMissing(t *testing.T) {
	testkit.MustPanic(t, func() {
		New().Prefix("SCANHUB_TEST_UNSET_").MustString("REQUIRED")
	})
}
