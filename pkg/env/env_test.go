package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("RPGMARKET_TEST_VALUE", "set")
	if got := Get("RPGMARKET_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected set value, got %q", got)
	}
	if got := Get("RPGMARKET_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("RPGMARKET_TEST_BOOL", "true")
	t.Setenv("RPGMARKET_TEST_BAD_BOOL", "sometimes")
	if !GetBool("RPGMARKET_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	if !GetBool("RPGMARKET_TEST_BAD_BOOL", true) {
		t.Fatalf("malformed value should use fallback")
	}
	if GetBool("RPGMARKET_TEST_UNSET_BOOL", false) {
		t.Fatalf("unset value should use fallback")
	}
}
