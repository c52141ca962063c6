package instance

import (
	"strings"
	"testing"
)

func TestIDPrefersWorkerID(t *testing.T) {
	t.Setenv("WORKER_ID", "closer-2")
	if got := ID(); got != "closer-2" {
		t.Fatalf("expected closer-2, got %q", got)
	}
}

func TestIDFallsBackToHost(t *testing.T) {
	t.Setenv("WORKER_ID", "")
	got := ID()
	if got == "" || !strings.Contains(got, "-") {
		t.Fatalf("expected host-pid identifier, got %q", got)
	}
}
