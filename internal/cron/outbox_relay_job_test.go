package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/rpg-market/pkg/logger"
)

type fakeRelay struct {
	published int
	err       error
	calls     int
}

func (f *fakeRelay) RelayBatch(context.Context) (int, error) {
	f.calls++
	return f.published, f.err
}

func TestOutboxRelayJobRunsOneBatch(t *testing.T) {
	relay := &fakeRelay{published: 3}
	job, err := NewOutboxRelayJob(OutboxRelayJobParams{Logger: logger.Nop(), Relay: relay})
	if err != nil {
		t.Fatalf("NewOutboxRelayJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if relay.calls != 1 {
		t.Fatalf("expected one batch, got %d", relay.calls)
	}
}

func TestOutboxRelayJobPropagatesError(t *testing.T) {
	relay := &fakeRelay{published: 1, err: errors.New("publish failed")}
	job, err := NewOutboxRelayJob(OutboxRelayJobParams{Logger: logger.Nop(), Relay: relay})
	if err != nil {
		t.Fatalf("NewOutboxRelayJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
