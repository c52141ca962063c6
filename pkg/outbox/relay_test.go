package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRelayRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	limit     int
	attempts  int
}

func (f *fakeRelayRepo) FetchUnpublished(_ context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	f.limit = limit
	f.attempts = maxAttempts
	return f.events, nil
}

func (f *fakeRelayRepo) MarkPublished(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRelayRepo) MarkFailed(_ context.Context, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePublisher struct {
	failFor  map[uuid.UUID]bool
	messages []Message
	channel  string
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) (int64, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return 0, err
	}
	if f.failFor[msg.ID] {
		return 0, errors.New("redis down")
	}
	f.channel = channel
	f.messages = append(f.messages, msg)
	return 1, nil
}

func newEvent() models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventBidPlaced,
		AggregateType: enums.AggregateListing,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
	}
}

func TestRelayBatchPublishesAndMarks(t *testing.T) {
	ok, bad := newEvent(), newEvent()
	repo := &fakeRelayRepo{events: []models.OutboxEvent{ok, bad}}
	pub := &fakePublisher{failFor: map[uuid.UUID]bool{bad.ID: true}}

	relay, err := NewRelay(RelayParams{Repository: repo, Publisher: pub, Channel: "rpg-market:events", MaxAttempts: 4})
	require.NoError(t, err)

	n, err := relay.RelayBatch(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uuid.UUID{ok.ID}, repo.published)
	assert.Equal(t, []uuid.UUID{bad.ID}, repo.failed)
	assert.Equal(t, defaultBatchSize, repo.limit)
	assert.Equal(t, 4, repo.attempts)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "rpg-market:events", pub.channel)
	assert.Equal(t, "bid_placed", pub.messages[0].EventType)
}

func TestNewRelayValidation(t *testing.T) {
	_, err := NewRelay(RelayParams{})
	assert.Error(t, err)
	_, err = NewRelay(RelayParams{Repository: &fakeRelayRepo{}})
	assert.Error(t, err)
	_, err = NewRelay(RelayParams{Repository: &fakeRelayRepo{}, Publisher: &fakePublisher{}})
	assert.Error(t, err)
}
