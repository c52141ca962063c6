package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/angelmondragon/rpg-market/pkg/db/dbtest"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/angelmondragon/rpg-market/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmitStoresEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	ctx := context.Background()
	listingID := uuid.New()
	actor := &ActorRef{UserID: uuid.New(), Username: "gandalf", Role: "MASTER"}

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventListingRemoved,
			AggregateType: enums.AggregateListing,
			AggregateID:   listingID,
			Actor:         actor,
			Data:          payloads.ListingRemovedEvent{ListingID: listingID, Moderated: true, RefundedBids: 2},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, listingID, rows[0].AggregateID)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, "gandalf", env.Actor.Username)

	var data payloads.ListingRemovedEvent
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.RefundedBids)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	ctx := context.Background()

	_ = conn.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventBidPlaced,
			AggregateType: enums.AggregateListing,
			AggregateID:   uuid.New(),
		}))
		return assert.AnError
	})

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestEmitRequiresTransactionAndTypes(t *testing.T) {
	svc := NewService(nil, nil)
	assert.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))

	conn := dbtest.Open(t)
	svc = NewService(NewRepository(conn), nil)
	assert.Error(t, svc.Emit(context.Background(), conn, DomainEvent{EventType: "nope"}))
}

func TestRepositoryLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	old := models.OutboxEvent{
		EventType:     enums.EventAuctionClosed,
		AggregateType: enums.AggregateListing,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	exhausted := models.OutboxEvent{
		EventType:     enums.EventAuctionClosed,
		AggregateType: enums.AggregateListing,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		AttemptCount:  3,
	}
	require.NoError(t, repo.Insert(conn, old))
	require.NoError(t, repo.Insert(conn, exhausted))

	rows, err := repo.FetchUnpublished(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1, "events out of attempts are skipped")

	publishedAt := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, repo.MarkPublished(ctx, rows[0].ID, publishedAt))

	deleted, err := repo.DeletePublishedBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}
