package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/db/dbtest"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/outbox"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	client *db.Client
	svc    Service
	buyer  *models.User
	seller *models.User
	master authz.Actor
	sale   *models.Transaction
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	client := dbtest.Client(t)
	conn := client.DB()

	buyer := &models.User{Username: "gwen", Email: "gwen@rpg.io", PasswordHash: "x", GoldCoins: decimal.NewFromInt(100), IsActive: true}
	seller := &models.User{Username: "arthur", Email: "arthur@rpg.io", PasswordHash: "x", GoldCoins: decimal.NewFromInt(150), IsActive: true}
	master := &models.User{Username: "mestre", Email: "mestre@rpg.io", PasswordHash: "x", Role: enums.UserRoleMaster, IsActive: true}
	require.NoError(t, conn.Create(buyer).Error)
	require.NoError(t, conn.Create(seller).Error)
	require.NoError(t, conn.Create(master).Error)

	listing := &models.Listing{
		SellerID:       seller.ID,
		SellerUsername: seller.Username,
		Name:           "Excalibur",
		Category:       enums.CategoryWeapons,
		Rarity:         enums.RarityLegendary,
		Type:           enums.ListingTypeDirectSale,
		Status:         enums.ListingStatusSold,
		Price:          decimal.NewFromInt(100),
	}
	require.NoError(t, conn.Create(listing).Error)

	sale, err := NewRepository(conn).Open(ctx, OpenParams{
		Listing:       listing,
		BuyerID:       buyer.ID,
		BuyerUsername: buyer.Username,
		Amount:        listing.Price,
		Address:       &models.DeliveryAddress{Street: "Rua A", PostalCode: "12345-678"},
	})
	require.NoError(t, err)

	fixed := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, err := NewService(ServiceParams{
		DB:     client,
		Outbox: outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		Logger: logger.Nop(),
		Now:    func() time.Time { return fixed },
	})
	require.NoError(t, err)

	return &fixture{
		client: client,
		svc:    svc,
		buyer:  buyer,
		seller: seller,
		master: authz.ActorFromUser(master),
		sale:   sale,
	}
}

func (f *fixture) gold(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var user models.User
	require.NoError(t, f.client.DB().First(&user, "id = ?", id).Error)
	return user.GoldCoins
}

func actorOf(u *models.User) authz.Actor {
	return authz.ActorFromUser(u)
}

func TestOpenSnapshotsListingAndAddress(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, enums.TransactionStatusPending, f.sale.Status)
	assert.Equal(t, "Excalibur", f.sale.ListingName)
	assert.Equal(t, f.seller.ID, f.sale.SellerID)
	assert.True(t, f.sale.HasDeliveryAddress())
}

func TestShipThenComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.MarkShipped(ctx, actorOf(f.buyer), f.sale.ID, "RPG00000001")
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err), "buyer cannot ship")

	_, err = f.svc.MarkShipped(ctx, actorOf(f.seller), f.sale.ID, "   ")
	assert.Equal(t, pkgerrors.CodeInvalidArgument, pkgerrors.CodeOf(err))

	shipped, err := f.svc.MarkShipped(ctx, actorOf(f.seller), f.sale.ID, "RPG00000001")
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusShipped, shipped.Status)
	require.NotNil(t, shipped.TrackingCode)
	assert.Equal(t, "RPG00000001", *shipped.TrackingCode)

	_, err = f.svc.MarkCompleted(ctx, actorOf(f.seller), f.sale.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err), "seller cannot confirm delivery")

	done, err := f.svc.MarkCompleted(ctx, actorOf(f.buyer), f.sale.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	_, err = f.svc.MarkShipped(ctx, actorOf(f.seller), f.sale.ID, "RPG2")
	assert.Equal(t, pkgerrors.CodeIllegalState, pkgerrors.CodeOf(err))

	var events int64
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Equal(t, int64(2), events)
}

func TestCancelRefundsBuyer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Cancel(ctx, actorOf(f.buyer), f.sale.ID, "changed my mind")
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	canceled, err := f.svc.Cancel(ctx, f.master, f.sale.ID, "duplicate order")
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCanceled, canceled.Status)
	assert.Contains(t, canceled.Notes, "duplicate order")
	assert.True(t, f.gold(t, f.buyer.ID).Equal(decimal.NewFromInt(200)))
	assert.True(t, f.gold(t, f.seller.ID).Equal(decimal.NewFromInt(50)))

	_, err = f.svc.Cancel(ctx, f.master, f.sale.ID, "again")
	assert.Equal(t, pkgerrors.CodeIllegalState, pkgerrors.CodeOf(err))
}

func TestCancelFailsWhenSellerSpentTheGold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.client.DB().Model(&models.User{}).Where("id = ?", f.seller.ID).
		Update("gold_coins", decimal.NewFromInt(10)).Error)

	_, err := f.svc.Cancel(ctx, f.master, f.sale.ID, "fraud")
	assert.Equal(t, pkgerrors.CodeInsufficientFunds, pkgerrors.CodeOf(err))
	assert.True(t, f.gold(t, f.buyer.ID).Equal(decimal.NewFromInt(100)), "failed cancel leaves wallets untouched")
}

func TestGetAndListVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	strangerUser := &models.User{Username: "kay", Email: "kay@rpg.io", PasswordHash: "x", IsActive: true}
	require.NoError(t, f.client.DB().Create(strangerUser).Error)
	stranger := actorOf(strangerUser)

	_, err := f.svc.Get(ctx, stranger, f.sale.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = f.svc.Get(ctx, f.master, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	got, err := f.svc.Get(ctx, actorOf(f.buyer), f.sale.ID)
	require.NoError(t, err)
	assert.Equal(t, f.sale.ID, got.ID)

	purchases, err := f.svc.ListForUser(ctx, actorOf(f.buyer), ScopePurchases, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), purchases.Total)
	sales, err := f.svc.ListForUser(ctx, actorOf(f.buyer), ScopeSales, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), sales.Total)

	_, err = f.svc.List(ctx, stranger, Filter{}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	from := time.Now().UTC().Add(-time.Hour)
	all, err := f.svc.List(ctx, f.master, Filter{Status: enums.TransactionStatusPending, From: &from}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Total)
}

func TestLedgerChecksStoredRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.client.DB().Model(&models.User{}).Where("id = ?", f.master.UserID).
		Update("role", enums.UserRoleAdventurer).Error)

	_, err := f.svc.Cancel(ctx, f.master, f.sale.ID, "demoted master")
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	assert.True(t, f.gold(t, f.buyer.ID).Equal(decimal.NewFromInt(100)), "refused cancel leaves wallets untouched")

	_, err = f.svc.List(ctx, f.master, Filter{}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = f.svc.MarkShipped(ctx, f.master, f.sale.ID, "RPG00000002")
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	promoted := actorOf(f.buyer)
	promoted.Role = enums.UserRoleMaster
	_, err = f.svc.Get(ctx, authz.Actor{UserID: uuid.New(), Role: enums.UserRoleMaster}, f.sale.ID)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err), "unknown account")
	_, err = f.svc.MarkShipped(ctx, promoted, f.sale.ID, "RPG00000003")
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err), "token role is ignored")

	require.NoError(t, f.client.DB().Model(&models.User{}).Where("id = ?", f.seller.ID).
		Update("is_active", false).Error)
	_, err = f.svc.MarkShipped(ctx, actorOf(f.seller), f.sale.ID, "RPG00000004")
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err), "inactive seller")

	var row models.Transaction
	require.NoError(t, f.client.DB().First(&row, "id = ?", f.sale.ID).Error)
	assert.Equal(t, enums.TransactionStatusPending, row.Status)
}
