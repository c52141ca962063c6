package seed

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/rpg-market/internal/addresses"
	"github.com/angelmondragon/rpg-market/internal/auth"
	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/internal/transactions"
	"github.com/angelmondragon/rpg-market/pkg/config"
	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/db/dbtest"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/metrics"
	"github.com/angelmondragon/rpg-market/pkg/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newSeeder(t *testing.T) (*Seeder, *db.Client) {
	t.Helper()
	client := dbtest.Client(t)
	clock := func() time.Time { return now }
	emitter := outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop())

	register, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB: client,
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	})
	require.NoError(t, err)
	addrs, err := addresses.NewService(client)
	require.NoError(t, err)
	lifecycle, err := listings.NewService(listings.ServiceParams{
		DB:      client,
		Outbox:  emitter,
		Metrics: metrics.NewMarketMetrics(nil),
		Logger:  logger.Nop(),
		Now:     clock,
	})
	require.NoError(t, err)
	ledger, err := transactions.NewService(transactions.ServiceParams{
		DB:     client,
		Outbox: emitter,
		Logger: logger.Nop(),
		Now:    clock,
	})
	require.NoError(t, err)

	seeder, err := New(Params{
		DB:           client,
		Register:     register,
		Addresses:    addrs,
		Listings:     lifecycle,
		Transactions: ledger,
		Config:       config.SeedConfig{UserThreshold: 5, RandomSeed: 42, Password: "123456"},
		Now:          clock,
	})
	require.NoError(t, err)
	return seeder, client
}

func TestDemoBuildsAConsistentMarket(t *testing.T) {
	seeder, client := newSeeder(t)
	ctx := context.Background()

	sum, err := seeder.Demo(ctx)
	require.NoError(t, err)

	assert.Equal(t, len(adventurers)+1, sum.Users)
	assert.Equal(t, len(adventurers)+1, sum.Addresses)
	assert.Equal(t, len(shopItems)+len(auctionItems), sum.Listings)
	assert.Equal(t, len(auctionItems), sum.Auctions)
	assert.Positive(t, sum.Sales)

	conn := client.DB()
	var master models.User
	require.NoError(t, conn.First(&master, "username = ?", masterUsername).Error)
	assert.Equal(t, enums.UserRoleMaster, master.Role)
	assert.Equal(t, 50, master.Level)

	var users []models.User
	require.NoError(t, conn.Find(&users).Error)
	for _, u := range users {
		assert.False(t, u.GoldCoins.IsNegative(), "%s has a negative balance", u.Username)
	}

	var sold int64
	require.NoError(t, conn.Model(&models.Listing{}).Where("status = ?", enums.ListingStatusSold).Count(&sold).Error)
	assert.EqualValues(t, sum.Sales, sold)

	var trades int64
	require.NoError(t, conn.Model(&models.Transaction{}).Count(&trades).Error)
	assert.EqualValues(t, sum.Sales, trades)

	var completed int64
	require.NoError(t, conn.Model(&models.Transaction{}).Where("status = ?", enums.TransactionStatusCompleted).Count(&completed).Error)
	assert.EqualValues(t, sum.Completed, completed)

	var bids []models.Bid
	require.NoError(t, conn.Find(&bids).Error)
	assert.Len(t, bids, sum.Bids)
	winners := map[string]int{}
	for _, b := range bids {
		if b.Winning {
			winners[b.ListingID.String()]++
		}
	}
	for listingID, n := range winners {
		assert.Equal(t, 1, n, "listing %s has %d winning bids", listingID, n)
	}

	var active []models.Listing
	require.NoError(t, conn.Where("status = ?", enums.ListingStatusAuctionActive).Find(&active).Error)
	assert.Len(t, active, len(auctionItems))
	for _, l := range active {
		require.NotNil(t, l.AuctionEndAt)
		assert.True(t, l.AuctionEndAt.After(now))
	}
}

func TestDemoIsDeterministic(t *testing.T) {
	first, firstDB := newSeeder(t)
	second, secondDB := newSeeder(t)
	ctx := context.Background()

	_, err := first.Demo(ctx)
	require.NoError(t, err)
	_, err = second.Demo(ctx)
	require.NoError(t, err)

	balances := func(client *db.Client) map[string]string {
		var users []models.User
		require.NoError(t, client.DB().Find(&users).Error)
		out := map[string]string{}
		for _, u := range users {
			out[u.Username] = u.GoldCoins.StringFixed(2)
		}
		return out
	}
	assert.Equal(t, balances(firstDB), balances(secondDB))
}

func TestDemoReusesExistingUsers(t *testing.T) {
	seeder, client := newSeeder(t)
	ctx := context.Background()

	_, err := seeder.Demo(ctx)
	require.NoError(t, err)
	again, err := seeder.Demo(ctx)
	require.NoError(t, err)

	assert.Zero(t, again.Users)
	assert.Zero(t, again.Addresses)
	var users int64
	require.NoError(t, client.DB().Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, len(adventurers)+1, users)
}

func TestOnBootRespectsThreshold(t *testing.T) {
	seeder, _ := newSeeder(t)
	ctx := context.Background()

	ran, sum, err := seeder.OnBoot(ctx)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Positive(t, sum.Listings)

	ran, _, err = seeder.OnBoot(ctx)
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestSimpleSeedsOnce(t *testing.T) {
	seeder, client := newSeeder(t)
	ctx := context.Background()

	sum, err := seeder.Simple(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(simpleCast)+1, sum.Users)
	assert.Equal(t, len(simpleListings), sum.Listings)
	assert.Equal(t, 1, sum.Auctions)

	var auction models.Listing
	require.NoError(t, client.DB().First(&auction, "type = ?", enums.ListingTypeAuction).Error)
	assert.Equal(t, enums.ListingStatusAuctionActive, auction.Status)
	require.NotNil(t, auction.BuyNowPrice)
	assert.Equal(t, "600.00", auction.BuyNowPrice.StringFixed(2))

	again, err := seeder.Simple(ctx)
	require.NoError(t, err)
	assert.True(t, again.SkippedItems)
	assert.Zero(t, again.Listings)

	var total int64
	require.NoError(t, client.DB().Model(&models.Listing{}).Count(&total).Error)
	assert.EqualValues(t, len(simpleListings), total)
}
