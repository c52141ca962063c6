package listings

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/db/dbtest"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedListing(t *testing.T, repo *Repository, name string, category enums.Category, status enums.ListingStatus, price int64) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		SellerID:       uuid.New(),
		SellerUsername: "Morgana_the_Fair",
		Name:           name,
		Description:    "found in a " + string(category) + " chest",
		Category:       category,
		Rarity:         enums.RarityCommon,
		Type:           enums.ListingTypeDirectSale,
		Status:         status,
		Price:          decimal.NewFromInt(price),
	}
	require.NoError(t, repo.Create(context.Background(), listing))
	return listing
}

func TestPageFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))
	seedListing(t, repo, "Long Sword", enums.CategoryWeapons, enums.ListingStatusAvailable, 120)
	seedListing(t, repo, "Healing Potion", enums.CategoryPotions, enums.ListingStatusAvailable, 15)
	seedListing(t, repo, "Old Sword", enums.CategoryWeapons, enums.ListingStatusSold, 30)
	seedListing(t, repo, "100%_Cursed Ring", enums.CategoryJewelry, enums.ListingStatusAvailable, 60)

	active := []enums.ListingStatus{enums.ListingStatusAvailable}
	rows, total, err := repo.Page(ctx, Filter{Statuses: active, Keyword: "SWORD"}, DefaultSort, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Long Sword", rows[0].Name)

	rows, total, err = repo.Page(ctx, Filter{Categories: []enums.Category{enums.CategoryWeapons, enums.CategoryPotions}}, pagination.Sort{Field: "price"}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	assert.Equal(t, "Healing Potion", rows[0].Name)
	assert.Equal(t, "Long Sword", rows[2].Name)

	lo, hi := decimal.NewFromInt(20), decimal.NewFromInt(100)
	_, total, err = repo.Page(ctx, Filter{MinPrice: &lo, MaxPrice: &hi}, DefaultSort, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.Page(ctx, Filter{Keyword: "100%_"}, DefaultSort, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "wildcards in the keyword match literally")

	_, total, err = repo.Page(ctx, Filter{SellerUsername: "morgana"}, DefaultSort, pagination.Params{Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestSaveDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))
	listing := seedListing(t, repo, "Long Sword", enums.CategoryWeapons, enums.ListingStatusAvailable, 120)

	stale := *listing
	require.NoError(t, repo.Save(ctx, listing, map[string]any{"price": decimal.NewFromInt(100)}))
	assert.Equal(t, int64(1), listing.Version)

	err := repo.Save(ctx, &stale, map[string]any{"status": enums.ListingStatusRemoved})
	assert.ErrorIs(t, err, db.ErrStaleVersion)

	got, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ListingStatusAvailable, got.Status)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(100)))
}

func TestDueAuctions(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	newAuction := func(end time.Time, status enums.ListingStatus) *models.Listing {
		start := decimal.NewFromInt(10)
		l := &models.Listing{
			SellerID:       uuid.New(),
			SellerUsername: "seller",
			Name:           "Lot",
			Category:       enums.CategoryMisc,
			Rarity:         enums.RarityCommon,
			Type:           enums.ListingTypeAuction,
			Status:         status,
			Price:          start,
			StartingPrice:  &start,
			AuctionEndAt:   &end,
		}
		require.NoError(t, repo.Create(ctx, l))
		return l
	}
	older := newAuction(now.Add(-2*time.Hour), enums.ListingStatusAuctionActive)
	newer := newAuction(now.Add(-time.Minute), enums.ListingStatusAuctionActive)
	newAuction(now.Add(time.Hour), enums.ListingStatusAuctionActive)
	newAuction(now.Add(-time.Hour), enums.ListingStatusAuctionEnded)

	due, err := repo.DueAuctions(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, older.ID, due[0].ID)
	assert.Equal(t, newer.ID, due[1].ID)

	due, err = repo.DueAuctions(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}
