package market

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/pkg/db/dbtest"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/angelmondragon/rpg-market/pkg/permissions"
	"github.com/angelmondragon/rpg-market/pkg/visibility"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type world struct {
	db      *gorm.DB
	svc     Service
	seller  *models.User
	auction *models.Listing
}

func newWorld(t *testing.T) *world {
	t.Helper()
	conn := dbtest.Open(t)
	seller := &models.User{Username: "merchant", Email: "merchant@rpg.io", PasswordHash: "x", Role: enums.UserRoleAdventurer, CharacterClass: "Bard", IsActive: true}
	require.NoError(t, conn.Create(seller).Error)

	w := &world{db: conn, seller: seller}
	for _, cat := range enums.AllCategories() {
		w.listing(t, "Direct "+string(cat), cat, enums.ListingTypeDirectSale, enums.ListingStatusAvailable, nil)
	}
	w.listing(t, "Sold sword", enums.CategoryWeapons, enums.ListingTypeDirectSale, enums.ListingStatusSold, nil)
	soon := now.Add(2 * time.Hour)
	later := now.Add(72 * time.Hour)
	w.auction = w.listing(t, "Flaming Sword", enums.CategoryWeapons, enums.ListingTypeAuction, enums.ListingStatusAuctionActive, &soon)
	w.listing(t, "Elixir of Life", enums.CategoryPotions, enums.ListingTypeAuction, enums.ListingStatusAuctionActive, &later)

	require.NoError(t, conn.Create(&models.Bid{
		ListingID: w.auction.ID, BidderID: uuid.New(), BidderUsername: "bors",
		Amount: decimal.NewFromInt(60), PlacedAt: now.Add(-time.Hour), Winning: true,
	}).Error)

	svc, err := NewService(ServiceParams{DB: conn, Now: func() time.Time { return now }})
	require.NoError(t, err)
	w.svc = svc
	return w
}

func (w *world) listing(t *testing.T, name string, cat enums.Category, typ enums.ListingType, status enums.ListingStatus, end *time.Time) *models.Listing {
	t.Helper()
	l := &models.Listing{
		SellerID:       w.seller.ID,
		SellerUsername: w.seller.Username,
		Name:           name,
		Category:       cat,
		Rarity:         enums.RarityUncommon,
		Type:           typ,
		Status:         status,
		Price:          decimal.NewFromInt(50),
		AuctionEndAt:   end,
	}
	if typ == enums.ListingTypeAuction {
		inc := decimal.NewFromInt(10)
		l.StartingPrice = &l.Price
		l.MinBidIncrement = &inc
	}
	require.NoError(t, w.db.Create(l).Error)
	return l
}

func mage() visibility.Viewer {
	return visibility.Viewer{UserID: uuid.New(), Role: enums.UserRoleAdventurer, CharacterClass: "Mage"}
}

func assertAllowed(t *testing.T, viewer visibility.Viewer, items []listings.ListingDTO) {
	t.Helper()
	for _, item := range items {
		assert.True(t, permissions.IsAllowed(viewer.CharacterClass, viewer.Role, item.Category),
			"%s leaked category %s", item.Name, item.Category)
	}
}

func TestHomeFiltersByClass(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	viewer := mage()

	page, err := w.svc.Home(ctx, viewer, pagination.Params{Size: 50})
	require.NoError(t, err)
	assertAllowed(t, viewer, page.Items)
	// potions + scrolls direct sales and the potion auction
	assert.Equal(t, int64(3), page.Total)

	anonymous, err := w.svc.Home(ctx, visibility.Viewer{}, pagination.Params{Size: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(len(enums.AllCategories())+2), anonymous.Total)

	master := visibility.Viewer{UserID: uuid.New(), Role: enums.UserRoleMaster}
	all, err := w.svc.Home(ctx, master, pagination.Params{Size: 50})
	require.NoError(t, err)
	assert.Equal(t, anonymous.Total, all.Total)
}

func TestCategoryGate(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	_, err := w.svc.Category(ctx, mage(), enums.CategoryWeapons, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = w.svc.Category(ctx, mage(), enums.Category("SPELLS"), pagination.Params{})
	assert.Equal(t, pkgerrors.CodeInvalidArgument, pkgerrors.CodeOf(err))

	page, err := w.svc.Category(ctx, mage(), enums.CategoryPotions, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestSearchRespectsClass(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	page, err := w.svc.Search(ctx, mage(), "sword", pagination.Params{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "mages never see weapons, even by keyword")

	warrior := visibility.Viewer{UserID: uuid.New(), Role: enums.UserRoleAdventurer, CharacterClass: "guerreiro"}
	page, err = w.svc.Search(ctx, warrior, "SWORD", pagination.Params{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total, "sold listings are not searchable")
	assert.Equal(t, "Flaming Sword", page.Items[0].Name)
	require.NotNil(t, page.Items[0].BidCount)
	assert.Equal(t, int64(1), *page.Items[0].BidCount)
}

func TestAuctionsView(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	page, err := w.svc.Auctions(ctx, visibility.Viewer{}, BrowseFilter{}, pagination.Params{})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Total)
	assert.Equal(t, "Flaming Sword", page.Items[0].Name, "ends first")

	page, err = w.svc.Auctions(ctx, visibility.Viewer{}, BrowseFilter{EndingSoon: true}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = w.svc.Auctions(ctx, mage(), BrowseFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assertAllowed(t, mage(), page.Items)

	_, err = w.svc.Auctions(ctx, visibility.Viewer{}, BrowseFilter{Sort: "seller,desc"}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeInvalidArgument, pkgerrors.CodeOf(err))

	lo, hi := decimal.NewFromInt(100), decimal.NewFromInt(10)
	_, err = w.svc.DirectSales(ctx, visibility.Viewer{}, BrowseFilter{MinPrice: &lo, MaxPrice: &hi}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeInvalidArgument, pkgerrors.CodeOf(err))

	sales, err := w.svc.DirectSales(ctx, visibility.Viewer{}, BrowseFilter{Sort: "name,asc"}, pagination.Params{Size: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(len(enums.AllCategories())), sales.Total)
	assert.Equal(t, 3, len(sales.Items))
	assert.Equal(t, "Direct ARMOR", sales.Items[0].Name)
}

func TestDetailForbidsGatedListings(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	_, err := w.svc.Detail(ctx, mage(), w.auction.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = w.svc.Detail(ctx, mage(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	warrior := visibility.Viewer{UserID: uuid.New(), Role: enums.UserRoleAdventurer, CharacterClass: "Warrior"}
	detail, err := w.svc.Detail(ctx, warrior, w.auction.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Bids, 1)
	assert.True(t, detail.CanBid)
	assert.False(t, detail.CanBuy, "no buy now price")
	assert.Equal(t, "merchant", detail.Seller.Username)
	require.NotNil(t, detail.Listing.MinimumBid)
	assert.True(t, detail.Listing.MinimumBid.Equal(decimal.NewFromInt(60)))
	assertAllowed(t, warrior, detail.Related)

	own := visibility.Viewer{UserID: w.seller.ID, Role: enums.UserRoleAdventurer, CharacterClass: "Bard"}
	detail, err = w.svc.Detail(ctx, own, w.auction.ID)
	require.NoError(t, err, "sellers always see their own listings")
	assert.False(t, detail.CanBid)
	assertAllowed(t, own, detail.Related)
}

func TestInventory(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	own := visibility.Viewer{UserID: w.seller.ID, Role: enums.UserRoleAdventurer, CharacterClass: "Bard"}

	page, err := w.svc.Inventory(ctx, own, InventoryFilter{}, pagination.Params{Size: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(len(enums.AllCategories())+3), page.Total, "every status, every category")

	page, err = w.svc.Inventory(ctx, own, InventoryFilter{Status: enums.ListingStatusSold}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = w.svc.Inventory(ctx, visibility.Viewer{}, InventoryFilter{}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
}
