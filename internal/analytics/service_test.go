package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/rpg-market/internal/analytics/types"
	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/pkg/db/dbtest"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type market struct {
	db     *gorm.DB
	svc    Service
	master authz.Actor
	users  map[string]*models.User
}

func newMarket(t *testing.T) *market {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{DB: conn, Now: func() time.Time { return now }})
	require.NoError(t, err)

	m := &market{db: conn, svc: svc, users: map[string]*models.User{}}
	m.user(t, "mestre", enums.UserRoleMaster, 10000)
	m.user(t, "aragorn", enums.UserRoleAdventurer, 1500)
	m.user(t, "legolas", enums.UserRoleAdventurer, 800)
	m.user(t, "gimli", enums.UserRoleAdventurer, 3000)
	m.master = authz.ActorFromUser(m.users["mestre"])
	return m
}

func (m *market) user(t *testing.T, name string, role enums.UserRole, gold int64) {
	t.Helper()
	u := &models.User{
		Username:     name,
		Email:        name + "@rpg.io",
		PasswordHash: "x",
		Role:         role,
		GoldCoins:    decimal.NewFromInt(gold),
		IsActive:     true,
	}
	require.NoError(t, m.db.Create(u).Error)
	m.users[name] = u
}

func (m *market) listing(t *testing.T, seller, name string, cat enums.Category, status enums.ListingStatus, price int64) {
	t.Helper()
	s := m.users[seller]
	require.NoError(t, m.db.Create(&models.Listing{
		SellerID:       s.ID,
		SellerUsername: s.Username,
		Name:           name,
		Category:       cat,
		Rarity:         enums.RarityRare,
		Type:           enums.ListingTypeDirectSale,
		Status:         status,
		Price:          decimal.NewFromInt(price),
	}).Error)
}

func (m *market) trade(t *testing.T, seller, buyer string, amount int64, status enums.TransactionStatus, age time.Duration) {
	t.Helper()
	s, b := m.users[seller], m.users[buyer]
	require.NoError(t, m.db.Create(&models.Transaction{
		ListingName:    "item",
		ListingPrice:   decimal.NewFromInt(amount),
		SellerID:       s.ID,
		SellerUsername: s.Username,
		BuyerID:        b.ID,
		BuyerUsername:  b.Username,
		Amount:         decimal.NewFromInt(amount),
		Status:         status,
		CreatedAt:      now.Add(-age),
	}).Error)
}

func seed(t *testing.T, m *market) {
	t.Helper()
	m.listing(t, "aragorn", "Anduril", enums.CategoryWeapons, enums.ListingStatusAvailable, 900)
	m.listing(t, "aragorn", "Elven cloak", enums.CategoryArmor, enums.ListingStatusAvailable, 300)
	m.listing(t, "gimli", "Mithril axe", enums.CategoryWeapons, enums.ListingStatusAvailable, 1200)
	m.listing(t, "gimli", "Dwarf ale", enums.CategoryPotions, enums.ListingStatusSold, 20)
	m.listing(t, "legolas", "Lembas", enums.CategoryPotions, enums.ListingStatusRemoved, 5)

	m.trade(t, "gimli", "legolas", 100, enums.TransactionStatusCompleted, 24*time.Hour)
	m.trade(t, "gimli", "aragorn", 50, enums.TransactionStatusCompleted, 48*time.Hour)
	m.trade(t, "aragorn", "legolas", 200, enums.TransactionStatusCompleted, 20*24*time.Hour)
	m.trade(t, "aragorn", "gimli", 70, enums.TransactionStatusPending, time.Hour)
	m.trade(t, "legolas", "gimli", 999, enums.TransactionStatusCanceled, time.Hour)
}

func TestDashboard(t *testing.T) {
	m := newMarket(t)
	seed(t, m)

	got, err := m.svc.Dashboard(context.Background(), m.master, 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultPeriodDays, got.PeriodDays)
	assert.EqualValues(t, 4, got.TotalUsers)
	assert.EqualValues(t, 5, got.TotalListings)
	assert.EqualValues(t, 5, got.TotalTransactions)
	assert.EqualValues(t, 4, got.PeriodTransactions)
	// 100 + 50 + 200 + 70; the canceled trade is excluded.
	assert.True(t, got.TotalVolume.Equal(decimal.NewFromInt(420)), got.TotalVolume.String())
	assert.True(t, got.AverageTransaction.Equal(decimal.NewFromInt(105)), got.AverageTransaction.String())
	assert.True(t, got.ActivityRate.Equal(decimal.RequireFromString("0.57")), got.ActivityRate.String())

	require.Len(t, got.TopSellers, 2)
	assert.Equal(t, "gimli", got.TopSellers[0].Username)
	assert.EqualValues(t, 2, got.TopSellers[0].Count)
	assert.Equal(t, "aragorn", got.TopSellers[1].Username)

	require.Len(t, got.TopListings, 3)
	assert.Equal(t, "Mithril axe", got.TopListings[0].Name)
	assert.Equal(t, "Anduril", got.TopListings[1].Name)

	assert.Equal(t, []types.LabelValue{
		{Label: string(enums.CategoryWeapons), Value: 2},
		{Label: string(enums.CategoryArmor), Value: 1},
	}, got.ByCategory)
}

func TestDashboardValidatesPeriod(t *testing.T) {
	m := newMarket(t)

	_, err := m.svc.Dashboard(context.Background(), m.master, MaxPeriodDays+1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidArgument, pkgerrors.CodeOf(err))

	got, err := m.svc.Dashboard(context.Background(), m.master, 30)
	require.NoError(t, err)
	assert.True(t, got.AverageTransaction.IsZero())
	assert.True(t, got.ActivityRate.IsZero())
}

func TestMasterViewsRequirePrivilege(t *testing.T) {
	m := newMarket(t)
	adventurer := authz.ActorFromUser(m.users["aragorn"])
	ctx := context.Background()

	_, err := m.svc.Dashboard(ctx, adventurer, 7)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = m.svc.Ranking(ctx, adventurer)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = m.svc.Activity(ctx, adventurer, 5)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = m.svc.Listings(ctx, adventurer, types.ListingQuery{}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = m.svc.PublicRanking(ctx)
	assert.NoError(t, err)
}

func TestRanking(t *testing.T) {
	m := newMarket(t)
	seed(t, m)

	got, err := m.svc.Ranking(context.Background(), m.master)
	require.NoError(t, err)

	require.NotEmpty(t, got.Sellers)
	assert.Equal(t, "gimli", got.Sellers[0].Username)
	assert.True(t, got.Sellers[0].Volume.Equal(decimal.NewFromInt(150)))

	require.NotEmpty(t, got.Buyers)
	assert.Equal(t, "legolas", got.Buyers[0].Username)
	assert.EqualValues(t, 2, got.Buyers[0].Count)

	require.Len(t, got.Richest, 4)
	assert.Equal(t, "mestre", got.Richest[0].Username)
	assert.Equal(t, "gimli", got.Richest[1].Username)
	assert.EqualValues(t, 1, got.MasterCount)
	assert.True(t, got.TotalVolume.Equal(decimal.NewFromInt(420)))
}

func TestActivityClampsLimit(t *testing.T) {
	m := newMarket(t)
	seed(t, m)
	ctx := context.Background()

	got, err := m.svc.Activity(ctx, m.master, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Limit)
	require.Len(t, got.Transactions, 2)
	assert.Len(t, got.Listings, 2)
	assert.Empty(t, got.Bids)

	got, err = m.svc.Activity(ctx, m.master, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultActivityLimit, got.Limit)
	assert.Len(t, got.Transactions, 5)

	got, err = m.svc.Activity(ctx, m.master, 10_000)
	require.NoError(t, err)
	assert.Equal(t, MaxActivityLimit, got.Limit)
}

func TestListingManagement(t *testing.T) {
	m := newMarket(t)
	seed(t, m)
	ctx := context.Background()

	got, err := m.svc.Listings(ctx, m.master, types.ListingQuery{SellerUsername: "gimli"}, pagination.Params{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Page.Total)
	assert.EqualValues(t, 5, got.Total)
	assert.EqualValues(t, 3, got.Active)
	assert.EqualValues(t, 1, got.Sold)

	got, err = m.svc.Listings(ctx, m.master, types.ListingQuery{Status: enums.ListingStatusRemoved}, pagination.Params{Page: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, got.Page.Items, 1)
	assert.Equal(t, "Lembas", got.Page.Items[0].Name)

	_, err = m.svc.Listings(ctx, m.master, types.ListingQuery{Sort: "bogus"}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeInvalidArgument, pkgerrors.CodeOf(err))
}
