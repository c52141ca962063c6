// Package analytics computes the master dashboards and the public ranking
// with aggregate queries.
package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/rpg-market/internal/analytics/query"
	"github.com/angelmondragon/rpg-market/internal/analytics/types"
	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/internal/bids"
	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/internal/transactions"
	"github.com/angelmondragon/rpg-market/internal/users"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultPeriodDays    = 7
	MaxPeriodDays        = 365
	DefaultActivityLimit = 10
	MaxActivityLimit     = 100
	rankingSize          = 10
	topListingsSize      = 5
)

var (
	activeStatuses = []enums.ListingStatus{enums.ListingStatusAvailable, enums.ListingStatusAuctionActive}
	completed      = []enums.TransactionStatus{enums.TransactionStatusCompleted}
)

// Service serves the analytics views.
type Service interface {
	Dashboard(ctx context.Context, actor authz.Actor, periodDays int) (*types.Dashboard, error)
	Ranking(ctx context.Context, actor authz.Actor) (*types.Ranking, error)
	PublicRanking(ctx context.Context) (*types.PublicRanking, error)
	Activity(ctx context.Context, actor authz.Actor, limit int) (*types.ActivityReport, error)
	Listings(ctx context.Context, actor authz.Actor, q types.ListingQuery, params pagination.Params) (*types.ListingManagement, error)
}

type ServiceParams struct {
	DB  *gorm.DB
	Now func() time.Time
}

type service struct {
	aggregates   *query.Aggregates
	users        *users.Repository
	listings     *listings.Repository
	bids         *bids.Repository
	transactions *transactions.Repository
	now          func() time.Time
}

// NewService builds an analytics service over the primary database.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, errors.New("database required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		aggregates:   query.NewAggregates(params.DB),
		users:        users.NewRepository(params.DB),
		listings:     listings.NewRepository(params.DB),
		bids:         bids.NewRepository(params.DB),
		transactions: transactions.NewRepository(params.DB),
		now:          now,
	}, nil
}

func (s *service) Dashboard(ctx context.Context, actor authz.Actor, periodDays int) (*types.Dashboard, error) {
	if err := authz.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	if periodDays == 0 {
		periodDays = DefaultPeriodDays
	}
	if periodDays < 1 || periodDays > MaxPeriodDays {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "period must be between 1 and 365 days")
	}

	out := &types.Dashboard{PeriodDays: periodDays}
	var err error
	if out.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, internal(err, "count users")
	}
	if out.TotalListings, err = s.aggregates.CountListings(ctx); err != nil {
		return nil, internal(err, "count listings")
	}
	if out.TotalTransactions, err = s.aggregates.CountTransactions(ctx, time.Time{}); err != nil {
		return nil, internal(err, "count transactions")
	}
	since := s.now().AddDate(0, 0, -periodDays)
	if out.PeriodTransactions, err = s.aggregates.CountTransactions(ctx, since); err != nil {
		return nil, internal(err, "count period transactions")
	}

	volume, settled, err := s.aggregates.Volume(ctx, time.Time{})
	if err != nil {
		return nil, internal(err, "sum volume")
	}
	out.TotalVolume = volume
	out.AverageTransaction = average(volume, settled)
	out.ActivityRate = decimal.NewFromInt(out.PeriodTransactions).
		DivRound(decimal.NewFromInt(int64(periodDays)), 2)

	if out.TopSellers, err = s.aggregates.TopTraders(ctx, query.Sellers, completed, topListingsSize); err != nil {
		return nil, internal(err, "rank sellers")
	}
	if out.ByCategory, err = s.aggregates.CategoryCounts(ctx, activeStatuses); err != nil {
		return nil, internal(err, "count categories")
	}

	rows, _, err := s.listings.Page(ctx, listings.Filter{Statuses: activeStatuses},
		pagination.Sort{Field: "price", Desc: true},
		pagination.Params{Page: 0, Size: topListingsSize})
	if err != nil {
		return nil, internal(err, "top listings")
	}
	out.TopListings = make([]listings.ListingDTO, 0, len(rows))
	for i := range rows {
		out.TopListings = append(out.TopListings, listings.FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Ranking(ctx context.Context, actor authz.Actor) (*types.Ranking, error) {
	if err := authz.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	public, err := s.PublicRanking(ctx)
	if err != nil {
		return nil, err
	}
	out := &types.Ranking{Sellers: public.Sellers, Buyers: public.Buyers}

	richest, err := s.users.Richest(ctx, rankingSize)
	if err != nil {
		return nil, internal(err, "richest users")
	}
	out.Richest = make([]users.UserDTO, 0, len(richest))
	for i := range richest {
		out.Richest = append(out.Richest, *users.FromModel(&richest[i]))
	}
	if out.MasterCount, err = s.users.CountByRoles(ctx, enums.UserRoleMaster); err != nil {
		return nil, internal(err, "count masters")
	}
	if out.TotalVolume, _, err = s.aggregates.Volume(ctx, time.Time{}); err != nil {
		return nil, internal(err, "sum volume")
	}
	return out, nil
}

func (s *service) PublicRanking(ctx context.Context) (*types.PublicRanking, error) {
	sellers, err := s.aggregates.TopTraders(ctx, query.Sellers, completed, rankingSize)
	if err != nil {
		return nil, internal(err, "rank sellers")
	}
	buyers, err := s.aggregates.TopTraders(ctx, query.Buyers, completed, rankingSize)
	if err != nil {
		return nil, internal(err, "rank buyers")
	}
	return &types.PublicRanking{Sellers: sellers, Buyers: buyers}, nil
}

func (s *service) Activity(ctx context.Context, actor authz.Actor, limit int) (*types.ActivityReport, error) {
	if err := authz.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	txs, err := s.transactions.Recent(ctx, limit)
	if err != nil {
		return nil, internal(err, "recent transactions")
	}
	recentBids, err := s.bids.Recent(ctx, limit)
	if err != nil {
		return nil, internal(err, "recent bids")
	}
	rows, _, err := s.listings.Page(ctx, listings.Filter{}, listings.DefaultSort, pagination.Params{Page: 0, Size: limit})
	if err != nil {
		return nil, internal(err, "recent listings")
	}

	out := &types.ActivityReport{
		Limit:        limit,
		Transactions: transactions.FromModels(txs),
		Bids:         listings.BidsFromModels(recentBids),
		Listings:     make([]listings.ListingDTO, 0, len(rows)),
	}
	for i := range rows {
		out.Listings = append(out.Listings, listings.FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Listings(ctx context.Context, actor authz.Actor, q types.ListingQuery, params pagination.Params) (*types.ListingManagement, error) {
	if err := authz.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	sort, err := pagination.ParseSort(q.Sort, listings.SortFields, listings.DefaultSort)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid sort")
	}
	filter := listings.Filter{
		Category:       q.Category,
		Type:           q.Type,
		SellerUsername: q.SellerUsername,
	}
	if q.Status != "" {
		filter.Statuses = []enums.ListingStatus{q.Status}
	}

	params = params.Normalize()
	rows, total, err := s.listings.Page(ctx, filter, sort, params)
	if err != nil {
		return nil, internal(err, "list listings")
	}
	items := make([]listings.ListingDTO, 0, len(rows))
	for i := range rows {
		items = append(items, listings.FromModel(&rows[i]))
	}

	out := &types.ListingManagement{Page: pagination.NewPage(items, params, total)}
	if out.Total, err = s.aggregates.CountListings(ctx); err != nil {
		return nil, internal(err, "count listings")
	}
	if out.Active, err = s.aggregates.CountListings(ctx, activeStatuses...); err != nil {
		return nil, internal(err, "count active listings")
	}
	if out.Sold, err = s.aggregates.CountListings(ctx, enums.ListingStatusSold); err != nil {
		return nil, internal(err, "count sold listings")
	}
	return out, nil
}

func average(volume decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return volume.DivRound(decimal.NewFromInt(count), 2)
}

func internal(err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
