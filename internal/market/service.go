// Package market serves the read side of the marketplace: paged browsing,
// search, auction and direct-sale views, item detail and seller inventory.
// Category permissions are applied in the query, never after it.
package market

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/rpg-market/internal/bids"
	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/internal/users"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/angelmondragon/rpg-market/pkg/visibility"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultEndingSoonWindow is how close to its end an auction must be to show
// up in the ending-soon view.
const DefaultEndingSoonWindow = 24 * time.Hour

var activeStatuses = []enums.ListingStatus{enums.ListingStatusAvailable, enums.ListingStatusAuctionActive}

// BrowseFilter carries the optional knobs of the auction and direct-sale views.
type BrowseFilter struct {
	Category   enums.Category
	Rarity     enums.Rarity
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	EndingSoon bool
	Sort       string
}

// InventoryFilter narrows a seller's own listings.
type InventoryFilter struct {
	Status enums.ListingStatus
	Type   enums.ListingType
}

// Detail is the item page: the listing, its seller and, for auctions, the bid
// history.
type Detail struct {
	Listing listings.ListingDTO   `json:"listing"`
	Seller  users.PublicUserDTO   `json:"seller"`
	Bids    []listings.BidDTO     `json:"bids,omitempty"`
	Related []listings.ListingDTO `json:"related,omitempty"`
	CanBid  bool                  `json:"can_bid"`
	CanBuy  bool                  `json:"can_buy"`
}

// Service is the marketplace read surface.
type Service interface {
	Home(ctx context.Context, viewer visibility.Viewer, params pagination.Params) (pagination.Page[listings.ListingDTO], error)
	Category(ctx context.Context, viewer visibility.Viewer, category enums.Category, params pagination.Params) (pagination.Page[listings.ListingDTO], error)
	Search(ctx context.Context, viewer visibility.Viewer, keyword string, params pagination.Params) (pagination.Page[listings.ListingDTO], error)
	Auctions(ctx context.Context, viewer visibility.Viewer, filter BrowseFilter, params pagination.Params) (pagination.Page[listings.ListingDTO], error)
	DirectSales(ctx context.Context, viewer visibility.Viewer, filter BrowseFilter, params pagination.Params) (pagination.Page[listings.ListingDTO], error)
	Detail(ctx context.Context, viewer visibility.Viewer, id uuid.UUID) (*Detail, error)
	Inventory(ctx context.Context, viewer visibility.Viewer, filter InventoryFilter, params pagination.Params) (pagination.Page[listings.ListingDTO], error)
}

// ServiceParams bundles the read-side dependencies.
type ServiceParams struct {
	DB               *gorm.DB
	EndingSoonWindow time.Duration
	Now              func() time.Time
}

type service struct {
	db         *gorm.DB
	endingSoon time.Duration
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, errors.New("database required")
	}
	window := params.EndingSoonWindow
	if window <= 0 {
		window = DefaultEndingSoonWindow
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{db: params.DB, endingSoon: window, now: now}, nil
}

func (s *service) Home(ctx context.Context, viewer visibility.Viewer, params pagination.Params) (pagination.Page[listings.ListingDTO], error) {
	return s.page(ctx, listings.Filter{
		Categories: viewer.Categories(),
		Statuses:   activeStatuses,
	}, listings.DefaultSort, params)
}

func (s *service) Category(ctx context.Context, viewer visibility.Viewer, category enums.Category, params pagination.Params) (pagination.Page[listings.ListingDTO], error) {
	category, err := s.gate(viewer, string(category))
	if err != nil {
		return pagination.Page[listings.ListingDTO]{}, err
	}
	return s.page(ctx, listings.Filter{
		Category: category,
		Statuses: activeStatuses,
	}, listings.DefaultSort, params)
}

func (s *service) Search(ctx context.Context, viewer visibility.Viewer, keyword string, params pagination.Params) (pagination.Page[listings.ListingDTO], error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.Home(ctx, viewer, params)
	}
	if len(keyword) > 100 {
		return pagination.Page[listings.ListingDTO]{}, pkgerrors.New(pkgerrors.CodeInvalidArgument, "search term is too long")
	}
	return s.page(ctx, listings.Filter{
		Categories: viewer.Categories(),
		Statuses:   activeStatuses,
		Keyword:    keyword,
	}, listings.DefaultSort, params)
}

func (s *service) Auctions(ctx context.Context, viewer visibility.Viewer, filter BrowseFilter, params pagination.Params) (pagination.Page[listings.ListingDTO], error) {
	fallback := pagination.Sort{Field: "auction_end_at"}
	query, sort, err := s.browse(viewer, filter, fallback)
	if err != nil {
		return pagination.Page[listings.ListingDTO]{}, err
	}
	query.Type = enums.ListingTypeAuction
	query.Statuses = []enums.ListingStatus{enums.ListingStatusAuctionActive}
	if filter.EndingSoon {
		cutoff := s.now().Add(s.endingSoon)
		query.EndingBefore = &cutoff
	}
	return s.page(ctx, query, sort, params)
}

func (s *service) DirectSales(ctx context.Context, viewer visibility.Viewer, filter BrowseFilter, params pagination.Params) (pagination.Page[listings.ListingDTO], error) {
	if filter.EndingSoon {
		return pagination.Page[listings.ListingDTO]{}, pkgerrors.New(pkgerrors.CodeInvalidArgument, "direct sales do not end")
	}
	query, sort, err := s.browse(viewer, filter, listings.DefaultSort)
	if err != nil {
		return pagination.Page[listings.ListingDTO]{}, err
	}
	query.Type = enums.ListingTypeDirectSale
	query.Statuses = []enums.ListingStatus{enums.ListingStatusAvailable}
	return s.page(ctx, query, sort, params)
}

// Detail returns the item page. Listings outside the viewer's categories are
// reported as missing.
func (s *service) Detail(ctx context.Context, viewer visibility.Viewer, id uuid.UUID) (*Detail, error) {
	listing, err := listings.NewRepository(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load listing")
	}
	if err := visibility.EnsureListingVisible(listing, viewer); err != nil {
		return nil, err
	}

	seller, err := users.NewRepository(s.db).FindByID(ctx, listing.SellerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
	}

	out := &Detail{Listing: listings.FromModel(listing)}
	if seller != nil {
		out.Seller = users.PublicFromModel(seller)
	} else {
		out.Seller = users.PublicUserDTO{ID: listing.SellerID, Username: listing.SellerUsername}
	}

	own := !viewer.Anonymous() && viewer.UserID == listing.SellerID
	if listing.IsAuction() {
		history, err := bids.NewRepository(s.db).BidsFor(ctx, listing.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bids")
		}
		out.Bids = listings.BidsFromModels(history)
		out.Listing = out.Listing.WithBidCount(int64(len(history)))
		out.CanBid = !viewer.Anonymous() && !own &&
			listing.Status == enums.ListingStatusAuctionActive &&
			listing.AuctionEndAt != nil && s.now().Before(*listing.AuctionEndAt) &&
			viewer.CanSee(listing.Category)
	}
	out.CanBuy = !viewer.Anonymous() && !own && buyable(listing, s.now())

	related, _, err := listings.NewRepository(s.db).Page(ctx, listings.Filter{
		Categories: viewer.Categories(),
		Category:   listing.Category,
		Statuses:   activeStatuses,
	}, listings.DefaultSort, pagination.Params{Size: 5})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load related listings")
	}
	for i := range related {
		if related[i].ID != listing.ID && len(out.Related) < 4 {
			out.Related = append(out.Related, listings.FromModel(&related[i]))
		}
	}
	return out, nil
}

// Inventory lists the viewer's own listings in every status.
func (s *service) Inventory(ctx context.Context, viewer visibility.Viewer, filter InventoryFilter, params pagination.Params) (pagination.Page[listings.ListingDTO], error) {
	if viewer.Anonymous() {
		return pagination.Page[listings.ListingDTO]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	query := listings.Filter{SellerID: viewer.UserID, Type: filter.Type}
	if filter.Status != "" {
		query.Statuses = []enums.ListingStatus{filter.Status}
	}
	return s.page(ctx, query, listings.DefaultSort, params)
}

func (s *service) browse(viewer visibility.Viewer, filter BrowseFilter, fallback pagination.Sort) (listings.Filter, pagination.Sort, error) {
	query := listings.Filter{
		Categories: viewer.Categories(),
		Rarity:     filter.Rarity,
		MinPrice:   filter.MinPrice,
		MaxPrice:   filter.MaxPrice,
	}
	if filter.Category != "" {
		category, err := s.gate(viewer, string(filter.Category))
		if err != nil {
			return query, pagination.Sort{}, err
		}
		query.Category = category
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MaxPrice.LessThan(*filter.MinPrice) {
		return query, pagination.Sort{}, pkgerrors.New(pkgerrors.CodeInvalidArgument, "maximum price is below the minimum")
	}
	sort, err := pagination.ParseSort(filter.Sort, listings.SortFields, fallback)
	if err != nil {
		return query, pagination.Sort{}, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid sort")
	}
	return query, sort, nil
}

// gate parses the category and checks the viewer may browse it.
func (s *service) gate(viewer visibility.Viewer, raw string) (enums.Category, error) {
	category, err := enums.ParseCategory(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid category").
			WithDetails(map[string]any{"category": raw})
	}
	if !viewer.CanSee(category) {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "your class cannot browse this category").
			WithDetails(map[string]any{"category": category})
	}
	return category, nil
}

func (s *service) page(ctx context.Context, filter listings.Filter, sort pagination.Sort, params pagination.Params) (pagination.Page[listings.ListingDTO], error) {
	rows, total, err := listings.NewRepository(s.db).Page(ctx, filter, sort, params)
	if err != nil {
		return pagination.Page[listings.ListingDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list listings")
	}
	counts, err := s.bidCounts(ctx, rows)
	if err != nil {
		return pagination.Page[listings.ListingDTO]{}, err
	}
	items := make([]listings.ListingDTO, 0, len(rows))
	for i := range rows {
		dto := listings.FromModel(&rows[i])
		if rows[i].IsAuction() {
			dto = dto.WithBidCount(counts[rows[i].ID])
		}
		items = append(items, dto)
	}
	return pagination.NewPage(items, params, total), nil
}

func (s *service) bidCounts(ctx context.Context, rows []models.Listing) (map[uuid.UUID]int64, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		if rows[i].IsAuction() {
			ids = append(ids, rows[i].ID)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	counts, err := bids.NewRepository(s.db).CountByListing(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count bids")
	}
	return counts, nil
}

func buyable(listing *models.Listing, now time.Time) bool {
	switch listing.Status {
	case enums.ListingStatusAvailable:
		return true
	case enums.ListingStatusAuctionActive:
		return listing.BuyNowPrice != nil && listing.Price.LessThan(*listing.BuyNowPrice) &&
			listing.AuctionEndAt != nil && now.Before(*listing.AuctionEndAt)
	default:
		return false
	}
}
