package listings

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SortFields maps the public sort keys to columns.
var SortFields = map[string]string{
	"createdAt":    "created_at",
	"price":        "price",
	"auctionEndAt": "auction_end_at",
	"name":         "name",
}

// DefaultSort lists the newest listings first.
var DefaultSort = pagination.Sort{Field: "created_at", Desc: true}

// Filter is a conjunction of optional predicates. Zero values are ignored.
type Filter struct {
	// Categories restricts results to the caller's allowed set.
	Categories     []enums.Category
	Category       enums.Category
	Statuses       []enums.ListingStatus
	Type           enums.ListingType
	Rarity         enums.Rarity
	SellerID       uuid.UUID
	SellerUsername string
	Keyword        string
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	EndingBefore   *time.Time
}

// Repository persists listings.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// ExistsByName reports whether any listing carries exactly this name.
func (r *Repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("name = ?", name).
		Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Listing{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Save writes the changed columns only if the row is still at the version the
// listing was read with, then bumps the version. A lost race returns
// db.ErrStaleVersion.
func (r *Repository) Save(ctx context.Context, listing *models.Listing, changes map[string]any) error {
	values := make(map[string]any, len(changes)+1)
	for column, value := range changes {
		values[column] = value
	}
	values["version"] = gorm.Expr("version + 1")

	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND version = ?", listing.ID, listing.Version).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return db.ErrStaleVersion
	}
	listing.Version++
	return nil
}

// Page returns one page of listings matching the filter.
func (r *Repository) Page(ctx context.Context, filter Filter, sort pagination.Sort, params pagination.Params) ([]models.Listing, int64, error) {
	params = params.Normalize()
	if sort.Field == "" {
		sort = DefaultSort
	}

	var total int64
	if err := apply(r.db.WithContext(ctx).Model(&models.Listing{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Listing
	query := apply(r.db.WithContext(ctx), filter).Order(sort.Clause())
	if sort.Field != "created_at" {
		query = query.Order("created_at DESC")
	}
	if err := query.
		Offset(params.Offset()).
		Limit(params.Size).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DueAuctions lists active auctions whose end time is at or before now,
// oldest deadline first.
func (r *Repository) DueAuctions(ctx context.Context, now time.Time, limit int) ([]models.Listing, error) {
	var rows []models.Listing
	query := r.db.WithContext(ctx).
		Where("type = ? AND status = ? AND auction_end_at <= ?", enums.ListingTypeAuction, enums.ListingStatusAuctionActive, now.UTC()).
		Order("auction_end_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func apply(query *gorm.DB, filter Filter) *gorm.DB {
	if len(filter.Categories) > 0 {
		query = query.Where("category IN ?", filter.Categories)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Rarity != "" {
		query = query.Where("rarity = ?", filter.Rarity)
	}
	if filter.SellerID != uuid.Nil {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if name := strings.TrimSpace(filter.SellerUsername); name != "" {
		query = query.Where("LOWER(seller_username) LIKE ? ESCAPE '\\'", likePattern(name))
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		pattern := likePattern(kw)
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", pattern, pattern)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.EndingBefore != nil {
		query = query.Where("auction_end_at IS NOT NULL AND auction_end_at <= ?", filter.EndingBefore.UTC())
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
}
