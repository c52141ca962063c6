package transactions

import (
	"context"
	"time"

	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Filter narrows ledger queries. Zero values are ignored.
type Filter struct {
	Status        enums.TransactionStatus
	BuyerID       uuid.UUID
	SellerID      uuid.UUID
	ParticipantID uuid.UUID
	From          *time.Time
	To            *time.Time
}

// Repository manages persistence for ledger rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OpenParams describes a purchase or auction win being recorded.
type OpenParams struct {
	Listing       *models.Listing
	BuyerID       uuid.UUID
	BuyerUsername string
	Amount        decimal.Decimal
	Address       *models.DeliveryAddress
	Notes         string
}

// Open appends a PENDING row for the sale.
func (r *Repository) Open(ctx context.Context, params OpenParams) (*models.Transaction, error) {
	listingID := params.Listing.ID
	row := &models.Transaction{
		ListingID:      &listingID,
		ListingName:    params.Listing.Name,
		ListingPrice:   params.Listing.Price,
		BuyerID:        params.BuyerID,
		BuyerUsername:  params.BuyerUsername,
		SellerID:       params.Listing.SellerID,
		SellerUsername: params.Listing.SellerUsername,
		Amount:         params.Amount,
		Status:         enums.TransactionStatusPending,
		Notes:          params.Notes,
	}
	row.SnapshotAddress(params.Address)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var row models.Transaction
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByListing returns the rows recorded for the listing, newest first.
func (r *Repository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.Transaction, error) {
	var rows []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Transition moves a row from one status to another. A row that is no longer
// in the expected status yields db.ErrStaleVersion.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus, changes map[string]any) error {
	updates := map[string]any{"status": to}
	for k, v := range changes {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return db.ErrStaleVersion
	}
	return nil
}

// List returns one page of the ledger, newest first.
func (r *Repository) List(ctx context.Context, filter Filter, params pagination.Params) ([]models.Transaction, int64, error) {
	params = params.Normalize()
	var total int64
	if err := r.apply(r.db.WithContext(ctx).Model(&models.Transaction{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Transaction
	if err := r.apply(r.db.WithContext(ctx), filter).
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Size).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Recent returns the latest rows regardless of status.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	var rows []models.Transaction
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) apply(query *gorm.DB, filter Filter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BuyerID != uuid.Nil {
		query = query.Where("buyer_id = ?", filter.BuyerID)
	}
	if filter.SellerID != uuid.Nil {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.ParticipantID != uuid.Nil {
		query = query.Where("buyer_id = ? OR seller_id = ?", filter.ParticipantID, filter.ParticipantID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", filter.To.UTC())
	}
	return query
}
