// Package bids is the append-only bid ledger. Rows are never deleted and only
// the winning flag flips.
package bids

import (
	"context"
	"errors"

	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes bid persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends a bid. The caller flips the previous winner first so the
// one-winner index never sees two winning rows.
func (r *Repository) Insert(ctx context.Context, bid *models.Bid) error {
	return r.db.WithContext(ctx).Create(bid).Error
}

// ClearWinner marks every bid of the listing as non-winning.
func (r *Repository) ClearWinner(ctx context.Context, listingID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("listing_id = ? AND winning = ?", listingID, true).
		Update("winning", false)
	return res.RowsAffected, res.Error
}

// HighestBid returns the current winner, nil when the listing has no bids.
func (r *Repository) HighestBid(ctx context.Context, listingID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("amount DESC").
		Order("placed_at ASC").
		First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// BidsFor returns the ledger ordered by amount desc, then placed_at asc.
func (r *Repository) BidsFor(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error) {
	var rows []models.Bid
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("amount DESC").
		Order("placed_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// EscrowedBids returns the bids currently holding gold. Only the winner
// holds escrow, so the slice has at most one element.
func (r *Repository) EscrowedBids(ctx context.Context, listingID uuid.UUID) ([]models.Bid, error) {
	var rows []models.Bid
	if err := r.db.WithContext(ctx).
		Where("listing_id = ? AND winning = ?", listingID, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of bids placed on the listing.
func (r *Repository) Count(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("listing_id = ?", listingID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountByListing counts bids for several listings in one query.
func (r *Repository) CountByListing(ctx context.Context, listingIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(listingIDs))
	if len(listingIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ListingID uuid.UUID
		Total     int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Select("listing_id, COUNT(*) AS total").
		Where("listing_id IN ?", listingIDs).
		Group("listing_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ListingID] = row.Total
	}
	return out, nil
}

// Recent returns the latest bids across the market.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.Bid, error) {
	var rows []models.Bid
	if err := r.db.WithContext(ctx).
		Order("placed_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
