package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bid is an append-only entry in a listing's bid ledger. Only Winning flips.
type Bid struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ListingID      uuid.UUID       `gorm:"column:listing_id;type:uuid;not null;index:idx_bids_listing_amount,priority:1;uniqueIndex:idx_bids_one_winner,where:winning = true"`
	BidderID       uuid.UUID       `gorm:"column:bidder_id;type:uuid;not null;index:idx_bids_bidder_id"`
	BidderUsername string          `gorm:"column:bidder_username;type:varchar(64);not null"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(19,2);not null;index:idx_bids_listing_amount,priority:2,sort:desc"`
	PlacedAt       time.Time       `gorm:"column:placed_at;not null;index:idx_bids_listing_amount,priority:3"`
	Winning        bool            `gorm:"column:winning;not null;default:false"`
}

func (b *Bid) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
