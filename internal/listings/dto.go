package listings

import (
	"time"

	"github.com/angelmondragon/rpg-market/internal/transactions"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemDetails are the descriptive fields shared by both sale modes.
type ItemDetails struct {
	Name            string         `json:"name" validate:"required,max=120"`
	Description     string         `json:"description" validate:"max=4000"`
	Category        enums.Category `json:"category" validate:"required"`
	Rarity          enums.Rarity   `json:"rarity"`
	ImageURL        *string        `json:"image_url,omitempty" validate:"omitempty,max=500"`
	MagicProperties []string       `json:"magic_properties" validate:"max=20,dive,max=60"`
}

// CreateDirectSaleInput opens a fixed-price listing.
type CreateDirectSaleInput struct {
	ItemDetails
	Price decimal.Decimal `json:"price"`
}

// CreateAuctionInput opens an auction. MinBidIncrement defaults to one gold
// coin and AuctionEndAt to the configured default duration.
type CreateAuctionInput struct {
	ItemDetails
	StartingPrice   decimal.Decimal  `json:"starting_price"`
	MinBidIncrement *decimal.Decimal `json:"min_bid_increment,omitempty"`
	BuyNowPrice     *decimal.Decimal `json:"buy_now_price,omitempty"`
	AuctionEndAt    *time.Time       `json:"auction_end_at,omitempty"`
}

// UpdateInput is a patch; nil fields are left untouched.
type UpdateInput struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Description     *string          `json:"description,omitempty" validate:"omitempty,max=4000"`
	Category        *enums.Category  `json:"category,omitempty"`
	Rarity          *enums.Rarity    `json:"rarity,omitempty"`
	ImageURL        *string          `json:"image_url,omitempty" validate:"omitempty,max=500"`
	MagicProperties *[]string        `json:"magic_properties,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	StartingPrice   *decimal.Decimal `json:"starting_price,omitempty"`
	MinBidIncrement *decimal.Decimal `json:"min_bid_increment,omitempty"`
	BuyNowPrice     *decimal.Decimal `json:"buy_now_price,omitempty"`
	AuctionEndAt    *time.Time       `json:"auction_end_at,omitempty"`
}

func (u UpdateInput) touchesPricing() bool {
	return u.Price != nil || u.StartingPrice != nil || u.MinBidIncrement != nil || u.BuyNowPrice != nil || u.AuctionEndAt != nil
}

// BuyNowInput selects the delivery address; nil uses the buyer's default.
type BuyNowInput struct {
	AddressID *uuid.UUID `json:"address_id,omitempty"`
	Notes     string     `json:"notes,omitempty" validate:"max=500"`
}

// DeleteOptions distinguishes the moderation endpoint from a seller delete.
type DeleteOptions struct {
	Moderation bool
}

type ListingDTO struct {
	ID              uuid.UUID           `json:"id"`
	SellerID        uuid.UUID           `json:"seller_id"`
	SellerUsername  string              `json:"seller_username"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Category        enums.Category      `json:"category"`
	Rarity          enums.Rarity        `json:"rarity"`
	Type            enums.ListingType   `json:"type"`
	Status          enums.ListingStatus `json:"status"`
	Price           decimal.Decimal     `json:"price"`
	StartingPrice   *decimal.Decimal    `json:"starting_price,omitempty"`
	BuyNowPrice     *decimal.Decimal    `json:"buy_now_price,omitempty"`
	MinBidIncrement *decimal.Decimal    `json:"min_bid_increment,omitempty"`
	AuctionEndAt    *time.Time          `json:"auction_end_at,omitempty"`
	ImageURL        *string             `json:"image_url,omitempty"`
	MagicProperties []string            `json:"magic_properties"`
	BidCount        *int64              `json:"bid_count,omitempty"`
	MinimumBid      *decimal.Decimal    `json:"minimum_bid,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func FromModel(l *models.Listing) ListingDTO {
	props := []string(l.MagicProperties)
	if props == nil {
		props = []string{}
	}
	return ListingDTO{
		ID:              l.ID,
		SellerID:        l.SellerID,
		SellerUsername:  l.SellerUsername,
		Name:            l.Name,
		Description:     l.Description,
		Category:        l.Category,
		Rarity:          l.Rarity,
		Type:            l.Type,
		Status:          l.Status,
		Price:           l.Price,
		StartingPrice:   l.StartingPrice,
		BuyNowPrice:     l.BuyNowPrice,
		MinBidIncrement: l.MinBidIncrement,
		AuctionEndAt:    l.AuctionEndAt,
		ImageURL:        l.ImageURL,
		MagicProperties: props,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// WithBidCount fills the auction bid stats: the count and the smallest
// amount the next bid may offer.
func (d ListingDTO) WithBidCount(count int64) ListingDTO {
	if d.Type != enums.ListingTypeAuction {
		return d
	}
	d.BidCount = &count
	if d.Status == enums.ListingStatusAuctionActive {
		minimum := d.Price
		if count > 0 && d.MinBidIncrement != nil {
			minimum = d.Price.Add(*d.MinBidIncrement)
		}
		d.MinimumBid = &minimum
	}
	return d
}

type BidDTO struct {
	ID             uuid.UUID       `json:"id"`
	ListingID      uuid.UUID       `json:"listing_id"`
	BidderID       uuid.UUID       `json:"bidder_id"`
	BidderUsername string          `json:"bidder_username"`
	Amount         decimal.Decimal `json:"amount"`
	PlacedAt       time.Time       `json:"placed_at"`
	Winning        bool            `json:"winning"`
}

func BidFromModel(b *models.Bid) BidDTO {
	return BidDTO{
		ID:             b.ID,
		ListingID:      b.ListingID,
		BidderID:       b.BidderID,
		BidderUsername: b.BidderUsername,
		Amount:         b.Amount,
		PlacedAt:       b.PlacedAt,
		Winning:        b.Winning,
	}
}

func BidsFromModels(rows []models.Bid) []BidDTO {
	out := make([]BidDTO, 0, len(rows))
	for i := range rows {
		out = append(out, BidFromModel(&rows[i]))
	}
	return out
}

// BidResult is returned by PlaceBid.
type BidResult struct {
	Bid              BidDTO          `json:"bid"`
	Listing          ListingDTO      `json:"listing"`
	PreviousWinnerID *uuid.UUID      `json:"previous_winner_id,omitempty"`
	Balance          decimal.Decimal `json:"balance"`
}

// PurchaseResult is returned by BuyNow.
type PurchaseResult struct {
	Listing      ListingDTO                  `json:"listing"`
	Transaction  transactions.TransactionDTO `json:"transaction"`
	RefundedBids int                         `json:"refunded_bids"`
	Balance      decimal.Decimal             `json:"balance"`
}

// CloseOutcome labels how an auction ended.
type CloseOutcome string

const (
	OutcomeSold    CloseOutcome = "sold"
	OutcomeNoBids  CloseOutcome = "no_bids"
	OutcomeSkipped CloseOutcome = "skipped"
)

// CloseResult is returned by CloseAuction.
type CloseResult struct {
	ListingID   uuid.UUID                    `json:"listing_id"`
	Outcome     CloseOutcome                 `json:"outcome"`
	Transaction *transactions.TransactionDTO `json:"transaction,omitempty"`
}

// CloseSummary aggregates a closer run.
type CloseSummary struct {
	Due     int `json:"due"`
	Sold    int `json:"sold"`
	NoBids  int `json:"no_bids"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RemoveResult is returned by Delete.
type RemoveResult struct {
	Listing      ListingDTO `json:"listing"`
	RefundedBids int        `json:"refunded_bids"`
	Moderated    bool       `json:"moderated"`
}
