package payloads

import (
	"time"

	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingCreatedEvent is emitted when a direct sale or auction is opened.
type ListingCreatedEvent struct {
	ListingID    uuid.UUID           `json:"listing_id"`
	SellerID     uuid.UUID           `json:"seller_id"`
	Name         string              `json:"name"`
	Category     enums.Category      `json:"category"`
	Type         enums.ListingType   `json:"type"`
	Price        decimal.Decimal     `json:"price"`
	AuctionEndAt *time.Time          `json:"auction_end_at,omitempty"`
	Status       enums.ListingStatus `json:"status"`
}

// ListingUpdatedEvent lists the fields changed by an edit.
type ListingUpdatedEvent struct {
	ListingID uuid.UUID `json:"listing_id"`
	EditorID  uuid.UUID `json:"editor_id"`
	Fields    []string  `json:"fields"`
}

// BidPlacedEvent is emitted for every accepted bid.
type BidPlacedEvent struct {
	ListingID        uuid.UUID       `json:"listing_id"`
	BidID            uuid.UUID       `json:"bid_id"`
	BidderID         uuid.UUID       `json:"bidder_id"`
	Amount           decimal.Decimal `json:"amount"`
	PreviousWinnerID *uuid.UUID      `json:"previous_winner_id,omitempty"`
}

// ListingSoldEvent is emitted on buy-now.
type ListingSoldEvent struct {
	ListingID     uuid.UUID       `json:"listing_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	Amount        decimal.Decimal `json:"amount"`
	RefundedBids  int             `json:"refunded_bids"`
}

// AuctionClosedEvent is emitted when the closer ends an auction.
type AuctionClosedEvent struct {
	ListingID     uuid.UUID        `json:"listing_id"`
	WinnerID      *uuid.UUID       `json:"winner_id,omitempty"`
	TransactionID *uuid.UUID       `json:"transaction_id,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
}

// ListingRemovedEvent is emitted on delete, with the refunds it triggered.
type ListingRemovedEvent struct {
	ListingID    uuid.UUID `json:"listing_id"`
	RemovedByID  uuid.UUID `json:"removed_by_id"`
	Moderated    bool      `json:"moderated"`
	RefundedBids int       `json:"refunded_bids"`
}

// TransactionStatusChangedEvent tracks the ledger lifecycle.
type TransactionStatusChangedEvent struct {
	TransactionID uuid.UUID               `json:"transaction_id"`
	From          enums.TransactionStatus `json:"from"`
	To            enums.TransactionStatus `json:"to"`
	ActorID       uuid.UUID               `json:"actor_id"`
}
