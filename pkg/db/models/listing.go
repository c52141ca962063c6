package models

import (
	"time"

	dbtypes "github.com/angelmondragon/rpg-market/pkg/db/types"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Listing is an item offered either as a direct sale or as an auction.
// For auctions Price tracks the current high bid (or the starting price).
type Listing struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID        uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index:idx_listings_seller_id"`
	SellerUsername  string              `gorm:"column:seller_username;type:varchar(64);not null;index:idx_listings_seller_username"`
	Name            string              `gorm:"column:name;type:varchar(120);not null"`
	Description     string              `gorm:"column:description;type:text;not null;default:''"`
	Category        enums.Category      `gorm:"column:category;type:varchar(16);not null;index:idx_listings_browse,priority:2"`
	Rarity          enums.Rarity        `gorm:"column:rarity;type:varchar(16);not null"`
	Type            enums.ListingType   `gorm:"column:type;type:varchar(16);not null;index:idx_listings_browse,priority:3"`
	Status          enums.ListingStatus `gorm:"column:status;type:varchar(16);not null;index:idx_listings_browse,priority:1"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(19,2);not null"`
	StartingPrice   *decimal.Decimal    `gorm:"column:starting_price;type:numeric(19,2)"`
	BuyNowPrice     *decimal.Decimal    `gorm:"column:buy_now_price;type:numeric(19,2)"`
	MinBidIncrement *decimal.Decimal    `gorm:"column:min_bid_increment;type:numeric(19,2)"`
	AuctionEndAt    *time.Time          `gorm:"column:auction_end_at;index:idx_listings_auction_end_at"`
	ImageURL        *string             `gorm:"column:image_url"`
	MagicProperties dbtypes.StringList  `gorm:"column:magic_properties;type:text;not null;default:'[]'"`
	Version         int64               `gorm:"column:version;not null;default:0"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime;index:idx_listings_browse,priority:4,sort:desc;index:idx_listings_created_at,sort:desc"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *Listing) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// IsAuction reports whether the listing is sold by auction.
func (l *Listing) IsAuction() bool {
	return l.Type == enums.ListingTypeAuction
}

// Increment returns the minimum bid increment, zero when unset.
func (l *Listing) Increment() decimal.Decimal {
	if l.MinBidIncrement == nil {
		return decimal.Zero
	}
	return *l.MinBidIncrement
}

// Opening returns the starting price for auctions, falling back to Price.
func (l *Listing) Opening() decimal.Decimal {
	if l.StartingPrice == nil {
		return l.Price
	}
	return *l.StartingPrice
}
