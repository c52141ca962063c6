// Package types holds the report shapes served by the master dashboards.
package types

import (
	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/internal/transactions"
	"github.com/angelmondragon/rpg-market/internal/users"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LabelValue represents a top-N entry such as a category count.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// Trader is one row of a seller or buyer ranking.
type Trader struct {
	UserID   uuid.UUID       `json:"user_id"`
	Username string          `json:"username"`
	Count    int64           `json:"count"`
	Volume   decimal.Decimal `json:"volume"`
}

// Dashboard is the master overview for the last PeriodDays days.
type Dashboard struct {
	PeriodDays         int                   `json:"period_days"`
	TotalUsers         int64                 `json:"total_users"`
	TotalListings      int64                 `json:"total_listings"`
	TotalTransactions  int64                 `json:"total_transactions"`
	PeriodTransactions int64                 `json:"period_transactions"`
	AverageTransaction decimal.Decimal       `json:"average_transaction"`
	ActivityRate       decimal.Decimal       `json:"activity_rate"`
	TotalVolume        decimal.Decimal       `json:"total_volume"`
	TopSellers         []Trader              `json:"top_sellers"`
	TopListings        []listings.ListingDTO `json:"top_listings"`
	ByCategory         []LabelValue          `json:"by_category"`
}

// Ranking is the master "noble ranking" page.
type Ranking struct {
	Sellers     []Trader        `json:"sellers"`
	Buyers      []Trader        `json:"buyers"`
	Richest     []users.UserDTO `json:"richest"`
	MasterCount int64           `json:"master_count"`
	TotalVolume decimal.Decimal `json:"total_volume"`
}

// PublicRanking is what any visitor may see of the ranking.
type PublicRanking struct {
	Sellers []Trader `json:"sellers"`
	Buyers  []Trader `json:"buyers"`
}

// ActivityReport lists the latest movements on the market.
type ActivityReport struct {
	Limit        int                           `json:"limit"`
	Transactions []transactions.TransactionDTO `json:"transactions"`
	Bids         []listings.BidDTO             `json:"bids"`
	Listings     []listings.ListingDTO         `json:"listings"`
}

// ListingQuery is the listing management filter.
type ListingQuery struct {
	Status         enums.ListingStatus
	Category       enums.Category
	Type           enums.ListingType
	SellerUsername string
	Sort           string
}

// ListingManagement is one page of listings plus headline counts.
type ListingManagement struct {
	Page   pagination.Page[listings.ListingDTO] `json:"page"`
	Total  int64                                `json:"total"`
	Active int64                                `json:"active"`
	Sold   int64                                `json:"sold"`
}
