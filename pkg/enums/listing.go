package enums

import (
	"fmt"
	"strings"
)

// Category is the product category of a listing. Values are stored upper-case.
type Category string

const (
	CategoryWeapons Category = "WEAPONS"
	CategoryArmor   Category = "ARMOR"
	CategoryPotions Category = "POTIONS"
	CategoryJewelry Category = "JEWELRY"
	CategoryScrolls Category = "SCROLLS"
	CategoryMounts  Category = "MOUNTS"
	CategoryMisc    Category = "MISC"
)

var validCategories = []Category{
	CategoryWeapons,
	CategoryArmor,
	CategoryPotions,
	CategoryJewelry,
	CategoryScrolls,
	CategoryMounts,
	CategoryMisc,
}

// AllCategories returns every category in canonical order.
func AllCategories() []Category {
	out := make([]Category, len(validCategories))
	copy(out, validCategories)
	return out
}

func (c Category) String() string { return string(c) }

// IsValid reports whether the value matches a known category.
func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCategory converts raw input (any case) into a Category.
func ParseCategory(value string) (Category, error) {
	normalized := Category(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid category %q", value)
}

// Rarity grades how rare an item is.
type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityUncommon  Rarity = "UNCOMMON"
	RarityRare      Rarity = "RARE"
	RarityVeryRare  Rarity = "VERY_RARE"
	RarityLegendary Rarity = "LEGENDARY"
)

var validRarities = []Rarity{
	RarityCommon,
	RarityUncommon,
	RarityRare,
	RarityVeryRare,
	RarityLegendary,
}

// AllRarities returns every rarity from most to least common.
func AllRarities() []Rarity {
	out := make([]Rarity, len(validRarities))
	copy(out, validRarities)
	return out
}

func (r Rarity) String() string { return string(r) }

func (r Rarity) IsValid() bool {
	for _, candidate := range validRarities {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRarity converts raw input (any case) into a Rarity.
func ParseRarity(value string) (Rarity, error) {
	normalized := Rarity(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid rarity %q", value)
}

// ListingType is the sale mode of a listing.
type ListingType string

const (
	ListingTypeDirectSale ListingType = "DIRECT_SALE"
	ListingTypeAuction    ListingType = "AUCTION"
)

var validListingTypes = []ListingType{
	ListingTypeDirectSale,
	ListingTypeAuction,
}

func (t ListingType) String() string { return string(t) }

func (t ListingType) IsValid() bool {
	for _, candidate := range validListingTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseListingType converts raw input (any case) into a ListingType.
func ParseListingType(value string) (ListingType, error) {
	normalized := ListingType(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid listing type %q", value)
}

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingStatusAvailable     ListingStatus = "AVAILABLE"
	ListingStatusAuctionActive ListingStatus = "AUCTION_ACTIVE"
	ListingStatusSold          ListingStatus = "SOLD"
	ListingStatusAuctionEnded  ListingStatus = "AUCTION_ENDED"
	ListingStatusRemoved       ListingStatus = "REMOVED"
)

var validListingStatuses = []ListingStatus{
	ListingStatusAvailable,
	ListingStatusAuctionActive,
	ListingStatusSold,
	ListingStatusAuctionEnded,
	ListingStatusRemoved,
}

func (s ListingStatus) String() string { return string(s) }

func (s ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (s ListingStatus) IsTerminal() bool {
	switch s {
	case ListingStatusSold, ListingStatusAuctionEnded, ListingStatusRemoved:
		return true
	}
	return false
}

// IsActive reports whether the listing is still on the market.
func (s ListingStatus) IsActive() bool {
	return s == ListingStatusAvailable || s == ListingStatusAuctionActive
}

// ParseListingStatus converts raw input (any case) into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	normalized := ListingStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}
