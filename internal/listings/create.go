package listings

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/internal/bids"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	dbtypes "github.com/angelmondragon/rpg-market/pkg/db/types"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (s *service) CreateDirectSale(ctx context.Context, actor authz.Actor, input CreateDirectSaleInput) (*ListingDTO, error) {
	details, err := normalizeDetails(input.ItemDetails)
	if err != nil {
		return nil, err
	}
	if err := validMoney("price", input.Price); err != nil {
		return nil, err
	}
	listing := details.listing()
	listing.Type = enums.ListingTypeDirectSale
	listing.Status = enums.ListingStatusAvailable
	listing.Price = input.Price
	return s.create(ctx, actor, listing)
}

func (s *service) CreateAuction(ctx context.Context, actor authz.Actor, input CreateAuctionInput) (*ListingDTO, error) {
	details, err := normalizeDetails(input.ItemDetails)
	if err != nil {
		return nil, err
	}
	if err := validMoney("starting price", input.StartingPrice); err != nil {
		return nil, err
	}
	increment := defaultIncrement
	if input.MinBidIncrement != nil {
		increment = *input.MinBidIncrement
		if err := validMoney("minimum bid increment", increment); err != nil {
			return nil, err
		}
	}
	if input.BuyNowPrice != nil {
		if err := validBuyNow(*input.BuyNowPrice, input.StartingPrice); err != nil {
			return nil, err
		}
	}
	now := s.now()
	endAt := now.Add(s.auctionDuration)
	if input.AuctionEndAt != nil {
		endAt = input.AuctionEndAt.UTC()
		if !endAt.After(now) {
			return nil, invalid("auction end must be in the future")
		}
	}

	listing := details.listing()
	listing.Type = enums.ListingTypeAuction
	listing.Status = enums.ListingStatusAuctionActive
	listing.Price = input.StartingPrice
	listing.StartingPrice = decimalPtr(input.StartingPrice)
	listing.MinBidIncrement = decimalPtr(increment)
	listing.BuyNowPrice = input.BuyNowPrice
	listing.AuctionEndAt = &endAt
	return s.create(ctx, actor, listing)
}

func (s *service) create(ctx context.Context, caller authz.Actor, listing *models.Listing) (*ListingDTO, error) {
	var actor authz.Actor
	err := s.inTx(ctx, "create_listing", uuid.Nil, func(tx *gorm.DB) error {
		var err error
		_, actor, err = loadActor(ctx, tx, caller.UserID)
		if err != nil {
			return err
		}
		if err := authz.CanCreate(actor, listing.Category); err != nil {
			return err
		}
		listing.ID = uuid.Nil
		listing.SellerID = actor.UserID
		listing.SellerUsername = actor.Username
		if err := NewRepository(tx).Create(ctx, listing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create listing")
		}
		return s.emit(ctx, tx, actor, enums.EventListingCreated, listing.ID, payloads.ListingCreatedEvent{
			ListingID:    listing.ID,
			SellerID:     listing.SellerID,
			Name:         listing.Name,
			Category:     listing.Category,
			Type:         listing.Type,
			Price:        listing.Price,
			AuctionEndAt: listing.AuctionEndAt,
			Status:       listing.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ListingCreated(string(listing.Type))
	s.logOutcome(ctx, "listing.created", listing.ID, actor, map[string]any{
		"type":     listing.Type,
		"category": listing.Category,
		"price":    listing.Price.StringFixed(moneyPlaces),
	})
	dto := FromModel(listing)
	if listing.IsAuction() {
		dto = dto.WithBidCount(0)
	}
	return &dto, nil
}

// Update applies a patch by the owner or a master. Pricing fields are frozen
// once an auction has bids.
func (s *service) Update(ctx context.Context, caller authz.Actor, id uuid.UUID, patch UpdateInput) (*ListingDTO, error) {
	var (
		listing  *models.Listing
		actor    authz.Actor
		fields   []string
		bidCount int64
	)
	err := s.inTx(ctx, "update_listing", id, func(tx *gorm.DB) error {
		var err error
		if _, actor, err = loadActor(ctx, tx, caller.UserID); err != nil {
			return err
		}
		if listing, err = loadListing(ctx, tx, id); err != nil {
			return err
		}
		if err := authz.CanManage(actor, listing); err != nil {
			return err
		}
		if !listing.Status.IsActive() {
			return illegalState("listing can no longer be edited", listing)
		}
		if bidCount, err = bids.NewRepository(tx).Count(ctx, listing.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count bids")
		}
		if patch.touchesPricing() && bidCount > 0 {
			return illegalState("pricing cannot change once bids were placed", listing)
		}

		changes, err := s.applyPatch(actor, listing, patch)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := saveListing(ctx, tx, listing, changes); err != nil {
			return err
		}
		fields = make([]string, 0, len(changes))
		for column := range changes {
			fields = append(fields, column)
		}
		sort.Strings(fields)
		return s.emit(ctx, tx, actor, enums.EventListingUpdated, listing.ID, payloads.ListingUpdatedEvent{
			ListingID: listing.ID,
			EditorID:  actor.UserID,
			Fields:    fields,
		})
	})
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		s.logOutcome(ctx, "listing.updated", listing.ID, actor, map[string]any{"fields": fields})
	}
	dto := FromModel(listing).WithBidCount(bidCount)
	return &dto, nil
}

// applyPatch validates the patch against the listing, mutates the in-memory
// copy and returns the changed columns.
func (s *service) applyPatch(actor authz.Actor, listing *models.Listing, patch UpdateInput) (map[string]any, error) {
	changes := map[string]any{}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("name is required")
		}
		listing.Name = name
		changes["name"] = name
	}
	if patch.Description != nil {
		listing.Description = strings.TrimSpace(*patch.Description)
		changes["description"] = listing.Description
	}
	if patch.Rarity != nil {
		rarity, err := enums.ParseRarity(string(*patch.Rarity))
		if err != nil {
			return nil, invalid("invalid rarity")
		}
		listing.Rarity = rarity
		changes["rarity"] = rarity
	}
	if patch.Category != nil {
		category, err := enums.ParseCategory(string(*patch.Category))
		if err != nil {
			return nil, invalid("invalid category")
		}
		if category != listing.Category {
			if err := authz.CanCreate(actor, category); err != nil {
				return nil, err
			}
			listing.Category = category
			changes["category"] = category
		}
	}
	if patch.ImageURL != nil {
		if url := strings.TrimSpace(*patch.ImageURL); url != "" {
			listing.ImageURL = &url
			changes["image_url"] = url
		} else {
			listing.ImageURL = nil
			changes["image_url"] = nil
		}
	}
	if patch.MagicProperties != nil {
		props := cleanProperties(*patch.MagicProperties)
		listing.MagicProperties = props
		changes["magic_properties"] = props
	}

	if listing.IsAuction() {
		if patch.Price != nil {
			return nil, invalid("auction price is driven by bids, edit the starting price instead")
		}
		if err := patchAuction(listing, patch, s.now(), changes); err != nil {
			return nil, err
		}
		return changes, nil
	}

	if patch.StartingPrice != nil || patch.MinBidIncrement != nil || patch.BuyNowPrice != nil || patch.AuctionEndAt != nil {
		return nil, invalid("auction fields do not apply to a direct sale")
	}
	if patch.Price != nil {
		if err := validMoney("price", *patch.Price); err != nil {
			return nil, err
		}
		listing.Price = *patch.Price
		changes["price"] = listing.Price
	}
	return changes, nil
}

func patchAuction(listing *models.Listing, patch UpdateInput, now time.Time, changes map[string]any) error {
	if patch.StartingPrice != nil {
		if err := validMoney("starting price", *patch.StartingPrice); err != nil {
			return err
		}
		listing.StartingPrice = decimalPtr(*patch.StartingPrice)
		listing.Price = *patch.StartingPrice
		changes["starting_price"] = *patch.StartingPrice
		changes["price"] = *patch.StartingPrice
	}
	if patch.MinBidIncrement != nil {
		if err := validMoney("minimum bid increment", *patch.MinBidIncrement); err != nil {
			return err
		}
		listing.MinBidIncrement = decimalPtr(*patch.MinBidIncrement)
		changes["min_bid_increment"] = *patch.MinBidIncrement
	}
	if patch.BuyNowPrice != nil {
		if patch.BuyNowPrice.IsZero() {
			listing.BuyNowPrice = nil
			changes["buy_now_price"] = nil
		} else {
			if err := validBuyNow(*patch.BuyNowPrice, listing.Opening()); err != nil {
				return err
			}
			listing.BuyNowPrice = decimalPtr(*patch.BuyNowPrice)
			changes["buy_now_price"] = *patch.BuyNowPrice
		}
	} else if patch.StartingPrice != nil && listing.BuyNowPrice != nil {
		if err := validBuyNow(*listing.BuyNowPrice, listing.Opening()); err != nil {
			return err
		}
	}
	if patch.AuctionEndAt != nil {
		endAt := patch.AuctionEndAt.UTC()
		if !endAt.After(now) {
			return invalid("auction end must be in the future")
		}
		listing.AuctionEndAt = &endAt
		changes["auction_end_at"] = endAt
	}
	return nil
}

type itemDetails struct {
	name        string
	description string
	category    enums.Category
	rarity      enums.Rarity
	imageURL    *string
	properties  dbtypes.StringList
}

func (d itemDetails) listing() *models.Listing {
	return &models.Listing{
		Name:            d.name,
		Description:     d.description,
		Category:        d.category,
		Rarity:          d.rarity,
		ImageURL:        d.imageURL,
		MagicProperties: d.properties,
	}
}

func normalizeDetails(in ItemDetails) (itemDetails, error) {
	out := itemDetails{
		name:        strings.TrimSpace(in.Name),
		description: strings.TrimSpace(in.Description),
		properties:  cleanProperties(in.MagicProperties),
	}
	if out.name == "" {
		return out, invalid("name is required")
	}
	category, err := enums.ParseCategory(string(in.Category))
	if err != nil {
		return out, invalid("invalid category").WithDetails(map[string]any{"category": in.Category})
	}
	out.category = category

	out.rarity = enums.RarityCommon
	if in.Rarity != "" {
		rarity, err := enums.ParseRarity(string(in.Rarity))
		if err != nil {
			return out, invalid("invalid rarity").WithDetails(map[string]any{"rarity": in.Rarity})
		}
		out.rarity = rarity
	}
	if in.ImageURL != nil {
		if url := strings.TrimSpace(*in.ImageURL); url != "" {
			out.imageURL = &url
		}
	}
	return out, nil
}

func cleanProperties(values []string) dbtypes.StringList {
	out := make(dbtypes.StringList, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func validBuyNow(buyNow, starting decimal.Decimal) error {
	if err := validMoney("buy now price", buyNow); err != nil {
		return err
	}
	if !buyNow.GreaterThan(starting) {
		return invalid("buy now price must be above the starting price")
	}
	return nil
}
