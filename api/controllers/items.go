package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/rpg-market/api/middleware"
	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/api/validators"
	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/internal/market"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/permissions"
	"github.com/shopspring/decimal"
)

const (
	newItemPath       = "/item/novo"
	marketPath        = "/mercado"
	maxAuctionDays    = 30
	defaultAuctionDay = 7
)

// listingForm is the create payload for both sale modes. Price doubles as the
// starting price of an auction when starting_price is omitted.
type listingForm struct {
	listings.ItemDetails
	Type            enums.ListingType `json:"type" validate:"required"`
	Price           *decimal.Decimal  `json:"price,omitempty"`
	StartingPrice   *decimal.Decimal  `json:"starting_price,omitempty"`
	MinBidIncrement *decimal.Decimal  `json:"min_bid_increment,omitempty"`
	BuyNowPrice     *decimal.Decimal  `json:"buy_now_price,omitempty"`
	AuctionEndAt    *time.Time        `json:"auction_end_at,omitempty"`
	AuctionDays     *int              `json:"auction_days,omitempty"`
}

type bidForm struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

// ItemHandlers groups the item surface: create, edit, delete, bid and buy.
type ItemHandlers struct {
	Listings listings.Service
	Market   market.Service
	Redirect responses.Redirector
	Logger   *logger.Logger
	Now      func() time.Time
}

func (h ItemHandlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// NewForm describes the create form for the caller: the categories their class
// may list in, rarities, sale modes and auction defaults.
func (h ItemHandlers) NewForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		responses.WritePage(w, r, map[string]any{
			"categories":         permissions.AllowedCategories(actor.CharacterClass, actor.Role),
			"rarities":           enums.AllRarities(),
			"types":              []enums.ListingType{enums.ListingTypeDirectSale, enums.ListingTypeAuction},
			"default_increment":  decimal.NewFromInt(1),
			"default_auction_at": h.now().AddDate(0, 0, defaultAuctionDay),
			"max_auction_days":   maxAuctionDays,
		})
	}
}

// Create lists a new item from a JSON or form body.
func (h ItemHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Listings == nil {
			serviceUnavailable(w, r, h.Logger, "listing service")
			return
		}

		form, err := h.decodeListingForm(r)
		if err != nil {
			h.Redirect.Failure(w, r, newItemPath, err)
			return
		}

		var created *listings.ListingDTO
		switch form.Type {
		case enums.ListingTypeDirectSale:
			if form.Price == nil {
				err = pkgerrors.New(pkgerrors.CodeInvalidArgument, "price is required")
				break
			}
			created, err = h.Listings.CreateDirectSale(r.Context(), actor, listings.CreateDirectSaleInput{
				ItemDetails: form.ItemDetails,
				Price:       *form.Price,
			})
		case enums.ListingTypeAuction:
			start := form.StartingPrice
			if start == nil {
				start = form.Price
			}
			if start == nil {
				err = pkgerrors.New(pkgerrors.CodeInvalidArgument, "starting price is required")
				break
			}
			endAt := form.AuctionEndAt
			if endAt == nil && form.AuctionDays != nil {
				at := h.now().AddDate(0, 0, *form.AuctionDays)
				endAt = &at
			}
			created, err = h.Listings.CreateAuction(r.Context(), actor, listings.CreateAuctionInput{
				ItemDetails:     form.ItemDetails,
				StartingPrice:   *start,
				MinBidIncrement: form.MinBidIncrement,
				BuyNowPrice:     form.BuyNowPrice,
				AuctionEndAt:    endAt,
			})
		default:
			err = pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid listing type").
				WithDetails(map[string]any{"type": form.Type})
		}
		if err != nil {
			h.Redirect.Failure(w, r, newItemPath, err)
			return
		}

		h.Redirect.Success(w, r, http.StatusCreated, itemPath(created.ID), "Item listed on the market", created)
	}
}

// EditForm returns the listing with the flags the edit page needs. Only the
// seller or a master may open it.
func (h ItemHandlers) EditForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Market == nil {
			serviceUnavailable(w, r, h.Logger, "market service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		detail, err := h.Market.Detail(r.Context(), middleware.ViewerFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		if err := authz.CanManage(actor, &models.Listing{SellerID: detail.Listing.SellerID}); err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}

		responses.WritePage(w, r, map[string]any{
			"listing":        detail.Listing,
			"editable":       detail.Listing.Status.IsActive(),
			"pricing_locked": len(detail.Bids) > 0,
			"rarities":       enums.AllRarities(),
			"categories":     middleware.ViewerFromContext(r.Context()).Categories(),
		})
	}
}

// Update applies a partial edit.
func (h ItemHandlers) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Listings == nil {
			serviceUnavailable(w, r, h.Logger, "listing service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		back := itemPath(id) + "/editar"

		patch, err := decodeUpdate(r)
		if err != nil {
			h.Redirect.Failure(w, r, back, err)
			return
		}
		updated, err := h.Listings.Update(r.Context(), actor, id, patch)
		if err != nil {
			h.Redirect.Failure(w, r, back, err)
			return
		}
		h.Redirect.Success(w, r, http.StatusOK, itemPath(id), "Listing updated", updated)
	}
}

// Delete removes a listing on behalf of its seller or a master.
func (h ItemHandlers) Delete() http.HandlerFunc {
	return h.remove(false)
}

// DeleteAsMaster removes a listing from the market view as a moderation act.
func (h ItemHandlers) DeleteAsMaster() http.HandlerFunc {
	return h.remove(true)
}

func (h ItemHandlers) remove(moderation bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Listings == nil {
			serviceUnavailable(w, r, h.Logger, "listing service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}

		result, err := h.Listings.Delete(r.Context(), actor, id, listings.DeleteOptions{Moderation: moderation})
		if err != nil {
			h.Redirect.Failure(w, r, itemPath(id), err)
			return
		}
		msg := "Listing removed"
		if result.RefundedBids > 0 {
			msg = "Listing removed and bids refunded"
		}
		h.Redirect.Success(w, r, http.StatusOK, marketPath, msg, result)
	}
}

// PlaceBid places a bid from the form field or JSON property "amount".
func (h ItemHandlers) PlaceBid() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Listings == nil {
			serviceUnavailable(w, r, h.Logger, "listing service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}

		var body bidForm
		if validators.IsForm(r) {
			if err = validators.ParseForm(r); err == nil {
				body.Amount, err = validators.FormDecimal(r, "amount")
			}
			if err == nil {
				err = validators.Validate(&body)
			}
		} else {
			err = validators.DecodeJSONBody(r, &body)
		}
		if err != nil {
			h.Redirect.Failure(w, r, itemPath(id), err)
			return
		}

		result, err := h.Listings.PlaceBid(r.Context(), actor, id, *body.Amount)
		if err != nil {
			h.Redirect.Failure(w, r, itemPath(id), err)
			return
		}
		h.Redirect.Success(w, r, http.StatusCreated, itemPath(id),
			"Bid of "+result.Bid.Amount.StringFixed(2)+" gold placed", result)
	}
}

// Buy starts a purchase: it checks the listing can be bought by the caller and
// sends them to checkout.
func (h ItemHandlers) Buy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Market == nil {
			serviceUnavailable(w, r, h.Logger, "market service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}

		detail, err := h.Market.Detail(r.Context(), middleware.ViewerFromContext(r.Context()), id)
		if err != nil {
			h.Redirect.Failure(w, r, itemPath(id), err)
			return
		}
		if err := authz.CanBuy(actor, &models.Listing{SellerID: detail.Listing.SellerID}); err != nil {
			h.Redirect.Failure(w, r, itemPath(id), err)
			return
		}
		if !detail.CanBuy {
			err := pkgerrors.New(pkgerrors.CodeIllegalState, "this item cannot be bought now").
				WithDetails(map[string]any{"status": detail.Listing.Status})
			h.Redirect.Failure(w, r, itemPath(id), err)
			return
		}
		h.Redirect.Redirect(w, r, http.StatusOK, enums.FlashInfo, checkoutPath(id), "Review your purchase", detail.Listing)
	}
}

func (h ItemHandlers) decodeListingForm(r *http.Request) (listingForm, error) {
	var form listingForm
	if !validators.IsForm(r) {
		if err := validators.DecodeJSONBody(r, &form); err != nil {
			return form, err
		}
		form.Type = enums.ListingType(strings.ToUpper(string(form.Type)))
		return form, validAuctionDays(form.AuctionDays)
	}

	if err := validators.ParseForm(r); err != nil {
		return form, err
	}
	form.Name = r.FormValue("name")
	form.Description = r.FormValue("description")
	form.Category = enums.Category(strings.ToUpper(strings.TrimSpace(r.FormValue("category"))))
	form.Rarity = enums.Rarity(strings.ToUpper(strings.TrimSpace(r.FormValue("rarity"))))
	form.Type = enums.ListingType(strings.ToUpper(strings.TrimSpace(r.FormValue("type"))))
	form.MagicProperties = validators.FormList(r, "magic_properties")
	if v := strings.TrimSpace(r.FormValue("image_url")); v != "" {
		form.ImageURL = &v
	}

	var err error
	if form.Price, err = validators.FormDecimal(r, "price"); err != nil {
		return form, err
	}
	if form.StartingPrice, err = validators.FormDecimal(r, "starting_price"); err != nil {
		return form, err
	}
	if form.MinBidIncrement, err = validators.FormDecimal(r, "min_bid_increment"); err != nil {
		return form, err
	}
	if form.BuyNowPrice, err = validators.FormDecimal(r, "buy_now_price"); err != nil {
		return form, err
	}
	if form.AuctionEndAt, err = validators.FormTime(r, "auction_end_at"); err != nil {
		return form, err
	}
	if raw := strings.TrimSpace(r.FormValue("auction_days")); raw != "" {
		days, err := validators.FormInt(r, "auction_days", defaultAuctionDay)
		if err != nil {
			return form, err
		}
		form.AuctionDays = &days
	}
	if err := validators.Validate(&form); err != nil {
		return form, err
	}
	return form, validAuctionDays(form.AuctionDays)
}

func validAuctionDays(days *int) error {
	if days == nil {
		return nil
	}
	if *days < 1 || *days > maxAuctionDays {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument, "auction length out of range").
			WithDetails(map[string]any{"field": "auction_days", "min": 1, "max": maxAuctionDays})
	}
	return nil
}

// decodeUpdate reads a patch. Form fields that are absent stay untouched; a
// present but blank optional field is ignored as well.
func decodeUpdate(r *http.Request) (listings.UpdateInput, error) {
	var patch listings.UpdateInput
	if !validators.IsForm(r) {
		return patch, validators.DecodeJSONBody(r, &patch)
	}
	if err := validators.ParseForm(r); err != nil {
		return patch, err
	}

	text := func(key string) *string {
		if _, ok := r.Form[key]; !ok {
			return nil
		}
		v := r.FormValue(key)
		return &v
	}
	patch.Name = text("name")
	patch.Description = text("description")
	patch.ImageURL = text("image_url")
	if v := text("category"); v != nil && strings.TrimSpace(*v) != "" {
		c := enums.Category(strings.ToUpper(strings.TrimSpace(*v)))
		patch.Category = &c
	}
	if v := text("rarity"); v != nil && strings.TrimSpace(*v) != "" {
		rarity := enums.Rarity(strings.ToUpper(strings.TrimSpace(*v)))
		patch.Rarity = &rarity
	}
	if _, ok := r.Form["magic_properties"]; ok {
		props := validators.FormList(r, "magic_properties")
		patch.MagicProperties = &props
	}

	var err error
	if patch.Price, err = validators.FormDecimal(r, "price"); err != nil {
		return patch, err
	}
	if patch.StartingPrice, err = validators.FormDecimal(r, "starting_price"); err != nil {
		return patch, err
	}
	if patch.MinBidIncrement, err = validators.FormDecimal(r, "min_bid_increment"); err != nil {
		return patch, err
	}
	if patch.BuyNowPrice, err = validators.FormDecimal(r, "buy_now_price"); err != nil {
		return patch, err
	}
	if patch.AuctionEndAt, err = validators.FormTime(r, "auction_end_at"); err != nil {
		return patch, err
	}
	return patch, validators.Validate(&patch)
}
