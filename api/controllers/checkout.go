package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/rpg-market/api/middleware"
	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/api/validators"
	"github.com/angelmondragon/rpg-market/internal/addresses"
	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/internal/market"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckoutHandlers serve the purchase confirmation page and its submit.
type CheckoutHandlers struct {
	Listings  listings.Service
	Market    market.Service
	Addresses addresses.Service
	Users     UserReader
	Redirect  responses.Redirector
	Logger    *logger.Logger
}

// Page returns the listing, the caller's addresses and their balance.
func (h CheckoutHandlers) Page() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Market == nil || h.Addresses == nil || h.Users == nil {
			serviceUnavailable(w, r, h.Logger, "checkout")
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
		addrs, err := h.Addresses.List(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		user, err := h.Users.FindByID(r.Context(), actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}

		responses.WritePage(w, r, map[string]any{
			"listing":   detail.Listing,
			"can_buy":   detail.CanBuy,
			"addresses": addrs,
			"balance":   user.GoldCoins,
		})
	}
}

// Confirm buys the listing outright and sends the caller to the new
// transaction.
func (h CheckoutHandlers) Confirm() http.HandlerFunc {
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
		back := checkoutPath(id)

		form, err := decodeCheckout(r)
		if err != nil {
			h.Redirect.Failure(w, r, back, err)
			return
		}
		result, err := h.Listings.BuyNow(r.Context(), actor, id, form)
		if err != nil {
			h.Redirect.Failure(w, r, back, err)
			return
		}
		h.Redirect.Success(w, r, http.StatusCreated, transactionPath(result.Transaction.ID),
			"Purchase of "+result.Listing.Name+" confirmed", result)
	}
}

func decodeCheckout(r *http.Request) (listings.BuyNowInput, error) {
	var form listings.BuyNowInput
	if !validators.IsForm(r) {
		return form, validators.DecodeJSONBody(r, &form)
	}
	if err := validators.ParseForm(r); err != nil {
		return form, err
	}
	form.Notes = strings.TrimSpace(r.FormValue("notes"))
	if raw := strings.TrimSpace(r.FormValue("address_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return form, pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid address").
				WithDetails(map[string]any{"field": "address_id"})
		}
		form.AddressID = &id
	}
	return form, validators.Validate(&form)
}
