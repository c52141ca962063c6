package listings

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/rpg-market/internal/addresses"
	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/internal/bids"
	"github.com/angelmondragon/rpg-market/internal/transactions"
	"github.com/angelmondragon/rpg-market/internal/wallet"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BuyNow sells the listing to the caller at its price (direct sale) or its
// buy-now price (auction). Escrowed bids are refunded first.
func (s *service) BuyNow(ctx context.Context, caller authz.Actor, id uuid.UUID, input BuyNowInput) (*PurchaseResult, error) {
	var (
		listing  *models.Listing
		actor    authz.Actor
		row      *models.Transaction
		refunded int
		balance  decimal.Decimal
		price    decimal.Decimal
	)
	notes := strings.TrimSpace(input.Notes)
	err := s.inTx(ctx, "buy_now", id, func(tx *gorm.DB) error {
		var err error
		if _, actor, err = loadActor(ctx, tx, caller.UserID); err != nil {
			return err
		}
		if listing, err = loadListing(ctx, tx, id); err != nil {
			return err
		}
		if err := authz.CanBuy(actor, listing); err != nil {
			return err
		}
		if price, err = s.buyNowPrice(listing); err != nil {
			return err
		}
		address, err := addresses.NewRepository(tx).ForCheckout(ctx, actor.UserID, input.AddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load delivery address")
		}

		if err := saveListing(ctx, tx, listing, map[string]any{
			"status": enums.ListingStatusSold,
			"price":  price,
		}); err != nil {
			return err
		}
		listing.Status = enums.ListingStatusSold
		listing.Price = price

		if refunded, err = refundEscrow(ctx, tx, listing.ID); err != nil {
			return err
		}
		w := wallet.New(tx)
		if balance, err = w.Debit(ctx, actor.UserID, price); err != nil {
			return err
		}
		if _, err := w.Credit(ctx, listing.SellerID, price); err != nil {
			return err
		}

		row, err = transactions.NewRepository(tx).Open(ctx, transactions.OpenParams{
			Listing:       listing,
			BuyerID:       actor.UserID,
			BuyerUsername: actor.Username,
			Amount:        price,
			Address:       address,
			Notes:         notes,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open transaction")
		}
		return s.emit(ctx, tx, actor, enums.EventListingSold, listing.ID, payloads.ListingSoldEvent{
			ListingID:     listing.ID,
			TransactionID: row.ID,
			BuyerID:       actor.UserID,
			SellerID:      listing.SellerID,
			Amount:        price,
			RefundedBids:  refunded,
		})
	})
	if err != nil {
		return nil, err
	}

	amount, _ := price.Float64()
	s.metrics.ListingSold(string(listing.Type), amount)
	s.logOutcome(ctx, "listing.sold", listing.ID, actor, map[string]any{
		"transaction_id": row.ID.String(),
		"amount":         price.StringFixed(moneyPlaces),
		"refunded_bids":  refunded,
	})
	return &PurchaseResult{
		Listing:      FromModel(listing),
		Transaction:  transactions.FromModel(row),
		RefundedBids: refunded,
		Balance:      balance,
	}, nil
}

// buyNowPrice is the amount a buy-now would charge. Auctions sell instantly
// only while bidding has not reached the buy-now price.
func (s *service) buyNowPrice(listing *models.Listing) (decimal.Decimal, error) {
	switch listing.Status {
	case enums.ListingStatusAvailable:
		return listing.Price, nil
	case enums.ListingStatusAuctionActive:
		if listing.BuyNowPrice == nil {
			return decimal.Zero, illegalState("auction has no buy now price", listing)
		}
		if listing.AuctionEndAt != nil && !s.now().Before(*listing.AuctionEndAt) {
			return decimal.Zero, illegalState("auction has ended", listing)
		}
		if !listing.Price.LessThan(*listing.BuyNowPrice) {
			return decimal.Zero, illegalState("bidding already reached the buy now price", listing)
		}
		return *listing.BuyNowPrice, nil
	default:
		return decimal.Zero, illegalState("listing is not for sale", listing)
	}
}

// refundEscrow returns every escrowed bid to its bidder and clears the
// winning flag. It reports how many bids were refunded.
func refundEscrow(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) (int, error) {
	bidRepo := bids.NewRepository(tx)
	escrowed, err := bidRepo.EscrowedBids(ctx, listingID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load escrowed bids")
	}
	if len(escrowed) == 0 {
		return 0, nil
	}
	w := wallet.New(tx)
	for i := range escrowed {
		if _, err := w.Credit(ctx, escrowed[i].BidderID, escrowed[i].Amount); err != nil {
			return 0, err
		}
	}
	if _, err := bidRepo.ClearWinner(ctx, listingID); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear winning bid")
	}
	return len(escrowed), nil
}
