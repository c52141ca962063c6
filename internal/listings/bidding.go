package listings

import (
	"context"

	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/internal/bids"
	"github.com/angelmondragon/rpg-market/internal/wallet"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlaceBid escrows amount from the bidder, refunds the previous high bidder
// and makes the new bid the only winning one. A re-bid by the current winner
// only moves the difference.
func (s *service) PlaceBid(ctx context.Context, caller authz.Actor, id uuid.UUID, amount decimal.Decimal) (*BidResult, error) {
	var (
		listing  *models.Listing
		actor    authz.Actor
		bid      *models.Bid
		previous *uuid.UUID
		balance  decimal.Decimal
		bidCount int64
	)
	err := s.inTx(ctx, "place_bid", id, func(tx *gorm.DB) error {
		var err error
		previous = nil
		if _, actor, err = loadActor(ctx, tx, caller.UserID); err != nil {
			return err
		}
		if listing, err = loadListing(ctx, tx, id); err != nil {
			return err
		}
		if err := authz.CanBid(actor, listing); err != nil {
			return err
		}
		if err := s.ensureBiddable(listing); err != nil {
			return err
		}
		if err := validMoney("bid amount", amount); err != nil {
			return err
		}

		bidRepo := bids.NewRepository(tx)
		highest, err := bidRepo.HighestBid(ctx, listing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load highest bid")
		}
		minimum := listing.Opening()
		if highest != nil {
			minimum = highest.Amount.Add(listing.Increment())
		}
		if amount.LessThan(minimum) {
			return invalid("bid is below the minimum").WithDetails(map[string]any{
				"minimum": minimum.StringFixed(moneyPlaces),
				"amount":  amount.StringFixed(moneyPlaces),
			})
		}

		// Claim the listing row first so a concurrent bid loses here.
		if err := saveListing(ctx, tx, listing, map[string]any{"price": amount}); err != nil {
			return err
		}
		listing.Price = amount

		w := wallet.New(tx)
		if highest != nil && highest.BidderID == actor.UserID {
			balance, err = w.Debit(ctx, actor.UserID, amount.Sub(highest.Amount))
			if err != nil {
				return err
			}
		} else {
			if balance, err = w.Debit(ctx, actor.UserID, amount); err != nil {
				return err
			}
			if highest != nil {
				if _, err := w.Credit(ctx, highest.BidderID, highest.Amount); err != nil {
					return err
				}
				prev := highest.BidderID
				previous = &prev
			}
		}

		if _, err := bidRepo.ClearWinner(ctx, listing.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear winning bid")
		}
		bid = &models.Bid{
			ListingID:      listing.ID,
			BidderID:       actor.UserID,
			BidderUsername: actor.Username,
			Amount:         amount,
			PlacedAt:       s.now(),
			Winning:        true,
		}
		if err := bidRepo.Insert(ctx, bid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert bid")
		}
		if bidCount, err = bidRepo.Count(ctx, listing.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count bids")
		}
		return s.emit(ctx, tx, actor, enums.EventBidPlaced, listing.ID, payloads.BidPlacedEvent{
			ListingID:        listing.ID,
			BidID:            bid.ID,
			BidderID:         actor.UserID,
			Amount:           amount,
			PreviousWinnerID: previous,
		})
	})
	if err != nil {
		s.metrics.BidRejected(string(pkgerrors.CodeOf(err)))
		return nil, err
	}

	s.metrics.BidPlaced()
	fields := map[string]any{"amount": amount.StringFixed(moneyPlaces), "bid_id": bid.ID.String()}
	if previous != nil {
		fields["previous_winner_id"] = previous.String()
	}
	s.logOutcome(ctx, "bid.placed", listing.ID, actor, fields)
	return &BidResult{
		Bid:              BidFromModel(bid),
		Listing:          FromModel(listing).WithBidCount(bidCount),
		PreviousWinnerID: previous,
		Balance:          balance,
	}, nil
}

func (s *service) ensureBiddable(listing *models.Listing) error {
	if !listing.IsAuction() {
		return illegalState("listing is not an auction", listing)
	}
	if listing.Status != enums.ListingStatusAuctionActive {
		return illegalState("auction is not active", listing)
	}
	if listing.AuctionEndAt == nil || !s.now().Before(*listing.AuctionEndAt) {
		return illegalState("auction has ended", listing)
	}
	return nil
}
