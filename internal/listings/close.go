package listings

import (
	"context"
	"fmt"

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
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// CloseAuction ends an auction whose deadline passed. The winning bid, if
// any, was escrowed at bid time, so only the seller is credited.
func (s *service) CloseAuction(ctx context.Context, id uuid.UUID) (*CloseResult, error) {
	var (
		listing *models.Listing
		winner  *models.Bid
		row     *models.Transaction
	)
	err := s.inTx(ctx, "close_auction", id, func(tx *gorm.DB) error {
		var err error
		winner, row = nil, nil
		if listing, err = loadListing(ctx, tx, id); err != nil {
			return err
		}
		if !listing.IsAuction() || listing.Status != enums.ListingStatusAuctionActive {
			return illegalState("auction is not active", listing)
		}
		if listing.AuctionEndAt != nil && s.now().Before(*listing.AuctionEndAt) {
			return illegalState("auction has not ended yet", listing)
		}

		if err := saveListing(ctx, tx, listing, map[string]any{"status": enums.ListingStatusAuctionEnded}); err != nil {
			return err
		}
		listing.Status = enums.ListingStatusAuctionEnded

		if winner, err = bids.NewRepository(tx).HighestBid(ctx, listing.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load winning bid")
		}
		event := payloads.AuctionClosedEvent{ListingID: listing.ID}
		if winner != nil {
			if row, err = s.settle(ctx, tx, listing, winner); err != nil {
				return err
			}
			event.WinnerID = &winner.BidderID
			event.TransactionID = &row.ID
			event.Amount = &winner.Amount
		}
		return s.emit(ctx, tx, authz.Actor{}, enums.EventAuctionClosed, listing.ID, event)
	})
	if err != nil {
		return nil, err
	}

	result := &CloseResult{ListingID: listing.ID, Outcome: OutcomeNoBids}
	fields := map[string]any{}
	amount := 0.0
	if row != nil {
		dto := transactions.FromModel(row)
		result.Outcome = OutcomeSold
		result.Transaction = &dto
		amount, _ = winner.Amount.Float64()
		fields["winner_id"] = winner.BidderID.String()
		fields["transaction_id"] = row.ID.String()
		fields["amount"] = winner.Amount.StringFixed(moneyPlaces)
	}
	fields["outcome"] = result.Outcome
	s.metrics.AuctionClosed(string(result.Outcome), amount)
	s.logOutcome(ctx, "auction.closed", listing.ID, authz.Actor{}, fields)
	return result, nil
}

func (s *service) settle(ctx context.Context, tx *gorm.DB, listing *models.Listing, winner *models.Bid) (*models.Transaction, error) {
	if _, err := wallet.New(tx).Credit(ctx, listing.SellerID, winner.Amount); err != nil {
		return nil, err
	}
	address, err := addresses.NewRepository(tx).DefaultFor(ctx, winner.BidderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load winner address")
	}
	row, err := transactions.NewRepository(tx).Open(ctx, transactions.OpenParams{
		Listing:       listing,
		BuyerID:       winner.BidderID,
		BuyerUsername: winner.BidderUsername,
		Amount:        winner.Amount,
		Address:       address,
		Notes:         "auction won",
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open transaction")
	}
	return row, nil
}

// CloseDueAuctions closes up to limit auctions past their deadline. Listings
// another run already closed are counted as skipped; other failures are
// collected and do not stop the batch.
func (s *service) CloseDueAuctions(ctx context.Context, limit int) (CloseSummary, error) {
	var summary CloseSummary
	due, err := NewRepository(s.db.DB()).DueAuctions(ctx, s.now(), limit)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list due auctions")
	}
	summary.Due = len(due)

	var errs error
	for i := range due {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		result, err := s.CloseAuction(ctx, due[i].ID)
		switch {
		case err == nil && result.Outcome == OutcomeSold:
			summary.Sold++
		case err == nil:
			summary.NoBids++
		case pkgerrors.IsCode(err, pkgerrors.CodeIllegalState), pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			summary.Skipped++
		default:
			summary.Failed++
			errs = multierr.Append(errs, fmt.Errorf("close auction %s: %w", due[i].ID, err))
		}
	}
	return summary, errs
}
