package listings

import (
	"context"

	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/internal/bids"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Delete takes a listing off the market. Sellers may only remove listings
// nobody has bid on; masters may remove any active listing and every
// escrowed bid is refunded. The row and its bids are kept as history.
func (s *service) Delete(ctx context.Context, caller authz.Actor, id uuid.UUID, opts DeleteOptions) (*RemoveResult, error) {
	var (
		listing  *models.Listing
		actor    authz.Actor
		refunded int
	)
	err := s.inTx(ctx, "delete_listing", id, func(tx *gorm.DB) error {
		var err error
		if _, actor, err = loadActor(ctx, tx, caller.UserID); err != nil {
			return err
		}
		if opts.Moderation {
			if err := authz.RequirePrivileged(actor); err != nil {
				return err
			}
		}
		if listing, err = loadListing(ctx, tx, id); err != nil {
			return err
		}
		if err := authz.CanManage(actor, listing); err != nil {
			return err
		}
		if !listing.Status.IsActive() {
			return illegalState("listing is no longer active", listing)
		}
		if !actor.Privileged() {
			count, err := bids.NewRepository(tx).Count(ctx, listing.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count bids")
			}
			if count > 0 {
				return illegalState("listings with bids can only be removed by a master", listing)
			}
		}

		if err := saveListing(ctx, tx, listing, map[string]any{"status": enums.ListingStatusRemoved}); err != nil {
			return err
		}
		listing.Status = enums.ListingStatusRemoved
		if refunded, err = refundEscrow(ctx, tx, listing.ID); err != nil {
			return err
		}
		return s.emit(ctx, tx, actor, enums.EventListingRemoved, listing.ID, payloads.ListingRemovedEvent{
			ListingID:    listing.ID,
			RemovedByID:  actor.UserID,
			Moderated:    !actor.Owns(listing),
			RefundedBids: refunded,
		})
	})
	if err != nil {
		return nil, err
	}

	moderated := !actor.Owns(listing)
	who := "seller"
	if moderated {
		who = "master"
	}
	s.metrics.ListingRemoved(who)
	s.logOutcome(ctx, "listing.removed", listing.ID, actor, map[string]any{
		"moderated":     moderated,
		"refunded_bids": refunded,
	})
	return &RemoveResult{
		Listing:      FromModel(listing),
		RefundedBids: refunded,
		Moderated:    moderated,
	}, nil
}
