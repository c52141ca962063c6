// Package transactions is the append-only ledger of purchases and auction
// wins. Only status, completion time and tracking code ever change.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/internal/users"
	"github.com/angelmondragon/rpg-market/internal/wallet"
	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/outbox"
	"github.com/angelmondragon/rpg-market/pkg/outbox/payloads"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxTrackingCodeLength = 64

// Scope selects which side of the ledger a user is looking at.
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopePurchases Scope = "purchases"
	ScopeSales     Scope = "sales"
)

// Service defines the ledger operations exposed to controllers.
type Service interface {
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*TransactionDTO, error)
	ListForUser(ctx context.Context, actor authz.Actor, scope Scope, params pagination.Params) (pagination.Page[TransactionDTO], error)
	List(ctx context.Context, actor authz.Actor, filter Filter, params pagination.Params) (pagination.Page[TransactionDTO], error)
	MarkShipped(ctx context.Context, actor authz.Actor, id uuid.UUID, trackingCode string) (*TransactionDTO, error)
	MarkCompleted(ctx context.Context, actor authz.Actor, id uuid.UUID) (*TransactionDTO, error)
	Cancel(ctx context.Context, actor authz.Actor, id uuid.UUID, reason string) (*TransactionDTO, error)
}

type txClient interface {
	DB() *gorm.DB
	WithTxRetry(ctx context.Context, attempts int, onRetry func(attempt int, err error), fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build the ledger service.
type ServiceParams struct {
	DB          *db.Client
	Outbox      outbox.Emitter
	Logger      *logger.Logger
	MaxAttempts int
	Now         func() time.Time
}

type service struct {
	db          txClient
	outbox      outbox.Emitter
	logg        *logger.Logger
	maxAttempts int
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	attempts := params.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &service{
		db:          params.DB,
		outbox:      params.Outbox,
		logg:        params.Logger,
		maxAttempts: attempts,
		now:         now,
	}, nil
}

func (s *service) Get(ctx context.Context, caller authz.Actor, id uuid.UUID) (*TransactionDTO, error) {
	_, actor, err := users.LoadActor(ctx, s.db.DB(), caller.UserID)
	if err != nil {
		return nil, err
	}
	row, err := NewRepository(s.db.DB()).FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !participates(actor, row) && !actor.Privileged() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you are not part of this transaction")
	}
	dto := FromModel(row)
	return &dto, nil
}

func (s *service) ListForUser(ctx context.Context, actor authz.Actor, scope Scope, params pagination.Params) (pagination.Page[TransactionDTO], error) {
	filter := Filter{}
	switch scope {
	case ScopePurchases:
		filter.BuyerID = actor.UserID
	case ScopeSales:
		filter.SellerID = actor.UserID
	case ScopeAll, "":
		filter.ParticipantID = actor.UserID
	default:
		return pagination.Page[TransactionDTO]{}, pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid scope")
	}
	return s.page(ctx, filter, params)
}

func (s *service) List(ctx context.Context, caller authz.Actor, filter Filter, params pagination.Params) (pagination.Page[TransactionDTO], error) {
	_, actor, err := users.LoadActor(ctx, s.db.DB(), caller.UserID)
	if err != nil {
		return pagination.Page[TransactionDTO]{}, err
	}
	if err := authz.RequirePrivileged(actor); err != nil {
		return pagination.Page[TransactionDTO]{}, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return pagination.Page[TransactionDTO]{}, pkgerrors.New(pkgerrors.CodeInvalidArgument, "end date precedes start date")
	}
	return s.page(ctx, filter, params)
}

func (s *service) page(ctx context.Context, filter Filter, params pagination.Params) (pagination.Page[TransactionDTO], error) {
	rows, total, err := NewRepository(s.db.DB()).List(ctx, filter, params)
	if err != nil {
		return pagination.Page[TransactionDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list transactions")
	}
	return pagination.NewPage(FromModels(rows), params, total), nil
}

// MarkShipped records the tracking code. Only the seller or a master may ship.
func (s *service) MarkShipped(ctx context.Context, actor authz.Actor, id uuid.UUID, trackingCode string) (*TransactionDTO, error) {
	code := strings.TrimSpace(trackingCode)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "tracking code is required")
	}
	if len(code) > maxTrackingCodeLength {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "tracking code is too long")
	}
	return s.transition(ctx, actor, id, enums.TransactionStatusShipped, func(actor authz.Actor, row *models.Transaction) error {
		if row.SellerID != actor.UserID && !actor.Privileged() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can ship this item")
		}
		if row.Status != enums.TransactionStatusPending {
			return illegal(row.Status, enums.TransactionStatusShipped)
		}
		return nil
	}, func(tx *gorm.DB, _ authz.Actor, row *models.Transaction) (map[string]any, error) {
		row.TrackingCode = &code
		return map[string]any{"tracking_code": code}, nil
	})
}

// MarkCompleted confirms delivery. Only the buyer or a master may complete.
func (s *service) MarkCompleted(ctx context.Context, actor authz.Actor, id uuid.UUID) (*TransactionDTO, error) {
	return s.transition(ctx, actor, id, enums.TransactionStatusCompleted, func(actor authz.Actor, row *models.Transaction) error {
		if row.BuyerID != actor.UserID && !actor.Privileged() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can confirm delivery")
		}
		if row.Status != enums.TransactionStatusPending && row.Status != enums.TransactionStatusShipped {
			return illegal(row.Status, enums.TransactionStatusCompleted)
		}
		return nil
	}, func(tx *gorm.DB, _ authz.Actor, row *models.Transaction) (map[string]any, error) {
		completed := s.now()
		row.CompletedAt = &completed
		return map[string]any{"completed_at": completed}, nil
	})
}

// Cancel reverses a pending sale: the buyer is refunded and the seller gives
// back what they were credited.
func (s *service) Cancel(ctx context.Context, actor authz.Actor, id uuid.UUID, reason string) (*TransactionDTO, error) {
	return s.transition(ctx, actor, id, enums.TransactionStatusCanceled, func(actor authz.Actor, row *models.Transaction) error {
		if err := authz.RequirePrivileged(actor); err != nil {
			return err
		}
		if row.Status != enums.TransactionStatusPending {
			return illegal(row.Status, enums.TransactionStatusCanceled)
		}
		return nil
	}, func(tx *gorm.DB, actor authz.Actor, row *models.Transaction) (map[string]any, error) {
		w := wallet.New(tx)
		if _, err := w.Debit(ctx, row.SellerID, row.Amount); err != nil {
			return nil, err
		}
		if _, err := w.Credit(ctx, row.BuyerID, row.Amount); err != nil {
			return nil, err
		}
		notes := strings.TrimSpace(row.Notes + "\n" + "canceled by " + actor.Username + ": " + strings.TrimSpace(reason))
		row.Notes = notes
		return map[string]any{"notes": notes}, nil
	})
}

// transition reloads the caller and the row inside one database transaction,
// so check and apply see the stored role rather than the token's.
func (s *service) transition(
	ctx context.Context,
	caller authz.Actor,
	id uuid.UUID,
	to enums.TransactionStatus,
	check func(actor authz.Actor, row *models.Transaction) error,
	apply func(tx *gorm.DB, actor authz.Actor, row *models.Transaction) (map[string]any, error),
) (*TransactionDTO, error) {
	var (
		result *models.Transaction
		actor  authz.Actor
	)
	onRetry := func(attempt int, err error) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"transaction_id": id.String(),
			"attempt":        attempt,
			"reason":         err.Error(),
		}), "transaction.retry")
	}
	err := s.db.WithTxRetry(ctx, s.maxAttempts, onRetry, func(tx *gorm.DB) error {
		var err error
		if _, actor, err = users.LoadActor(ctx, tx, caller.UserID); err != nil {
			return err
		}
		repo := NewRepository(tx)
		row, err := repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err)
		}
		if err := check(actor, row); err != nil {
			return err
		}
		from := row.Status
		changes, err := apply(tx, actor, row)
		if err != nil {
			return err
		}
		if err := repo.Transition(ctx, row.ID, from, to, changes); err != nil {
			if errors.Is(err, db.ErrStaleVersion) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update transaction")
		}
		row.Status = to
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionStatusChanged,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   row.ID,
			Actor:         actor.Ref(),
			OccurredAt:    s.now(),
			Data: payloads.TransactionStatusChangedEvent{
				TransactionID: row.ID,
				From:          from,
				To:            to,
				ActorID:       actor.UserID,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit transaction event")
		}
		result = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": result.ID.String(),
		"status":         result.Status,
		"actor_id":       actor.UserID.String(),
	}), "transaction.status_changed")
	dto := FromModel(result)
	return &dto, nil
}

func participates(actor authz.Actor, row *models.Transaction) bool {
	return actor.UserID != uuid.Nil && (row.BuyerID == actor.UserID || row.SellerID == actor.UserID)
}

func illegal(from, to enums.TransactionStatus) error {
	return pkgerrors.New(pkgerrors.CodeIllegalState, fmt.Sprintf("cannot move transaction from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
}
