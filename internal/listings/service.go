// Package listings owns the listing lifecycle: creation, edits, buy-now,
// bidding, auction closure and removal. Every mutation runs in one database
// transaction guarded by the listing and wallet row versions.
package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/internal/users"
	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/metrics"
	"github.com/angelmondragon/rpg-market/pkg/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultAuctionDuration = 7 * 24 * time.Hour
	defaultMaxAttempts     = 3
	moneyPlaces            = 2
)

var defaultIncrement = decimal.NewFromInt(1)

// Service is the listing lifecycle.
type Service interface {
	CreateDirectSale(ctx context.Context, actor authz.Actor, input CreateDirectSaleInput) (*ListingDTO, error)
	CreateAuction(ctx context.Context, actor authz.Actor, input CreateAuctionInput) (*ListingDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ListingDTO, error)
	Update(ctx context.Context, actor authz.Actor, id uuid.UUID, patch UpdateInput) (*ListingDTO, error)
	BuyNow(ctx context.Context, actor authz.Actor, id uuid.UUID, input BuyNowInput) (*PurchaseResult, error)
	PlaceBid(ctx context.Context, actor authz.Actor, id uuid.UUID, amount decimal.Decimal) (*BidResult, error)
	CloseAuction(ctx context.Context, id uuid.UUID) (*CloseResult, error)
	CloseDueAuctions(ctx context.Context, limit int) (CloseSummary, error)
	Delete(ctx context.Context, actor authz.Actor, id uuid.UUID, opts DeleteOptions) (*RemoveResult, error)
}

type txClient interface {
	DB() *gorm.DB
	WithTxRetry(ctx context.Context, attempts int, onRetry func(attempt int, err error), fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build the lifecycle.
type ServiceParams struct {
	DB                     *db.Client
	Outbox                 outbox.Emitter
	Metrics                *metrics.MarketMetrics
	Logger                 *logger.Logger
	MaxAttempts            int
	DefaultAuctionDuration time.Duration
	Now                    func() time.Time
}

type service struct {
	db              txClient
	outbox          outbox.Emitter
	metrics         *metrics.MarketMetrics
	logg            *logger.Logger
	maxAttempts     int
	auctionDuration time.Duration
	now             func() time.Time
}

// NewService constructs the lifecycle service with the provided dependencies.
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
	svc := &service{
		db:              params.DB,
		outbox:          params.Outbox,
		metrics:         params.Metrics,
		logg:            params.Logger,
		maxAttempts:     params.MaxAttempts,
		auctionDuration: params.DefaultAuctionDuration,
		now:             params.Now,
	}
	if svc.maxAttempts <= 0 {
		svc.maxAttempts = defaultMaxAttempts
	}
	if svc.auctionDuration <= 0 {
		svc.auctionDuration = defaultAuctionDuration
	}
	if svc.now == nil {
		svc.now = func() time.Time { return time.Now().UTC() }
	}
	return svc, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ListingDTO, error) {
	listing, err := loadListing(ctx, s.db.DB(), id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(listing)
	return &dto, nil
}

// inTx runs fn with the optimistic retry budget. Retries are logged and
// counted per operation.
func (s *service) inTx(ctx context.Context, operation string, listingID uuid.UUID, fn func(tx *gorm.DB) error) error {
	onRetry := func(attempt int, err error) {
		s.metrics.Retry(operation)
		fields := map[string]any{
			"operation": operation,
			"attempt":   attempt,
			"reason":    err.Error(),
		}
		if listingID != uuid.Nil {
			fields["listing_id"] = listingID.String()
		}
		s.logg.Warn(s.logg.WithFields(ctx, fields), "listing.retry")
	}
	return s.db.WithTxRetry(ctx, s.maxAttempts, onRetry, fn)
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, actor authz.Actor, eventType enums.OutboxEventType, listingID uuid.UUID, data any) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateListing,
		AggregateID:   listingID,
		Actor:         actor.Ref(),
		Data:          data,
		OccurredAt:    s.now(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit "+string(eventType))
	}
	return nil
}

func (s *service) logOutcome(ctx context.Context, msg string, listingID uuid.UUID, actor authz.Actor, fields map[string]any) {
	all := map[string]any{"listing_id": listingID.String()}
	if actor.UserID != uuid.Nil {
		all["actor_id"] = actor.UserID.String()
		all["actor_role"] = string(actor.Role)
	}
	for k, v := range fields {
		all[k] = v
	}
	s.logg.Info(s.logg.WithFields(ctx, all), msg)
}

func loadListing(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error) {
	listing, err := NewRepository(tx).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load listing")
	}
	return listing, nil
}

func loadActor(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.User, authz.Actor, error) {
	return users.LoadActor(ctx, tx, id)
}

func saveListing(ctx context.Context, tx *gorm.DB, listing *models.Listing, changes map[string]any) error {
	if err := NewRepository(tx).Save(ctx, listing, changes); err != nil {
		if errors.Is(err, db.ErrStaleVersion) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save listing")
	}
	return nil
}

func illegalState(msg string, listing *models.Listing) error {
	return pkgerrors.New(pkgerrors.CodeIllegalState, msg).WithDetails(map[string]any{
		"status": listing.Status,
		"type":   listing.Type,
	})
}

func invalid(msg string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeInvalidArgument, msg)
}

// validMoney accepts strictly positive amounts with at most two decimals.
func validMoney(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid(field + " must be greater than zero")
	}
	if !amount.Equal(amount.Round(moneyPlaces)) {
		return invalid(field + " accepts at most two decimal places")
	}
	return nil
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
