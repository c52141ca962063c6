// Package wallet is the only sanctioned path to mutate a user's gold balance.
package wallet

import (
	"context"
	"errors"

	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shortfall is attached to INSUFFICIENT_FUNDS errors.
type Shortfall struct {
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}

// Wallet applies balance changes inside the caller's transaction. Every write
// is guarded by the user row version, so a concurrent writer surfaces as
// db.ErrStaleVersion and the caller retries the whole transaction.
type Wallet struct {
	tx *gorm.DB
}

func New(tx *gorm.DB) *Wallet {
	return &Wallet{tx: tx}
}

// Balance returns the current gold of the user.
func (w *Wallet) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	user, err := w.load(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.GoldCoins, nil
}

// Debit removes amount from the user's balance, failing with
// INSUFFICIENT_FUNDS when the balance would go negative.
func (w *Wallet) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	user, err := w.load(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsZero() {
		return user.GoldCoins, nil
	}
	if user.GoldCoins.LessThan(amount) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "not enough gold").
			WithDetails(Shortfall{Required: amount, Available: user.GoldCoins})
	}
	return w.store(ctx, user, user.GoldCoins.Sub(amount))
}

// Credit adds amount to the user's balance unconditionally.
func (w *Wallet) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	user, err := w.load(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsZero() {
		return user.GoldCoins, nil
	}
	return w.store(ctx, user, user.GoldCoins.Add(amount))
}

func (w *Wallet) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := w.tx.WithContext(ctx).
		Select("id", "gold_coins", "version").
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wallet")
	}
	return &user, nil
}

func (w *Wallet) store(ctx context.Context, user *models.User, balance decimal.Decimal) (decimal.Decimal, error) {
	res := w.tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]any{
			"gold_coins": balance,
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "update wallet")
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, db.ErrStaleVersion
	}
	return balance, nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument, "amount must not be negative")
	}
	return nil
}
