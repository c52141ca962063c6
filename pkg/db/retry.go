package db

import (
	"context"
	"errors"

	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"gorm.io/gorm"
)

// Retryable reports whether err is a lost optimistic-concurrency race or a
// transient Postgres serialization failure.
func Retryable(err error) bool {
	return errors.Is(err, ErrStaleVersion) || pkgerrors.IsTransientPG(err)
}

// WithTxRetry runs fn in a fresh transaction up to attempts times while it
// fails with a retryable error. onRetry, when set, is called before each new
// attempt. Exhausting the budget yields a CONFLICT error.
func (c *Client) WithTxRetry(ctx context.Context, attempts int, onRetry func(attempt int, err error), fn func(tx *gorm.DB) error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && onRetry != nil {
			onRetry(attempt, err)
		}
		err = c.WithTx(ctx, fn)
		if err == nil || !Retryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, ctxErr, "transaction canceled")
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "concurrent update detected, try again")
}
