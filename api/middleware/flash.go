package middleware

import (
	"errors"
	"net/http"

	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Flash pops the pending flash on page loads and exposes it to handlers
// through responses.FlashFromContext.
func Flash(store responses.FlashStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			flash, err := responses.PopFlash(ctx, store, w, r)
			if err != nil && !errors.Is(err, redis.Nil) && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "flash.pop_failed")
			}
			next.ServeHTTP(w, r.WithContext(responses.WithFlash(ctx, flash)))
		})
	}
}
