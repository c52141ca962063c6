package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/internal/seed"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
)

// Seeder is the subset of the demo seeder the admin endpoints drive.
type Seeder interface {
	Demo(ctx context.Context) (seed.Summary, error)
	Simple(ctx context.Context) (seed.Summary, error)
}

// AdminHandlers expose the demo-data seeders to masters.
type AdminHandlers struct {
	Seeder   Seeder
	Redirect responses.Redirector
	Logger   *logger.Logger
}

// SeedDemo forces a full demo seed regardless of how many users exist.
func (h AdminHandlers) SeedDemo() http.HandlerFunc {
	return h.run("demo", "Demo data created", func(ctx context.Context) (seed.Summary, error) {
		return h.Seeder.Demo(ctx)
	})
}

// SeedSimple creates the minimal data set.
func (h AdminHandlers) SeedSimple() http.HandlerFunc {
	return h.run("simple", "Simple data created", func(ctx context.Context) (seed.Summary, error) {
		return h.Seeder.Simple(ctx)
	})
}

func (h AdminHandlers) run(name, message string, fn func(context.Context) (seed.Summary, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if err := authz.RequirePrivileged(actor); err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		if h.Seeder == nil {
			serviceUnavailable(w, r, h.Logger, "seeder")
			return
		}

		sum, err := fn(r.Context())
		if err != nil {
			h.Redirect.Failure(w, r, marketPath, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seed failed"))
			return
		}
		if h.Logger != nil {
			ctx := h.Logger.WithFields(r.Context(), map[string]any{
				"seed":     name,
				"users":    sum.Users,
				"listings": sum.Listings,
				"sales":    sum.Sales,
			})
			h.Logger.Info(ctx, "seed.completed")
		}
		h.Redirect.Success(w, r, http.StatusOK, marketPath, message, sum)
	}
}
