package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/rpg-market/api/middleware"
	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/api/validators"
	"github.com/angelmondragon/rpg-market/internal/authz"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// requireActor returns the caller or writes 401.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (authz.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return authz.Actor{}, false
	}
	return actor, true
}

// idParam parses a uuid path parameter. Malformed ids are reported as missing
// resources, matching what the store would answer.
func idParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "resource not found").WithDetails(map[string]any{name: raw})
	}
	return id, nil
}

// pageParams reads ?page (zero-based) and ?size.
func pageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 0, 0, 100000)
	if err != nil {
		return pagination.Params{}, err
	}
	size, err := validators.ParseQueryInt(r, "size", pagination.DefaultSize, 1, pagination.MaxSize)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Size: size}.Normalize(), nil
}

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable"))
}

func itemPath(id uuid.UUID) string {
	return "/item/" + id.String()
}

func checkoutPath(id uuid.UUID) string {
	return "/checkout/" + id.String()
}
