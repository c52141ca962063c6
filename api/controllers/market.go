package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/rpg-market/api/middleware"
	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/api/validators"
	"github.com/angelmondragon/rpg-market/internal/analytics"
	"github.com/angelmondragon/rpg-market/internal/market"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/pagination"
	"github.com/go-chi/chi/v5"
)

const maxKeywordLength = 100

// MarketHome lists active listings the caller's class may see.
func MarketHome(svc market.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "market service")
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.Home(r.Context(), middleware.ViewerFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page)
	}
}

// MarketCategory browses one category; a category outside the caller's class
// is forbidden.
func MarketCategory(svc market.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "market service")
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category := enums.Category(strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "category"))))
		page, err := svc.Category(r.Context(), middleware.ViewerFromContext(r.Context()), category, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, map[string]any{
			"category": category,
			"listings": page,
		})
	}
}

// MarketSearch matches the keyword against names and descriptions.
func MarketSearch(svc market.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "market service")
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		keyword := validators.SanitizeString(r.URL.Query().Get("keyword"), maxKeywordLength)
		page, err := svc.Search(r.Context(), middleware.ViewerFromContext(r.Context()), keyword, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, map[string]any{
			"keyword":  keyword,
			"listings": page,
		})
	}
}

// MarketAuctions is the auction dungeon: active auctions with filters.
func MarketAuctions(svc market.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "market service")
			return
		}
		filter, params, err := browseQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.Auctions(r.Context(), middleware.ViewerFromContext(r.Context()), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page)
	}
}

// MarketDirectSales lists fixed-price listings with filters.
func MarketDirectSales(svc market.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "market service")
			return
		}
		filter, params, err := browseQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.DirectSales(r.Context(), middleware.ViewerFromContext(r.Context()), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page)
	}
}

// ItemDetail renders one listing with its bid history.
func ItemDetail(svc market.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "market service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Detail(r.Context(), middleware.ViewerFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, detail)
	}
}

// MyInventory lists the caller's own listings in any status.
func MyInventory(svc market.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireActor(w, r, logg); !ok {
			return
		}
		if svc == nil {
			serviceUnavailable(w, r, logg, "market service")
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q := r.URL.Query()
		filter := market.InventoryFilter{
			Status: enums.ListingStatus(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
			Type:   enums.ListingType(strings.ToUpper(strings.TrimSpace(q.Get("type")))),
		}
		page, err := svc.Inventory(r.Context(), middleware.ViewerFromContext(r.Context()), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page)
	}
}

// PublicRanking shows the top sellers and buyers to everyone.
func PublicRanking(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "analytics service")
			return
		}
		ranking, err := svc.PublicRanking(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, ranking)
	}
}

func browseQuery(r *http.Request) (market.BrowseFilter, pagination.Params, error) {
	params, err := pageParams(r)
	if err != nil {
		return market.BrowseFilter{}, params, err
	}
	q := r.URL.Query()
	filter := market.BrowseFilter{
		Category: enums.Category(strings.ToUpper(strings.TrimSpace(q.Get("category")))),
		Sort:     strings.TrimSpace(q.Get("sort")),
	}
	if raw := strings.TrimSpace(q.Get("rarity")); raw != "" {
		if filter.Rarity, err = enums.ParseRarity(raw); err != nil {
			return filter, params, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid rarity")
		}
	}
	if filter.MinPrice, err = validators.ParseQueryDecimal(r, "minPrice"); err != nil {
		return filter, params, err
	}
	if filter.MaxPrice, err = validators.ParseQueryDecimal(r, "maxPrice"); err != nil {
		return filter, params, err
	}
	if filter.EndingSoon, err = validators.ParseQueryBool(r, "endingSoon"); err != nil {
		return filter, params, err
	}
	return filter, params, nil
}
