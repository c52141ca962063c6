package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/api/validators"
	"github.com/angelmondragon/rpg-market/internal/analytics"
	"github.com/angelmondragon/rpg-market/internal/analytics/types"
	"github.com/angelmondragon/rpg-market/internal/transactions"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/google/uuid"
)

// MasterHandlers back the /mestre pages. The router already requires a
// privileged role; the services check again.
type MasterHandlers struct {
	Analytics analytics.Service
	Ledger    transactions.Service
	Logger    *logger.Logger
}

func (h MasterHandlers) Dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Analytics == nil {
			serviceUnavailable(w, r, h.Logger, "analytics service")
			return
		}
		days, err := validators.ParseQueryInt(r, "periodo", analytics.DefaultPeriodDays, 1, analytics.MaxPeriodDays)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		out, err := h.Analytics.Dashboard(r.Context(), actor, days)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WritePage(w, r, out)
	}
}

func (h MasterHandlers) Ranking() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Analytics == nil {
			serviceUnavailable(w, r, h.Logger, "analytics service")
			return
		}
		out, err := h.Analytics.Ranking(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WritePage(w, r, out)
	}
}

// Activity serves the recent activity report. Oversized limits are capped by
// the service rather than rejected.
func (h MasterHandlers) Activity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Analytics == nil {
			serviceUnavailable(w, r, h.Logger, "analytics service")
			return
		}
		limit, err := validators.ParseQueryInt(r, "limite", analytics.DefaultActivityLimit, 1, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		out, err := h.Analytics.Activity(r.Context(), actor, limit)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WritePage(w, r, out)
	}
}

func (h MasterHandlers) Listings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Analytics == nil {
			serviceUnavailable(w, r, h.Logger, "analytics service")
			return
		}
		query, err := listingQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		out, err := h.Analytics.Listings(r.Context(), actor, query, params)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WritePage(w, r, out)
	}
}

// Transactions is the ledger query over every trade.
func (h MasterHandlers) Transactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Ledger == nil {
			serviceUnavailable(w, r, h.Logger, "transaction service")
			return
		}
		filter, err := transactionFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		page, err := h.Ledger.List(r.Context(), actor, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WritePage(w, r, page)
	}
}

func listingQuery(r *http.Request) (types.ListingQuery, error) {
	q := r.URL.Query()
	query := types.ListingQuery{
		SellerUsername: strings.TrimSpace(q.Get("seller")),
		Sort:           strings.TrimSpace(q.Get("sort")),
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseListingStatus(raw)
		if err != nil {
			return query, invalidQuery("status", raw)
		}
		query.Status = status
	}
	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		category, err := enums.ParseCategory(raw)
		if err != nil {
			return query, invalidQuery("category", raw)
		}
		query.Category = category
	}
	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		kind, err := enums.ParseListingType(raw)
		if err != nil {
			return query, invalidQuery("type", raw)
		}
		query.Type = kind
	}
	return query, nil
}

func transactionFilter(r *http.Request) (transactions.Filter, error) {
	q := r.URL.Query()
	var filter transactions.Filter
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseTransactionStatus(raw)
		if err != nil {
			return filter, invalidQuery("status", raw)
		}
		filter.Status = status
	}
	for key, dest := range map[string]*uuid.UUID{"buyer": &filter.BuyerID, "seller": &filter.SellerID} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, invalidQuery(key, raw)
		}
		*dest = id
	}
	var err error
	if filter.From, err = validators.ParseQueryDate(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = validators.ParseQueryDate(r, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

func invalidQuery(field, value string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid "+field).
		WithDetails(map[string]any{"field": field, "value": value})
}
