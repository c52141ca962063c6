package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/api/validators"
	"github.com/angelmondragon/rpg-market/internal/transactions"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/google/uuid"
)

const transactionsPath = "/transacoes"

// scopes maps the ?escopo values onto ledger scopes. English names are
// accepted too.
var scopes = map[string]transactions.Scope{
	"":          transactions.ScopeAll,
	"todas":     transactions.ScopeAll,
	"all":       transactions.ScopeAll,
	"compras":   transactions.ScopePurchases,
	"purchases": transactions.ScopePurchases,
	"vendas":    transactions.ScopeSales,
	"sales":     transactions.ScopeSales,
}

// TransactionHandlers serve the caller's ledger and its status transitions.
type TransactionHandlers struct {
	Transactions transactions.Service
	Redirect     responses.Redirector
	Logger       *logger.Logger
}

func (h TransactionHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Transactions == nil {
			serviceUnavailable(w, r, h.Logger, "transaction service")
			return
		}
		scope, ok := scopes[strings.ToLower(strings.TrimSpace(r.URL.Query().Get("escopo")))]
		if !ok {
			responses.WriteError(r.Context(), h.Logger, w, pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid scope").
				WithDetails(map[string]any{"field": "escopo"}))
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		page, err := h.Transactions.ListForUser(r.Context(), actor, scope, params)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WritePage(w, r, page)
	}
}

func (h TransactionHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Transactions == nil {
			serviceUnavailable(w, r, h.Logger, "transaction service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		dto, err := h.Transactions.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WritePage(w, r, dto)
	}
}

type shipForm struct {
	TrackingCode string `json:"tracking_code" validate:"max=64"`
}

type cancelForm struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Ship marks a pending trade as shipped. Seller or master only.
func (h TransactionHandlers) Ship() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Transactions == nil {
			serviceUnavailable(w, r, h.Logger, "transaction service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		var form shipForm
		if err := decodeSimple(r, &form, func() { form.TrackingCode = strings.TrimSpace(r.FormValue("tracking_code")) }); err != nil {
			h.Redirect.Failure(w, r, transactionPath(id), err)
			return
		}
		dto, err := h.Transactions.MarkShipped(r.Context(), actor, id, form.TrackingCode)
		if err != nil {
			h.Redirect.Failure(w, r, transactionPath(id), err)
			return
		}
		h.Redirect.Success(w, r, http.StatusOK, transactionPath(id), "Item marked as shipped", dto)
	}
}

// Complete confirms receipt. Buyer or master only.
func (h TransactionHandlers) Complete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Transactions == nil {
			serviceUnavailable(w, r, h.Logger, "transaction service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		dto, err := h.Transactions.MarkCompleted(r.Context(), actor, id)
		if err != nil {
			h.Redirect.Failure(w, r, transactionPath(id), err)
			return
		}
		h.Redirect.Success(w, r, http.StatusOK, transactionPath(id), "Trade completed", dto)
	}
}

// Cancel reverses a pending trade. Masters only.
func (h TransactionHandlers) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Transactions == nil {
			serviceUnavailable(w, r, h.Logger, "transaction service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		var form cancelForm
		if err := decodeSimple(r, &form, func() { form.Reason = strings.TrimSpace(r.FormValue("reason")) }); err != nil {
			h.Redirect.Failure(w, r, transactionPath(id), err)
			return
		}
		dto, err := h.Transactions.Cancel(r.Context(), actor, id, form.Reason)
		if err != nil {
			h.Redirect.Failure(w, r, transactionPath(id), err)
			return
		}
		h.Redirect.Success(w, r, http.StatusOK, transactionsPath, "Trade cancelled and gold returned", dto)
	}
}

// decodeSimple reads a JSON body, or a form whose fields fill copies into dest.
// An empty JSON body is allowed.
func decodeSimple(r *http.Request, dest any, fill func()) error {
	if validators.IsForm(r) {
		if err := validators.ParseForm(r); err != nil {
			return err
		}
		fill()
		return validators.Validate(dest)
	}
	if r.ContentLength == 0 {
		return nil
	}
	return validators.DecodeJSONBody(r, dest)
}

func transactionPath(id uuid.UUID) string {
	return transactionsPath + "/" + id.String()
}
