package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/internal/addresses"
	"github.com/angelmondragon/rpg-market/pkg/logger"
)

const addressesPath = "/enderecos"

// AddressHandlers manage the caller's delivery addresses.
type AddressHandlers struct {
	Addresses addresses.Service
	Redirect  responses.Redirector
	Logger    *logger.Logger
}

func (h AddressHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Addresses == nil {
			serviceUnavailable(w, r, h.Logger, "address service")
			return
		}
		list, err := h.Addresses.List(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WritePage(w, r, list)
	}
}

func (h AddressHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Addresses == nil {
			serviceUnavailable(w, r, h.Logger, "address service")
			return
		}

		var input addresses.CreateAddressInput
		err := decodeSimple(r, &input, func() {
			input = addresses.CreateAddressInput{
				Street:     r.FormValue("street"),
				Number:     r.FormValue("number"),
				Complement: r.FormValue("complement"),
				District:   r.FormValue("district"),
				City:       r.FormValue("city"),
				State:      r.FormValue("state"),
				PostalCode: r.FormValue("postal_code"),
				IsDefault:  checkbox(r.FormValue("is_default")),
			}
		})
		if err != nil {
			h.Redirect.Failure(w, r, addressesPath, err)
			return
		}
		created, err := h.Addresses.Create(r.Context(), actor.UserID, input)
		if err != nil {
			h.Redirect.Failure(w, r, addressesPath, err)
			return
		}
		h.Redirect.Success(w, r, http.StatusCreated, addressesPath, "Address saved", created)
	}
}

func (h AddressHandlers) SetDefault() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Addresses == nil {
			serviceUnavailable(w, r, h.Logger, "address service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		if err := h.Addresses.SetDefault(r.Context(), actor.UserID, id); err != nil {
			h.Redirect.Failure(w, r, addressesPath, err)
			return
		}
		h.Redirect.Success(w, r, http.StatusOK, addressesPath, "Default address updated", map[string]any{"id": id})
	}
}

func (h AddressHandlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, h.Logger)
		if !ok {
			return
		}
		if h.Addresses == nil {
			serviceUnavailable(w, r, h.Logger, "address service")
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		if err := h.Addresses.Delete(r.Context(), actor.UserID, id); err != nil {
			h.Redirect.Failure(w, r, addressesPath, err)
			return
		}
		h.Redirect.Success(w, r, http.StatusOK, addressesPath, "Address removed", map[string]any{"id": id})
	}
}

func checkbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
