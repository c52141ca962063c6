package addresses

import (
	"strings"
	"time"

	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/google/uuid"
)

// CreateAddressInput is the payload for a new delivery address.
type CreateAddressInput struct {
	Street     string `json:"street" validate:"required,max=200"`
	Number     string `json:"number" validate:"required,max=20"`
	Complement string `json:"complement" validate:"max=100"`
	District   string `json:"district" validate:"required,max=100"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=32"`
	PostalCode string `json:"postal_code" validate:"required,max=16"`
	IsDefault  bool   `json:"is_default"`
}

func (in CreateAddressInput) normalized() CreateAddressInput {
	in.Street = strings.TrimSpace(in.Street)
	in.Number = strings.TrimSpace(in.Number)
	in.Complement = strings.TrimSpace(in.Complement)
	in.District = strings.TrimSpace(in.District)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	return in
}

func (in CreateAddressInput) missing() []string {
	var out []string
	fields := []struct {
		name  string
		value string
	}{
		{"street", in.Street},
		{"number", in.Number},
		{"district", in.District},
		{"city", in.City},
		{"state", in.State},
		{"postal_code", in.PostalCode},
	}
	for _, f := range fields {
		if f.value == "" {
			out = append(out, f.name)
		}
	}
	return out
}

type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	Street     string    `json:"street"`
	Number     string    `json:"number"`
	Complement string    `json:"complement,omitempty"`
	District   string    `json:"district"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromModel(a models.DeliveryAddress) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
	}
}

func FromModels(rows []models.DeliveryAddress) []AddressDTO {
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
