package transactions

import (
	"time"

	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DeliveryDTO struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

type TransactionDTO struct {
	ID             uuid.UUID               `json:"id"`
	ListingID      *uuid.UUID              `json:"listing_id,omitempty"`
	ListingName    string                  `json:"listing_name"`
	ListingPrice   decimal.Decimal         `json:"listing_price"`
	BuyerID        uuid.UUID               `json:"buyer_id"`
	BuyerUsername  string                  `json:"buyer_username"`
	SellerID       uuid.UUID               `json:"seller_id"`
	SellerUsername string                  `json:"seller_username"`
	Amount         decimal.Decimal         `json:"amount"`
	Status         enums.TransactionStatus `json:"status"`
	Delivery       *DeliveryDTO            `json:"delivery,omitempty"`
	TrackingCode   *string                 `json:"tracking_code,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	CompletedAt    *time.Time              `json:"completed_at,omitempty"`
}

func FromModel(t *models.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:             t.ID,
		ListingID:      t.ListingID,
		ListingName:    t.ListingName,
		ListingPrice:   t.ListingPrice,
		BuyerID:        t.BuyerID,
		BuyerUsername:  t.BuyerUsername,
		SellerID:       t.SellerID,
		SellerUsername: t.SellerUsername,
		Amount:         t.Amount,
		Status:         t.Status,
		TrackingCode:   t.TrackingCode,
		Notes:          t.Notes,
		CreatedAt:      t.CreatedAt,
		CompletedAt:    t.CompletedAt,
	}
	if t.HasDeliveryAddress() {
		dto.Delivery = &DeliveryDTO{
			Street:     t.DeliveryStreet,
			Number:     t.DeliveryNumber,
			Complement: t.DeliveryComplement,
			District:   t.DeliveryDistrict,
			City:       t.DeliveryCity,
			State:      t.DeliveryState,
			PostalCode: t.DeliveryPostalCode,
		}
	}
	return dto
}

func FromModels(rows []models.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
