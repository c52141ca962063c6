package models

import (
	"time"

	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction records a completed purchase or auction win. Listing name and
// price are snapshotted so the row survives the listing being detached.
type Transaction struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ListingID      *uuid.UUID              `gorm:"column:listing_id;type:uuid;index:idx_transactions_listing_id"`
	ListingName    string                  `gorm:"column:listing_name;type:varchar(120);not null"`
	ListingPrice   decimal.Decimal         `gorm:"column:listing_price;type:numeric(19,2);not null"`
	BuyerID        uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null;index:idx_transactions_buyer_id"`
	BuyerUsername  string                  `gorm:"column:buyer_username;type:varchar(64);not null"`
	SellerID       uuid.UUID               `gorm:"column:seller_id;type:uuid;not null;index:idx_transactions_seller_id"`
	SellerUsername string                  `gorm:"column:seller_username;type:varchar(64);not null"`
	Amount         decimal.Decimal         `gorm:"column:amount;type:numeric(19,2);not null"`
	Status         enums.TransactionStatus `gorm:"column:status;type:varchar(16);not null;index:idx_transactions_status"`

	DeliveryStreet     string `gorm:"column:delivery_street;not null;default:''"`
	DeliveryNumber     string `gorm:"column:delivery_number;not null;default:''"`
	DeliveryComplement string `gorm:"column:delivery_complement;not null;default:''"`
	DeliveryDistrict   string `gorm:"column:delivery_district;not null;default:''"`
	DeliveryCity       string `gorm:"column:delivery_city;not null;default:''"`
	DeliveryState      string `gorm:"column:delivery_state;not null;default:''"`
	DeliveryPostalCode string `gorm:"column:delivery_postal_code;not null;default:''"`

	TrackingCode *string    `gorm:"column:tracking_code"`
	Notes        string     `gorm:"column:notes;type:text;not null;default:''"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime;index:idx_transactions_created_at,sort:desc"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// SnapshotAddress copies a delivery address into the transaction row.
func (t *Transaction) SnapshotAddress(addr *DeliveryAddress) {
	if addr == nil {
		return
	}
	t.DeliveryStreet = addr.Street
	t.DeliveryNumber = addr.Number
	t.DeliveryComplement = addr.Complement
	t.DeliveryDistrict = addr.District
	t.DeliveryCity = addr.City
	t.DeliveryState = addr.State
	t.DeliveryPostalCode = addr.PostalCode
}

// HasDeliveryAddress reports whether an address snapshot was stored.
func (t *Transaction) HasDeliveryAddress() bool {
	return t.DeliveryStreet != "" || t.DeliveryPostalCode != ""
}
