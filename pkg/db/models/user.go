package models

import (
	"time"

	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a registered adventurer, master or admin.
type User struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Username       string          `gorm:"column:username;type:varchar(64);not null;uniqueIndex:idx_users_username"`
	Email          string          `gorm:"column:email;type:varchar(255);not null;uniqueIndex:idx_users_email"`
	PasswordHash   string          `gorm:"column:password_hash;not null"`
	Role           enums.UserRole  `gorm:"column:role;type:varchar(16);not null;default:ADVENTURER"`
	CharacterClass string          `gorm:"column:character_class;type:varchar(64);not null;default:''"`
	Level          int             `gorm:"column:level;not null;default:1"`
	Experience     int             `gorm:"column:experience;not null;default:0"`
	GoldCoins      decimal.Decimal `gorm:"column:gold_coins;type:numeric(19,2);not null;default:0"`
	Version        int64           `gorm:"column:version;not null;default:0"`
	IsActive       bool            `gorm:"column:is_active;not null"`
	LastLoginAt    *time.Time      `gorm:"column:last_login_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
