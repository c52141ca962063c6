package users

import (
	"strings"
	"time"

	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/angelmondragon/rpg-market/pkg/permissions"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                uuid.UUID        `json:"id"`
	Username          string           `json:"username"`
	Email             string           `json:"email"`
	Role              enums.UserRole   `json:"role"`
	CharacterClass    string           `json:"character_class"`
	Level             int              `json:"level"`
	Experience        int              `json:"experience"`
	GoldCoins         decimal.Decimal  `json:"gold_coins"`
	AllowedCategories []enums.Category `json:"allowed_categories"`
	IsActive          bool             `json:"is_active"`
	LastLoginAt       *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// PublicUserDTO is what other players may see about a user.
type PublicUserDTO struct {
	ID             uuid.UUID      `json:"id"`
	Username       string         `json:"username"`
	Role           enums.UserRole `json:"role"`
	CharacterClass string         `json:"character_class"`
	Level          int            `json:"level"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username       string
	Email          string
	PasswordHash   string
	Role           enums.UserRole
	CharacterClass string
	Level          int
	Experience     int
	GoldCoins      decimal.Decimal
	IsActive       *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		Role:              u.Role,
		CharacterClass:    u.CharacterClass,
		Level:             u.Level,
		Experience:        u.Experience,
		GoldCoins:         u.GoldCoins,
		AllowedCategories: permissions.AllowedCategories(u.CharacterClass, u.Role),
		IsActive:          u.IsActive,
		LastLoginAt:       u.LastLoginAt,
		CreatedAt:         u.CreatedAt,
	}
}

func PublicFromModel(u *models.User) PublicUserDTO {
	return PublicUserDTO{
		ID:             u.ID,
		Username:       u.Username,
		Role:           u.Role,
		CharacterClass: u.CharacterClass,
		Level:          u.Level,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	role := c.Role
	if !role.IsValid() {
		role = enums.UserRoleAdventurer
	}
	level := c.Level
	if level <= 0 {
		level = 1
	}

	return &models.User{
		Username:       strings.TrimSpace(c.Username),
		Email:          strings.ToLower(strings.TrimSpace(c.Email)),
		PasswordHash:   c.PasswordHash,
		Role:           role,
		CharacterClass: strings.TrimSpace(c.CharacterClass),
		Level:          level,
		Experience:     c.Experience,
		GoldCoins:      c.GoldCoins,
		IsActive:       isActive,
	}
}
