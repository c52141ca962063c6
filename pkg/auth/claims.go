package auth

import (
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID         uuid.UUID
	Username       string
	Role           enums.UserRole
	CharacterClass string
	JTI            string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID         uuid.UUID      `json:"user_id"`
	Username       string         `json:"username"`
	Role           enums.UserRole `json:"role"`
	CharacterClass string         `json:"character_class,omitempty"`
	jwt.RegisteredClaims
}
