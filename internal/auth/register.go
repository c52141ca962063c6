package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/rpg-market/internal/users"
	"github.com/angelmondragon/rpg-market/pkg/config"
	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/security"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultStartingGold is credited to every self-registered adventurer.
var DefaultStartingGold = decimal.NewFromInt(100)

// RegisterRequest is the public sign-up payload.
type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=64"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	CharacterClass string `json:"character_class" validate:"max=64"`
}

// ProvisionRequest creates an account with an explicit role and purse. It is
// used by the demo seeder and by admins.
type ProvisionRequest struct {
	RegisterRequest
	Role       enums.UserRole
	Level      int
	Experience int
	GoldCoins  decimal.Decimal
}

// RegisterService creates accounts.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
	Provision(ctx context.Context, req ProvisionRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
	StartingGold   *decimal.Decimal
}

type registerService struct {
	db           *db.Client
	passwordCfg  config.PasswordConfig
	startingGold decimal.Decimal
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	gold := DefaultStartingGold
	if params.StartingGold != nil {
		gold = *params.StartingGold
	}
	return &registerService{
		db:           params.DB,
		passwordCfg:  params.PasswordConfig,
		startingGold: gold,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	return s.Provision(ctx, ProvisionRequest{
		RegisterRequest: req,
		Role:            enums.UserRoleAdventurer,
		Level:           1,
		GoldCoins:       s.startingGold,
	})
}

func (s *registerService) Provision(ctx context.Context, req ProvisionRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < 3 || len(username) > 64 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "username must have between 3 and 64 characters")
	}
	if strings.ContainsAny(username, "@ \t") {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "username cannot contain spaces or @")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "a valid email is required")
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, err.Error())
	}
	role := req.Role
	if role == "" {
		role = enums.UserRoleAdventurer
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid role")
	}
	if req.GoldCoins.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "gold cannot be negative")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if _, err := userRepo.FindByUsername(ctx, username); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Username:       username,
			Email:          email,
			PasswordHash:   passwordHash,
			Role:           role,
			CharacterClass: strings.TrimSpace(req.CharacterClass),
			Level:          req.Level,
			Experience:     req.Experience,
			GoldCoins:      req.GoldCoins,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "username or email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
