package auth

import (
	"context"
	"testing"

	"github.com/angelmondragon/rpg-market/pkg/config"
	"github.com/angelmondragon/rpg-market/pkg/db/dbtest"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/shopspring/decimal"
)

func newRegisterService(t *testing.T) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             dbtest.Client(t),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc
}

func TestRegisterCreatesAdventurerWithStartingGold(t *testing.T) {
	svc := newRegisterService(t)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Username:       "Lancelot",
		Email:          "Lancelot@Camelot.io",
		Password:       "123456",
		CharacterClass: "Guerreiro",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Role != enums.UserRoleAdventurer {
		t.Fatalf("expected adventurer, got %s", user.Role)
	}
	if user.Email != "lancelot@camelot.io" {
		t.Fatalf("email should be normalized, got %s", user.Email)
	}
	if !user.GoldCoins.Equal(DefaultStartingGold) {
		t.Fatalf("expected starting gold %s, got %s", DefaultStartingGold, user.GoldCoins)
	}
	if user.Level != 1 {
		t.Fatalf("expected level 1, got %d", user.Level)
	}
	if len(user.AllowedCategories) != 2 {
		t.Fatalf("a warrior trades two categories, got %v", user.AllowedCategories)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := newRegisterService(t)
	ctx := context.Background()
	base := RegisterRequest{Username: "percival", Email: "percival@rpg.io", Password: "123456"}
	if _, err := svc.Register(ctx, base); err != nil {
		t.Fatalf("first register: %v", err)
	}

	sameEmail := base
	sameEmail.Username = "percival2"
	if _, err := svc.Register(ctx, sameEmail); pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("duplicate email: expected conflict, got %v", err)
	}

	sameName := base
	sameName.Username = "PERCIVAL"
	sameName.Email = "other@rpg.io"
	if _, err := svc.Register(ctx, sameName); pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("duplicate username: expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newRegisterService(t)
	cases := map[string]RegisterRequest{
		"short password":  {Username: "galahad", Email: "galahad@rpg.io", Password: "123"},
		"short username":  {Username: "ga", Email: "galahad@rpg.io", Password: "123456"},
		"bad email":       {Username: "galahad", Email: "galahad", Password: "123456"},
		"username with @": {Username: "g@lahad", Email: "galahad@rpg.io", Password: "123456"},
	}
	for name, req := range cases {
		if _, err := svc.Register(context.Background(), req); pkgerrors.CodeOf(err) != pkgerrors.CodeInvalidArgument {
			t.Fatalf("%s: expected invalid argument, got %v", name, err)
		}
	}
}

func TestProvisionMaster(t *testing.T) {
	svc := newRegisterService(t)
	user, err := svc.Provision(context.Background(), ProvisionRequest{
		RegisterRequest: RegisterRequest{
			Username:       "mestre",
			Email:          "mestre@rpgmarket.com",
			Password:       "123456",
			CharacterClass: "Mestre do Reino",
		},
		Role:      enums.UserRoleMaster,
		Level:     50,
		GoldCoins: decimal.NewFromInt(10000),
	})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if user.Role != enums.UserRoleMaster || user.Level != 50 {
		t.Fatalf("unexpected master %+v", user)
	}
	if len(user.AllowedCategories) != len(enums.AllCategories()) {
		t.Fatalf("masters see every category, got %v", user.AllowedCategories)
	}
}
