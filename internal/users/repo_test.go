package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/rpg-market/pkg/db/dbtest"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryCreateAndLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	created, err := repo.Create(ctx, CreateUserDTO{
		Username:       " Merlin ",
		Email:          "Merlin@Camelot.io",
		PasswordHash:   "hash",
		CharacterClass: "Mage",
		GoldCoins:      decimal.NewFromInt(150),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Merlin", created.Username)
	assert.Equal(t, "merlin@camelot.io", created.Email)
	assert.Equal(t, enums.UserRoleAdventurer, created.Role)
	assert.Equal(t, 1, created.Level)
	assert.True(t, created.IsActive)

	byName, err := repo.FindByUsername(ctx, "merlin")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byLogin, err := repo.FindByLogin(ctx, "MERLIN@camelot.io")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byLogin.ID)

	_, err = repo.FindByUsername(ctx, "morgana")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestRepositoryRejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	_, err := repo.Create(ctx, CreateUserDTO{Username: "arthur", Email: "a@camelot.io", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Username: "arthur", Email: "b@camelot.io", PasswordHash: "x"})
	assert.Error(t, err)
}

func TestRepositoryRolesAndRichest(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	seed := []CreateUserDTO{
		{Username: "mestre", Email: "m@rpg.io", PasswordHash: "x", Role: enums.UserRoleMaster, GoldCoins: decimal.NewFromInt(10000)},
		{Username: "gwen", Email: "g@rpg.io", PasswordHash: "x", GoldCoins: decimal.NewFromInt(300)},
		{Username: "kay", Email: "k@rpg.io", PasswordHash: "x", GoldCoins: decimal.NewFromInt(900)},
	}
	for _, dto := range seed {
		_, err := repo.Create(ctx, dto)
		require.NoError(t, err)
	}

	masters, err := repo.CountByRoles(ctx, enums.UserRoleMaster, enums.UserRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), masters)

	richest, err := repo.Richest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, richest, 2)
	assert.Equal(t, "mestre", richest[0].Username)
	assert.Equal(t, "kay", richest[1].Username)

	now := time.Now().UTC()
	require.NoError(t, repo.UpdateLastLogin(ctx, richest[1].ID, now))
	reloaded, err := repo.FindByID(ctx, richest[1].ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)

	found, err := repo.FindByIDs(ctx, []uuid.UUID{richest[0].ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestRepositoryCreatePersistsInactiveUser(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	inactive := false
	created, err := repo.Create(ctx, CreateUserDTO{
		Username:     "mordred",
		Email:        "mordred@camelot.io",
		PasswordHash: "x",
		IsActive:     &inactive,
	})
	require.NoError(t, err)
	assert.False(t, created.IsActive)

	reloaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)

	active, err := repo.Create(ctx, CreateUserDTO{Username: "galahad", Email: "galahad@camelot.io", PasswordHash: "x"})
	require.NoError(t, err)
	reloaded, err = repo.FindByID(ctx, active.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsActive)
}
