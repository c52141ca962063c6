package permissions

import (
	"bytes"
	"testing"

	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClass(t *testing.T) {
	cases := map[string]string{
		"  warrior ":  ClassWarrior,
		"MAGE":        ClassMage,
		"Clérigo":     ClassCleric,
		"clerigo":     ClassCleric,
		"guerreiro":   ClassWarrior,
		"PALADINO":    ClassPaladin,
		"ranger":      ClassRanger,
		"":            "",
		"necromancer": "Necromancer",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeClass(in), "input %q", in)
	}
}

func TestAllowedCategoriesKnownClasses(t *testing.T) {
	got := AllowedCategories("warrior", enums.UserRoleAdventurer)
	assert.Equal(t, []enums.Category{enums.CategoryWeapons, enums.CategoryArmor}, got)

	// canonical order, not table order
	got = AllowedCategories("Rogue", enums.UserRoleAdventurer)
	assert.Equal(t, []enums.Category{enums.CategoryWeapons, enums.CategoryMisc}, got)

	got = AllowedCategories("Druida", enums.UserRoleAdventurer)
	assert.Equal(t, []enums.Category{enums.CategoryPotions, enums.CategoryMounts}, got)
}

func TestAllowedCategoriesPermissiveDefaults(t *testing.T) {
	all := enums.AllCategories()
	assert.Equal(t, all, AllowedCategories("", enums.UserRoleAdventurer))
	assert.Equal(t, all, AllowedCategories("Necromancer", enums.UserRoleAdventurer))
	assert.Equal(t, all, AllowedCategories("Mage", enums.UserRoleMaster))
	assert.Equal(t, all, AllowedCategories("Mage", enums.UserRoleAdmin))
}

func TestIsAllowed(t *testing.T) {
	assert.True(t, IsAllowed("Mage", enums.UserRoleAdventurer, enums.CategoryScrolls))
	assert.False(t, IsAllowed("Mage", enums.UserRoleAdventurer, enums.CategoryWeapons))
	assert.True(t, IsAllowed("Mage", enums.UserRoleMaster, enums.CategoryWeapons))
	assert.True(t, IsAllowed("unknown", enums.UserRoleAdventurer, enums.CategoryMounts))
}

func TestRestricted(t *testing.T) {
	assert.True(t, Restricted("Bard", enums.UserRoleAdventurer))
	assert.False(t, Restricted("Bard", enums.UserRoleAdmin))
	assert.False(t, Restricted("", enums.UserRoleAdventurer))
}

func TestIsKnownClass(t *testing.T) {
	assert.True(t, IsKnownClass("bardo"))
	assert.False(t, IsKnownClass("Necromancer"))
}

func TestWriteMatrixGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "matrix", buf.Bytes())
}
