package visibility

import (
	"testing"

	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/google/uuid"
)

func scrollListing(seller uuid.UUID) *models.Listing {
	return &models.Listing{
		ID:       uuid.New(),
		SellerID: seller,
		Name:     "Scroll of Fireball",
		Category: enums.CategoryScrolls,
	}
}

func TestEnsureListingVisible(t *testing.T) {
	seller := uuid.New()
	listing := scrollListing(seller)

	t.Run("listing missing", func(t *testing.T) {
		err := EnsureListingVisible(nil, Viewer{})
		if err == nil || errors.As(err).Code() != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
	t.Run("anonymous sees all", func(t *testing.T) {
		if err := EnsureListingVisible(listing, Viewer{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("class allowed", func(t *testing.T) {
		viewer := Viewer{UserID: uuid.New(), Role: enums.UserRoleAdventurer, CharacterClass: "Mage"}
		if err := EnsureListingVisible(listing, viewer); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("class gated", func(t *testing.T) {
		viewer := Viewer{UserID: uuid.New(), Role: enums.UserRoleAdventurer, CharacterClass: "Warrior"}
		err := EnsureListingVisible(listing, viewer)
		if err == nil || errors.As(err).Code() != errors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})
	t.Run("master bypasses class", func(t *testing.T) {
		viewer := Viewer{UserID: uuid.New(), Role: enums.UserRoleMaster, CharacterClass: "Warrior"}
		if err := EnsureListingVisible(listing, viewer); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("seller sees own", func(t *testing.T) {
		viewer := Viewer{UserID: seller, Role: enums.UserRoleAdventurer, CharacterClass: "Warrior"}
		if err := EnsureListingVisible(listing, viewer); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
