package visibility

import (
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/permissions"
	"github.com/google/uuid"
)

// Viewer is the caller browsing the market. A zero Viewer is anonymous.
type Viewer struct {
	UserID         uuid.UUID
	Role           enums.UserRole
	CharacterClass string
}

// Anonymous reports whether no user is attached.
func (v Viewer) Anonymous() bool {
	return v.UserID == uuid.Nil
}

// Categories returns the categories the viewer may see. Anonymous viewers see
// every category.
func (v Viewer) Categories() []enums.Category {
	if v.Anonymous() {
		return enums.AllCategories()
	}
	return permissions.AllowedCategories(v.CharacterClass, v.Role)
}

// CanSee reports whether a listing in the category may be surfaced.
func (v Viewer) CanSee(category enums.Category) bool {
	for _, cat := range v.Categories() {
		if cat == category {
			return true
		}
	}
	return false
}

// EnsureListingVisible enforces the category rules on reads. A missing listing
// is NOT_FOUND, a category the viewer's class cannot see is FORBIDDEN. Sellers
// always see their own listings.
func EnsureListingVisible(listing *models.Listing, viewer Viewer) error {
	if listing == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	if !viewer.Anonymous() && listing.SellerID == viewer.UserID {
		return nil
	}
	if !viewer.CanSee(listing.Category) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "your class cannot view this category")
	}
	return nil
}
