// Package authz decides whether an actor may perform an operation on the
// market. Denials are FORBIDDEN, never NOT_FOUND.
package authz

import (
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/outbox"
	"github.com/angelmondragon/rpg-market/pkg/permissions"
	"github.com/google/uuid"
)

// Operation names a gated action.
type Operation string

const (
	OpBrowse   Operation = "browse"
	OpCreate   Operation = "create"
	OpEdit     Operation = "edit"
	OpDelete   Operation = "delete"
	OpModerate Operation = "moderate"
	OpBid      Operation = "bid"
	OpBuy      Operation = "buy"
	OpAdmin    Operation = "admin"
)

// Actor is the authenticated caller as seen by the gate.
type Actor struct {
	UserID         uuid.UUID
	Username       string
	Role           enums.UserRole
	CharacterClass string
}

// ActorFromUser builds an actor from the stored user, the source of truth for
// role and class.
func ActorFromUser(u *models.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{
		UserID:         u.ID,
		Username:       u.Username,
		Role:           u.Role,
		CharacterClass: u.CharacterClass,
	}
}

// Privileged reports whether the actor is a master or admin.
func (a Actor) Privileged() bool {
	return a.Role.IsPrivileged()
}

// Owns reports whether the actor is the listing's seller.
func (a Actor) Owns(listing *models.Listing) bool {
	return listing != nil && a.UserID != uuid.Nil && listing.SellerID == a.UserID
}

// Ref identifies the actor on emitted domain events.
func (a Actor) Ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Username: a.Username, Role: string(a.Role)}
}

// Authorize dispatches to the rule for op. Listing may be nil for operations
// that do not target one.
func Authorize(actor Actor, op Operation, category enums.Category, listing *models.Listing) error {
	switch op {
	case OpBrowse:
		return CanBrowse(actor, category)
	case OpCreate:
		return CanCreate(actor, category)
	case OpEdit, OpDelete:
		return CanManage(actor, listing)
	case OpModerate, OpAdmin:
		return RequirePrivileged(actor)
	case OpBid:
		return CanBid(actor, listing)
	case OpBuy:
		return CanBuy(actor, listing)
	}
	return forbidden("unknown operation")
}

// CanBrowse admits reads of a category.
func CanBrowse(actor Actor, category enums.Category) error {
	if actor.Privileged() || permissions.IsAllowed(actor.CharacterClass, actor.Role, category) {
		return nil
	}
	return forbidden("your class cannot access this category").WithDetails(map[string]any{
		"category": category,
		"class":    actor.CharacterClass,
	})
}

// CanCreate admits listing in a category under the browse rule.
func CanCreate(actor Actor, category enums.Category) error {
	if !category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid category")
	}
	if err := CanBrowse(actor, category); err != nil {
		return forbidden("your class cannot list items in this category").WithDetails(map[string]any{
			"category": category,
			"class":    actor.CharacterClass,
		})
	}
	return nil
}

// CanManage admits edits and deletes by the seller or a master/admin.
func CanManage(actor Actor, listing *models.Listing) error {
	if listing == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	if actor.Owns(listing) || actor.Privileged() {
		return nil
	}
	return forbidden("only the seller or a master may change this listing")
}

// RequirePrivileged admits masters and admins only.
func RequirePrivileged(actor Actor) error {
	if actor.Privileged() {
		return nil
	}
	return forbidden("master access required")
}

// CanBid admits bids from anyone but the seller whose class may trade the
// listing's category.
func CanBid(actor Actor, listing *models.Listing) error {
	if listing == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	if actor.Owns(listing) {
		return forbidden("you cannot bid on your own listing")
	}
	if !permissions.IsAllowed(actor.CharacterClass, actor.Role, listing.Category) {
		return forbidden("your class cannot bid on this category").WithDetails(map[string]any{
			"category": listing.Category,
			"class":    actor.CharacterClass,
		})
	}
	return nil
}

// CanBuy admits buy-now from anyone but the seller. Class restrictions do not
// apply to purchases.
func CanBuy(actor Actor, listing *models.Listing) error {
	if listing == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	if actor.Owns(listing) {
		return forbidden("you cannot buy your own listing")
	}
	return nil
}

func forbidden(msg string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeForbidden, msg)
}
