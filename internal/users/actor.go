package users

import (
	"context"
	"errors"

	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoadActor reloads the caller through db so role and class come from the
// stored user rather than the token. Pass the transaction handle when the
// check guards a write.
func LoadActor(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.User, authz.Actor, error) {
	if id == uuid.Nil {
		return nil, authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := NewRepository(db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return nil, authz.Actor{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		return nil, authz.Actor{}, pkgerrors.New(pkgerrors.CodeForbidden, "account is inactive")
	}
	return user, authz.ActorFromUser(user), nil
}
