// Package addresses manages delivery addresses. Each user has at most one
// default address.
package addresses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (*AddressDTO, error)
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) error
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	DB() *gorm.DB
}

type service struct {
	db txRunner
}

func NewService(client *db.Client) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &service{db: client}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := NewRepository(s.db.DB()).ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return FromModels(rows), nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (*AddressDTO, error) {
	input = input.normalized()
	if missing := input.missing(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "missing address fields: "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"fields": missing})
	}

	var created models.DeliveryAddress
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		current, err := repo.DefaultFor(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load default address")
		}
		makeDefault := input.IsDefault || current == nil
		if makeDefault && current != nil {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
			}
		}
		created = models.DeliveryAddress{
			UserID:     userID,
			Street:     input.Street,
			Number:     input.Number,
			Complement: input.Complement,
			District:   input.District,
			City:       input.City,
			State:      input.State,
			PostalCode: input.PostalCode,
			IsDefault:  makeDefault,
		}
		if err := repo.Create(ctx, &created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(created)
	return &dto, nil
}

func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		addr, err := repo.FindForUser(ctx, userID, addressID)
		if err != nil {
			return notFoundOr(err, "load address")
		}
		if addr.IsDefault {
			return nil
		}
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
		}
		if err := repo.MarkDefault(ctx, addr.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark default address")
		}
		return nil
	})
}

// Delete removes the address. Removing the default promotes the newest
// remaining address.
func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		addr, err := repo.FindForUser(ctx, userID, addressID)
		if err != nil {
			return notFoundOr(err, "load address")
		}
		if err := repo.Delete(ctx, addr.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
		}
		if !addr.IsDefault {
			return nil
		}
		next, err := repo.Newest(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load next address")
		}
		if next == nil {
			return nil
		}
		if err := repo.MarkDefault(ctx, next.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "promote address")
		}
		return nil
	})
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
