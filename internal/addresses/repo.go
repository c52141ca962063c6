package addresses

import (
	"context"
	"errors"

	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for delivery addresses.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListForUser returns the user's addresses, default first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.DeliveryAddress, error) {
	var rows []models.DeliveryAddress
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindForUser loads an address only if it belongs to the user.
func (r *Repository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.DeliveryAddress, error) {
	var addr models.DeliveryAddress
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

// DefaultFor returns the user's default address or nil.
func (r *Repository) DefaultFor(ctx context.Context, userID uuid.UUID) (*models.DeliveryAddress, error) {
	var addr models.DeliveryAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &addr, nil
}

func (r *Repository) Create(ctx context.Context, addr *models.DeliveryAddress) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

// ClearDefault unsets the default flag on every address of the user.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryAddress{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func (r *Repository) MarkDefault(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryAddress{}).
		Where("id = ?", id).
		Update("is_default", true).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.DeliveryAddress{}, "id = ?", id).Error
}

// Newest returns the most recently created address of the user or nil.
func (r *Repository) Newest(ctx context.Context, userID uuid.UUID) (*models.DeliveryAddress, error) {
	var addr models.DeliveryAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &addr, nil
}

// ForCheckout picks the address a purchase ships to: the requested one when an
// id is given (it must belong to the user), else the default, else none.
func (r *Repository) ForCheckout(ctx context.Context, userID uuid.UUID, id *uuid.UUID) (*models.DeliveryAddress, error) {
	if id == nil || *id == uuid.Nil {
		return r.DefaultFor(ctx, userID)
	}
	return r.FindForUser(ctx, userID, *id)
}
