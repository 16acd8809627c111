package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/GongoraLeo/spherework-sub000/internal/models"
)

// ErrEmptyOrder is returned by CheckoutPending when the pending order
// has no lines; the service layer turns it into a validation failure.
var ErrEmptyOrder = errors.New("order has no lines")

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) BookByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := r.DB.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}
