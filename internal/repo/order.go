package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/GongoraLeo/spherework-sub000/internal/models"
)

func (r *GormRepo) PendingOrder(ctx context.Context, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.StatusPending).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) OrderByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) Lines(ctx context.Context, orderID uint) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// LineWithOrder loads a line together with its parent order so the
// caller can run the ownership check before mutating anything.
func (r *GormRepo) LineWithOrder(ctx context.Context, lineID uint) (*models.OrderLine, *models.Order, error) {
	var line models.OrderLine
	if err := r.DB.WithContext(ctx).First(&line, lineID).Error; err != nil {
		return nil, nil, err
	}
	var order models.Order
	if err := r.DB.WithContext(ctx).First(&order, line.OrderID).Error; err != nil {
		return nil, nil, err
	}
	return &line, &order, nil
}

// AddLine resolves the user's pending order, creating it if absent,
// and merges the quantity into an existing line for the same book or
// inserts a new one. The partial unique index on
// orders(user_id) WHERE status='pending' makes the find-or-create safe
// under concurrent first adds: the loser of the race gets a duplicate
// key error and re-reads the winner's order.
func (r *GormRepo) AddLine(ctx context.Context, userID, bookID uint, quantity uint, unitPrice float64) (orderID uint, merged bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		findOrder := tx.Where("user_id = ? AND status = ?", userID, models.StatusPending).First(&order)
		if findOrder.Error != nil {
			if !errors.Is(findOrder.Error, gorm.ErrRecordNotFound) {
				return findOrder.Error
			}
			order = models.Order{UserID: userID, Status: models.StatusPending}
			if createErr := tx.Create(&order).Error; createErr != nil {
				if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
					return createErr
				}
				if err := tx.Where("user_id = ? AND status = ?", userID, models.StatusPending).First(&order).Error; err != nil {
					return err
				}
			}
		}
		orderID = order.ID

		// Merge first; the frozen unit price of the existing line wins.
		res := tx.Model(&models.OrderLine{}).
			Where("order_id = ? AND book_id = ?", order.ID, bookID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			merged = true
			return nil
		}

		line := models.OrderLine{
			OrderID:   order.ID,
			BookID:    bookID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		}
		if createErr := tx.Create(&line).Error; createErr != nil {
			if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return createErr
			}
			merged = true
			return tx.Model(&models.OrderLine{}).
				Where("order_id = ? AND book_id = ?", order.ID, bookID).
				Update("quantity", gorm.Expr("quantity + ?", quantity)).Error
		}
		return nil
	})
	return orderID, merged, err
}

func (r *GormRepo) UpdateLineQuantity(ctx context.Context, lineID uint, quantity uint) error {
	return r.DB.WithContext(ctx).
		Model(&models.OrderLine{}).
		Where("id = ?", lineID).
		Update("quantity", quantity).Error
}

func (r *GormRepo) DeleteLine(ctx context.Context, lineID uint) error {
	return r.DB.WithContext(ctx).Delete(&models.OrderLine{}, lineID).Error
}

// CheckoutPending seals the user's pending order: status, total and
// placed_at flip together inside one transaction, so a concurrent
// reader never sees a priced order that is still pending. Any error
// rolls the whole transition back and leaves the order pending.
func (r *GormRepo) CheckoutPending(ctx context.Context, userID uint, now time.Time) (*models.Order, []models.OrderLine, error) {
	var (
		order models.Order
		lines []models.OrderLine
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND status = ?", userID, models.StatusPending).First(&order).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Order("id ASC").Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyOrder
		}

		total := models.LinesTotal(lines)
		updates := map[string]interface{}{
			"status":    models.StatusCompleted,
			"total":     total,
			"placed_at": now,
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		order.Status = models.StatusCompleted
		order.Total = &total
		order.PlacedAt = &now
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &order, lines, nil
}

func (r *GormRepo) SetOrderStatus(ctx context.Context, orderID uint, status string) error {
	return r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

// DeleteOrder removes the order and its lines; lines never outlive
// their parent.
func (r *GormRepo) DeleteOrder(ctx context.Context, orderID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, orderID).Error
	})
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, models.StatusPending).
		Order("placed_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
