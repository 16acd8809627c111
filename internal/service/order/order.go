package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/GongoraLeo/spherework-sub000/internal/models"
	"github.com/GongoraLeo/spherework-sub000/internal/repo"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrForbidden  = errors.New("forbidden")  // 403
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
)

type OrderService struct {
	Repo *repo.GormRepo
}

type Receipt struct {
	Order models.Order       `json:"order"`
	Lines []models.OrderLine `json:"lines"`
}

// Checkout seals the caller's pending order. The repo flips status,
// total and placed_at in one transaction; from here the cart is empty
// because no pending order exists until the next AddItem.
func (s *OrderService) Checkout(ctx context.Context, p models.Principal) (*Receipt, error) {
	order, lines, err := s.Repo.CheckoutPending(ctx, p.ID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no pending order", ErrNotFound)
		}
		if errors.Is(err, repo.ErrEmptyOrder) {
			return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
		}
		return nil, err
	}
	return &Receipt{Order: *order, Lines: lines}, nil
}

// ShowReceipt is read-only and ownership-guarded; administrators may
// read any order. A pending order has no receipt, even for its owner.
func (s *OrderService) ShowReceipt(ctx context.Context, p models.Principal, orderID uint) (*Receipt, error) {
	order, err := s.Repo.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	if !p.CanMutate(order) {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	if order.Status == models.StatusPending {
		return nil, fmt.Errorf("%w: order not completed yet", ErrConflict)
	}

	lines, err := s.Repo.Lines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &Receipt{Order: *order, Lines: lines}, nil
}

func (s *OrderService) History(ctx context.Context, p models.Principal, limit, offset int) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, p.ID, limit, offset)
}

// SetStatus is the back-office correction path: any enum value is
// reachable directly, adjacency in the normal progression is a
// convention, not an enforced invariant.
func (s *OrderService) SetStatus(ctx context.Context, p models.Principal, orderID uint, status string) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: admin only", ErrForbidden)
	}
	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if _, err := s.Repo.OrderByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return err
	}
	return s.Repo.SetOrderStatus(ctx, orderID, status)
}

func (s *OrderService) Delete(ctx context.Context, p models.Principal, orderID uint) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: admin only", ErrForbidden)
	}
	if _, err := s.Repo.OrderByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return err
	}
	return s.Repo.DeleteOrder(ctx, orderID)
}
