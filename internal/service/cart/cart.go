package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/GongoraLeo/spherework-sub000/internal/models"
	"github.com/GongoraLeo/spherework-sub000/internal/repo"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrForbidden  = errors.New("forbidden")  // 403
	ErrNotFound   = errors.New("not found")  // 404
)

type CartService struct {
	Repo *repo.GormRepo
}

type View struct {
	OrderID uint               `json:"order_id,omitempty"`
	Lines   []models.OrderLine `json:"lines"`
	Total   float64            `json:"total"`
}

type AddItemCommand struct {
	BookID    uint
	Quantity  int
	UnitPrice float64
}

type AddItemResult struct {
	OrderID uint `json:"order_id"`
	Merged  bool `json:"merged"`
}

// ViewCart never creates an order: a user without a pending order
// simply has an empty cart.
func (s *CartService) ViewCart(ctx context.Context, p models.Principal) (*View, error) {
	order, err := s.Repo.PendingOrder(ctx, p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &View{Lines: []models.OrderLine{}, Total: 0}, nil
		}
		return nil, err
	}

	lines, err := s.Repo.Lines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &View{OrderID: order.ID, Lines: lines, Total: models.LinesTotal(lines)}, nil
}

func (s *CartService) AddItem(ctx context.Context, p models.Principal, cmd AddItemCommand) (*AddItemResult, error) {
	if cmd.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}
	if cmd.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price must be >= 0", ErrValidation)
	}
	if _, err := s.Repo.BookByID(ctx, cmd.BookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown book", ErrValidation)
		}
		return nil, err
	}

	orderID, merged, err := s.Repo.AddLine(ctx, p.ID, cmd.BookID, uint(cmd.Quantity), cmd.UnitPrice)
	if err != nil {
		return nil, err
	}
	return &AddItemResult{OrderID: orderID, Merged: merged}, nil
}

// UpdateQuantity rejects zero: removal goes through RemoveItem, a
// quantity update never deletes a line.
func (s *CartService) UpdateQuantity(ctx context.Context, p models.Principal, lineID uint, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}

	line, _, err := s.guardLine(ctx, p, lineID)
	if err != nil {
		return err
	}
	return s.Repo.UpdateLineQuantity(ctx, line.ID, uint(quantity))
}

// RemoveItem deletes the line but keeps the parent order even if it
// is now empty; the next AddItem reuses it.
func (s *CartService) RemoveItem(ctx context.Context, p models.Principal, lineID uint) error {
	line, _, err := s.guardLine(ctx, p, lineID)
	if err != nil {
		return err
	}
	return s.Repo.DeleteLine(ctx, line.ID)
}

// guardLine applies the ownership guard: only lines of a pending
// order owned by the caller (or an administrator) may be mutated.
func (s *CartService) guardLine(ctx context.Context, p models.Principal, lineID uint) (*models.OrderLine, *models.Order, error) {
	line, order, err := s.Repo.LineWithOrder(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: line %d", ErrNotFound, lineID)
		}
		return nil, nil, err
	}
	if !p.CanMutate(order) {
		return nil, nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	if order.Status != models.StatusPending {
		return nil, nil, fmt.Errorf("%w: order is no longer pending", ErrForbidden)
	}
	return line, order, nil
}
