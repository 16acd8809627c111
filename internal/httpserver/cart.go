package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/GongoraLeo/spherework-sub000/internal/logging"
	authmw "github.com/GongoraLeo/spherework-sub000/internal/middleware/auth"
	"github.com/GongoraLeo/spherework-sub000/internal/models"
	"github.com/GongoraLeo/spherework-sub000/internal/mykafka"
	"github.com/GongoraLeo/spherework-sub000/internal/repo"
	"github.com/GongoraLeo/spherework-sub000/internal/service/cart"
	"gorm.io/gorm"
)

type CartHTTP struct {
	Svc      *cart.CartService
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

func principal(c echo.Context) (models.Principal, error) {
	p, ok := authmw.Principal(c)
	if !ok {
		return models.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return p, nil
}

func (h *CartHTTP) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.view")

	p, err := principal(c)
	if err != nil {
		l.Warn("view_cart_error", "status", 401)
		return err
	}

	view, err := h.Svc.ViewCart(ctx, p)
	if err != nil {
		l.Error("view_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	p, err := principal(c)
	if err != nil {
		l.Warn("add_item_error", "status", 401)
		return err
	}

	var req struct {
		BookID   uint `json:"book_id"`
		Quantity int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	// The catalog price is resolved here and frozen onto the line;
	// clients never supply prices.
	book, err := h.Repo.BookByID(ctx, req.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("add_item_error", "status", 400, "reason", "unknown book")
			return echo.NewHTTPError(http.StatusBadRequest, "unknown book")
		}
		l.Error("add_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	res, err := h.Svc.AddItem(ctx, p, cart.AddItemCommand{
		BookID:    req.BookID,
		Quantity:  req.Quantity,
		UnitPrice: book.Price,
	})
	if err != nil {
		if errors.Is(err, cart.ErrValidation) {
			l.Warn("add_item_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("add_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_added",
		"userID":   p.ID,
		"orderID":  res.OrderID,
		"bookID":   req.BookID,
		"quantity": req.Quantity,
		"merged":   res.Merged,
	})

	message := "item added to cart"
	if res.Merged {
		message = "item quantity updated"
	}
	l.Info("add_item_success", "order_id", res.OrderID, "merged", res.Merged)
	return c.JSON(http.StatusOK, echo.Map{
		"order_id": res.OrderID,
		"merged":   res.Merged,
		"message":  message,
	})
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	p, err := principal(c)
	if err != nil {
		l.Warn("update_quantity_error", "status", 401)
		return err
	}

	lineID, err := strconv.Atoi(c.Param("id"))
	if err != nil || lineID <= 0 {
		l.Warn("update_quantity_error", "status", 400, "reason", "invalid id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.UpdateQuantity(ctx, p, uint(lineID), req.Quantity); err != nil {
		return mapCartErr(l, "update_quantity_error", err)
	}

	h.publish(c, map[string]any{
		"type":         "cart_line_updated",
		"userID":       p.ID,
		"lineID":       lineID,
		"new_quantity": req.Quantity,
	})

	l.Info("update_quantity_success", "line_id", lineID)
	return c.JSON(http.StatusOK, echo.Map{"line_id": lineID, "quantity": req.Quantity})
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	p, err := principal(c)
	if err != nil {
		l.Warn("remove_item_error", "status", 401)
		return err
	}

	lineID, err := strconv.Atoi(c.Param("id"))
	if err != nil || lineID <= 0 {
		l.Warn("remove_item_error", "status", 400, "reason", "invalid id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.RemoveItem(ctx, p, uint(lineID)); err != nil {
		return mapCartErr(l, "remove_item_error", err)
	}

	h.publish(c, map[string]any{
		"type":   "cart_line_removed",
		"userID": p.ID,
		"lineID": lineID,
	})

	l.Info("remove_item_success", "line_id", lineID)
	return c.NoContent(http.StatusNoContent)
}

func mapCartErr(l *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, cart.ErrValidation):
		l.Warn(op, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrForbidden):
		l.Warn(op, "status", 403, "error", err)
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case errors.Is(err, cart.ErrNotFound):
		l.Warn(op, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "line not found")
	default:
		l.Error(op, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
