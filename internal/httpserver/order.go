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
	"github.com/GongoraLeo/spherework-sub000/internal/mykafka"
	"github.com/GongoraLeo/spherework-sub000/internal/service/order"
	"github.com/GongoraLeo/spherework-sub000/internal/util"
)

type OrderHTTP struct {
	Svc      *order.OrderService
	Producer *mykafka.Producer
}

func (h *OrderHTTP) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	p, err := principal(c)
	if err != nil {
		l.Warn("checkout_error", "status", 401)
		return err
	}

	receipt, err := h.Svc.Checkout(ctx, p)
	if err != nil {
		return mapOrderErr(l, "checkout_error", err)
	}

	h.publish(c, map[string]any{
		"type":    "order_checked_out",
		"userID":  p.ID,
		"orderID": receipt.Order.ID,
		"total":   receipt.Order.Total,
	})

	l.Info("checkout_success", "order_id", receipt.Order.ID)
	return c.JSON(http.StatusOK, receipt)
}

func (h *OrderHTTP) ShowReceipt(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.receipt")

	p, err := principal(c)
	if err != nil {
		l.Warn("receipt_error", "status", 401)
		return err
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		l.Warn("receipt_error", "status", 400, "reason", "invalid id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	receipt, err := h.Svc.ShowReceipt(ctx, p, uint(orderID))
	if err != nil {
		return mapOrderErr(l, "receipt_error", err)
	}

	return c.JSON(http.StatusOK, receipt)
}

func (h *OrderHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.history")

	p, err := principal(c)
	if err != nil {
		l.Warn("history_error", "status", 401)
		return err
	}

	page := parseIntParam(c.QueryParam("page"), 1)
	size := parseIntParam(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, err := h.Svc.History(ctx, p, limit, offset)
	if err != nil {
		l.Error("history_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) AdminSetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_set_status")

	p, err := principal(c)
	if err != nil {
		l.Warn("set_status_error", "status", 401)
		return err
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		l.Warn("set_status_error", "status", 400, "reason", "invalid id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("set_status_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.SetStatus(ctx, p, uint(orderID), req.Status); err != nil {
		return mapOrderErr(l, "set_status_error", err)
	}

	h.publish(c, map[string]any{
		"type":       "order_status_changed",
		"userID":     p.ID,
		"orderID":    orderID,
		"new_status": req.Status,
	})

	l.Info("set_status_success", "order_id", orderID, "new_status", req.Status)
	return c.JSON(http.StatusOK, echo.Map{"order_id": orderID, "status": req.Status})
}

func (h *OrderHTTP) AdminDeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_delete")

	p, err := principal(c)
	if err != nil {
		l.Warn("delete_order_error", "status", 401)
		return err
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		l.Warn("delete_order_error", "status", 400, "reason", "invalid id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Delete(ctx, p, uint(orderID)); err != nil {
		return mapOrderErr(l, "delete_order_error", err)
	}

	h.publish(c, map[string]any{
		"type":    "order_deleted",
		"userID":  p.ID,
		"orderID": orderID,
	})

	l.Info("delete_order_success", "order_id", orderID)
	return c.NoContent(http.StatusNoContent)
}

func mapOrderErr(l *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, order.ErrValidation):
		l.Warn(op, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrForbidden):
		l.Warn(op, "status", 403, "error", err)
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case errors.Is(err, order.ErrNotFound):
		l.Warn(op, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrConflict):
		l.Warn(op, "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		l.Error(op, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func parseIntParam(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
