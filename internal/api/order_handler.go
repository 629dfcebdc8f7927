package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ListOrders --> GET /orders
func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.orders.ListOrders(c.Request().Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, orders)
}

// GetOrder --> GET /orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid order ID")
	}

	order, err := h.orders.GetOrder(c.Request().Context(), currentUserID(c), orderID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, order)
}

// ListSellerOrders --> GET /seller/orders
func (h *OrderHandler) ListSellerOrders(c echo.Context) error {
	orders, err := h.orders.ListSellerOrders(c.Request().Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, orders)
}

// GetSellerOrder --> GET /seller/orders/:id
func (h *OrderHandler) GetSellerOrder(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid order ID")
	}

	order, err := h.orders.GetSellerOrder(c.Request().Context(), currentUserID(c), orderID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, order)
}

// UpdateStatus --> PATCH /seller/orders/:id/status
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid order ID")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid request payload")
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), currentUserID(c), orderID, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, order)
}
