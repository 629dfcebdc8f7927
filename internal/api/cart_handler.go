package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/service"
)

type CartHandler struct {
	cart *service.CartService
}

func NewCartHandler(cart *service.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// GetCart --> GET /cart
func (h *CartHandler) GetCart(c echo.Context) error {
	cart, err := h.cart.GetCart(c.Request().Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, cart)
}

// AddItem --> POST /cart/items
func (h *CartHandler) AddItem(c echo.Context) error {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid request payload")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.cart.AddItem(c.Request().Context(), currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusCreated, cart)
}

// UpdateItem --> PUT /cart/items/:id
func (h *CartHandler) UpdateItem(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid cart item ID")
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid request payload")
	}

	cart, err := h.cart.UpdateItem(c.Request().Context(), currentUserID(c), itemID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, cart)
}

// RemoveItem --> DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid cart item ID")
	}

	cart, err := h.cart.RemoveItem(c.Request().Context(), currentUserID(c), itemID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, cart)
}
