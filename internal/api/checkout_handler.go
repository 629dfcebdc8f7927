package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/service"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
}

func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// CreateIntent prices the cart and reserves the amount with the payment
// gateway. --> POST /checkout/intent
func (h *CheckoutHandler) CreateIntent(c echo.Context) error {
	var req struct {
		CouponCodes []string `json:"coupon_codes"`
	}
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid request payload")
	}

	result, err := h.checkout.CreatePaymentIntent(c.Request().Context(), currentUserID(c), req.CouponCodes)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, result)
}

// PlaceOrder commits the cart against a succeeded payment intent.
// --> POST /checkout/place-order
func (h *CheckoutHandler) PlaceOrder(c echo.Context) error {
	var req struct {
		PaymentIntentID string                 `json:"payment_intent_id"`
		CouponCodes     []string               `json:"coupon_codes"`
		ShippingAddress entity.ShippingAddress `json:"shipping_address"`
	}
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid request payload")
	}
	if strings.TrimSpace(req.PaymentIntentID) == "" {
		return respondError(c, &entity.ValidationError{Fields: map[string]string{
			"payment_intent_id": "payment_intent_id is required",
		}})
	}

	// coupon_codes is accepted for wire compatibility but ignored: the
	// applied coupons come from the intent metadata, the figures the buyer
	// was actually charged for.
	summary, err := h.checkout.PlaceOrder(c.Request().Context(), currentUserID(c), req.PaymentIntentID, req.ShippingAddress)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusCreated, summary)
}
