package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/service"
)

type CouponHandler struct {
	pricing *service.PricingService
	coupons *service.CouponService
}

func NewCouponHandler(pricing *service.PricingService, coupons *service.CouponService) *CouponHandler {
	return &CouponHandler{pricing: pricing, coupons: coupons}
}

type cartItemsRequest struct {
	CartItems []struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	} `json:"cart_items"`
}

func (r cartItemsRequest) toCart() (*entity.Cart, error) {
	if len(r.CartItems) == 0 {
		return nil, &entity.ValidationError{Fields: map[string]string{
			"cart_items": "at least one cart item is required",
		}}
	}
	cart := &entity.Cart{}
	for _, item := range r.CartItems {
		if item.Quantity < 1 {
			return nil, &entity.ValidationError{Fields: map[string]string{
				"cart_items": "each item quantity must be at least 1",
			}}
		}
		cart.Items = append(cart.Items, entity.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return cart, nil
}

// Available lists redeemable coupons per seller for the supplied cart
// items. --> POST /coupons/available
func (h *CouponHandler) Available(c echo.Context) error {
	var req cartItemsRequest
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid request payload")
	}
	cart, err := req.toCart()
	if err != nil {
		return respondError(c, err)
	}

	options, err := h.pricing.AvailableCoupons(c.Request().Context(), cart)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, options)
}

// Apply validates one code against the supplied cart items.
// --> POST /coupons/apply
func (h *CouponHandler) Apply(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
		cartItemsRequest
	}
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid request payload")
	}
	if req.Code == "" {
		return respondError(c, &entity.ValidationError{Fields: map[string]string{
			"code": "code is required",
		}})
	}
	cart, err := req.toCart()
	if err != nil {
		return respondError(c, err)
	}

	application, err := h.pricing.ApplyCoupon(c.Request().Context(), req.Code, cart)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, application)
}

// ListSellerCoupons --> GET /seller/coupons
func (h *CouponHandler) ListSellerCoupons(c echo.Context) error {
	coupons, err := h.coupons.ListSellerCoupons(c.Request().Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, coupons)
}

// CreateCoupon --> POST /seller/coupons
func (h *CouponHandler) CreateCoupon(c echo.Context) error {
	var req service.CreateCouponInput
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid request payload")
	}

	coupon, err := h.coupons.CreateCoupon(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusCreated, coupon)
}

// DeleteCoupon --> DELETE /seller/coupons/:id
func (h *CouponHandler) DeleteCoupon(c echo.Context) error {
	couponID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondMessage(c, http.StatusBadRequest, "Invalid coupon ID")
	}

	if err := h.coupons.DeleteCoupon(c.Request().Context(), currentUserID(c), couponID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Coupon deleted successfully"})
}
