package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Business rule violations. Handlers map these to user-facing messages;
// anything not in this list is treated as an internal failure.
var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrProductNotFound       = errors.New("product not found")
	ErrInvalidCoupon         = errors.New("invalid coupon code")
	ErrCouponExpired         = errors.New("coupon has expired")
	ErrUsageLimitReached     = errors.New("coupon has reached its usage limit")
	ErrDuplicateSellerCoupon = errors.New("only one coupon per seller is allowed")
	ErrCouponNotApplicable   = errors.New("coupon does not apply to any items in the cart")
	ErrMinimumOrderNotMet    = errors.New("minimum order value not met")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrPaymentNotSucceeded   = errors.New("payment was not successful")
	ErrPaymentVerification   = errors.New("failed to verify payment")
	ErrDuplicatePayment      = errors.New("payment has already been used for an order")
	ErrOrderNotFound         = errors.New("order not found")
	ErrCartItemNotFound      = errors.New("cart item not found")
	ErrCouponNotFound        = errors.New("coupon not found")
	ErrCouponCodeTaken       = errors.New("coupon code already exists")
)

// ValidationError reports malformed input with per-field detail.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks the shipping address shape.
func (a ShippingAddress) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(a.Name) == "" {
		fields["shipping_address.name"] = "name is required"
	} else if len(a.Name) > 255 {
		fields["shipping_address.name"] = "name must be at most 255 characters"
	}
	if strings.TrimSpace(a.Phone) == "" {
		fields["shipping_address.phone"] = "phone is required"
	} else if len(a.Phone) > 20 {
		fields["shipping_address.phone"] = "phone must be at most 20 characters"
	}
	if strings.TrimSpace(a.Address) == "" {
		fields["shipping_address.address"] = "address is required"
	}
	if strings.TrimSpace(a.City) == "" {
		fields["shipping_address.city"] = "city is required"
	} else if len(a.City) > 100 {
		fields["shipping_address.city"] = "city must be at most 100 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
