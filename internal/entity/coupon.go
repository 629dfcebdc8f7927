package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountFixed subtracts a fixed amount, capped at the seller subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountPercentage subtracts a percentage of the seller subtotal.
	DiscountPercentage DiscountType = "percentage"
)

// Coupon is a per-seller discount code. UsageCount is incremented exactly
// once per placed order that applied the coupon, never past UsageLimit.
type Coupon struct {
	ID            int64           `json:"id"`
	SellerID      int64           `json:"seller_id"`
	Code          string          `json:"code"`
	Type          DiscountType    `json:"type"`
	Value         decimal.Decimal `json:"value"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	UsageLimit    *int            `json:"usage_limit,omitempty"`
	UsageCount    int             `json:"usage_count"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Expired reports whether the coupon's expiry date has fully elapsed.
// Expiry is date-only: the coupon stays redeemable through the whole of the
// listed day and is rejected from the next day on.
func (c *Coupon) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	ey, em, ed := c.ExpiresAt.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	expiry := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return expiry.Before(today)
}

// Exhausted reports whether the usage limit has been reached.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit
}

// CouponApplication pairs one accepted coupon with one seller's portion of
// a cart. A pricing run produces at most one application per seller.
type CouponApplication struct {
	CouponID         int64           `json:"coupon_id"`
	Code             string          `json:"code"`
	SellerID         int64           `json:"seller_id"`
	EligibleSubtotal decimal.Decimal `json:"eligible_subtotal"`
	Discount         decimal.Decimal `json:"discount"`
}

// AppliedCoupon is the slice of a CouponApplication that survives the trip
// through payment-intent metadata and is replayed at commit time.
type AppliedCoupon struct {
	ID       int64           `json:"id"`
	Code     string          `json:"code"`
	SellerID int64           `json:"seller_id"`
	Discount decimal.Decimal `json:"discount"`
}
