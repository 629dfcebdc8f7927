package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
)

var (
	taxRate = decimal.RequireFromString("0.10")
	hundred = decimal.NewFromInt(100)
)

// PricingResult is a deterministic pricing of a cart against zero or more
// coupon codes. FinalAmount = Subtotal - Discount + Tax.
type PricingResult struct {
	Subtotal     decimal.Decimal            `json:"subtotal"`
	Discount     decimal.Decimal            `json:"discount"`
	Tax          decimal.Decimal            `json:"tax"`
	FinalAmount  decimal.Decimal            `json:"final_amount"`
	Applications []entity.CouponApplication `json:"applications"`
}

// CouponOption is one redeemable coupon and the discount it would yield on
// the current cart.
type CouponOption struct {
	ID            int64               `json:"id"`
	Code          string              `json:"code"`
	Type          entity.DiscountType `json:"type"`
	Value         decimal.Decimal     `json:"value"`
	MinOrderValue decimal.Decimal     `json:"min_order_value"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
	Discount      decimal.Decimal     `json:"discount_amount"`
}

// SellerCouponOptions groups the redeemable coupons of one seller
// represented in the cart.
type SellerCouponOptions struct {
	SellerID int64           `json:"seller_id"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Coupons  []CouponOption  `json:"coupons"`
}

// PricingService prices carts before any money moves. It never mutates
// coupon state; usage counting happens at order commit.
type PricingService struct {
	productRepo ProductRepository
	couponRepo  CouponRepository
	now         func() time.Time
}

func NewPricingService(productRepo ProductRepository, couponRepo CouponRepository) *PricingService {
	return &PricingService{
		productRepo: productRepo,
		couponRepo:  couponRepo,
		now:         time.Now,
	}
}

// PriceCart resolves the cart's products and applies the requested coupon
// codes in the order supplied, at most one per seller. Any ineligible code
// fails the whole pricing call.
func (s *PricingService) PriceCart(ctx context.Context, cart *entity.Cart, couponCodes []string) (*PricingResult, error) {
	if cart.Empty() {
		return nil, entity.ErrEmptyCart
	}

	products, err := s.productRepo.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", entity.ErrProductNotFound, item.ProductID)
		}
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	result := &PricingResult{Subtotal: subtotal}
	appliedSellers := make(map[int64]bool)

	for _, rawCode := range couponCodes {
		code := strings.ToUpper(strings.TrimSpace(rawCode))

		coupon, err := s.couponRepo.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if coupon == nil {
			return nil, fmt.Errorf("%w: %s", entity.ErrInvalidCoupon, code)
		}
		if coupon.Expired(s.now()) {
			return nil, fmt.Errorf("%w: %s", entity.ErrCouponExpired, code)
		}
		if coupon.Exhausted() {
			return nil, fmt.Errorf("%w: %s", entity.ErrUsageLimitReached, code)
		}
		if appliedSellers[coupon.SellerID] {
			return nil, entity.ErrDuplicateSellerCoupon
		}

		sellerSubtotal := sellerSubtotal(cart, products, coupon.SellerID)
		if sellerSubtotal.IsZero() {
			return nil, fmt.Errorf("%w: %s", entity.ErrCouponNotApplicable, code)
		}
		if sellerSubtotal.LessThan(coupon.MinOrderValue) {
			return nil, fmt.Errorf("%w: %s requires a minimum order value of $%s",
				entity.ErrMinimumOrderNotMet, code, coupon.MinOrderValue.StringFixed(2))
		}

		appliedSellers[coupon.SellerID] = true
		result.Applications = append(result.Applications, entity.CouponApplication{
			CouponID:         coupon.ID,
			Code:             coupon.Code,
			SellerID:         coupon.SellerID,
			EligibleSubtotal: sellerSubtotal,
			Discount:         discountFor(coupon, sellerSubtotal),
		})
	}

	for _, app := range result.Applications {
		result.Discount = result.Discount.Add(app.Discount)
	}
	result.Tax = subtotal.Sub(result.Discount).Mul(taxRate).Round(2)
	result.FinalAmount = subtotal.Sub(result.Discount).Add(result.Tax)
	return result, nil
}

// ApplyCoupon validates a single code against the cart and reports the
// application it would produce, without mutating anything.
func (s *PricingService) ApplyCoupon(ctx context.Context, code string, cart *entity.Cart) (*entity.CouponApplication, error) {
	result, err := s.PriceCart(ctx, cart, []string{code})
	if err != nil {
		return nil, err
	}
	return &result.Applications[0], nil
}

// AvailableCoupons enumerates every redeemable coupon for every seller
// represented in the cart, with the discount each would yield.
func (s *PricingService) AvailableCoupons(ctx context.Context, cart *entity.Cart) ([]SellerCouponOptions, error) {
	if cart.Empty() {
		return nil, entity.ErrEmptyCart
	}

	products, err := s.productRepo.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}

	subtotals := make(map[int64]decimal.Decimal)
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotals[product.SellerID] = subtotals[product.SellerID].Add(lineTotal)
	}

	sellerIDs := make([]int64, 0, len(subtotals))
	for sellerID := range subtotals {
		sellerIDs = append(sellerIDs, sellerID)
	}
	sort.Slice(sellerIDs, func(i, j int) bool { return sellerIDs[i] < sellerIDs[j] })

	coupons, err := s.couponRepo.FindActiveForSellers(ctx, sellerIDs)
	if err != nil {
		return nil, err
	}

	bySeller := make(map[int64][]CouponOption)
	for _, coupon := range coupons {
		// The repository already filters expired and exhausted coupons;
		// re-check so a fake or clock-skewed row cannot leak through.
		if coupon.Expired(s.now()) || coupon.Exhausted() {
			continue
		}
		sellerSub := subtotals[coupon.SellerID]
		if sellerSub.LessThan(coupon.MinOrderValue) {
			continue
		}
		bySeller[coupon.SellerID] = append(bySeller[coupon.SellerID], CouponOption{
			ID:            coupon.ID,
			Code:          coupon.Code,
			Type:          coupon.Type,
			Value:         coupon.Value,
			MinOrderValue: coupon.MinOrderValue,
			ExpiresAt:     coupon.ExpiresAt,
			Discount:      discountFor(&coupon, sellerSub),
		})
	}

	var options []SellerCouponOptions
	for _, sellerID := range sellerIDs {
		if len(bySeller[sellerID]) == 0 {
			continue
		}
		options = append(options, SellerCouponOptions{
			SellerID: sellerID,
			Subtotal: subtotals[sellerID],
			Coupons:  bySeller[sellerID],
		})
	}
	return options, nil
}

func sellerSubtotal(cart *entity.Cart, products map[int64]*entity.Product, sellerID int64) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok || product.SellerID != sellerID {
			continue
		}
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// discountFor computes a coupon's discount against a seller subtotal. Fixed
// discounts cap at the subtotal; percentage values are clamped to 100 in
// case a row was edited past creation-time validation.
func discountFor(coupon *entity.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon.Type == entity.DiscountFixed {
		return decimal.Min(coupon.Value, subtotal)
	}
	pct := decimal.Min(coupon.Value, hundred)
	return subtotal.Mul(pct).Div(hundred).Round(2)
}
