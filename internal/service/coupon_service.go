package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
)

var couponCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CreateCouponInput is the seller-facing coupon definition. ExpiresAt is a
// date string (2006-01-02); date-only granularity is deliberate, the coupon
// stays valid through the whole listed day.
type CreateCouponInput struct {
	Code          string          `json:"code"`
	Type          string          `json:"type"`
	Value         decimal.Decimal `json:"value"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	UsageLimit    *int            `json:"usage_limit"`
	ExpiresAt     string          `json:"expires_at"`
}

// CouponService handles seller-side coupon management. Redemption-side
// validation lives in PricingService.
type CouponService struct {
	couponRepo CouponRepository
	now        func() time.Time
}

func NewCouponService(couponRepo CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo, now: time.Now}
}

func (s *CouponService) CreateCoupon(ctx context.Context, sellerID int64, in CreateCouponInput) (*entity.Coupon, error) {
	fields := map[string]string{}

	code := strings.ToUpper(strings.TrimSpace(in.Code))
	switch {
	case code == "":
		fields["code"] = "code is required"
	case len(code) > 50:
		fields["code"] = "code must be at most 50 characters"
	case !couponCodePattern.MatchString(code):
		fields["code"] = "code may only contain letters, numbers, dashes and underscores"
	}

	discountType := entity.DiscountType(in.Type)
	if discountType != entity.DiscountFixed && discountType != entity.DiscountPercentage {
		fields["type"] = "type must be fixed or percentage"
	}
	if in.Value.IsNegative() {
		fields["value"] = "value must not be negative"
	}
	if discountType == entity.DiscountPercentage && in.Value.GreaterThan(hundred) {
		fields["value"] = "percentage discount cannot exceed 100%"
	}
	if in.MinOrderValue.IsNegative() {
		fields["min_order_value"] = "min_order_value must not be negative"
	}
	if in.UsageLimit != nil && *in.UsageLimit < 1 {
		fields["usage_limit"] = "usage_limit must be at least 1"
	}

	var expiresAt *time.Time
	if in.ExpiresAt == "" {
		fields["expires_at"] = "expires_at is required"
	} else if parsed, err := time.ParseInLocation("2006-01-02", in.ExpiresAt, time.UTC); err != nil {
		fields["expires_at"] = "expires_at must be a date in 2006-01-02 format"
	} else {
		now := s.now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if !parsed.After(today) {
			fields["expires_at"] = "expires_at must be a future date"
		} else {
			expiresAt = &parsed
		}
	}

	if len(fields) > 0 {
		return nil, &entity.ValidationError{Fields: fields}
	}

	coupon := &entity.Coupon{
		SellerID:      sellerID,
		Code:          code,
		Type:          discountType,
		Value:         in.Value,
		MinOrderValue: in.MinOrderValue,
		UsageLimit:    in.UsageLimit,
		ExpiresAt:     expiresAt,
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) ListSellerCoupons(ctx context.Context, sellerID int64) ([]entity.Coupon, error) {
	return s.couponRepo.ListBySeller(ctx, sellerID)
}

func (s *CouponService) DeleteCoupon(ctx context.Context, sellerID, couponID int64) error {
	return s.couponRepo.DeleteBySeller(ctx, sellerID, couponID)
}
