package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
)

// The payment intent's metadata is the only place the priced figures survive
// between intent creation and order placement: the cart and coupon rows may
// change state in between, so the commit reads these numbers back rather
// than re-pricing. The schema is a versioned internal contract.

const metadataVersion = "1"

const (
	metaKeyVersion  = "version"
	metaKeyUserID   = "user_id"
	metaKeyCartID   = "cart_id"
	metaKeyDiscount = "discount_amount"
	metaKeyTax      = "tax_amount"
	metaKeyCoupons  = "coupons"
)

type intentMetadata struct {
	UserID   int64
	CartID   int64
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Coupons  []entity.AppliedCoupon
}

func (m intentMetadata) encode() (map[string]string, error) {
	coupons, err := json.Marshal(m.Coupons)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		metaKeyVersion:  metadataVersion,
		metaKeyUserID:   strconv.FormatInt(m.UserID, 10),
		metaKeyCartID:   strconv.FormatInt(m.CartID, 10),
		metaKeyDiscount: m.Discount.StringFixed(2),
		metaKeyTax:      m.Tax.StringFixed(2),
		metaKeyCoupons:  string(coupons),
	}, nil
}

func decodeIntentMetadata(md map[string]string) (*intentMetadata, error) {
	if v := md[metaKeyVersion]; v != metadataVersion {
		return nil, fmt.Errorf("unsupported intent metadata version %q", v)
	}

	userID, err := strconv.ParseInt(md[metaKeyUserID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("intent metadata user_id: %w", err)
	}
	cartID, err := strconv.ParseInt(md[metaKeyCartID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("intent metadata cart_id: %w", err)
	}
	discount, err := decimal.NewFromString(md[metaKeyDiscount])
	if err != nil {
		return nil, fmt.Errorf("intent metadata discount_amount: %w", err)
	}
	tax, err := decimal.NewFromString(md[metaKeyTax])
	if err != nil {
		return nil, fmt.Errorf("intent metadata tax_amount: %w", err)
	}

	var coupons []entity.AppliedCoupon
	if raw := md[metaKeyCoupons]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &coupons); err != nil {
			return nil, fmt.Errorf("intent metadata coupons: %w", err)
		}
	}

	return &intentMetadata{
		UserID:   userID,
		CartID:   cartID,
		Discount: discount,
		Tax:      tax,
		Coupons:  coupons,
	}, nil
}
