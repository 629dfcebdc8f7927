package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/gateway"
)

const paymentCurrency = "usd"

// IntentResult is what the buyer needs to confirm the payment client-side.
type IntentResult struct {
	ClientSecret string          `json:"clientSecret"`
	Amount       decimal.Decimal `json:"amount"`
}

// OrderSummary is returned once an order is committed.
type OrderSummary struct {
	OrderID        int64           `json:"order_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

// CheckoutService sequences pricing, payment verification, and the atomic
// order commit. Redis and Kafka are optional collaborators: the redis key is
// only a fast-path guard in front of the payments unique constraint, and
// event publishing never affects a committed order.
type CheckoutService struct {
	cartRepo    CartRepository
	orderRepo   OrderRepository
	pricing     *PricingService
	gateway     gateway.PaymentGateway
	gatewayName string
	rdb         *redis.Client
	kafkaWriter *kafka.Writer
}

func NewCheckoutService(cartRepo CartRepository, orderRepo OrderRepository, pricing *PricingService, gw gateway.PaymentGateway, gatewayName string, rdb *redis.Client, kafkaWriter *kafka.Writer) *CheckoutService {
	return &CheckoutService{
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		pricing:     pricing,
		gateway:     gw,
		gatewayName: gatewayName,
		rdb:         rdb,
		kafkaWriter: kafkaWriter,
	}
}

// CreatePaymentIntent prices the buyer's cart and reserves the amount with
// the gateway. No local state is written; the priced figures ride along in
// the intent's metadata for the commit to read back.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, userID int64, couponCodes []string) (*IntentResult, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		return nil, entity.ErrEmptyCart
	}

	result, err := s.pricing.PriceCart(ctx, cart, couponCodes)
	if err != nil {
		return nil, err
	}

	applied := make([]entity.AppliedCoupon, 0, len(result.Applications))
	for _, app := range result.Applications {
		applied = append(applied, entity.AppliedCoupon{
			ID:       app.CouponID,
			Code:     app.Code,
			SellerID: app.SellerID,
			Discount: app.Discount,
		})
	}

	metadata, err := intentMetadata{
		UserID:   userID,
		CartID:   cart.ID,
		Discount: result.Discount,
		Tax:      result.Tax,
		Coupons:  applied,
	}.encode()
	if err != nil {
		return nil, err
	}

	amountMinor := result.FinalAmount.Shift(2).Round(0).IntPart()
	intent, err := s.gateway.CreateIntent(ctx, amountMinor, paymentCurrency, metadata)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Int64("cart_id", cart.ID).
			Msg("payment intent creation failed")
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &IntentResult{ClientSecret: intent.ClientSecret, Amount: result.FinalAmount}, nil
}

// PlaceOrder converts a payment-confirmed cart into a durable order. The
// subtotal is recomputed from current cart lines inside the commit; discount
// and tax come from the intent metadata. A replayed intent id fails with
// ErrDuplicatePayment and leaves no state behind.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID int64, paymentIntentID string, address entity.ShippingAddress) (*OrderSummary, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}

	intent, err := s.gateway.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		logger.Error().Err(err).Str("payment_intent_id", paymentIntentID).
			Msg("payment verification failed")
		return nil, fmt.Errorf("%w: %v", entity.ErrPaymentVerification, err)
	}
	if intent.Status != gateway.StatusSucceeded {
		logger.Warn().Str("payment_intent_id", paymentIntentID).Str("status", intent.Status).
			Msg("payment not in succeeded state")
		return nil, entity.ErrPaymentNotSucceeded
	}

	if s.consumedIntent(ctx, paymentIntentID) {
		return nil, entity.ErrDuplicatePayment
	}

	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		// The cart may have been modified or already checked out since
		// intent creation.
		return nil, entity.ErrEmptyCart
	}

	metadata, err := decodeIntentMetadata(intent.Metadata)
	if err != nil {
		logger.Error().Err(err).Str("payment_intent_id", paymentIntentID).
			Msg("intent metadata unreadable")
		return nil, fmt.Errorf("%w: %v", entity.ErrPaymentVerification, err)
	}

	addressJSON, err := json.Marshal(address)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.PlaceOrder(ctx, entity.PlaceOrderInput{
		UserID:          userID,
		CartID:          cart.ID,
		Items:           cart.Items,
		PaymentIntentID: paymentIntentID,
		Gateway:         s.gatewayName,
		DiscountAmount:  metadata.Discount,
		TaxAmount:       metadata.Tax,
		Coupons:         metadata.Coupons,
		ShippingAddress: string(addressJSON),
	})
	if err != nil {
		logger.Error().Err(err).
			Int64("user_id", userID).
			Int64("cart_id", cart.ID).
			Str("payment_intent_id", paymentIntentID).
			Msg("order commit rolled back")
		return nil, err
	}

	logger.Info().Int64("order_id", order.ID).Int64("user_id", userID).
		Str("payment_intent_id", paymentIntentID).Msg("order placed")

	s.markIntentConsumed(ctx, paymentIntentID)
	publishOrderEvent(ctx, s.kafkaWriter, "placed", order)

	return &OrderSummary{
		OrderID:        order.ID,
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		FinalAmount:    order.FinalAmount,
	}, nil
}

// consumedIntent is a best-effort duplicate check; redis being down just
// means the payments unique key does the work alone.
func (s *CheckoutService) consumedIntent(ctx context.Context, intentID string) bool {
	if s.rdb == nil {
		return false
	}
	exists, err := s.rdb.Exists(ctx, intentKey(intentID)).Result()
	if err != nil {
		logger.Warn().Err(err).Str("payment_intent_id", intentID).
			Msg("redis duplicate-intent check unavailable")
		return false
	}
	return exists > 0
}

func (s *CheckoutService) markIntentConsumed(ctx context.Context, intentID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, intentKey(intentID), "consumed", 24*time.Hour).Err(); err != nil {
		logger.Warn().Err(err).Str("payment_intent_id", intentID).
			Msg("failed to mark intent consumed in redis")
	}
}

func intentKey(intentID string) string {
	return "payment-intent:" + intentID
}
