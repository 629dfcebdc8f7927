package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus lifecycle: processing -> shipped -> delivered, or cancelled
// from any non-cancelled state. Delivered and cancelled are terminal.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether s names a known order status.
func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order is immutable after creation except for Status. TotalAmount is the
// pre-discount subtotal; FinalAmount = TotalAmount - DiscountAmount + TaxAmount.
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	CouponID        *int64          `json:"coupon_id,omitempty"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []OrderItem     `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderItem snapshots the product name and unit price at purchase time, so
// order history reflects what was actually paid even if the product changes.
type OrderItem struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"order_id"`
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// Payment records the external charge funding an order. TransactionID is
// unique across payments so one charge can never fund two orders.
type Payment struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Gateway       string          `json:"gateway"`
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
}

// ShippingAddress is the validated delivery destination, stored on the
// order as a JSON snapshot.
type ShippingAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// PlaceOrderInput carries everything the atomic commit needs: the cart to
// consume, the priced figures read back from intent metadata, and the
// external transaction id.
type PlaceOrderInput struct {
	UserID          int64
	CartID          int64
	Items           []CartItem
	PaymentIntentID string
	Gateway         string
	DiscountAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	Coupons         []AppliedCoupon
	ShippingAddress string
}
