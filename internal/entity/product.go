package entity

import "github.com/shopspring/decimal"

// Product is the checkout-relevant slice of a catalog product. Stock is
// mutated only by checkout (decrement) and cancellation (increment).
type Product struct {
	ID            int64           `json:"id"`
	SellerID      int64           `json:"seller_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}
