package entity

// Cart holds a buyer's pending line items. Items are deleted as part of the
// checkout commit transaction.
type Cart struct {
	ID     int64      `json:"id"`
	UserID int64      `json:"user_id"`
	Items  []CartItem `json:"items"`
}

type CartItem struct {
	ID        int64 `json:"id"`
	CartID    int64 `json:"cart_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Empty reports whether there is nothing to check out.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Items) == 0
}

// ProductIDs returns the distinct product ids referenced by the cart.
func (c *Cart) ProductIDs() []int64 {
	seen := make(map[int64]bool, len(c.Items))
	ids := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
