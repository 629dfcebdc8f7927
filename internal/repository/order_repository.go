package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

// PlaceOrder is the checkout commit: order row, order items, payment row,
// stock decrements, coupon usage increments and cart clearing all happen in
// one transaction, or none of them do.
//
// Product rows are locked FOR UPDATE in id order before anything is written,
// so the check-then-decrement on stock cannot race another checkout or a
// cancellation restock. The subtotal is recomputed from the locked prices,
// never trusted from the client; discount and tax come from the intent
// metadata the buyer was actually charged against.
func (r *OrderRepository) PlaceOrder(ctx context.Context, in entity.PlaceOrderInput) (*entity.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	productIDs := distinctProductIDs(in.Items)
	products, err := lockProducts(ctx, tx, productIDs)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, item := range in.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", entity.ErrProductNotFound, item.ProductID)
		}
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	finalAmount := subtotal.Sub(in.DiscountAmount).Add(in.TaxAmount)

	// Consume coupon usage with a conditional increment so concurrent
	// checkouts racing for the last redemption serialize on the row and at
	// most usage_limit of them succeed. A coupon deleted since intent
	// creation is skipped, matching what the buyer was already charged.
	for _, coupon := range in.Coupons {
		res, err := tx.ExecContext(ctx,
			`UPDATE coupons SET usage_count = usage_count + 1
			WHERE id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)`, coupon.ID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM coupons WHERE id = ?`, coupon.ID).Scan(&exists); err != nil {
				return nil, err
			}
			if exists > 0 {
				return nil, fmt.Errorf("%w: %s", entity.ErrUsageLimitReached, coupon.Code)
			}
		}
	}

	var couponID interface{}
	var firstCouponID *int64
	if len(in.Coupons) == 1 {
		id := in.Coupons[0].ID
		couponID = id
		firstCouponID = &id
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, coupon_id, status, total_amount, discount_amount, tax_amount, final_amount, shipping_address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, couponID, string(entity.OrderProcessing), subtotal, in.DiscountAmount, in.TaxAmount, finalAmount, in.ShippingAddress)
	if err != nil {
		return nil, err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	order := &entity.Order{
		ID:              orderID,
		UserID:          in.UserID,
		CouponID:        firstCouponID,
		Status:          entity.OrderProcessing,
		TotalAmount:     subtotal,
		DiscountAmount:  in.DiscountAmount,
		TaxAmount:       in.TaxAmount,
		FinalAmount:     finalAmount,
		ShippingAddress: in.ShippingAddress,
	}

	for _, item := range in.Items {
		product := products[item.ProductID]

		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?`,
			item.Quantity, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("%w for product %q: available %d, requested %d",
				entity.ErrInsufficientStock, product.Name, product.StockQuantity, item.Quantity)
		}

		itemRes, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, quantity, price_at_purchase)
			VALUES (?, ?, ?, ?, ?)`,
			orderID, item.ProductID, product.Name, item.Quantity, product.Price)
		if err != nil {
			return nil, err
		}
		itemID, err := itemRes.LastInsertId()
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, entity.OrderItem{
			ID:              itemID,
			OrderID:         orderID,
			ProductID:       item.ProductID,
			ProductName:     product.Name,
			Quantity:        item.Quantity,
			PriceAtPurchase: product.Price,
		})
	}

	// The UNIQUE key on transaction_id is what makes placeOrder idempotent:
	// a replay of an already-consumed intent dies here and rolls back.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (order_id, amount, gateway, transaction_id, status)
		VALUES (?, ?, ?, ?, ?)`,
		orderID, finalAmount, in.Gateway, in.PaymentIntentID, "succeeded")
	if err != nil {
		if isDuplicateKey(err) {
			return nil, entity.ErrDuplicatePayment
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, in.CartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

// GetForBuyer loads an order with items only if it belongs to the buyer.
func (r *OrderRepository) GetForBuyer(ctx context.Context, userID, orderID int64) (*entity.Order, error) {
	order, err := r.scanOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ? AND user_id = ?`, orderID, userID)
	if err != nil {
		return nil, err
	}
	order.Items, err = r.orderItems(ctx, order.ID, 0)
	return order, err
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Items, err = r.orderItems(ctx, orders[i].ID, 0); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ListForSeller returns orders containing at least one of the seller's
// products, with items filtered down to that seller.
func (r *OrderRepository) ListForSeller(ctx context.Context, sellerID int64) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT `+prefixedOrderColumns+` FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN products p ON p.id = oi.product_id
		WHERE p.seller_id = ?
		ORDER BY o.created_at DESC`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Items, err = r.orderItems(ctx, orders[i].ID, sellerID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// GetForSeller loads one order, visible only if the seller has items in it.
func (r *OrderRepository) GetForSeller(ctx context.Context, sellerID, orderID int64) (*entity.Order, error) {
	order, err := r.scanOrder(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE id = ? AND EXISTS (
			SELECT 1 FROM order_items oi JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = orders.id AND p.seller_id = ?
		)`, orderID, sellerID)
	if err != nil {
		return nil, err
	}
	order.Items, err = r.orderItems(ctx, order.ID, sellerID)
	return order, err
}

// UpdateStatusForSeller writes the new status and, when the transition is
// into cancelled from a non-cancelled state, restores stock for every item
// of the acting seller inside the same transaction. The order row is locked
// first so a concurrent cancellation cannot restore stock twice.
func (r *OrderRepository) UpdateStatusForSeller(ctx context.Context, sellerID, orderID int64, status entity.OrderStatus) (*entity.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders
		WHERE id = ? AND EXISTS (
			SELECT 1 FROM order_items oi JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = orders.id AND p.seller_id = ?
		) FOR UPDATE`, orderID, sellerID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if status == entity.OrderCancelled && entity.OrderStatus(current) != entity.OrderCancelled {
		rows, err := tx.QueryContext(ctx,
			`SELECT oi.product_id, oi.quantity FROM order_items oi
			JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = ? AND p.seller_id = ?`, orderID, sellerID)
		if err != nil {
			return nil, err
		}
		type restock struct {
			productID int64
			quantity  int
		}
		var restocks []restock
		for rows.Next() {
			var rs restock
			if err := rows.Scan(&rs.productID, &rs.quantity); err != nil {
				rows.Close()
				return nil, err
			}
			restocks = append(restocks, rs)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, rs := range restocks {
			if _, err := tx.ExecContext(ctx,
				`UPDATE products SET stock_quantity = stock_quantity + ? WHERE id = ?`,
				rs.quantity, rs.productID); err != nil {
				return nil, err
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ?`, string(status), orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetForSeller(ctx, sellerID, orderID)
}

const orderColumns = `id, user_id, coupon_id, status, total_amount, discount_amount, tax_amount, final_amount, shipping_address, created_at`

const prefixedOrderColumns = `o.id, o.user_id, o.coupon_id, o.status, o.total_amount, o.discount_amount, o.tax_amount, o.final_amount, o.shipping_address, o.created_at`

func (r *OrderRepository) scanOrder(ctx context.Context, query string, args ...interface{}) (*entity.Order, error) {
	order, err := scanOrderRow(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrOrderNotFound
	}
	return order, err
}

func scanOrderRow(row rowScanner) (*entity.Order, error) {
	var o entity.Order
	var couponID sql.NullInt64
	err := row.Scan(&o.ID, &o.UserID, &couponID, &o.Status, &o.TotalAmount,
		&o.DiscountAmount, &o.TaxAmount, &o.FinalAmount, &o.ShippingAddress, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if couponID.Valid {
		id := couponID.Int64
		o.CouponID = &id
	}
	return &o, nil
}

func collectOrders(rows *sql.Rows) ([]entity.Order, error) {
	var orders []entity.Order
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// orderItems loads an order's items; sellerID > 0 restricts to that
// seller's products.
func (r *OrderRepository) orderItems(ctx context.Context, orderID, sellerID int64) ([]entity.OrderItem, error) {
	query := `SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.quantity, oi.price_at_purchase
		FROM order_items oi WHERE oi.order_id = ?`
	args := []interface{}{orderID}
	if sellerID > 0 {
		query += ` AND oi.product_id IN (SELECT id FROM products WHERE seller_id = ?)`
		args = append(args, sellerID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		var item entity.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.PriceAtPurchase); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func lockProducts(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]*entity.Product, error) {
	if len(ids) == 0 {
		return map[int64]*entity.Product{}, nil
	}

	// Ascending id order keeps concurrent commits from deadlocking on each
	// other's row locks.
	query := `SELECT id, seller_id, name, price, stock_quantity FROM products
		WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]*entity.Product, len(ids))
	for rows.Next() {
		p := &entity.Product{}
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &p.Price, &p.StockQuantity); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func distinctProductIDs(items []entity.CartItem) []int64 {
	seen := make(map[int64]bool, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
