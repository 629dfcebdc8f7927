package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/entity"
)

// seedOrder commits one paid order straight through the store.
func seedOrder(t *testing.T, store *memStore, userID int64, intentID string, items ...entity.CartItem) *entity.Order {
	t.Helper()
	cart := store.setCart(userID, items...)
	order, err := store.PlaceOrder(context.Background(), entity.PlaceOrderInput{
		UserID:          userID,
		CartID:          cart.ID,
		Items:           cart.Items,
		PaymentIntentID: intentID,
		Gateway:         "memory",
		ShippingAddress: `{"name":"Dana Reyes"}`,
	})
	require.NoError(t, err)
	return order
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	store := newMemStore()
	svc := NewOrderService(store, nil)

	_, err := svc.UpdateStatus(context.Background(), 10, 1, "refunded")

	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")
}

func TestUpdateStatus(t *testing.T) {
	store := newMemStore()
	store.addProduct(entity.Product{ID: 1, SellerID: 10, Name: "Lamp", Price: dec("100.00"), StockQuantity: 5})
	order := seedOrder(t, store, 1, "pi_a", entity.CartItem{ProductID: 1, Quantity: 2})

	svc := NewOrderService(store, nil)
	updated, err := svc.UpdateStatus(context.Background(), 10, order.ID, "shipped")
	require.NoError(t, err)

	assert.Equal(t, entity.OrderShipped, updated.Status)
	assert.Equal(t, 3, store.stock(1), "plain transitions do not touch stock")
}

func TestCancelRestoresStockOnce(t *testing.T) {
	store := newMemStore()
	store.addProduct(entity.Product{ID: 1, SellerID: 10, Name: "Lamp", Price: dec("100.00"), StockQuantity: 5})
	order := seedOrder(t, store, 1, "pi_a", entity.CartItem{ProductID: 1, Quantity: 2})
	require.Equal(t, 3, store.stock(1))

	svc := NewOrderService(store, nil)
	ctx := context.Background()

	updated, err := svc.UpdateStatus(ctx, 10, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, updated.Status)
	assert.Equal(t, 5, store.stock(1), "cancelling restores the ordered quantity")

	// Cancelling an already-cancelled order must not restock again.
	_, err = svc.UpdateStatus(ctx, 10, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, 5, store.stock(1))
}

func TestCancelRestoresOnlyOwnItems(t *testing.T) {
	store := newMemStore()
	store.addProduct(entity.Product{ID: 1, SellerID: 10, Name: "Lamp", Price: dec("60.00"), StockQuantity: 5})
	store.addProduct(entity.Product{ID: 2, SellerID: 20, Name: "Rug", Price: dec("40.00"), StockQuantity: 5})
	order := seedOrder(t, store, 1, "pi_a",
		entity.CartItem{ProductID: 1, Quantity: 1},
		entity.CartItem{ProductID: 2, Quantity: 1},
	)

	svc := NewOrderService(store, nil)
	_, err := svc.UpdateStatus(context.Background(), 10, order.ID, "cancelled")
	require.NoError(t, err)

	assert.Equal(t, 5, store.stock(1), "cancelling seller's item restocked")
	assert.Equal(t, 4, store.stock(2), "other seller's item untouched")
}

func TestSellerOrderVisibility(t *testing.T) {
	store := newMemStore()
	store.addProduct(entity.Product{ID: 1, SellerID: 10, Name: "Lamp", Price: dec("60.00"), StockQuantity: 5})
	store.addProduct(entity.Product{ID: 2, SellerID: 20, Name: "Rug", Price: dec("40.00"), StockQuantity: 5})
	order := seedOrder(t, store, 1, "pi_a",
		entity.CartItem{ProductID: 1, Quantity: 1},
		entity.CartItem{ProductID: 2, Quantity: 1},
	)

	svc := NewOrderService(store, nil)
	ctx := context.Background()

	got, err := svc.GetSellerOrder(ctx, 10, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1, "seller sees only their own lines")
	assert.Equal(t, int64(1), got.Items[0].ProductID)

	// A seller with no items in the order cannot see or touch it.
	_, err = svc.GetSellerOrder(ctx, 30, order.ID)
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
	_, err = svc.UpdateStatus(ctx, 30, order.ID, "shipped")
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}

func TestBuyerOrderVisibility(t *testing.T) {
	store := newMemStore()
	store.addProduct(entity.Product{ID: 1, SellerID: 10, Name: "Lamp", Price: dec("60.00"), StockQuantity: 5})
	order := seedOrder(t, store, 1, "pi_a", entity.CartItem{ProductID: 1, Quantity: 1})

	svc := NewOrderService(store, nil)
	ctx := context.Background()

	got, err := svc.GetOrder(ctx, 1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetOrder(ctx, 2, order.ID)
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)

	mine, err := svc.ListOrders(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
