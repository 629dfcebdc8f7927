package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
)

// memStore implements every repository contract in memory behind one mutex,
// mirroring the atomicity the mysql repositories get from transactions:
// PlaceOrder validates everything before mutating anything, so a failed
// commit leaves no partial state.
type memStore struct {
	mu       sync.Mutex
	products map[int64]*entity.Product
	coupons  map[int64]*entity.Coupon
	carts    map[int64]*entity.Cart
	orders   map[int64]*entity.Order
	payments map[string]int64

	nextCartID   int64
	nextItemID   int64
	nextCouponID int64
	nextOrderID  int64
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]*entity.Product{},
		coupons:  map[int64]*entity.Coupon{},
		carts:    map[int64]*entity.Cart{},
		orders:   map[int64]*entity.Order{},
		payments: map[string]int64{},
	}
}

func (s *memStore) addProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

func (s *memStore) addCoupon(c entity.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		s.nextCouponID++
		c.ID = s.nextCouponID
	}
	c.Code = strings.ToUpper(c.Code)
	s.coupons[c.ID] = &c
}

func (s *memStore) setCart(userID int64, items ...entity.CartItem) *entity.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCartID++
	cart := &entity.Cart{ID: s.nextCartID, UserID: userID}
	for _, item := range items {
		s.nextItemID++
		item.ID = s.nextItemID
		item.CartID = cart.ID
		cart.Items = append(cart.Items, item)
	}
	s.carts[userID] = cart
	return cart
}

func (s *memStore) stock(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].StockQuantity
}

func (s *memStore) usageCount(couponID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupons[couponID].UsageCount
}

// ProductRepository

func (s *memStore) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]*entity.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

// CouponRepository

func (s *memStore) FindByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.coupons {
		if c.Code == strings.ToUpper(code) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindActiveForSellers(ctx context.Context, sellerIDs []int64) ([]entity.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Coupon
	for _, sellerID := range sellerIDs {
		for _, c := range s.coupons {
			if c.SellerID != sellerID || c.Expired(time.Now()) || c.Exhausted() {
				continue
			}
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) Create(ctx context.Context, coupon *entity.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.coupons {
		if c.Code == coupon.Code {
			return entity.ErrCouponCodeTaken
		}
	}
	s.nextCouponID++
	coupon.ID = s.nextCouponID
	cp := *coupon
	s.coupons[cp.ID] = &cp
	return nil
}

func (s *memStore) ListBySeller(ctx context.Context, sellerID int64) ([]entity.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Coupon
	for _, c := range s.coupons {
		if c.SellerID == sellerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) DeleteBySeller(ctx context.Context, sellerID, couponID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[couponID]
	if !ok || c.SellerID != sellerID {
		return entity.ErrCouponNotFound
	}
	delete(s.coupons, couponID)
	return nil
}

// CartRepository

func (s *memStore) GetByUserID(ctx context.Context, userID int64) (*entity.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		return nil, nil
	}
	cp := *cart
	cp.Items = append([]entity.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (s *memStore) GetOrCreate(ctx context.Context, userID int64) (*entity.Cart, error) {
	if cart, _ := s.GetByUserID(ctx, userID); cart != nil {
		return cart, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCartID++
	cart := &entity.Cart{ID: s.nextCartID, UserID: userID}
	s.carts[userID] = cart
	return cart, nil
}

func (s *memStore) UpsertItem(ctx context.Context, cartID, productID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cart := range s.carts {
		if cart.ID != cartID {
			continue
		}
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items[i].Quantity += qty
				return nil
			}
		}
		s.nextItemID++
		cart.Items = append(cart.Items, entity.CartItem{
			ID: s.nextItemID, CartID: cartID, ProductID: productID, Quantity: qty,
		})
		return nil
	}
	return fmt.Errorf("cart %d not found", cartID)
}

func (s *memStore) UpdateItemQuantity(ctx context.Context, cartID, itemID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cart := range s.carts {
		if cart.ID != cartID {
			continue
		}
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				cart.Items[i].Quantity = qty
				return nil
			}
		}
	}
	return entity.ErrCartItemNotFound
}

func (s *memStore) DeleteItem(ctx context.Context, cartID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cart := range s.carts {
		if cart.ID != cartID {
			continue
		}
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return nil
			}
		}
	}
	return entity.ErrCartItemNotFound
}

// OrderRepository

func (s *memStore) PlaceOrder(ctx context.Context, in entity.PlaceOrderInput) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.payments[in.PaymentIntentID]; taken {
		return nil, entity.ErrDuplicatePayment
	}

	subtotal := decimal.Zero
	for _, item := range in.Items {
		product, ok := s.products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", entity.ErrProductNotFound, item.ProductID)
		}
		if product.StockQuantity < item.Quantity {
			return nil, fmt.Errorf("%w for product %q", entity.ErrInsufficientStock, product.Name)
		}
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	for _, applied := range in.Coupons {
		if c, ok := s.coupons[applied.ID]; ok && c.Exhausted() {
			return nil, fmt.Errorf("%w: %s", entity.ErrUsageLimitReached, applied.Code)
		}
	}

	// All checks passed; mutate.
	for _, applied := range in.Coupons {
		if c, ok := s.coupons[applied.ID]; ok {
			c.UsageCount++
		}
	}

	s.nextOrderID++
	order := &entity.Order{
		ID:              s.nextOrderID,
		UserID:          in.UserID,
		Status:          entity.OrderProcessing,
		TotalAmount:     subtotal,
		DiscountAmount:  in.DiscountAmount,
		TaxAmount:       in.TaxAmount,
		FinalAmount:     subtotal.Sub(in.DiscountAmount).Add(in.TaxAmount),
		ShippingAddress: in.ShippingAddress,
		CreatedAt:       time.Now(),
	}
	if len(in.Coupons) == 1 {
		id := in.Coupons[0].ID
		order.CouponID = &id
	}
	for _, item := range in.Items {
		product := s.products[item.ProductID]
		product.StockQuantity -= item.Quantity
		order.Items = append(order.Items, entity.OrderItem{
			OrderID:         order.ID,
			ProductID:       item.ProductID,
			ProductName:     product.Name,
			Quantity:        item.Quantity,
			PriceAtPurchase: product.Price,
		})
	}

	s.payments[in.PaymentIntentID] = order.ID
	s.orders[order.ID] = order

	for _, cart := range s.carts {
		if cart.ID == in.CartID {
			cart.Items = nil
		}
	}
	return order, nil
}

func (s *memStore) GetForBuyer(ctx context.Context, userID, orderID int64) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, entity.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (s *memStore) ListByUser(ctx context.Context, userID int64) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *memStore) ListForSeller(ctx context.Context, sellerID int64) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Order
	for _, order := range s.orders {
		if items := s.sellerItemsLocked(order, sellerID); len(items) > 0 {
			cp := *order
			cp.Items = items
			out = append(out, cp)
		}
	}
	return out, nil
}

func (s *memStore) GetForSeller(ctx context.Context, sellerID, orderID int64) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, entity.ErrOrderNotFound
	}
	items := s.sellerItemsLocked(order, sellerID)
	if len(items) == 0 {
		return nil, entity.ErrOrderNotFound
	}
	cp := *order
	cp.Items = items
	return &cp, nil
}

func (s *memStore) UpdateStatusForSeller(ctx context.Context, sellerID, orderID int64, status entity.OrderStatus) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, entity.ErrOrderNotFound
	}
	items := s.sellerItemsLocked(order, sellerID)
	if len(items) == 0 {
		return nil, entity.ErrOrderNotFound
	}

	if status == entity.OrderCancelled && order.Status != entity.OrderCancelled {
		for _, item := range items {
			s.products[item.ProductID].StockQuantity += item.Quantity
		}
	}
	order.Status = status

	cp := *order
	cp.Items = items
	return &cp, nil
}

func (s *memStore) sellerItemsLocked(order *entity.Order, sellerID int64) []entity.OrderItem {
	var items []entity.OrderItem
	for _, item := range order.Items {
		if p, ok := s.products[item.ProductID]; ok && p.SellerID == sellerID {
			items = append(items, item)
		}
	}
	return items
}
