package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/gateway"
	"marketplace-service/internal/service"
)

// Stub repositories covering just the paths the handler tests walk.

type stubProductRepo struct{ products map[int64]*entity.Product }

func (s stubProductRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Product, error) {
	out := map[int64]*entity.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type stubCouponRepo struct{}

func (stubCouponRepo) FindByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	return nil, nil
}
func (stubCouponRepo) FindActiveForSellers(ctx context.Context, sellerIDs []int64) ([]entity.Coupon, error) {
	return nil, nil
}
func (stubCouponRepo) Create(ctx context.Context, coupon *entity.Coupon) error { return nil }
func (stubCouponRepo) ListBySeller(ctx context.Context, sellerID int64) ([]entity.Coupon, error) {
	return nil, nil
}
func (stubCouponRepo) DeleteBySeller(ctx context.Context, sellerID, couponID int64) error {
	return nil
}

type stubCartRepo struct{ cart *entity.Cart }

func (s stubCartRepo) GetByUserID(ctx context.Context, userID int64) (*entity.Cart, error) {
	return s.cart, nil
}
func (s stubCartRepo) GetOrCreate(ctx context.Context, userID int64) (*entity.Cart, error) {
	return s.cart, nil
}
func (stubCartRepo) UpsertItem(ctx context.Context, cartID, productID int64, qty int) error {
	return nil
}
func (stubCartRepo) UpdateItemQuantity(ctx context.Context, cartID, itemID int64, qty int) error {
	return nil
}
func (stubCartRepo) DeleteItem(ctx context.Context, cartID, itemID int64) error { return nil }

type stubOrderRepo struct{ err error }

func (s stubOrderRepo) PlaceOrder(ctx context.Context, in entity.PlaceOrderInput) (*entity.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Order{
		ID:          1,
		UserID:      in.UserID,
		Status:      entity.OrderProcessing,
		TotalAmount: decimal.RequireFromString("100.00"),
		FinalAmount: decimal.RequireFromString("110.00"),
	}, nil
}
func (stubOrderRepo) GetForBuyer(ctx context.Context, userID, orderID int64) (*entity.Order, error) {
	return nil, entity.ErrOrderNotFound
}
func (stubOrderRepo) ListByUser(ctx context.Context, userID int64) ([]entity.Order, error) {
	return nil, nil
}
func (stubOrderRepo) ListForSeller(ctx context.Context, sellerID int64) ([]entity.Order, error) {
	return nil, nil
}
func (stubOrderRepo) GetForSeller(ctx context.Context, sellerID, orderID int64) (*entity.Order, error) {
	return nil, entity.ErrOrderNotFound
}
func (stubOrderRepo) UpdateStatusForSeller(ctx context.Context, sellerID, orderID int64, status entity.OrderStatus) (*entity.Order, error) {
	return nil, entity.ErrOrderNotFound
}

func newCheckoutHandler(cart *entity.Cart, orderErr error) (*CheckoutHandler, *gateway.InMemoryGateway) {
	products := stubProductRepo{products: map[int64]*entity.Product{
		1: {ID: 1, SellerID: 10, Name: "Lamp", Price: decimal.RequireFromString("100.00"), StockQuantity: 5},
	}}
	gw := gateway.NewInMemoryGateway()
	pricing := service.NewPricingService(products, stubCouponRepo{})
	checkout := service.NewCheckoutService(stubCartRepo{cart: cart}, stubOrderRepo{err: orderErr}, pricing, gw, "memory", nil, nil)
	return NewCheckoutHandler(checkout), gw
}

// buyerContext builds an echo context carrying an authenticated token, the
// shape the jwt middleware leaves behind.
func buyerContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaims{UserID: 1, Name: "Dana"}))
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateIntentEmptyCart(t *testing.T) {
	h, _ := newCheckoutHandler(nil, nil)
	e := echo.New()
	c, rec := buyerContext(e, http.MethodPost, "/checkout/intent", `{}`)

	require.NoError(t, h.CreateIntent(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "cart is empty", body["message"])
}

func TestCreateIntentReturnsClientSecret(t *testing.T) {
	cart := &entity.Cart{ID: 3, UserID: 1, Items: []entity.CartItem{{ID: 1, CartID: 3, ProductID: 1, Quantity: 1}}}
	h, _ := newCheckoutHandler(cart, nil)
	e := echo.New()
	c, rec := buyerContext(e, http.MethodPost, "/checkout/intent", `{"coupon_codes":[]}`)

	require.NoError(t, h.CreateIntent(c))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Contains(t, data["clientSecret"], "_secret_")
	assert.Equal(t, "110", data["amount"])
}

func TestPlaceOrderRequiresIntentID(t *testing.T) {
	h, _ := newCheckoutHandler(nil, nil)
	e := echo.New()
	c, rec := buyerContext(e, http.MethodPost, "/checkout/place-order", `{"payment_intent_id":" "}`)

	require.NoError(t, h.PlaceOrder(c))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "payment_intent_id")
}

func TestPlaceOrderCreated(t *testing.T) {
	cart := &entity.Cart{ID: 3, UserID: 1, Items: []entity.CartItem{{ID: 1, CartID: 3, ProductID: 1, Quantity: 1}}}
	h, gw := newCheckoutHandler(cart, nil)
	e := echo.New()

	intent, err := gw.CreateIntent(context.Background(), 11000, "usd", map[string]string{
		"version": "1", "user_id": "1", "cart_id": "3",
		"discount_amount": "0.00", "tax_amount": "10.00", "coupons": "[]",
	})
	require.NoError(t, err)
	require.NoError(t, gw.SucceedIntent(intent.ID))

	payload := `{"payment_intent_id":"` + intent.ID + `","shipping_address":{"name":"Dana Reyes","phone":"+1-555-0100","address":"14 Harbor Street","city":"Portland"}}`
	c, rec := buyerContext(e, http.MethodPost, "/checkout/place-order", payload)

	require.NoError(t, h.PlaceOrder(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["order_id"])
}

func TestPlaceOrderDuplicateIntent(t *testing.T) {
	cart := &entity.Cart{ID: 3, UserID: 1, Items: []entity.CartItem{{ID: 1, CartID: 3, ProductID: 1, Quantity: 1}}}
	h, gw := newCheckoutHandler(cart, entity.ErrDuplicatePayment)
	e := echo.New()

	intent, err := gw.CreateIntent(context.Background(), 11000, "usd", map[string]string{
		"version": "1", "user_id": "1", "cart_id": "3",
		"discount_amount": "0.00", "tax_amount": "10.00", "coupons": "[]",
	})
	require.NoError(t, err)
	require.NoError(t, gw.SucceedIntent(intent.ID))

	payload := `{"payment_intent_id":"` + intent.ID + `","shipping_address":{"name":"Dana Reyes","phone":"+1-555-0100","address":"14 Harbor Street","city":"Portland"}}`
	c, rec := buyerContext(e, http.MethodPost, "/checkout/place-order", payload)

	require.NoError(t, h.PlaceOrder(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "payment has already been used for an order", body["message"])
}

func TestRequireSeller(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	buyer, rec := buyerContext(e, http.MethodGet, "/seller/orders", "")
	require.NoError(t, RequireSeller(next)(buyer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/seller/orders", nil)
	sellerRec := httptest.NewRecorder()
	seller := e.NewContext(req, sellerRec)
	seller.Set("user", jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaims{UserID: 2, Role: RoleSeller}))
	require.NoError(t, RequireSeller(next)(seller))
	assert.Equal(t, http.StatusOK, sellerRec.Code)
}
