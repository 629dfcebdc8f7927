package service

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"marketplace-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Data-access contracts the services depend on. The mysql-backed
// implementations live in internal/repository; tests substitute in-memory
// fakes.

type ProductRepository interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Product, error)
}

type CouponRepository interface {
	// FindByCode returns (nil, nil) when no coupon matches.
	FindByCode(ctx context.Context, code string) (*entity.Coupon, error)
	FindActiveForSellers(ctx context.Context, sellerIDs []int64) ([]entity.Coupon, error)
	Create(ctx context.Context, coupon *entity.Coupon) error
	ListBySeller(ctx context.Context, sellerID int64) ([]entity.Coupon, error)
	DeleteBySeller(ctx context.Context, sellerID, couponID int64) error
}

type CartRepository interface {
	// GetByUserID returns (nil, nil) when the user has no cart.
	GetByUserID(ctx context.Context, userID int64) (*entity.Cart, error)
	GetOrCreate(ctx context.Context, userID int64) (*entity.Cart, error)
	UpsertItem(ctx context.Context, cartID, productID int64, qty int) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID int64, qty int) error
	DeleteItem(ctx context.Context, cartID, itemID int64) error
}

type OrderRepository interface {
	PlaceOrder(ctx context.Context, in entity.PlaceOrderInput) (*entity.Order, error)
	GetForBuyer(ctx context.Context, userID, orderID int64) (*entity.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.Order, error)
	ListForSeller(ctx context.Context, sellerID int64) ([]entity.Order, error)
	GetForSeller(ctx context.Context, sellerID, orderID int64) (*entity.Order, error)
	UpdateStatusForSeller(ctx context.Context, sellerID, orderID int64, status entity.OrderStatus) (*entity.Order, error)
}
