package service

import (
	"context"

	"marketplace-service/internal/entity"
)

// CartService maintains the buyer's pending line items. Checkout consumes
// the cart; it never mutates it outside the commit transaction.
type CartService struct {
	cartRepo    CartRepository
	productRepo ProductRepository
}

func NewCartService(cartRepo CartRepository, productRepo ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *CartService) GetCart(ctx context.Context, userID int64) (*entity.Cart, error) {
	return s.cartRepo.GetOrCreate(ctx, userID)
}

// AddItem puts a product in the cart, merging quantities if it is already
// there.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, qty int) (*entity.Cart, error) {
	if qty < 1 {
		return nil, &entity.ValidationError{Fields: map[string]string{
			"quantity": "quantity must be at least 1",
		}}
	}

	products, err := s.productRepo.GetByIDs(ctx, []int64{productID})
	if err != nil {
		return nil, err
	}
	if _, ok := products[productID]; !ok {
		return nil, entity.ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.UpsertItem(ctx, cart.ID, productID, qty); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByUserID(ctx, userID)
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID int64, qty int) (*entity.Cart, error) {
	if qty < 1 {
		return nil, &entity.ValidationError{Fields: map[string]string{
			"quantity": "quantity must be at least 1",
		}}
	}

	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, entity.ErrCartItemNotFound
	}
	if err := s.cartRepo.UpdateItemQuantity(ctx, cart.ID, itemID, qty); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByUserID(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) (*entity.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, entity.ErrCartItemNotFound
	}
	if err := s.cartRepo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByUserID(ctx, userID)
}
