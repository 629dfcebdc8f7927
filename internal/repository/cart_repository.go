package repository

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-service/internal/entity"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db}
}

// GetByUserID loads the user's cart with its items. Returns (nil, nil) when
// the user has no cart yet.
func (r *CartRepository) GetByUserID(ctx context.Context, userID int64) (*entity.Cart, error) {
	cart := &entity.Cart{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_id = ?`, userID).Scan(&cart.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cart_id, product_id, quantity FROM cart_items WHERE cart_id = ?`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, rows.Err()
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID int64) (*entity.Cart, error) {
	cart, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO carts (user_id) VALUES (?)`, userID)
	if err != nil {
		// Concurrent first-add for the same user; the row exists now.
		if isDuplicateKey(err) {
			return r.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &entity.Cart{ID: id, UserID: userID}, nil
}

// UpsertItem adds a product to the cart, merging quantities when the product
// is already present.
func (r *CartRepository) UpsertItem(ctx context.Context, cartID, productID int64, qty int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
		cartID, productID, qty)
	return err
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID int64, qty int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ? WHERE id = ? AND cart_id = ?`, qty, itemID, cartID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrCartItemNotFound
	}
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, cartID, itemID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = ? AND cart_id = ?`, itemID, cartID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrCartItemNotFound
	}
	return nil
}
