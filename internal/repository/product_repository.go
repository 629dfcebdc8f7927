package repository

import (
	"context"
	"database/sql"
	"strings"

	"marketplace-service/internal/entity"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

// GetByIDs returns the products for the given ids, keyed by id. Missing ids
// are simply absent from the map.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Product, error) {
	if len(ids) == 0 {
		return map[int64]*entity.Product{}, nil
	}

	query := `SELECT id, seller_id, name, price, stock_quantity FROM products WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
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

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
