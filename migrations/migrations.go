package migrations

import (
	"database/sql"
	"time"
)

// AutoMigrate creates the checkout tables if they do not exist. The UNIQUE
// keys carry invariants the service relies on: payments.transaction_id keeps
// one external charge from funding two orders, coupons.code keeps codes
// unique across sellers.
func AutoMigrate(db *sql.DB, retries int) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			seller_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			stock_quantity INT NOT NULL DEFAULT 0,
			CHECK (stock_quantity >= 0)
		);`,
		`CREATE TABLE IF NOT EXISTS carts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			cart_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			quantity INT NOT NULL,
			UNIQUE KEY cart_product (cart_id, product_id),
			FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS coupons (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			seller_id BIGINT NOT NULL,
			code VARCHAR(50) NOT NULL UNIQUE,
			type VARCHAR(20) NOT NULL,
			value DECIMAL(10,2) NOT NULL,
			min_order_value DECIMAL(10,2) NOT NULL DEFAULT 0,
			usage_limit INT NULL,
			usage_count INT NOT NULL DEFAULT 0,
			expires_at DATE NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			coupon_id BIGINT NULL,
			status VARCHAR(20) NOT NULL,
			total_amount DECIMAL(10,2) NOT NULL,
			discount_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			tax_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			final_amount DECIMAL(10,2) NOT NULL,
			shipping_address TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			quantity INT NOT NULL,
			price_at_purchase DECIMAL(10,2) NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS payments (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			amount DECIMAL(10,2) NOT NULL,
			gateway VARCHAR(50) NOT NULL,
			transaction_id VARCHAR(255) NOT NULL UNIQUE,
			status VARCHAR(20) NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		);`,
	}

	for _, query := range queries {
		_, err := db.Exec(query)
		for i := 0; err != nil && i < retries; i++ {
			time.Sleep(1 * time.Second)
			_, err = db.Exec(query)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
