package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"marketplace-service/internal/entity"
)

type CouponRepository struct {
	db *sql.DB
}

func NewCouponRepository(db *sql.DB) *CouponRepository {
	return &CouponRepository{db}
}

const couponColumns = `id, seller_id, code, type, value, min_order_value, usage_limit, usage_count, expires_at, created_at`

// FindByCode looks a coupon up by its uppercased code. Returns (nil, nil)
// when no coupon matches; the caller decides which business error applies.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = ?`, code)
	coupon, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return coupon, err
}

// FindActiveForSellers returns every redeemable coupon for the given
// sellers: unexpired (date-only) and not exhausted.
func (r *CouponRepository) FindActiveForSellers(ctx context.Context, sellerIDs []int64) ([]entity.Coupon, error) {
	if len(sellerIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE seller_id IN (` + placeholders(len(sellerIDs)) + `)
		AND (expires_at IS NULL OR expires_at >= CURDATE())
		AND (usage_limit IS NULL OR usage_count < usage_limit)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, int64Args(sellerIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []entity.Coupon
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *coupon)
	}
	return coupons, rows.Err()
}

func (r *CouponRepository) Create(ctx context.Context, coupon *entity.Coupon) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO coupons (seller_id, code, type, value, min_order_value, usage_limit, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		coupon.SellerID, coupon.Code, string(coupon.Type), coupon.Value, coupon.MinOrderValue,
		nullableInt(coupon.UsageLimit), nullableTime(coupon.ExpiresAt))
	if err != nil {
		if isDuplicateKey(err) {
			return entity.ErrCouponCodeTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	coupon.ID = id
	return nil
}

func (r *CouponRepository) ListBySeller(ctx context.Context, sellerID int64) ([]entity.Coupon, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE seller_id = ? ORDER BY created_at DESC`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []entity.Coupon
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *coupon)
	}
	return coupons, rows.Err()
}

// DeleteBySeller removes a coupon only if the seller owns it, so a coupon
// belonging to someone else is indistinguishable from a missing one.
func (r *CouponRepository) DeleteBySeller(ctx context.Context, sellerID, couponID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM coupons WHERE id = ? AND seller_id = ?`, couponID, sellerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrCouponNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCoupon(row rowScanner) (*entity.Coupon, error) {
	var c entity.Coupon
	var usageLimit sql.NullInt64
	var expiresAt sql.NullTime
	err := row.Scan(&c.ID, &c.SellerID, &c.Code, &c.Type, &c.Value, &c.MinOrderValue,
		&usageLimit, &c.UsageCount, &expiresAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		c.UsageLimit = &limit
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		c.ExpiresAt = &t
	}
	return &c, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
