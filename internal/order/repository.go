package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository interface {
	// CreateBatch persists all orders of one checkout, items included, inside
	// a single transaction. Either every order is committed or none is.
	CreateBatch(ctx context.Context, orders []*Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	// ListVisibleByUser returns the user's orders a shopper should see:
	// cash-on-delivery orders, and gateway orders that have been paid.
	// Newest first, with items and address expanded.
	ListVisibleByUser(ctx context.Context, userID string) ([]Order, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	// MarkPaid sets is_paid on every given order. Orders already paid or
	// already gone are skipped silently, so redelivery is safe.
	MarkPaid(ctx context.Context, orderIDs []string) error
	// DeleteUnpaid removes the given orders unless they were paid. Paid
	// orders are sticky: a late cancellation never undoes a success.
	DeleteUnpaid(ctx context.Context, orderIDs []string) error

	GetAddress(ctx context.Context, addressID string) (*Address, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) CreateBatch(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, o := range orders {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		if o.Status == "" {
			o.Status = StatusPlaced
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO orders (id, user_id, store_id, address_id, total, payment_method, is_paid, status, coupon_code, coupon_discount, created_at)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)`,
			o.ID, o.UserID, o.StoreID, o.AddressID, o.Total, string(o.PaymentMethod),
			o.IsPaid, string(o.Status), o.CouponCode, o.CouponDiscount, o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, it := range o.Items {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (id, order_id, product_id, quantity, price)
                 VALUES ($1, $2, $3, $4, $5)`,
				uuid.NewString(), o.ID, it.ProductID, it.Quantity, it.Price,
			)
			if err != nil {
				return fmt.Errorf("insert order_item: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var (
		o          Order
		couponCode sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, store_id, address_id, total, payment_method, is_paid, status, coupon_code, coupon_discount, created_at
         FROM orders WHERE id = $1`,
		orderID,
	).Scan(&o.ID, &o.UserID, &o.StoreID, &o.AddressID, &o.Total, &o.PaymentMethod,
		&o.IsPaid, &o.Status, &couponCode, &o.CouponDiscount, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	o.CouponCode = couponCode.String

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, quantity, price FROM order_items WHERE order_id = $1`,
		o.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &o, nil
}

func (r *repo) ListVisibleByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, store_id, address_id, total, payment_method, is_paid, status, coupon_code, coupon_discount, created_at
         FROM orders
         WHERE user_id = $1
           AND (payment_method = 'COD' OR (payment_method = 'STRIPE' AND is_paid))
         ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var (
			o          Order
			couponCode sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.StoreID, &o.AddressID, &o.Total, &o.PaymentMethod,
			&o.IsPaid, &o.Status, &couponCode, &o.CouponDiscount, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.CouponCode = couponCode.String
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		itemRows, err := r.db.QueryContext(ctx,
			`SELECT oi.product_id, COALESCE(p.name, ''), oi.quantity, oi.price
             FROM order_items oi
             LEFT JOIN products p ON p.id = oi.product_id
             WHERE oi.order_id = $1`,
			orders[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("select items: %w", err)
		}
		for itemRows.Next() {
			var it Item
			if err := itemRows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
				itemRows.Close()
				return nil, fmt.Errorf("scan item: %w", err)
			}
			orders[i].Items = append(orders[i].Items, it)
		}
		itemRows.Close()

		addr, err := r.GetAddress(ctx, orders[i].AddressID)
		if err != nil {
			return nil, err
		}
		orders[i].Address = addr
	}

	return orders, nil
}

func (r *repo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *repo) MarkPaid(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET is_paid = TRUE WHERE id = ANY($1)`,
		pq.Array(orderIDs),
	)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	return nil
}

func (r *repo) DeleteUnpaid(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = ANY($1) AND NOT is_paid`,
		pq.Array(orderIDs),
	)
	if err != nil {
		return fmt.Errorf("delete unpaid: %w", err)
	}
	return nil
}

func (r *repo) GetAddress(ctx context.Context, addressID string) (*Address, error) {
	var a Address
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, street, city, zip, country, phone
         FROM addresses WHERE id = $1`,
		addressID,
	).Scan(&a.ID, &a.UserID, &a.Name, &a.Street, &a.City, &a.Zip, &a.Country, &a.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select address: %w", err)
	}
	return &a, nil
}
