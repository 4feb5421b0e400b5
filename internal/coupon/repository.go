package coupon

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Repository interface {
	// GetByCode looks a coupon up by its normalized (upper-cased) code.
	// Returns nil when no coupon matches.
	GetByCode(ctx context.Context, code string) (*Coupon, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	err := r.db.QueryRowContext(ctx,
		`SELECT code, description, discount, for_new_user, for_member, expires_at
         FROM coupons WHERE code = $1`,
		strings.ToUpper(strings.TrimSpace(code)),
	).Scan(&c.Code, &c.Description, &c.Discount, &c.ForNewUser, &c.ForMember, &c.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("select coupon: %w", err)
	}
	return &c, nil
}
