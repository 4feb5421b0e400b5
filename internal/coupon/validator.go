package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound covers both unknown and expired codes.
	ErrNotFound           = errors.New("coupon not found")
	ErrNotEligible        = errors.New("coupon valid for new users only")
	ErrMembershipRequired = errors.New("coupon valid for members only")
)

// A user with more than this many prior orders no longer counts as new.
const newUserOrderLimit = 5

// Requester describes the identity asking to redeem a coupon.
type Requester struct {
	UserID     string
	OrderCount int
	IsMember   bool
}

// Validator evaluates coupon eligibility rules. It is stateless; the coupon
// record is returned unchanged on success.
type Validator struct {
	repo Repository
	now  func() time.Time
}

func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo, now: time.Now}
}

func (v *Validator) Validate(ctx context.Context, code string, req Requester) (*Coupon, error) {
	c, err := v.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("lookup coupon: %w", err)
	}
	if c == nil || !c.ExpiresAt.After(v.now()) {
		return nil, ErrNotFound
	}

	if c.ForNewUser && req.OrderCount > newUserOrderLimit {
		return nil, ErrNotEligible
	}
	if c.ForMember && !req.IsMember {
		return nil, ErrMembershipRequired
	}

	return c, nil
}
