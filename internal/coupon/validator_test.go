package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCouponRepo struct {
	coupon *Coupon
	err    error
	asked  string
}

func (f *fakeCouponRepo) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	f.asked = code
	return f.coupon, f.err
}

func fixedValidator(repo Repository, now time.Time) *Validator {
	v := NewValidator(repo)
	v.now = func() time.Time { return now }
	return v
}

func TestValidate_UnknownCode(t *testing.T) {
	repo := &fakeCouponRepo{}
	v := fixedValidator(repo, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	_, err := v.Validate(context.Background(), "nope", Requester{UserID: "u1"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidate_ExpiredCoupon(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeCouponRepo{coupon: &Coupon{
		Code:      "OLD10",
		Discount:  decimal.NewFromInt(10),
		ExpiresAt: now.Add(-time.Hour),
	}}
	v := fixedValidator(repo, now)

	_, err := v.Validate(context.Background(), "OLD10", Requester{UserID: "u1"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidate_NewUserRule(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeCouponRepo{coupon: &Coupon{
		Code:       "WELCOME",
		Discount:   decimal.NewFromInt(15),
		ForNewUser: true,
		ExpiresAt:  now.Add(24 * time.Hour),
	}}
	v := fixedValidator(repo, now)

	// 6 prior orders disqualifies
	_, err := v.Validate(context.Background(), "WELCOME", Requester{UserID: "u1", OrderCount: 6})
	require.ErrorIs(t, err, ErrNotEligible)

	// 0 prior orders is fine
	c, err := v.Validate(context.Background(), "WELCOME", Requester{UserID: "u2", OrderCount: 0})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", c.Code)

	// exactly 5 is still allowed
	_, err = v.Validate(context.Background(), "WELCOME", Requester{UserID: "u3", OrderCount: 5})
	require.NoError(t, err)
}

func TestValidate_MemberRule(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeCouponRepo{coupon: &Coupon{
		Code:      "PLUS20",
		Discount:  decimal.NewFromInt(20),
		ForMember: true,
		ExpiresAt: now.Add(24 * time.Hour),
	}}
	v := fixedValidator(repo, now)

	_, err := v.Validate(context.Background(), "PLUS20", Requester{UserID: "u1"})
	require.ErrorIs(t, err, ErrMembershipRequired)

	c, err := v.Validate(context.Background(), "PLUS20", Requester{UserID: "u1", IsMember: true})
	require.NoError(t, err)
	assert.True(t, c.ForMember)
}

func TestValidate_ReturnsCouponUnchanged(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	orig := &Coupon{
		Code:      "SAVE10",
		Discount:  decimal.NewFromInt(10),
		ExpiresAt: now.Add(24 * time.Hour),
	}
	repo := &fakeCouponRepo{coupon: orig}
	v := fixedValidator(repo, now)

	c, err := v.Validate(context.Background(), "save10", Requester{UserID: "u1"})
	require.NoError(t, err)
	assert.Same(t, orig, c)
}

func TestValidate_LookupError(t *testing.T) {
	repo := &fakeCouponRepo{err: errors.New("db down")}
	v := NewValidator(repo)

	_, err := v.Validate(context.Background(), "SAVE10", Requester{UserID: "u1"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
