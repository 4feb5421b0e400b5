package order

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, user_id, store_id, address_id, total, payment_method, is_paid, status, coupon_code, coupon_discount, created_at)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)`
	insertItemSQL = `INSERT INTO order_items (id, order_id, product_id, quantity, price)
                 VALUES ($1, $2, $3, $4, $5)`
)

func TestRepositoryCreateBatch_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	orders := []*Order{
		{
			ID:            "order-1",
			UserID:        "user-1",
			StoreID:       "store-x",
			AddressID:     "addr-1",
			Total:         decimal.RequireFromString("25.00"),
			PaymentMethod: PaymentCashOnDelivery,
			CreatedAt:     now,
			Items: []Item{
				{ProductID: "p1", Quantity: 1, Price: decimal.RequireFromString("10.00")},
				{ProductID: "p2", Quantity: 2, Price: decimal.RequireFromString("5.00")},
			},
		},
		{
			ID:            "order-2",
			UserID:        "user-1",
			StoreID:       "store-y",
			AddressID:     "addr-1",
			Total:         decimal.RequireFromString("20.00"),
			PaymentMethod: PaymentCashOnDelivery,
			CreatedAt:     now,
			Items: []Item{
				{ProductID: "p3", Quantity: 1, Price: decimal.RequireFromString("20.00")},
			},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs("order-1", "user-1", "store-x", "addr-1", sqlmock.AnyArg(), "COD",
			false, "PLACED", "", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemSQL)).
		WithArgs(sqlmock.AnyArg(), "order-1", "p1", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemSQL)).
		WithArgs(sqlmock.AnyArg(), "order-1", "p2", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs("order-2", "user-1", "store-y", "addr-1", sqlmock.AnyArg(), "COD",
			false, "PLACED", "", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemSQL)).
		WithArgs(sqlmock.AnyArg(), "order-2", "p3", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateBatch(ctx, orders))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateBatch_AssignsMissingIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	o := &Order{
		UserID:        "user-1",
		StoreID:       "store-x",
		AddressID:     "addr-1",
		Total:         decimal.RequireFromString("5.00"),
		PaymentMethod: PaymentStripe,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs(sqlmock.AnyArg(), "user-1", "store-x", "addr-1", sqlmock.AnyArg(), "STRIPE",
			false, "PLACED", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateBatch(context.Background(), []*Order{o}))
	require.NotEmpty(t, o.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateBatch_SecondOrderErrorRollsBackAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()
	orders := []*Order{
		{ID: "order-1", UserID: "u", StoreID: "store-x", AddressID: "a",
			Total: decimal.RequireFromString("10.00"), PaymentMethod: PaymentCashOnDelivery, CreatedAt: now},
		{ID: "order-2", UserID: "u", StoreID: "store-y", AddressID: "a",
			Total: decimal.RequireFromString("20.00"), PaymentMethod: PaymentCashOnDelivery, CreatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs("order-1", "u", "store-x", "a", sqlmock.AnyArg(), "COD",
			false, "PLACED", "", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs("order-2", "u", "store-y", "a", sqlmock.AnyArg(), "COD",
			false, "PLACED", "", sqlmock.AnyArg(), now).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err = repo.CreateBatch(context.Background(), orders)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateBatch_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.CreateBatch(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMarkPaid(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ids := []string{"order-1", "order-2"}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET is_paid = TRUE WHERE id = ANY($1)`)).
		WithArgs(pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.MarkPaid(context.Background(), ids))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMarkPaid_NoIDsSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.MarkPaid(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteUnpaid_SkipsPaidOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ids := []string{"order-1"}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM orders WHERE id = ANY($1) AND NOT is_paid`)).
		WithArgs(pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteUnpaid(context.Background(), ids))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCountByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery("SELECT .+ FROM orders WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	o, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, o)
	require.NoError(t, mock.ExpectationsWereMet())
}
