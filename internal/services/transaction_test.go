package services

import (
	"context"
	"testing"
	"time"

	"github.com/pulseai/apiserver/internal/store"
	"github.com/pulseai/apiserver/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTransaction() types.Transaction {
	return types.Transaction{
		Description: "groceries",
		Amount:      decimal.RequireFromString("250.00"),
		Category:    "Food & Drinks",
		Type:        types.TypeExpense,
		Date:        types.NewDate(2024, time.January, 15),
	}
}

func TestCreateTransactionOwnerFromCaller(t *testing.T) {
	repo := newFakeTransactionRepo()
	svc := NewTransactionService(repo, nil)

	payload := validTransaction()
	payload.UserID = 999 // must be ignored

	created, err := svc.Create(context.Background(), 1, payload)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.UserID)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestCreateTransactionValidation(t *testing.T) {
	repo := newFakeTransactionRepo()
	svc := NewTransactionService(repo, nil)

	cases := []struct {
		name   string
		mutate func(*types.Transaction)
	}{
		{"zero amount", func(txn *types.Transaction) { txn.Amount = decimal.Zero }},
		{"negative amount", func(txn *types.Transaction) { txn.Amount = decimal.NewFromInt(-5) }},
		{"blank category", func(txn *types.Transaction) { txn.Category = "  " }},
		{"bad type", func(txn *types.Transaction) { txn.Type = "transfer" }},
		{"missing date", func(txn *types.Transaction) { txn.Date = types.Date{} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := validTransaction()
			tc.mutate(&payload)

			_, err := svc.Create(context.Background(), 1, payload)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestListTransactionsScopedToOwner(t *testing.T) {
	repo := newFakeTransactionRepo()
	svc := NewTransactionService(repo, nil)

	_, err := svc.Create(context.Background(), 1, validTransaction())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 2, validTransaction())
	require.NoError(t, err)

	mine, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].UserID)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	repo := newFakeTransactionRepo()
	svc := NewTransactionService(repo, nil)

	older := validTransaction()
	older.Date = types.NewDate(2024, time.January, 10)
	newer := validTransaction()
	newer.Date = types.NewDate(2024, time.February, 1)

	_, err := svc.Create(context.Background(), 1, older)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 1, newer)
	require.NoError(t, err)

	listed, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "2024-02-01", listed[0].Date.String())
	assert.Equal(t, "2024-01-10", listed[1].Date.String())
}

func TestUpdateTransactionMergesPatch(t *testing.T) {
	repo := newFakeTransactionRepo()
	svc := NewTransactionService(repo, nil)

	created, err := svc.Create(context.Background(), 1, validTransaction())
	require.NoError(t, err)

	amount := decimal.RequireFromString("99.50")
	updated, err := svc.Update(context.Background(), 1, created.ID, types.TransactionPatch{
		Amount: &amount,
	})
	require.NoError(t, err)

	// Only the patched field changed.
	assert.Equal(t, "99.5", updated.Amount.String())
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, created.Description, updated.Description)
}

func TestUpdateTransactionNotFound(t *testing.T) {
	svc := NewTransactionService(newFakeTransactionRepo(), nil)

	_, err := svc.Update(context.Background(), 1, 42, types.TransactionPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateTransactionForbiddenForNonOwner(t *testing.T) {
	repo := newFakeTransactionRepo()
	svc := NewTransactionService(repo, nil)

	created, err := svc.Create(context.Background(), 1, validTransaction())
	require.NoError(t, err)

	desc := "sneaky"
	_, err = svc.Update(context.Background(), 2, created.ID, types.TransactionPatch{Description: &desc})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteTransactionForbiddenForNonOwner(t *testing.T) {
	repo := newFakeTransactionRepo()
	svc := NewTransactionService(repo, nil)

	created, err := svc.Create(context.Background(), 1, validTransaction())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), 2, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Still present for the owner.
	listed, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestDeleteTransactionTwiceReportsNotFound(t *testing.T) {
	repo := newFakeTransactionRepo()
	svc := NewTransactionService(repo, nil)

	created, err := svc.Create(context.Background(), 1, validTransaction())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))
	err = svc.Delete(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	listed, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCreateTransactionPublishesEvent(t *testing.T) {
	repo := newFakeTransactionRepo()
	publisher := &fakePublisher{}
	svc := NewTransactionService(repo, publisher)

	_, err := svc.Create(context.Background(), 1, validTransaction())
	require.NoError(t, err)
	assert.Equal(t, []string{"transaction.created"}, publisher.channels)
}
