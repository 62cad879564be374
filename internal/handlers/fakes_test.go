package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/pulseai/apiserver/internal/store"
	"github.com/pulseai/apiserver/types"
)

type fakeUserRepo struct {
	users  map[int64]types.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]types.User), nextID: 1}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdateInsights(ctx context.Context, id int64, insights string, generatedAt time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.CachedInsights = insights
	at := generatedAt
	user.InsightsLastGenerated = &at
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeTransactionRepo struct {
	transactions map[int64]types.Transaction
	nextID       int64
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{transactions: make(map[int64]types.Transaction), nextID: 1}
}

func (r *fakeTransactionRepo) Get(ctx context.Context, id int64) (types.Transaction, error) {
	txn, ok := r.transactions[id]
	if !ok {
		return types.Transaction{}, store.ErrNotFound
	}
	return txn, nil
}

func (r *fakeTransactionRepo) ListByUser(ctx context.Context, userID int64) ([]types.Transaction, error) {
	result := make([]types.Transaction, 0)
	for _, txn := range r.transactions {
		if txn.UserID == userID {
			result = append(result, txn)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeTransactionRepo) Create(ctx context.Context, txn types.Transaction) (types.Transaction, error) {
	txn.ID = r.nextID
	r.nextID++
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	r.transactions[txn.ID] = txn
	return txn, nil
}

func (r *fakeTransactionRepo) Update(ctx context.Context, txn types.Transaction) (types.Transaction, error) {
	if _, ok := r.transactions[txn.ID]; !ok {
		return types.Transaction{}, store.ErrNotFound
	}
	txn.UpdatedAt = time.Now()
	r.transactions[txn.ID] = txn
	return txn, nil
}

func (r *fakeTransactionRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.transactions[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.transactions, id)
	return nil
}

type fakeGenerator struct {
	response string
	err      error
}

func (g *fakeGenerator) GenerateText(ctx context.Context, parts ...string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

type fakeRecognizer struct {
	text string
	err  error
}

func (r *fakeRecognizer) DetectText(ctx context.Context, image []byte) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.text, nil
}

type fakeExtractor struct {
	response string
	err      error
}

func (e *fakeExtractor) GenerateJSON(ctx context.Context, prompt string) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []byte(e.response), nil
}
