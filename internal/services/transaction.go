package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/pulseai/apiserver/internal/mq"
	"github.com/pulseai/apiserver/types"
)

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Get(ctx context.Context, id int64) (types.Transaction, error)
	ListByUser(ctx context.Context, userID int64) ([]types.Transaction, error)
	Create(ctx context.Context, txn types.Transaction) (types.Transaction, error)
	Update(ctx context.Context, txn types.Transaction) (types.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// EventPublisher publishes domain events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// TransactionService encapsulates transaction use-cases. All operations
// are scoped to the authenticated owner; cross-owner access fails with
// ErrForbidden rather than appearing absent.
type TransactionService struct {
	repo   TransactionRepository
	events EventPublisher
}

// NewTransactionService constructs the service. events may be nil when
// no broker is configured.
func NewTransactionService(repo TransactionRepository, events EventPublisher) *TransactionService {
	return &TransactionService{repo: repo, events: events}
}

// Create stores a new transaction owned by userID. The owner is always
// the authenticated caller, never taken from the payload.
func (s *TransactionService) Create(ctx context.Context, userID int64, txn types.Transaction) (types.Transaction, error) {
	txn.ID = 0
	txn.UserID = userID
	txn.Description = strings.TrimSpace(txn.Description)
	txn.Category = strings.TrimSpace(txn.Category)

	if err := txn.Validate(); err != nil {
		return types.Transaction{}, invalid(err.Error())
	}

	created, err := s.repo.Create(ctx, txn)
	if err != nil {
		return types.Transaction{}, err
	}

	s.publish(ctx, mq.ChannelTransactionCreated, created)
	return created, nil
}

// List returns all transactions owned by userID, newest first.
func (s *TransactionService) List(ctx context.Context, userID int64) ([]types.Transaction, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update merges the patch into the caller's transaction.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, patch types.TransactionPatch) (types.Transaction, error) {
	txn, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Transaction{}, err
	}
	if txn.UserID != userID {
		return types.Transaction{}, ErrForbidden
	}

	patch.Apply(&txn)
	if err := txn.Validate(); err != nil {
		return types.Transaction{}, invalid(err.Error())
	}

	return s.repo.Update(ctx, txn)
}

// Delete removes the caller's transaction. Deleting an already-deleted
// id reports not-found again.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	txn, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if txn.UserID != userID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

func (s *TransactionService) publish(ctx context.Context, channel string, txn types.Transaction) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(txn)
	if err != nil {
		return
	}
	attrs := map[string]string{"user_id": strconv.FormatInt(txn.UserID, 10)}
	if _, err := s.events.Publish(ctx, channel, payload, attrs); err != nil {
		log.Printf("publish %s event: %v", channel, err)
	}
}
