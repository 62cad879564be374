package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pulseai/apiserver/internal/services"
	"github.com/pulseai/apiserver/internal/store"
	"github.com/pulseai/apiserver/types"
	"github.com/shopspring/decimal"
)

// TransactionHandler provides HTTP handlers for transactions.
type TransactionHandler struct {
	transactionService *services.TransactionService
}

// NewTransactionHandler constructs a handler with the provided service.
func NewTransactionHandler(transactionService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// TransactionRouter registers transaction routes on the given router.
// All routes require authentication.
func TransactionRouter(r chi.Router, transactionService *services.TransactionService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewTransactionHandler(transactionService)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateTransaction)
	r.Get("/", handler.ListTransactions)
	r.Route("/{transactionID}", func(r chi.Router) {
		r.Put("/", handler.UpdateTransaction)
		r.Delete("/", handler.DeleteTransaction)
	})
}

// TransactionRequest is the JSON payload for creating a transaction.
type TransactionRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Date        types.Date      `json:"date"`
}

// DeleteResponse confirms a removal.
type DeleteResponse struct {
	Msg string `json:"msg"`
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.transactionService.Create(r.Context(), userID, types.Transaction{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Type:        req.Type,
		Date:        req.Date,
	})
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Reason)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	transactions, err := h.transactionService.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	writeJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseTransactionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch types.TransactionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.transactionService.Update(r.Context(), userID, id, patch)
	if err != nil {
		writeTransactionError(w, err, "failed to update transaction")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseTransactionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.transactionService.Delete(r.Context(), userID, id); err != nil {
		writeTransactionError(w, err, "failed to delete transaction")
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Msg: "transaction removed"})
}

func writeTransactionError(w http.ResponseWriter, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "not authorized")
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Reason)
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func parseTransactionID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "transactionID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid transaction id")
	}
	return id, nil
}
