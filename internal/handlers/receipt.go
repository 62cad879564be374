package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pulseai/apiserver/internal/services"
)

const (
	maxReceiptBytes    = 10 << 20
	formFieldReceipt   = "receiptImage"
	maxMultipartMemory = 32 << 20
)

// ReceiptHandler provides the receipt processing endpoint.
type ReceiptHandler struct {
	receiptService *services.ReceiptService
}

// NewReceiptHandler constructs a handler with the provided service.
func NewReceiptHandler(receiptService *services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ReceiptRouter registers receipt routes on the given router.
func ReceiptRouter(r chi.Router, receiptService *services.ReceiptService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewReceiptHandler(receiptService)

	r.Use(authMiddleware)
	r.Post("/process", handler.ProcessReceipt)
}

// ProcessReceipt runs the uploaded image through OCR and extraction and
// returns the structured guess.
func (h *ReceiptHandler) ProcessReceipt(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	image, contentType, err := parseReceiptFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	extraction, err := h.receiptService.Process(r.Context(), userID, image, contentType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoImage):
			writeError(w, http.StatusBadRequest, "no receipt image uploaded")
		case errors.Is(err, services.ErrUnreadableImage):
			writeError(w, http.StatusBadRequest, "could not read any text from the image")
		case errors.Is(err, services.ErrExtractionFailed):
			writeError(w, http.StatusInternalServerError, "AI could not process the receipt details correctly")
		default:
			writeError(w, http.StatusInternalServerError, "server error processing receipt")
		}
		return
	}

	writeJSON(w, http.StatusOK, extraction)
}

func parseReceiptFile(r *http.Request) ([]byte, string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[formFieldReceipt]) == 0 {
		return nil, "", errors.New("no receipt image uploaded")
	}

	fileHeader := r.MultipartForm.File[formFieldReceipt][0]
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", errors.New("failed to read receipt image")
	}

	data, err := readFileLimited(file, maxReceiptBytes)
	_ = file.Close()
	if err != nil {
		return nil, "", err
	}

	return data, fileHeader.Header.Get("Content-Type"), nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
