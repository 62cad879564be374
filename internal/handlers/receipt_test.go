package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pulseai/apiserver/internal/services"
	"github.com/pulseai/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReceiptTestServer(t *testing.T, ocr *fakeRecognizer, extractor *fakeExtractor) *httptest.Server {
	t.Helper()

	users := newFakeUserRepo()
	userService := services.NewUserService(users)
	receiptService := services.NewReceiptService(ocr, extractor, nil, nil)

	authMiddleware := RequireAuth(testSecret)

	router := chi.NewRouter()
	router.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, userService, testSecret)
	})
	router.Route("/api/receipt", func(r chi.Router) {
		ReceiptRouter(r, receiptService, authMiddleware)
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func uploadReceipt(t *testing.T, server *httptest.Server, token, field string, image []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, "receipt.jpg")
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/receipt/process", &body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestProcessReceiptEndpoint(t *testing.T) {
	ocr := &fakeRecognizer{text: "Campus Cafe\nTotal 150.75\n2025-10-28"}
	extractor := &fakeExtractor{
		response: `{"vendorName": "Campus Cafe", "totalAmount": 150.75, "transactionDate": "2025-10-28", "suggestedCategory": "Food & Drinks"}`,
	}
	server := newReceiptTestServer(t, ocr, extractor)
	token := registerUser(t, server, "asha@example.com")

	resp := uploadReceipt(t, server, token, formFieldReceipt, []byte("jpeg-bytes"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	extraction := decodeJSON[types.ReceiptExtraction](t, resp)
	require.NotNil(t, extraction.VendorName)
	assert.Equal(t, "Campus Cafe", *extraction.VendorName)
	require.NotNil(t, extraction.TotalAmount)
	assert.Equal(t, "150.75", extraction.TotalAmount.String())
	assert.Equal(t, "Food & Drinks", extraction.SuggestedCategory)
}

func TestProcessReceiptEndpointRequiresAuth(t *testing.T) {
	server := newReceiptTestServer(t, &fakeRecognizer{}, &fakeExtractor{})

	resp, err := http.Post(server.URL+"/api/receipt/process", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProcessReceiptEndpointMissingFile(t *testing.T) {
	server := newReceiptTestServer(t, &fakeRecognizer{}, &fakeExtractor{})
	token := registerUser(t, server, "asha@example.com")

	resp := uploadReceipt(t, server, token, "wrongField", []byte("jpeg-bytes"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no receipt image uploaded", decodeJSON[ErrorResponse](t, resp).Error)
}

func TestProcessReceiptEndpointUnreadableImage(t *testing.T) {
	ocr := &fakeRecognizer{text: ""}
	server := newReceiptTestServer(t, ocr, &fakeExtractor{})
	token := registerUser(t, server, "asha@example.com")

	resp := uploadReceipt(t, server, token, formFieldReceipt, []byte("blurry"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "could not read any text from the image", decodeJSON[ErrorResponse](t, resp).Error)
}

func TestProcessReceiptEndpointExtractionFailure(t *testing.T) {
	ocr := &fakeRecognizer{text: "some receipt text"}
	extractor := &fakeExtractor{response: "not json at all"}
	server := newReceiptTestServer(t, ocr, extractor)
	token := registerUser(t, server, "asha@example.com")

	resp := uploadReceipt(t, server, token, formFieldReceipt, []byte("jpeg-bytes"))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "AI could not process the receipt details correctly", decodeJSON[ErrorResponse](t, resp).Error)
}

func TestProcessReceiptEndpointOversizedUpload(t *testing.T) {
	server := newReceiptTestServer(t, &fakeRecognizer{text: "x"}, &fakeExtractor{})
	token := registerUser(t, server, "asha@example.com")

	resp := uploadReceipt(t, server, token, formFieldReceipt, make([]byte, maxReceiptBytes+1))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "uploaded file too large", decodeJSON[ErrorResponse](t, resp).Error)
}
