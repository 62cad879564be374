package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/pulseai/apiserver/internal/mq"
	"github.com/pulseai/apiserver/internal/storage"
	"github.com/pulseai/apiserver/types"
)

// ErrNoImage is returned when no receipt image was supplied.
var ErrNoImage = errors.New("no receipt image uploaded")

// ErrUnreadableImage is returned when OCR recovered no text.
var ErrUnreadableImage = errors.New("could not read any text from the image")

// ErrExtractionFailed is returned when the extractor's response is not
// the expected structured shape.
var ErrExtractionFailed = errors.New("could not extract receipt details")

// TextRecognizer recovers printed text from an image.
type TextRecognizer interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}

// StructuredExtractor produces a strict-JSON answer to a prompt.
type StructuredExtractor interface {
	GenerateJSON(ctx context.Context, prompt string) ([]byte, error)
}

// ReceiptService pipes an uploaded receipt image through OCR and a
// structured-extraction call, returning a best-effort guess at the
// transaction fields. Stateless; nothing is cached between requests.
type ReceiptService struct {
	ocr       TextRecognizer
	extractor StructuredExtractor
	archive   *storage.Archive
	events    EventPublisher
}

// NewReceiptService constructs the service. archive and events may be
// nil when the corresponding backends are not configured.
func NewReceiptService(ocr TextRecognizer, extractor StructuredExtractor, archive *storage.Archive, events EventPublisher) *ReceiptService {
	return &ReceiptService{
		ocr:       ocr,
		extractor: extractor,
		archive:   archive,
		events:    events,
	}
}

// Process runs the OCR and extraction pipeline on one receipt image.
// The result is advisory; the caller decides whether to use it.
func (s *ReceiptService) Process(ctx context.Context, userID int64, image []byte, contentType string) (types.ReceiptExtraction, error) {
	if len(image) == 0 {
		return types.ReceiptExtraction{}, ErrNoImage
	}

	text, err := s.ocr.DetectText(ctx, image)
	if err != nil {
		return types.ReceiptExtraction{}, fmt.Errorf("recognize receipt text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return types.ReceiptExtraction{}, ErrUnreadableImage
	}

	raw, err := s.extractor.GenerateJSON(ctx, buildExtractionPrompt(text))
	if err != nil {
		return types.ReceiptExtraction{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var extraction types.ReceiptExtraction
	if err := json.Unmarshal(raw, &extraction); err != nil {
		return types.ReceiptExtraction{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	normalizeExtraction(&extraction)

	key := s.archiveImage(ctx, userID, image, contentType)
	s.publishProcessed(ctx, userID, key)

	return extraction, nil
}

func buildExtractionPrompt(receiptText string) string {
	return fmt.Sprintf(`You are a receipt processor for a personal expense tracker.
Analyze the following text extracted from a receipt and pull out the vendor name, the total amount paid, the transaction date, and the most likely category.

Receipt text:
%s

Allowed categories: %s

Instructions:
- Find the single most likely vendor/store name.
- Find the final total amount paid as a number. If multiple totals exist, pick the most prominent one, typically at the end.
- Find the transaction date and format it strictly as YYYY-MM-DD. Use null if no date is clearly identifiable.
- Suggest the single most appropriate category from the allowed list. Prefer expense categories unless income is explicit. If unsure, use %q.
- Respond ONLY with a valid JSON object with exactly these keys: "vendorName" (string or null), "totalAmount" (number or null), "transactionDate" (string "YYYY-MM-DD" or null), "suggestedCategory" (string from the list).
- Use null for any value that cannot be found. Do not add any text outside the JSON object.`,
		receiptText,
		strings.Join(types.RecommendedCategories, ", "),
		types.FallbackCategory,
	)
}

// normalizeExtraction enforces the allowlist and the date format on the
// model's answer.
func normalizeExtraction(extraction *types.ReceiptExtraction) {
	category := strings.TrimSpace(extraction.SuggestedCategory)
	extraction.SuggestedCategory = types.FallbackCategory
	for _, allowed := range types.RecommendedCategories {
		if strings.EqualFold(category, allowed) {
			extraction.SuggestedCategory = allowed
			break
		}
	}

	if extraction.VendorName != nil && strings.TrimSpace(*extraction.VendorName) == "" {
		extraction.VendorName = nil
	}

	if extraction.TransactionDate != nil {
		date, err := types.ParseDate(*extraction.TransactionDate)
		if err != nil {
			extraction.TransactionDate = nil
		} else {
			formatted := date.String()
			extraction.TransactionDate = &formatted
		}
	}
}

// archiveImage stores a copy of the upload when an archive is
// configured. Failures are logged, never surfaced: archiving is
// best-effort and the extraction result is already in hand.
func (s *ReceiptService) archiveImage(ctx context.Context, userID int64, image []byte, contentType string) string {
	if s.archive == nil {
		return ""
	}
	key := fmt.Sprintf("receipts/%d/%s", userID, newReceiptID())
	if err := s.archive.SaveReceipt(ctx, key, image, contentType); err != nil {
		log.Printf("archive receipt image: %v", err)
		return ""
	}
	return key
}

func (s *ReceiptService) publishProcessed(ctx context.Context, userID int64, objectKey string) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"user_id":    strconv.FormatInt(userID, 10),
		"object_key": objectKey,
	})
	if err != nil {
		return
	}
	if _, err := s.events.Publish(ctx, mq.ChannelReceiptProcessed, payload, nil); err != nil {
		log.Printf("publish %s event: %v", mq.ChannelReceiptProcessed, err)
	}
}

func newReceiptID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "receipt"
	}
	return hex.EncodeToString(buf[:])
}
