package types

import "github.com/shopspring/decimal"

// ReceiptExtraction is the best-effort structured guess produced from a
// receipt image. Every field except SuggestedCategory may be null when
// the extractor cannot find it; the caller decides whether to prefill a
// transaction form with the result.
type ReceiptExtraction struct {
	// VendorName is the store or vendor printed on the receipt.
	VendorName *string `json:"vendorName"`

	// TotalAmount is the final amount paid.
	TotalAmount *decimal.Decimal `json:"totalAmount"`

	// TransactionDate is the receipt date formatted as "YYYY-MM-DD".
	TransactionDate *string `json:"transactionDate"`

	// SuggestedCategory is one of RecommendedCategories, falling back
	// to FallbackCategory when no better match exists.
	SuggestedCategory string `json:"suggestedCategory"`
}
