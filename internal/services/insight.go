package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/pulseai/apiserver/internal/ai"
	"github.com/pulseai/apiserver/internal/mq"
	"github.com/pulseai/apiserver/types"
)

// minTransactionsForInsights is how many transactions a user needs
// before the generator is worth calling.
const minTransactionsForInsights = 3

// Fixed user-facing insight lines. None of these are ever cached.
const (
	msgNotEnoughData  = "• Add a few more expenses or income entries to get detailed insights!"
	msgGenerateFailed = "• Sorry, couldn't generate specific insights this time. Try again later!"
	msgSafetyBlocked  = "• Insights couldn't be generated due to content safety filters."
)

const insightPrompt = `You are PulseAI, a sharp, no-fluff personal finance assistant.
Analyze the user's transaction data below and produce 3-4 high-impact, practical tips.

Rules:
- Every tip must be a NEW, actionable suggestion grounded in the data. No summaries.
- Cite concrete amounts from the data in every tip; saving suggestions must include the calculated amount.
- 1-2 short sentences per tip, simple everyday words.
- Use transaction descriptions and frequencies to make tips specific; do not guess at motives.
- Respond ONLY with a single string, using "•" to separate the tips. No newlines, greetings, markdown, or any other formatting.

Here is the user's transaction data, newest first:`

// TextGenerator produces free-form text from prompt parts. It is the
// narrow seam over the hosted model so tests can substitute a
// deterministic stand-in.
type TextGenerator interface {
	GenerateText(ctx context.Context, parts ...string) (string, error)
}

// InsightService generates AI spending insights with a per-user,
// per-calendar-day memoization layer: at most one generation per user
// per day, bypassed while the user has too little data.
//
// The cache check and the later write are not serialized. Two
// concurrent same-day requests can both miss and both call the
// generator, with the later write winning. Accepted; see DESIGN.md.
type InsightService struct {
	users        UserRepository
	transactions TransactionRepository
	generator    TextGenerator
	events       EventPublisher
	now          func() time.Time
}

// NewInsightService constructs the service. events may be nil when no
// broker is configured.
func NewInsightService(users UserRepository, transactions TransactionRepository, generator TextGenerator, events EventPublisher) *InsightService {
	return &InsightService{
		users:        users,
		transactions: transactions,
		generator:    generator,
		events:       events,
		now:          time.Now,
	}
}

// Generate returns the user's spending insights for today, reusing the
// cached text when one was already produced this calendar day. The
// returned string is always user-safe; an error is returned only when
// the caller should see a generic failure.
func (s *InsightService) Generate(ctx context.Context, userID int64) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	now := s.now()
	today := startOfDay(now)

	if user.InsightsLastGenerated != nil && user.CachedInsights != "" {
		if startOfDay(*user.InsightsLastGenerated).Equal(today) {
			return user.CachedInsights, nil
		}
	}

	transactions, err := s.transactions.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}

	// Too little data to say anything useful. The cache stays
	// untouched so a retry later today picks up new entries.
	if len(transactions) < minTransactionsForInsights {
		return msgNotEnoughData, nil
	}

	data, err := marshalTransactionData(transactions)
	if err != nil {
		return "", err
	}

	text, err := s.generator.GenerateText(ctx, insightPrompt, data)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrSafetyBlocked):
			return msgSafetyBlocked, nil
		case errors.Is(err, ai.ErrEmptyResponse):
			return msgGenerateFailed, nil
		default:
			return "", fmt.Errorf("generate insights: %w", err)
		}
	}

	insights := cleanInsights(text)
	if insights == "" {
		return msgGenerateFailed, nil
	}

	if err := s.users.UpdateInsights(ctx, user.ID, insights, now); err != nil {
		return "", fmt.Errorf("cache insights: %w", err)
	}

	s.publishGenerated(ctx, user.ID, now)
	return insights, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// cleanInsights flattens the model output to the single-line
// bullet-separated form the clients expect.
func cleanInsights(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "*", "")
	return strings.TrimSpace(text)
}

// insightTransaction is the trimmed view serialized into the prompt.
type insightTransaction struct {
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Date        string `json:"date"`
}

func marshalTransactionData(transactions []types.Transaction) (string, error) {
	views := make([]insightTransaction, 0, len(transactions))
	for _, txn := range transactions {
		views = append(views, insightTransaction{
			Description: txn.Description,
			Amount:      txn.Amount.String(),
			Category:    txn.Category,
			Type:        txn.Type,
			Date:        txn.Date.String(),
		})
	}
	data, err := json.Marshal(views)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *InsightService) publishGenerated(ctx context.Context, userID int64, generatedAt time.Time) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"user_id":      strconv.FormatInt(userID, 10),
		"generated_at": generatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if _, err := s.events.Publish(ctx, mq.ChannelInsightsGenerated, payload, nil); err != nil {
		log.Printf("publish %s event: %v", mq.ChannelInsightsGenerated, err)
	}
}
