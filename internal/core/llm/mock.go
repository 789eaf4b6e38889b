package llm

import (
	"context"
	"strings"

	"github.com/carelane/reply-engine/internal/core/domain"
)

// mockClient is a deterministic stand-in used for local runs without an
// API key (LLM_API_KEY=mock).
type mockClient struct{}

// NewMock creates a mock LLM client.
func NewMock() Client {
	return &mockClient{}
}

// keyword routing for the mock classifier.
var mockKeywords = map[string]string{
	"refund":   "Request for refund",
	"return":   "Request for product return",
	"cancel":   "Request for cancellation",
	"shipping": "Request for international shipping information",
	"status":   "Request for order status",
	"stock":    "Request for product availability",
	"veteran":  "Request for veteran discount",
	"bulk":     "Request for bulk purchase discounts",
	"order":    "Request for help with placing an order",
}

func (m *mockClient) ClassifyIntent(_ context.Context, message string) ([]domain.Intent, error) {
	lowered := strings.ToLower(message)

	for keyword, label := range mockKeywords {
		if strings.Contains(lowered, keyword) {
			return []domain.Intent{domain.ClassifyLabel(label)}, nil
		}
	}

	return []domain.Intent{domain.ClassifyLabel(domain.UnknownIntentLabel)}, nil
}

func (m *mockClient) ValidateIntent(_ context.Context, _ string, _ []domain.Intent) (bool, error) {
	return true, nil
}

func (m *mockClient) EnhanceResponse(_ context.Context, draft, sender string) (string, error) {
	return strings.ReplaceAll(draft, domain.SenderPlaceholder, sender), nil
}
