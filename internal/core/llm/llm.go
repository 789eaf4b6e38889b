// Package llm wraps the external language model behind a narrow interface.
//
// The model is treated as a free-text completion service: prompt building
// and response parsing live here, so a structured-output backend can be
// substituted without touching pipeline logic.
package llm

import (
	"context"
	"errors"

	"github.com/carelane/reply-engine/internal/core/domain"
)

// ErrEmptyResponse indicates the model returned no choices.
var ErrEmptyResponse = errors.New("empty model response")

// Client is the model capability consumed by the dispatch pipeline.
// Classification and validation are two independent stateless calls
// composed in sequence, never a combined call.
type Client interface {
	// ClassifyIntent derives zero or more intent labels from a message.
	ClassifyIntent(ctx context.Context, message string) ([]domain.Intent, error)

	// ValidateIntent asks the model to confirm that the classified
	// intents plausibly match the message.
	ValidateIntent(ctx context.Context, message string, intents []domain.Intent) (bool, error)

	// EnhanceResponse rewrites a templated draft into a more personalized
	// reply and substitutes the sender placeholder into the result.
	EnhanceResponse(ctx context.Context, draft, sender string) (string, error)
}
