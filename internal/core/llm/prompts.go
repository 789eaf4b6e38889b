package llm

import (
	"fmt"
	"strings"

	"github.com/carelane/reply-engine/internal/core/domain"
)

// Completion budgets per call type.
const (
	classifyMaxTokens = 50
	validateMaxTokens = 50
	enhanceMaxTokens  = 150
)

const classifyPromptHeader = `You are an AI specialized in e-commerce customer support. Your task is to classify user intents based on their messages. Here's a list of common intents you can classify:
%s
If multiple intents are present, list them separately, one per line. Do not output duplicate intents. If the message doesn't match any of the intents, return "Unknown intent."`

const validatePromptTemplate = `You are an AI that validates whether the classified intent from a customer message is correct. Here is the message and predicted intent:

Message: %q
Predicted intents: %s

Do the predicted intents accurately match the message? Answer "Yes" or "No" and provide a brief explanation if necessary.`

const enhancePromptTemplate = `You are an AI that enhances customer service responses. Here is the response you need to enhance:
Response: %q
Enhance the response to make it more personalized and engaging. Keep the %s placeholder intact if present.`

func classifyPrompt(message string) string {
	catalog := make([]string, len(domain.IntentCatalog))
	for i, intent := range domain.IntentCatalog {
		catalog[i] = "- " + intent
	}

	header := fmt.Sprintf(classifyPromptHeader, strings.Join(catalog, "\n"))

	return header + " Message: " + message
}

func validatePrompt(message string, intents []domain.Intent) string {
	return fmt.Sprintf(validatePromptTemplate, message, strings.Join(domain.IntentLabels(intents), ", "))
}

func enhancePrompt(draft string) string {
	return fmt.Sprintf(enhancePromptTemplate, draft, domain.SenderPlaceholder)
}
