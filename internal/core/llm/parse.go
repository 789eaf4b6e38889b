package llm

import (
	"strings"

	"github.com/carelane/reply-engine/internal/core/domain"
)

// parseIntentLabels splits model output on line breaks and trims each
// line into a label. No semantic validation happens here beyond catalog
// membership tagging; correctness depends on the model honoring the
// prompt's format contract.
func parseIntentLabels(text string) []domain.Intent {
	var intents []domain.Intent

	for _, line := range strings.Split(text, "\n") {
		label := strings.TrimSpace(line)
		if label == "" {
			continue
		}

		intents = append(intents, domain.ClassifyLabel(label))
	}

	return intents
}

// parseAffirmation treats a leading "yes" (case-insensitive) as
// confirmation; any other leading token is a rejection.
func parseAffirmation(text string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), "yes")
}
