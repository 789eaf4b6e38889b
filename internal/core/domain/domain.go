// Package domain defines the core types of the reply engine: message
// records ingested from CSV batches, the channel enum, classified intents,
// and the persisted conversation record.
package domain

import (
	"strings"
	"time"
)

// Channel is the communication medium a customer message arrived on.
// The normal form is lowercase.
type Channel string

const (
	ChannelInstagram Channel = "instagram"
	ChannelFacebook  Channel = "facebook"
	ChannelWhatsapp  Channel = "whatsapp"
	ChannelEmail     Channel = "email"
)

// AllowedChannels lists every valid channel in normal form.
var AllowedChannels = []Channel{ChannelInstagram, ChannelFacebook, ChannelWhatsapp, ChannelEmail}

// ParseChannel case-folds s and reports whether it names an allowed channel.
func ParseChannel(s string) (Channel, bool) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	for _, allowed := range AllowedChannels {
		if c == allowed {
			return c, true
		}
	}

	return c, false
}

// Placeholder tokens interpolated into response templates. The same tokens
// are used by the seed templates and by the enhancement step, so
// personalization survives the full pipeline.
const (
	SenderPlaceholder   = "{{sender_username}}"
	ReceiverPlaceholder = "{{receiver_username}}"
)

// UnknownIntentLabel is the sentinel the classifier prompt instructs the
// model to emit when a message matches no catalog intent.
const UnknownIntentLabel = "Unknown intent."

// IntentCatalog is the fixed set of intents the classifier may assign.
var IntentCatalog = []string{
	"Request for international shipping information",
	"Request for refund",
	"Request for order status",
	"Request for product availability",
	"Request for veteran discount",
	"Request for bulk purchase discounts",
	"Request for product return",
	"Request for help with placing an order",
	"Request for cancellation",
}

// Intent is one classified purpose of a customer message. Recognized is
// true only when Label is a member of IntentCatalog; the unknown sentinel
// and any other free text the model produces are carried unrecognized.
type Intent struct {
	Label      string
	Recognized bool
}

// ClassifyLabel wraps a raw label from the model into an Intent.
func ClassifyLabel(label string) Intent {
	for _, known := range IntentCatalog {
		if label == known {
			return Intent{Label: label, Recognized: true}
		}
	}

	return Intent{Label: label, Recognized: false}
}

// IntentLabels flattens intents back to their raw labels for storage.
func IntentLabels(intents []Intent) []string {
	labels := make([]string, len(intents))
	for i, intent := range intents {
		labels[i] = intent.Label
	}

	return labels
}

// MessageRecord is one row of an upload batch. Channel holds the raw CSV
// value; it is validated at intake and normalized where it is used.
type MessageRecord struct {
	Sender   string
	Receiver string
	Channel  string
	Message  string
}

// ConversationRecord is the persisted unit: one processed message, its
// classified intents and the final generated response. Records are
// insert-only; there is no update or delete path.
type ConversationRecord struct {
	ID        string
	Sender    string
	Receiver  string
	Message   string
	Channel   Channel
	Intents   []string
	Response  string
	CreatedAt time.Time
}

// ConversationSummary is the projection returned by the list endpoint.
type ConversationSummary struct {
	ID       string  `json:"id"`
	Sender   string  `json:"sender_username"`
	Receiver string  `json:"receiver_username"`
	Message  string  `json:"message"`
	Channel  Channel `json:"channel"`
}

// BatchNotification is the envelope handed from intake to dispatch,
// naming the durable storage location of an accepted batch.
type BatchNotification struct {
	Message    string `json:"message"`
	BucketName string `json:"bucketName"`
	BucketKey  string `json:"bucketKey"`
}
