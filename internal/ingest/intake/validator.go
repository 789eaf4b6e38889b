// Package intake validates uploaded CSV batches and hands accepted ones
// to durable storage, emitting a notification for the dispatcher.
package intake

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"github.com/carelane/reply-engine/internal/core/domain"
)

// RequiredRecordCount is the fixed batch size contract: a batch is exactly
// this many data rows, no fewer and no more.
const RequiredRecordCount = 1000

const contentTypeCSV = "text/csv"

// RejectionKind is the machine-readable category of a structural
// validation failure.
type RejectionKind string

const (
	RejectInvalidFileType      RejectionKind = "InvalidFileType"
	RejectMissingFile          RejectionKind = "MissingFile"
	RejectInvalidRecordCount   RejectionKind = "InvalidRecordCount"
	RejectInvalidHeaders       RejectionKind = "InvalidHeaders"
	RejectInvalidChannelValues RejectionKind = "InvalidChannelValues"
)

// Rejection is a terminal, user-visible validation failure. It is never
// retried.
type Rejection struct {
	Kind    RejectionKind
	Message string
	Errors  []string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

func reject(kind RejectionKind, message string, errs ...string) *Rejection {
	return &Rejection{Kind: kind, Message: message, Errors: errs}
}

// Request is an upload as received at the HTTP boundary.
type Request struct {
	ContentType   string
	Body          []byte
	Base64Encoded bool
}

var requiredHeaders = []string{
	domain.ColumnSender,
	domain.ColumnReceiver,
	domain.ColumnChannel,
	domain.ColumnMessage,
}

// ValidateBatch runs the ordered structural checks over an upload. Checks
// short-circuit on first failure, except channel validation which
// accumulates every offending row. It returns the decoded batch and the
// raw payload to persist; the error is a *Rejection for the five client
// failure kinds, or a plain error when the payload cannot be parsed at all.
func ValidateBatch(req Request) (*domain.Batch, []byte, error) {
	if mediaType, _, err := mime.ParseMediaType(req.ContentType); err != nil || mediaType != contentTypeCSV {
		return nil, nil, reject(RejectInvalidFileType, "Invalid file type")
	}

	payload := req.Body
	if req.Base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(string(req.Body))
		if err != nil {
			return nil, nil, fmt.Errorf("decode base64 body: %w", err)
		}

		payload = decoded
	}

	if len(payload) == 0 {
		return nil, nil, reject(RejectMissingFile, "Missing file")
	}

	batch, err := domain.DecodeBatch(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("parse batch: %w", err)
	}

	if len(batch.Records) != RequiredRecordCount {
		return nil, nil, reject(RejectInvalidRecordCount,
			fmt.Sprintf("CSV must contain exactly %d records", RequiredRecordCount))
	}

	for _, header := range requiredHeaders {
		if !batch.HasHeader(header) {
			return nil, nil, reject(RejectInvalidHeaders, "CSV contains invalid headers")
		}
	}

	if errs := validateChannels(batch.Records); len(errs) > 0 {
		return nil, nil, reject(RejectInvalidChannelValues, "Errors occurred", errs...)
	}

	return batch, payload, nil
}

// validateChannels checks every row and accumulates violations, each
// annotated with its 1-based source line (data rows start at line 2,
// after the header).
func validateChannels(records []domain.MessageRecord) []string {
	var errs []string

	for i, record := range records {
		if _, ok := domain.ParseChannel(record.Channel); !ok {
			errs = append(errs, fmt.Sprintf("Invalid channel: %s on line %d", record.Channel, i+2))
		}
	}

	return errs
}

// IsBase64Transfer reports whether the transfer encoding names base64.
func IsBase64Transfer(transferEncoding string) bool {
	return strings.EqualFold(strings.TrimSpace(transferEncoding), "base64")
}
