package domain

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Batch header column names.
const (
	ColumnSender   = "sender_username"
	ColumnReceiver = "receiver_username"
	ColumnChannel  = "channel"
	ColumnMessage  = "message"
)

// Batch is a decoded upload: the header row plus one MessageRecord per
// data row. Decoding maps columns by header name, so column order does
// not matter and extra columns are ignored.
type Batch struct {
	Headers []string
	Records []MessageRecord
}

// HasHeader reports whether the batch header row contains name.
func (b *Batch) HasHeader(name string) bool {
	for _, h := range b.Headers {
		if h == name {
			return true
		}
	}

	return false
}

// DecodeBatch reads CSV data into a Batch. Missing columns yield empty
// fields; structural CSV errors (ragged quoting etc.) are returned as-is.
func DecodeBatch(r io.Reader) (*Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	if len(rows) == 0 {
		return &Batch{}, nil
	}

	headers := rows[0]
	index := make(map[string]int, len(headers))

	for i, h := range headers {
		index[h] = i
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}

		return row[i]
	}

	records := make([]MessageRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, MessageRecord{
			Sender:   field(row, ColumnSender),
			Receiver: field(row, ColumnReceiver),
			Channel:  field(row, ColumnChannel),
			Message:  field(row, ColumnMessage),
		})
	}

	return &Batch{Headers: headers, Records: records}, nil
}
