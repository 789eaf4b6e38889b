package intake

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "sender_username,receiver_username,channel,message"

func buildCSV(t *testing.T, header string, rows int, channel string) []byte {
	t.Helper()

	var sb strings.Builder

	sb.WriteString(header + "\n")

	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "user%d,support,%s,where is my order\n", i, channel)
	}

	return []byte(sb.String())
}

func csvRequest(body []byte) Request {
	return Request{ContentType: "text/csv", Body: body}
}

func requireRejection(t *testing.T, err error) *Rejection {
	t.Helper()

	var rej *Rejection

	require.Error(t, err)
	require.True(t, errors.As(err, &rej), "expected *Rejection, got %v", err)

	return rej
}

func TestValidateBatch_AcceptsExactly1000Rows(t *testing.T) {
	batch, payload, err := ValidateBatch(csvRequest(buildCSV(t, testHeader, 1000, "instagram")))
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Len(t, batch.Records, 1000)
	assert.NotEmpty(t, payload)
}

func TestValidateBatch_RejectsWrongContentType(t *testing.T) {
	req := Request{ContentType: "application/json", Body: buildCSV(t, testHeader, 1000, "email")}

	_, _, err := ValidateBatch(req)
	rej := requireRejection(t, err)
	assert.Equal(t, RejectInvalidFileType, rej.Kind)
	assert.Equal(t, "Invalid file type", rej.Message)
}

func TestValidateBatch_AcceptsContentTypeWithCharset(t *testing.T) {
	req := Request{ContentType: "text/csv; charset=utf-8", Body: buildCSV(t, testHeader, 1000, "email")}

	_, _, err := ValidateBatch(req)
	require.NoError(t, err)
}

func TestValidateBatch_RejectsMissingFile(t *testing.T) {
	_, _, err := ValidateBatch(csvRequest(nil))
	rej := requireRejection(t, err)
	assert.Equal(t, RejectMissingFile, rej.Kind)
}

func TestValidateBatch_DecodesBase64Body(t *testing.T) {
	raw := buildCSV(t, testHeader, 1000, "whatsapp")
	encoded := []byte(base64.StdEncoding.EncodeToString(raw))

	batch, payload, err := ValidateBatch(Request{ContentType: "text/csv", Body: encoded, Base64Encoded: true})
	require.NoError(t, err)
	assert.Len(t, batch.Records, 1000)
	assert.Equal(t, raw, payload, "the decoded payload is what gets stored")
}

func TestValidateBatch_RejectsWrongRecordCount(t *testing.T) {
	for _, rows := range []int{0, 1, 999, 1001} {
		_, _, err := ValidateBatch(csvRequest(buildCSV(t, testHeader, rows, "facebook")))
		rej := requireRejection(t, err)
		assert.Equal(t, RejectInvalidRecordCount, rej.Kind, "rows=%d", rows)
		assert.Equal(t, "CSV must contain exactly 1000 records", rej.Message)
	}
}

func TestValidateBatch_RejectsMissingHeader(t *testing.T) {
	body := buildCSV(t, "sender_username,receiver_username,channel", 1000, "instagram")

	_, _, err := ValidateBatch(csvRequest(body))
	rej := requireRejection(t, err)
	assert.Equal(t, RejectInvalidHeaders, rej.Kind)
}

func TestValidateBatch_HeaderCheckRunsBeforeChannelChecks(t *testing.T) {
	// Invalid channels everywhere, but the missing message column must win.
	body := buildCSV(t, "sender_username,receiver_username,channel", 1000, "carrier-pigeon")

	_, _, err := ValidateBatch(csvRequest(body))
	rej := requireRejection(t, err)
	assert.Equal(t, RejectInvalidHeaders, rej.Kind)
}

func TestValidateBatch_ChannelCaseInsensitive(t *testing.T) {
	for _, channel := range []string{"Instagram", "INSTAGRAM", "instagram"} {
		_, _, err := ValidateBatch(csvRequest(buildCSV(t, testHeader, 1000, channel)))
		require.NoError(t, err, "channel %q", channel)
	}
}

func TestValidateBatch_AccumulatesChannelViolationsWithLineNumbers(t *testing.T) {
	var sb strings.Builder

	sb.WriteString(testHeader + "\n")

	for i := 0; i < 1000; i++ {
		channel := "email"
		if i == 0 || i == 499 {
			channel = "insta"
		}

		fmt.Fprintf(&sb, "user%d,support,%s,hello\n", i, channel)
	}

	_, _, err := ValidateBatch(csvRequest([]byte(sb.String())))
	rej := requireRejection(t, err)
	assert.Equal(t, RejectInvalidChannelValues, rej.Kind)
	require.Len(t, rej.Errors, 2, "all violations are accumulated, not short-circuited")
	assert.Equal(t, "Invalid channel: insta on line 2", rej.Errors[0])
	assert.Equal(t, "Invalid channel: insta on line 501", rej.Errors[1])
}

func TestValidateBatch_UnparsableCSVIsNotARejection(t *testing.T) {
	body := []byte(testHeader + "\n\"unterminated quote\n")

	_, _, err := ValidateBatch(csvRequest(body))
	require.Error(t, err)

	var rej *Rejection

	assert.False(t, errors.As(err, &rej), "parse failures surface as server errors, not client rejections")
}

func TestIsBase64Transfer(t *testing.T) {
	assert.True(t, IsBase64Transfer("base64"))
	assert.True(t, IsBase64Transfer(" Base64 "))
	assert.False(t, IsBase64Transfer(""))
	assert.False(t, IsBase64Transfer("binary"))
}
