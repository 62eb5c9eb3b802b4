package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	transport := &TransportError{URL: "http://x", Err: errors.New("connection refused")}

	assert.True(t, IsTransient(transport))
	assert.True(t, IsTransient(fmt.Errorf("attempt 1: %w", transport)))
	assert.False(t, IsTransient(&ExtractionError{Kind: NoTableFound}))
	assert.False(t, IsTransient(&MissingColumnError{Columns: []string{"date"}}))
	assert.False(t, IsTransient(nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "required column(s) not found: date", (&MissingColumnError{Columns: []string{"date"}}).Error())
	assert.Equal(t, "fetching http://x: unexpected HTTP status 503", (&TransportError{URL: "http://x", StatusCode: 503}).Error())
	assert.Equal(t, "html_table extraction failed (no_table_found)", (&ExtractionError{Kind: NoTableFound, Format: "html_table"}).Error())
	assert.Equal(t, "phone: bad", NewValidationError("phone", CodeInvalid, "bad").Error())
	assert.Contains(t, (&ConflictError{ExistingShiftID: 7, Message: "overlaps"}).Error(), "#7")
}
