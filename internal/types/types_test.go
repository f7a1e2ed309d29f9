package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_RoundTrip(t *testing.T) {
	id := NewID()
	require.NoError(t, id.Validate())

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var back ID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, id, back)
}

func TestID_Invalid(t *testing.T) {
	_, err := ParseID("")
	assert.Error(t, err)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)

	var id ID
	assert.True(t, id.IsZero())
	assert.Error(t, id.Validate())
}

func TestAegisError_Formatting(t *testing.T) {
	err := NewError(APPROVAL_NOT_FOUND, "approval abc not found")
	assert.Equal(t, "[APPROVAL_NOT_FOUND] approval abc not found", err.Error())

	wrapped := WrapError(DB_QUERY_FAILED, "failed to get approval", fmt.Errorf("disk full"))
	assert.Equal(t, "[DB_QUERY_FAILED] failed to get approval: disk full", wrapped.Error())
}

func TestAegisError_Matching(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := WrapError(DB_QUERY_FAILED, "failed", cause)

	assert.True(t, errors.Is(err, NewError(DB_QUERY_FAILED, "anything")))
	assert.False(t, errors.Is(err, NewError(DB_OPEN_FAILED, "anything")))
	assert.Equal(t, cause, errors.Unwrap(err))

	assert.Equal(t, DB_QUERY_FAILED, CodeOf(err))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain")))
}

func TestAegisError_Retryable(t *testing.T) {
	assert.True(t, NewRetryableError(APPROVAL_CONFLICT, "conflict").Retryable)
	assert.False(t, NewError(APPROVAL_CONFLICT, "conflict").Retryable)
}
