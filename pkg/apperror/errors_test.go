package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	cause := errors.New("chrome crashed")
	err := Wrap(ErrRenderFailed, cause, map[string]string{"order_id": "ORD-1"})

	assert.True(t, errors.Is(err, ErrRenderFailed))
	assert.False(t, errors.Is(err, ErrUploadFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, http.StatusInternalServerError, err.Code)
	assert.Equal(t, ReasonRenderFailed, err.Reason)

	// The sentinel itself must stay untouched.
	assert.Nil(t, ErrRenderFailed.Err)
	assert.Nil(t, ErrRenderFailed.Data)
}

func TestGetAppErrorThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("finalize: %w", Wrap(ErrDuplicateOrder, nil, nil))

	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusConflict, appErr.Code)
	assert.True(t, IsAppError(wrapped))
}

func TestGetAppErrorFallsBackToInternal(t *testing.T) {
	cause := errors.New(`pq: relation "receipts" does not exist`)
	appErr := GetAppError(cause)

	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.Equal(t, ReasonInternal, appErr.Reason)
	assert.Equal(t, ErrInternalServer.Message, appErr.Message)
	assert.True(t, errors.Is(appErr, cause))
	assert.Nil(t, ErrInternalServer.Err)
}

func TestValidationErrorCarriesFields(t *testing.T) {
	err := NewValidationError([]FieldError{{Field: "order_id", Message: "is required"}})

	assert.True(t, errors.Is(err, ErrValidation))
	require.Len(t, err.Errors, 1)
	assert.Equal(t, "order_id", err.Errors[0].Field)
}
