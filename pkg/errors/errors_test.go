package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportWrapsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Transport(cause, "list assignments")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "list assignments: dial tcp: connection refused", err.Error())
}

func TestIsComparesCodes(t *testing.T) {
	cloned := Clone(ErrValidation, "courseIds is required")
	wrapped := fmt.Errorf("handler: %w", cloned)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, ErrTransport))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}
