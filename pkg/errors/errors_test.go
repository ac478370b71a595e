package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("signin: %w", ErrPasswordIncorrect)
	assert.Same(t, ErrPasswordIncorrect, FromError(wrapped))

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.Equal(t, "Internal server error", plain.Message)
}

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(errors.New("bad signature"), ErrInvalidToken.Code, ErrInvalidToken.Status, ErrInvalidToken.Message)
	assert.True(t, Is(err, ErrInvalidToken))
	assert.False(t, Is(err, ErrTokenInactive))
	assert.False(t, Is(nil, ErrInvalidToken))
}

func TestWithStatusLeavesOriginalUntouched(t *testing.T) {
	changed := WithStatus(ErrUserNotFound, http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, changed.Status)
	assert.Equal(t, "User not found", changed.Message)
	assert.Equal(t, http.StatusNotFound, ErrUserNotFound.Status)
	assert.True(t, Is(changed, ErrUserNotFound))
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Wrap(errors.New("dial tcp: refused"), ErrInternal.Code, ErrInternal.Status, "failed to activate token")
	assert.Equal(t, "failed to activate token: dial tcp: refused", err.Error())
	assert.Equal(t, "Token is required", ErrTokenRequired.Error())
}
