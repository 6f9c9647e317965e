package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Forbidden("only the group owner can do this")

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("kick member: %w", err)
	assert.True(t, errors.Is(wrapped, ErrForbidden))
	assert.Equal(t, CodeForbidden, CodeOf(wrapped))
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeInternal, "load group", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load group: connection reset", err.Error())
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeForbidden, http.StatusForbidden},
		{CodeInvalidVisibility, http.StatusConflict},
		{CodeCannotKickOwner, http.StatusConflict},
		{CodeValidation, http.StatusBadRequest},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestValidation_Details(t *testing.T) {
	err := Validation("validation failed", map[string]string{"name": "is required"})
	assert.Equal(t, map[string]string{"name": "is required"}, err.Details)

	empty := Validation("validation failed", nil)
	assert.Nil(t, empty.Details)
}
