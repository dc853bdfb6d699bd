package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewBadRequestError("bad"), http.StatusBadRequest},
		{NewValidationError("x"), http.StatusBadRequest},
		{NewNotFoundError("Payment"), http.StatusNotFound},
		{NewPaymentNotFoundError("123"), http.StatusNotFound},
		{NewTooManyRequestsError(), http.StatusTooManyRequests},
		{NewServiceUnavailableError("payments"), http.StatusServiceUnavailable},
		{NewExternalServiceError("openai", stderrors.New("boom")), http.StatusBadGateway},
		{NewInternalError(""), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestWrapAndAs(t *testing.T) {
	cause := stderrors.New("disk on fire")

	wrapped := Wrap(cause, "save failed")
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)

	original := NewPaymentNotFoundError("abc")
	chained := fmt.Errorf("lookup: %w", original)
	assert.Same(t, original, Wrap(chained, "ignored"))
	assert.True(t, Is(chained, CodePaymentNotFound))
	assert.Equal(t, CodePaymentNotFound, GetCode(chained))
	assert.Equal(t, CodeInternal, GetCode(cause))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestFromValidator(t *testing.T) {
	type request struct {
		Message string `validate:"required,max=5"`
		Email   string `validate:"omitempty,email"`
	}

	v := validator.New()
	appErr := FromValidator(v.Struct(request{Message: "too long message", Email: "nope"}))
	require.NotNil(t, appErr)

	assert.Equal(t, CodeValidationFailed, appErr.Code)
	errs, ok := appErr.Metadata["validation_errors"].(ValidationErrors)
	require.True(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, "Message", errs[0].Field)
	assert.Equal(t, "max", errs[0].Tag)
	assert.Equal(t, "Email must be a valid email address", errs[1].Message)

	assert.Nil(t, FromValidator(nil))
}
