package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Sentinel error identity ---

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnauthorized,
		ErrForbidden, ErrConflict, ErrInternal, ErrServiceUnavail,
		ErrSignInRequired, ErrPaymentFailed, ErrPaymentVerification,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

// --- AppError behavior ---

func TestAppError_ErrorString_WithWrappedError(t *testing.T) {
	inner := fmt.Errorf("connection reset")
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: inner}
	assert.Contains(t, appErr.Error(), "INTERNAL_ERROR")
	assert.Contains(t, appErr.Error(), "something broke")
	assert.Contains(t, appErr.Error(), "connection reset")
}

func TestAppError_ErrorString_WithoutWrappedError(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "product not found"}
	assert.Equal(t, "NOT_FOUND: product not found", appErr.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "nope", Err: ErrNotFound}
	assert.True(t, errors.Is(appErr, ErrNotFound))
}

// --- Constructor functions ---

func TestNotFound(t *testing.T) {
	err := NotFound("product", "abc-123")
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Message, "abc-123")
}

func TestSignInRequired(t *testing.T) {
	err := SignInRequired("add items to your cart")
	require.NotNil(t, err)
	assert.Equal(t, "SIGN_IN_REQUIRED", err.Code)
	assert.True(t, errors.Is(err, ErrSignInRequired))
	assert.Contains(t, err.Message, "add items to your cart")
}

func TestPaymentErrors_AreDistinguishable(t *testing.T) {
	widget := PaymentFailed("card declined")
	verify := PaymentVerification("gateway signature rejected")

	assert.True(t, errors.Is(widget, ErrPaymentFailed))
	assert.False(t, errors.Is(widget, ErrPaymentVerification))
	assert.True(t, errors.Is(verify, ErrPaymentVerification))
	assert.False(t, errors.Is(verify, ErrPaymentFailed))
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrConflict, "save cart")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Contains(t, err.Error(), "save cart")
}

// --- Status mapping ---

func TestSentinelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrInvalidInput},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusUnprocessableEntity, ErrInvalidInput},
		{http.StatusServiceUnavailable, ErrServiceUnavail},
		{http.StatusBadGateway, ErrServiceUnavail},
		{http.StatusInternalServerError, ErrInternal},
		{http.StatusTeapot, ErrInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SentinelForStatus(tt.status), "status %d", tt.status)
	}
}
