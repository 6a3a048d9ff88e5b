package venueerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_RetryableOnlyFalseForAuth(t *testing.T) {
	assert.True(t, New(Connection, "binance", nil).Retryable())
	assert.True(t, New(Protocol, "binance", nil).Retryable())
	assert.True(t, New(Stale, "binance", nil).Retryable())
	assert.False(t, New(Auth, "binance", nil).Retryable())
}

func TestError_UnwrapAndIsKind(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Connf("bybit", "dial failed: %w", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, Connection))
	assert.False(t, IsKind(err, Auth))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsKind(wrapped, Connection))
}

func TestError_StringsIncludeVenueAndKind(t *testing.T) {
	err := Authf("okx", "login rejected")
	assert.Contains(t, err.Error(), "okx")
	assert.Contains(t, err.Error(), "auth")
}
