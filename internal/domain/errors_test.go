package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     ErrorKind
		sentinel error
	}{
		{"insufficient", InsufficientData("stats", "need %d rows", 2), KindInsufficientData, ErrInsufficientData},
		{"degenerate", DegenerateRatio("zscore", "total assets is zero"), KindDegenerateRatio, ErrDegenerateRatio},
		{"provider", ProviderFailure("fetch", errors.New("503")), KindProviderFailure, ErrProviderFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.ErrorIs(t, tt.err, tt.sentinel)

			wrapped := fmt.Errorf("failed to score: %w", tt.err)
			assert.Equal(t, tt.kind, KindOf(wrapped))
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := InsufficientData("computeAnnualizedStats", "need at least 2 rows, got %d", 1)
	assert.Equal(t, "computeAnnualizedStats: need at least 2 rows, got 1", err.Error())

	cause := errors.New("connection refused")
	err = ProviderFailure("marketdata", cause)
	assert.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindDegenerateRatio, KindOf(fmt.Errorf("x: %w", ErrDegenerateRatio)))
	assert.Equal(t, "provider_failure", KindProviderFailure.String())
}

func TestErrorKindText(t *testing.T) {
	for _, kind := range []ErrorKind{KindUnknown, KindInsufficientData, KindDegenerateRatio, KindProviderFailure} {
		text, err := kind.MarshalText()
		require.NoError(t, err)

		var decoded ErrorKind
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, kind, decoded)
	}
}
