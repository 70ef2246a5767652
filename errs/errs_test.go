package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchSentinels(t *testing.T) {
	t.Parallel()

	cause := errors.New("no rate")
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", Validation("entries[0].price", "must be > 0"), ErrValidation},
		{"risk", InvalidRisk("risk_percentage", "must be in (0, 100]"), ErrInvalidRisk},
		{"pair", &UnsupportedPairError{Pair: "EURXYZ", Err: cause}, ErrUnsupportedPair},
		{"conversion", &ConversionError{From: "EUR", To: "XYZ", Err: cause}, ErrConversion},
		{"undefined", &ComputationUndefinedError{Quantity: "expectancy"}, ErrUndefined},
		{"not found", NotFound("account", "A1"), ErrNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestValidationErrorNamesField(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("trade T1: %w", Validation("exits", "exited %.2f exceeds entered %.2f", 3.0, 2.0))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "exits", ve.Field)
	assert.Contains(t, err.Error(), "exited 3.00 exceeds entered 2.00")
}

func TestConversionErrorKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &ConversionError{From: "EUR", To: "JPY", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrConversion)
	assert.Equal(t, "convert EUR -> JPY: boom", err.Error())
}
