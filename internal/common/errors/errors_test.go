package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		notFound   bool
		validation bool
		conflict   bool
	}{
		{"giveaway not found", NewGiveawayNotFoundError("abc"), true, false, false},
		{"wrong guild", NewWrongGuildError("abc"), true, false, false},
		{"invalid id", NewInvalidIDError("???"), false, true, false},
		{"validation", NewValidationError("title", "required"), false, true, false},
		{"not active", NewStateError(ErrCodeGiveawayNotActive, "abc", "not active"), false, false, true},
		{"still active", NewStateError(ErrCodeGiveawayActive, "abc", "active"), false, false, true},
		{"unchanged", NewStateError(ErrCodeWinnersUnchanged, "abc", "same"), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, tt.err.IsNotFound())
			assert.Equal(t, tt.validation, tt.err.IsValidation())
			assert.Equal(t, tt.conflict, tt.err.IsConflict())
		})
	}
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	base := NewGiveawayNotFoundError("abc")
	wrapped := fmt.Errorf("handler: %w", base)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, base, got)
	assert.True(t, HasCode(wrapped, ErrCodeGiveawayNotFound))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeGiveawayNotFound))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewDatabaseError("save giveaway", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.IsInternal())
	assert.Contains(t, err.Error(), "disk full")
}
