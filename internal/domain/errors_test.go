package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
	}{
		{ErrSessionNotFound, KindNotFound},
		{ErrUnauthorized, KindUnauthorized},
		{ErrNotYourTurn, KindUnauthorized},
		{ErrSessionFull, KindConflict},
		{ErrSessionEnded, KindConflict},
		{ErrAlreadyStarted, KindConflict},
		{ErrNoQuestionsAvailable, KindExhausted},
		{ErrQuestionsExhausted, KindExhausted},
		{ErrInvalidSettings, KindValidation},
		{ErrRateLimited, KindRateLimited},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("select theme: %w", Wrapf(ErrUnknownTheme, "theme %q", "space"))

	assert.ErrorIs(t, wrapped, ErrUnknownTheme)
	assert.NotErrorIs(t, wrapped, ErrInvalidSettings)
	assert.Equal(t, CodeUnknownTheme, CodeOf(wrapped))
	assert.Equal(t, `Unknown theme: theme "space"`, Wrapf(ErrUnknownTheme, "theme %q", "space").Error())
}
