package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestDefaultSettingsAreValid(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, AllThemes(), s.Themes)
	assert.Equal(t, ModeGuided, s.Mode)
	assert.Equal(t, 20, s.MaxParticipants)
	assert.Equal(t, 5, s.Rounds)
	assert.Equal(t, 60, s.TurnTimerSeconds)
}

func TestSettingsOverrides_Apply(t *testing.T) {
	mode := ModeFreeFlow
	o := SettingsOverrides{
		Themes:          []Theme{ThemeDreams, ThemeQuirks, ThemeDreams},
		Mode:            &mode,
		Rounds:          intPtr(2),
		MaxParticipants: intPtr(4),
	}
	base := DefaultSettings()
	got := o.Apply(base)

	assert.Equal(t, []Theme{ThemeDreams, ThemeQuirks}, got.Themes)
	assert.Equal(t, ModeFreeFlow, got.Mode)
	assert.Equal(t, 2, got.Rounds)
	assert.Equal(t, 4, got.MaxParticipants)
	assert.Equal(t, DefaultTurnTimerSeconds, got.TurnTimerSeconds)

	got.Themes[0] = ThemeGrowth
	assert.Equal(t, ThemeDreams, base.Themes[0], "base must not share the themes slice")
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"no themes", func(s *Settings) { s.Themes = nil }},
		{"repeated themes", func(s *Settings) { s.Themes = []Theme{ThemeDreams, ThemeDreams} }},
		{"bad mode", func(s *Settings) { s.Mode = "chaos" }},
		{"zero participants", func(s *Settings) { s.MaxParticipants = 0 }},
		{"too few rounds", func(s *Settings) { s.Rounds = 0 }},
		{"too many rounds", func(s *Settings) { s.Rounds = 11 }},
		{"timer too short", func(s *Settings) { s.TurnTimerSeconds = 29 }},
		{"timer too long", func(s *Settings) { s.TurnTimerSeconds = 301 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSettings))
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}
