package domain

import (
	"errors"
	"strings"
)

type Mode string

const (
	ModeGuided   Mode = "guided"
	ModeFreeFlow Mode = "free-flow"
)

const (
	MinRounds           = 1
	MaxRounds           = 10
	MinTurnTimerSeconds = 30
	MaxTurnTimerSeconds = 300

	DefaultMaxParticipants  = 20
	DefaultRounds           = 5
	DefaultTurnTimerSeconds = 60
)

type Settings struct {
	Themes           []Theme `json:"themes"`
	Mode             Mode    `json:"mode"`
	MaxParticipants  int     `json:"maxParticipants"`
	Rounds           int     `json:"rounds"`
	TurnTimerSeconds int     `json:"turnTimerSeconds"`
}

func DefaultSettings() Settings {
	return Settings{
		Themes:           AllThemes(),
		Mode:             ModeGuided,
		MaxParticipants:  DefaultMaxParticipants,
		Rounds:           DefaultRounds,
		TurnTimerSeconds: DefaultTurnTimerSeconds,
	}
}

// SettingsOverrides carries the optional fields a host may send. Nil means keep the base value.
type SettingsOverrides struct {
	Themes           []Theme `json:"themes,omitempty" binding:"omitempty,dive,required"`
	Mode             *Mode   `json:"mode,omitempty" binding:"omitempty,oneof=guided free-flow"`
	MaxParticipants  *int    `json:"maxParticipants,omitempty" binding:"omitempty,min=1"`
	Rounds           *int    `json:"rounds,omitempty" binding:"omitempty,min=1,max=10"`
	TurnTimerSeconds *int    `json:"turnTimerSeconds,omitempty" binding:"omitempty,min=30,max=300"`
}

// Apply returns base with every non-nil override applied. Duplicate themes are collapsed.
func (o SettingsOverrides) Apply(base Settings) Settings {
	out := base.Clone()
	if len(o.Themes) > 0 {
		out.Themes = uniqueThemes(o.Themes)
	}
	if o.Mode != nil {
		out.Mode = *o.Mode
	}
	if o.MaxParticipants != nil {
		out.MaxParticipants = *o.MaxParticipants
	}
	if o.Rounds != nil {
		out.Rounds = *o.Rounds
	}
	if o.TurnTimerSeconds != nil {
		out.TurnTimerSeconds = *o.TurnTimerSeconds
	}
	return out
}

func (s Settings) Clone() Settings {
	s.Themes = append([]Theme(nil), s.Themes...)
	return s
}

func (s Settings) HasTheme(t Theme) bool {
	for _, th := range s.Themes {
		if th == t {
			return true
		}
	}
	return false
}

// Validate checks the declared ranges. Catalog membership of themes is checked by the caller.
func (s Settings) Validate() error {
	var problems []string
	if len(s.Themes) == 0 {
		problems = append(problems, "at least one theme is required")
	}
	if len(uniqueThemes(s.Themes)) != len(s.Themes) {
		problems = append(problems, "themes must not repeat")
	}
	if s.Mode != ModeGuided && s.Mode != ModeFreeFlow {
		problems = append(problems, "mode must be guided or free-flow")
	}
	if s.MaxParticipants < 1 {
		problems = append(problems, "maxParticipants must be at least 1")
	}
	if s.Rounds < MinRounds || s.Rounds > MaxRounds {
		problems = append(problems, "rounds must be between 1 and 10")
	}
	if s.TurnTimerSeconds < MinTurnTimerSeconds || s.TurnTimerSeconds > MaxTurnTimerSeconds {
		problems = append(problems, "turnTimerSeconds must be between 30 and 300")
	}
	if len(problems) > 0 {
		return Wrap(ErrInvalidSettings, errors.New(strings.Join(problems, "; ")))
	}
	return nil
}

func uniqueThemes(in []Theme) []Theme {
	seen := make(map[Theme]struct{}, len(in))
	out := make([]Theme, 0, len(in))
	for _, t := range in {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
