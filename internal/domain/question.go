package domain

type (
	Theme      string
	QuestionID string
)

const (
	ThemeDreams      Theme = "dreams"
	ThemeValues      Theme = "values"
	ThemeGrowth      Theme = "growth"
	ThemeQuirks      Theme = "quirks"
	ThemeConnections Theme = "connections"
	ThemeCuriosities Theme = "curiosities"
)

// AllThemes returns the default theme set in display order.
func AllThemes() []Theme {
	return []Theme{ThemeDreams, ThemeValues, ThemeGrowth, ThemeQuirks, ThemeConnections, ThemeCuriosities}
}

type Question struct {
	ID    QuestionID `json:"id" yaml:"id"`
	Text  string     `json:"text,omitempty" yaml:"text"`
	Theme Theme      `json:"theme" yaml:"theme"`
}

// Redacted hides the prompt text from anyone who is not the active player.
func (q Question) Redacted() Question {
	q.Text = ""
	return q
}
