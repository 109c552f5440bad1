// Package catalog is the static set of conversation prompts, grouped by theme.
package catalog

import (
	_ "embed"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/dkeye/SparkCircle/internal/domain"
)

//go:embed questions.yaml
var defaultQuestions []byte

type themeDoc struct {
	ID        domain.Theme `yaml:"id"`
	Name      string       `yaml:"name"`
	Questions []string     `yaml:"questions"`
}

type catalogDoc struct {
	Themes []themeDoc `yaml:"themes"`
}

// ThemeInfo is the display metadata of a theme.
type ThemeInfo struct {
	ID    domain.Theme `json:"id"`
	Name  string       `json:"name"`
	Count int          `json:"count"`
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	themes  []ThemeInfo
	byTheme map[domain.Theme][]domain.Question
}

// Default parses the embedded question set.
func Default() (*Catalog, error) {
	return Parse(defaultQuestions)
}

// Parse builds a catalog from YAML. Question ids are derived from theme and position.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{byTheme: make(map[domain.Theme][]domain.Question, len(doc.Themes))}
	for _, th := range doc.Themes {
		if th.ID == "" {
			return nil, fmt.Errorf("parse catalog: theme without id")
		}
		if _, dup := c.byTheme[th.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate theme %q", th.ID)
		}
		qs := make([]domain.Question, 0, len(th.Questions))
		for i, text := range th.Questions {
			qs = append(qs, domain.Question{
				ID:    domain.QuestionID(fmt.Sprintf("%s-%02d", th.ID, i+1)),
				Text:  text,
				Theme: th.ID,
			})
		}
		c.byTheme[th.ID] = qs
		c.themes = append(c.themes, ThemeInfo{ID: th.ID, Name: th.Name, Count: len(qs)})
	}
	return c, nil
}

func (c *Catalog) Themes() []ThemeInfo {
	return append([]ThemeInfo(nil), c.themes...)
}

func (c *Catalog) HasTheme(t domain.Theme) bool {
	_, ok := c.byTheme[t]
	return ok
}

// ByThemes returns every question tagged with one of themes, in catalog order.
func (c *Catalog) ByThemes(themes ...domain.Theme) []domain.Question {
	var out []domain.Question
	for _, t := range themes {
		out = append(out, c.byTheme[t]...)
	}
	return out
}

// Unused returns the questions of themes whose ids are not in used.
func (c *Catalog) Unused(used []domain.QuestionID, themes ...domain.Theme) []domain.Question {
	seen := make(map[domain.QuestionID]struct{}, len(used))
	for _, id := range used {
		seen[id] = struct{}{}
	}
	var out []domain.Question
	for _, q := range c.ByThemes(themes...) {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		out = append(out, q)
	}
	return out
}

// ValidateThemes rejects themes the catalog does not know.
func (c *Catalog) ValidateThemes(themes []domain.Theme) error {
	for _, t := range themes {
		if !c.HasTheme(t) {
			return domain.Wrapf(domain.ErrUnknownTheme, "theme %q", t)
		}
	}
	return nil
}
