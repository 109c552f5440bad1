package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/SparkCircle/internal/domain"
)

func TestDefaultCatalogCoversDefaultThemes(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for _, th := range domain.AllThemes() {
		assert.True(t, c.HasTheme(th), "missing theme %s", th)
		assert.NotEmpty(t, c.ByThemes(th))
	}
	assert.Len(t, c.Themes(), len(domain.AllThemes()))
}

func TestUnusedExcludesUsedIDsAcrossThemes(t *testing.T) {
	c, err := Parse([]byte(`
themes:
  - id: dreams
    questions: ["a", "b"]
  - id: values
    questions: ["c"]
`))
	require.NoError(t, err)

	all := c.ByThemes(domain.ThemeDreams, domain.ThemeValues)
	require.Len(t, all, 3)
	assert.Equal(t, domain.QuestionID("dreams-01"), all[0].ID)

	left := c.Unused([]domain.QuestionID{"dreams-01", "values-01"}, domain.ThemeDreams, domain.ThemeValues)
	require.Len(t, left, 1)
	assert.Equal(t, "b", left[0].Text)

	assert.Empty(t, c.Unused([]domain.QuestionID{"values-01"}, domain.ThemeValues))
}

func TestParseRejectsDuplicateThemes(t *testing.T) {
	_, err := Parse([]byte(`
themes:
  - id: dreams
  - id: dreams
`))
	assert.Error(t, err)
}

func TestValidateThemes(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.NoError(t, c.ValidateThemes(domain.AllThemes()))
	assert.ErrorIs(t, c.ValidateThemes([]domain.Theme{"space"}), domain.ErrUnknownTheme)
}
