package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeNames_AllResolvable(t *testing.T) {
	names := ThemeNames()
	require.Contains(t, names, DefaultTheme)

	for _, name := range names {
		p, ok := GetPalette(name)
		assert.True(t, ok, name)
		assert.NotNil(t, p.Merged, "%s has no merged colour", name)
	}
}

func TestGlamourStyle_FollowsPalette(t *testing.T) {
	p, _ := GetPalette("gruvbox")
	SetTheme(p)
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	cfg := GlamourStyle()
	require.NotNil(t, cfg.Link.Color)
	assert.Equal(t, "#8ec07c", *cfg.Link.Color)
	require.NotNil(t, cfg.Document.Margin)
	assert.Zero(t, *cfg.Document.Margin)
}
