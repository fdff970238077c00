package timeline

import (
	"strconv"
	"strings"
	"time"

	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/colonyops/mrview/internal/core/styles"
)

// Renderer draws projected entries as terminal text. Comment bodies are
// rendered as markdown.
type Renderer struct {
	width int
	md    *glamour.TermRenderer
	log   zerolog.Logger
}

// NewRenderer creates a renderer wrapping bodies at width.
func NewRenderer(width int, log zerolog.Logger) *Renderer {
	r := &Renderer{log: log}
	r.SetWidth(width)
	return r
}

// SetWidth rebuilds the markdown renderer when the width changes.
func (r *Renderer) SetWidth(width int) {
	width = max(width, 20)
	if width == r.width && r.md != nil {
		return
	}
	r.width = width

	md, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		r.log.Debug().Err(err).Msg("failed to create markdown renderer, comments render raw")
		r.md = nil
		return
	}
	r.md = md
}

// Render draws entries top to bottom. selected is the index of the
// highlighted entry, or -1.
func (r *Renderer) Render(entries []Entry, selected int, now time.Time) string {
	if len(entries) == 0 {
		return styles.MutedStyle.Render("No activity yet.")
	}

	blocks := make([]string, 0, len(entries))
	for i, e := range entries {
		block := r.entry(e, now)
		if i == selected {
			block = styles.TimelineSelectedStyle.Render(block)
		} else {
			block = lipgloss.NewStyle().PaddingLeft(2).Render(block)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func (r *Renderer) entry(e Entry, now time.Time) string {
	header := styles.TimelineGlyphStyle.Render(e.Glyph.Icon()) +
		styles.TimelineMetaStyle.Render(r.meta(e, now))

	body := e.Body
	if e.Interactive {
		body = r.markdown(body)
	} else {
		body = lipgloss.NewStyle().Width(r.width - 4).Render(body)
	}

	return header + "\n" + lipgloss.NewStyle().PaddingLeft(2).Render(body)
}

func (r *Renderer) meta(e Entry, now time.Time) string {
	author := "system"
	if e.AuthorID != 0 {
		author = "user #" + strconv.FormatInt(e.AuthorID, 10)
	}

	parts := []string{author, e.Kind.String()}
	if e.Glyph != GlyphMerge && !e.CreatedAt.IsZero() {
		parts = append(parts, humanize.RelTime(e.CreatedAt, now, "ago", "from now"))
	}
	return strings.Join(parts, " · ")
}

func (r *Renderer) markdown(body string) string {
	if r.md == nil || strings.TrimSpace(body) == "" {
		return body
	}

	out, err := r.md.Render(body)
	if err != nil {
		r.log.Debug().Err(err).Msg("failed to render comment markdown")
		return body
	}
	return strings.Trim(out, "\n")
}
