// Package timeline projects a merge request conversation into renderable
// entries.
package timeline

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/core/styles"
)

// Glyph identifies the marker drawn next to a timeline entry.
type Glyph int

const (
	GlyphEvent Glyph = iota // neutral fallback
	GlyphComment
	GlyphMerge
	GlyphClosed
	GlyphReopened
)

func (g Glyph) String() string {
	switch g {
	case GlyphComment:
		return "comment"
	case GlyphMerge:
		return "merge"
	case GlyphClosed:
		return "closed"
	case GlyphReopened:
		return "reopened"
	default:
		return "event"
	}
}

// Icon returns the nerd font icon for the glyph.
func (g Glyph) Icon() string {
	switch g {
	case GlyphComment:
		return styles.IconComment
	case GlyphMerge:
		return styles.IconMerge
	case GlyphClosed:
		return styles.IconClosed
	case GlyphReopened:
		return styles.IconReopened
	default:
		return styles.IconEvent
	}
}

// Entry is a single renderable timeline row.
type Entry struct {
	ID          int64
	AuthorID    int64
	Kind        mr.Kind
	Glyph       Glyph
	Body        string
	CreatedAt   time.Time
	Interactive bool // accepts reply and edit
}

const unknownBody = "unsupported timeline event"

// Project maps the conversation onto entries, one per input and in input
// order. Merged bodies embed a time relative to now, so callers project on
// every render rather than caching the result.
func Project(conv []mr.ConversationEntry, now time.Time) []Entry {
	out := make([]Entry, 0, len(conv))
	for _, c := range conv {
		out = append(out, project(c, now))
	}
	return out
}

func project(c mr.ConversationEntry, now time.Time) Entry {
	e := Entry{
		ID:        c.ID,
		AuthorID:  c.AuthorID,
		Kind:      c.Kind,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}

	switch c.Kind {
	case mr.KindComment:
		e.Glyph = GlyphComment
		e.Interactive = true
	case mr.KindMerged:
		e.Glyph = GlyphMerge
		e.Body = MergedSentence(c.CreatedAt, now)
	case mr.KindClosed:
		e.Glyph = GlyphClosed
	case mr.KindReopened:
		e.Glyph = GlyphReopened
	default:
		e.Glyph = GlyphEvent
		if e.Body == "" {
			e.Body = unknownBody
		}
	}

	return e
}

// MergedSentence describes when a merge happened relative to now.
func MergedSentence(at, now time.Time) string {
	if at.IsZero() {
		return "Merged"
	}
	return "Merged " + humanize.RelTime(at, now, "ago", "from now")
}
