// Package diffrender turns unified diff text into styled terminal markup.
package diffrender

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/mrview/internal/core/styles"
)

// Renderer converts a raw unified diff into displayable markup.
type Renderer interface {
	Render(diff string) (string, error)
}

// Options configures the terminal renderer.
type Options struct {
	Highlight bool     // syntax highlight context and changed lines
	Style     string   // chroma style name
	Collapse  []string // doublestar globs rendered as a single placeholder line
}

// Terminal renders diffs for a 256 colour terminal.
type Terminal struct {
	opts        Options
	highlighter *highlighter
}

var _ Renderer = (*Terminal)(nil)

// NewTerminal creates a terminal renderer.
func NewTerminal(opts Options) *Terminal {
	t := &Terminal{opts: opts}
	if opts.Highlight {
		t.highlighter = newHighlighter(opts.Style)
	}
	return t
}

// Render parses diff and renders every file in order. An empty diff
// renders to an empty string.
func (t *Terminal) Render(diff string) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "", nil
	}

	files, _, err := gitdiff.Parse(strings.NewReader(diff))
	if err != nil {
		return "", fmt.Errorf("parse diff: %w", err)
	}

	var sb strings.Builder
	for i, file := range files {
		if i > 0 {
			sb.WriteString("\n")
		}
		t.renderFile(&sb, file)
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}

// Collapsed reports whether path matches one of the collapse globs.
func (t *Terminal) Collapsed(path string) bool {
	return matchAny(t.opts.Collapse, path)
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// FileName returns the path shown for a file: the new name unless the file
// was deleted.
func FileName(f *gitdiff.File) string {
	if f.IsDelete || f.NewName == "" {
		return f.OldName
	}
	return f.NewName
}

func (t *Terminal) renderFile(sb *strings.Builder, file *gitdiff.File) {
	name := FileName(file)
	adds, dels := countChanges(file)

	header := name
	switch {
	case file.IsNew:
		header += " (new)"
	case file.IsDelete:
		header += " (deleted)"
	case file.IsRename:
		header = file.OldName + " → " + file.NewName
	}

	sb.WriteString(styles.DiffFileStyle.Render(header))
	sb.WriteString(" ")
	sb.WriteString(styles.DiffAddStyle.Render("+" + strconv.Itoa(adds)))
	sb.WriteString(" ")
	sb.WriteString(styles.DiffDeleteStyle.Render("-" + strconv.Itoa(dels)))
	sb.WriteString("\n")

	if file.IsBinary {
		sb.WriteString(styles.DiffCollapsedStyle.Render("  binary file not shown"))
		sb.WriteString("\n")
		return
	}

	if t.Collapsed(name) {
		sb.WriteString(styles.DiffCollapsedStyle.Render(fmt.Sprintf("  collapsed: %d lines changed", adds+dels)))
		sb.WriteString("\n")
		return
	}

	for _, frag := range file.TextFragments {
		t.renderFragment(sb, name, frag)
	}
}

func (t *Terminal) renderFragment(sb *strings.Builder, name string, frag *gitdiff.TextFragment) {
	header := "@@ -" + formatRange(frag.OldPosition, frag.OldLines) +
		" +" + formatRange(frag.NewPosition, frag.NewLines) + " @@"
	if frag.Comment != "" {
		header += " " + frag.Comment
	}
	sb.WriteString(styles.DiffHunkStyle.Render(header))
	sb.WriteString("\n")

	oldLine, newLine := frag.OldPosition, frag.NewPosition
	width := gutterWidth(frag)

	for _, line := range frag.Lines {
		content := strings.TrimRight(line.Line, "\r\n")

		var oldNo, newNo string
		switch line.Op {
		case gitdiff.OpAdd:
			newNo = strconv.FormatInt(newLine, 10)
			newLine++
		case gitdiff.OpDelete:
			oldNo = strconv.FormatInt(oldLine, 10)
			oldLine++
		default:
			oldNo = strconv.FormatInt(oldLine, 10)
			newNo = strconv.FormatInt(newLine, 10)
			oldLine++
			newLine++
		}

		sb.WriteString(styles.DiffLineNoStyle.Render(pad(oldNo, width) + " " + pad(newNo, width)))
		sb.WriteString(" ")
		sb.WriteString(t.renderLine(name, line.Op, content))
		sb.WriteString("\n")
	}
}

func (t *Terminal) renderLine(name string, op gitdiff.LineOp, content string) string {
	var prefix string
	var style = styles.DiffContextStyle

	switch op {
	case gitdiff.OpAdd:
		prefix, style = "+", styles.DiffAddStyle
	case gitdiff.OpDelete:
		prefix, style = "-", styles.DiffDeleteStyle
	default:
		prefix = " "
	}

	if t.highlighter == nil {
		return style.Render(prefix + content)
	}
	return style.Render(prefix) + t.highlighter.line(name, content)
}

func countChanges(file *gitdiff.File) (adds, dels int) {
	for _, frag := range file.TextFragments {
		adds += int(frag.LinesAdded)
		dels += int(frag.LinesDeleted)
	}
	return adds, dels
}

// formatRange formats a hunk range the way git does: the count is omitted
// when it is 1.
func formatRange(start, count int64) string {
	if count == 1 {
		return strconv.FormatInt(start, 10)
	}
	return strconv.FormatInt(start, 10) + "," + strconv.FormatInt(count, 10)
}

func gutterWidth(frag *gitdiff.TextFragment) int {
	last := max(frag.OldPosition+frag.OldLines, frag.NewPosition+frag.NewLines)
	return len(strconv.FormatInt(last, 10))
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
