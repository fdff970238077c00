package diffrender

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
)

// highlighter colours single lines with chroma. Lexers are resolved per
// file name and memoized.
type highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter

	mu     sync.Mutex
	byName map[string]chroma.Lexer
}

func newHighlighter(style string) *highlighter {
	return &highlighter{
		style:     chromastyles.Get(style),
		formatter: formatters.TTY256,
		byName:    make(map[string]chroma.Lexer),
	}
}

func (h *highlighter) lexer(name string) chroma.Lexer {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l, ok := h.byName[name]; ok {
		return l
	}

	l := lexers.Match(name)
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)
	h.byName[name] = l
	return l
}

// line highlights one line. Any chroma failure falls back to the plain text.
func (h *highlighter) line(name, content string) string {
	if content == "" {
		return ""
	}

	it, err := h.lexer(name).Tokenise(nil, content)
	if err != nil {
		return content
	}

	var sb strings.Builder
	if err := h.formatter.Format(&sb, h.style, it); err != nil {
		return content
	}
	// Lexers append a trailing newline token; the reset code may follow it.
	return strings.ReplaceAll(sb.String(), "\n", "")
}
