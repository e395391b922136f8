// Package parser turns vault files into the plain text that previews are cut
// from. Markdown and plain text come back as written. Structured formats are
// flattened, and their headings are rewritten as ATX lines so heading-scoped
// previews work on them too.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Parser converts raw document bytes into preview text.
type Parser interface {
	Extract(r io.Reader, filename string) (string, error)
}

// Options tunes parsers that shell out or fall back.
type Options struct {
	PDFFallbackPdftotext bool
}

// parsers maps a lower-cased file extension to its parser constructor.
var parsers = map[string]func(Options) Parser{
	".md":       func(Options) Parser { return &MarkdownParser{} },
	".markdown": func(Options) Parser { return &MarkdownParser{} },
	".txt":      func(Options) Parser { return &TextParser{} },
	".csv":      func(Options) Parser { return &CSVParser{} },
	".html":     func(Options) Parser { return &HTMLParser{} },
	".htm":      func(Options) Parser { return &HTMLParser{} },
	".pdf":      func(o Options) Parser { return &PDFParser{FallbackPdftotext: o.PDFFallbackPdftotext} },
	".docx":     func(Options) Parser { return &DOCXParser{} },
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	newParser, ok := parsers[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
	return newParser(opts), nil
}

// atxLine renders a heading of the given level as a markdown ATX line.
func atxLine(level int, title string) string {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return strings.Repeat("#", level) + " " + title
}
