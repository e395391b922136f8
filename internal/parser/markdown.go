package parser

import (
	"io"
	"strings"
)

// MarkdownParser returns markdown source unchanged apart from line endings,
// so frontmatter fences and heading lines survive for the extractor.
type MarkdownParser struct{}

func (p *MarkdownParser) Extract(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return normalizeNewlines(string(src)), nil
}

func normalizeNewlines(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
