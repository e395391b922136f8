// Package preview turns raw document text into a bounded excerpt.
//
// Extraction strips a leading frontmatter block, optionally narrows the body
// to a single ATX heading section, and truncates the result to a fixed
// number of characters. It never fails: every branch has a fallback value.
package preview

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Source selects which part of a document feeds the preview.
type Source string

const (
	SourceFullBody Source = "full-body"
	SourceHeading  Source = "heading"
)

// Ellipsis is appended to a preview that was cut short.
const Ellipsis = "…"

// DefaultLength is the preview length used when none is configured.
const DefaultLength = 200

const fence = "---"

// Config is an immutable snapshot of the extraction rules.
type Config struct {
	Length  int    `yaml:"previewLength" json:"preview_length"`
	Source  Source `yaml:"contentSource" json:"content_source"`
	Heading string `yaml:"headingName" json:"heading_name"`
}

// DefaultConfig returns the out-of-the-box extraction rules.
func DefaultConfig() Config {
	return Config{
		Length: DefaultLength,
		Source: SourceFullBody,
	}
}

// Validate checks that the config can drive an extraction.
func (c Config) Validate() error {
	if c.Length <= 0 {
		return fmt.Errorf("preview length must be positive, got %d", c.Length)
	}
	switch c.Source {
	case SourceFullBody:
	case SourceHeading:
		if strings.TrimSpace(c.Heading) == "" {
			return fmt.Errorf("heading name is required when content source is %q", SourceHeading)
		}
	default:
		return fmt.Errorf("unknown content source: %q", c.Source)
	}
	return nil
}

// Extract computes the preview for a document's text.
func Extract(text string, cfg Config) string {
	body := StripFrontmatter(text)

	var result string
	if cfg.Source == SourceHeading {
		result = HeadingSection(body, cfg.Heading)
	} else {
		result = body
	}
	return Truncate(result, cfg.Length)
}

// StripFrontmatter returns the text after a closed leading "---" block,
// trimmed. Text without a closing fence is returned unchanged.
func StripFrontmatter(text string) string {
	first, rest, ok := strings.Cut(text, "\n")
	if !ok || strings.TrimSuffix(first, "\r") != fence {
		return text
	}

	offset := len(first) + 1
	for len(rest) > 0 {
		line, next, more := strings.Cut(rest, "\n")
		if strings.TrimSuffix(line, "\r") == fence {
			if !more {
				return ""
			}
			return strings.TrimSpace(text[offset+len(line)+1:])
		}
		offset += len(line) + 1
		if !more {
			break
		}
		rest = next
	}
	return text
}

var atxHeading = regexp.MustCompile(`^(#{1,6})[ \t]+(.*)$`)

// parseHeading reports the level and title of an ATX heading line.
func parseHeading(line string) (int, string, bool) {
	m := atxHeading.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
	if m == nil {
		return 0, "", false
	}
	title := strings.TrimSpace(m[2])
	// Optional closing sequence: "## Title ##".
	if trimmed := strings.TrimRight(title, "#"); trimmed != title && (trimmed == "" || strings.HasSuffix(trimmed, " ") || strings.HasSuffix(trimmed, "\t")) {
		title = strings.TrimSpace(trimmed)
	}
	return len(m[1]), title, true
}

// HeadingSection returns the lines under the heading whose title matches
// name case-insensitively, up to the next heading of the same or a higher
// rank. A section with no such successor runs to the end of the body.
func HeadingSection(body, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	var (
		out       []string
		capturing bool
		level     int
	)
	for _, line := range strings.Split(body, "\n") {
		lvl, title, isHeading := parseHeading(line)
		if !capturing {
			if isHeading && strings.EqualFold(title, name) {
				capturing = true
				level = lvl
			}
			continue
		}
		if isHeading && lvl <= level {
			break
		}
		out = append(out, strings.TrimSuffix(line, "\r"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Truncate cuts s to limit characters and appends Ellipsis when s is
// strictly longer than limit.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + Ellipsis
		}
		n++
	}
	return s
}

// TextSource reads the raw text of a document.
type TextSource interface {
	ReadText(ctx context.Context, path string) (string, error)
}

// Load reads path from src and extracts its preview. A read failure yields
// an empty preview; the error is returned only for logging.
func Load(ctx context.Context, src TextSource, path string, cfg Config) (string, error) {
	text, err := src.ReadText(ctx, path)
	if err != nil {
		return "", err
	}
	return Extract(text, cfg), nil
}
