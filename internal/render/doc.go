package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/dgallion1/tablelens/internal/preview"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// TextSource returns the extracted text of any supported document.
type TextSource interface {
	ReadText(ctx context.Context, path string) (string, error)
}

// DocView renders single documents as sanitized HTML fragments.
type DocView struct {
	src    TextSource
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewDocView(src TextSource) *DocView {
	return &DocView{
		src:    src,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render returns the document at path as HTML. Markdown is rendered with
// its frontmatter removed; other formats are shown as preformatted text.
func (v *DocView) Render(ctx context.Context, path string) ([]byte, error) {
	text, err := v.src.ReadText(ctx, path)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if isMarkdown(path) {
		if err := v.md.Convert([]byte(preview.StripFrontmatter(text)), &buf); err != nil {
			return nil, fmt.Errorf("render %s: %w", path, err)
		}
	} else {
		buf.WriteString("<pre>")
		buf.WriteString(html.EscapeString(text))
		buf.WriteString("</pre>")
	}
	return v.policy.SanitizeBytes(buf.Bytes()), nil
}

func isMarkdown(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}
