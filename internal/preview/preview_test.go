package preview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestStripFrontmatter_Closed(t *testing.T) {
	got := StripFrontmatter("---\nkey: v\n---\nBody text")
	if got != "Body text" {
		t.Errorf("expected %q, got %q", "Body text", got)
	}
}

func TestStripFrontmatter_Unterminated(t *testing.T) {
	input := "---\nunterminated"
	got := StripFrontmatter(input)
	if got != input {
		t.Errorf("expected unchanged %q, got %q", input, got)
	}
}

func TestStripFrontmatter_NoFence(t *testing.T) {
	input := "  plain body\n---\nnot frontmatter"
	if got := StripFrontmatter(input); got != input {
		t.Errorf("expected unchanged %q, got %q", input, got)
	}
}

func TestStripFrontmatter_CRLF(t *testing.T) {
	got := StripFrontmatter("---\r\ntags: [a]\r\n---\r\n\r\nBody\r\n")
	if got != "Body" {
		t.Errorf("expected %q, got %q", "Body", got)
	}
}

func TestStripFrontmatter_FenceAtEnd(t *testing.T) {
	if got := StripFrontmatter("---\nkey: v\n---"); got != "" {
		t.Errorf("expected empty body, got %q", got)
	}
}

const headingDoc = `# Title
intro
## Summary
line A
line B
## Other
line C`

func TestHeadingSection_StopsAtSameLevel(t *testing.T) {
	for _, name := range []string{"summary", "Summary", "SUMMARY", "  summary  "} {
		got := HeadingSection(headingDoc, name)
		if got != "line A\nline B" {
			t.Errorf("name=%q: expected %q, got %q", name, "line A\nline B", got)
		}
	}
}

func TestHeadingSection_NotFound(t *testing.T) {
	if got := HeadingSection(headingDoc, "missing"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestHeadingSection_LastSectionRunsToEnd(t *testing.T) {
	got := HeadingSection(headingDoc, "other")
	if got != "line C" {
		t.Errorf("expected %q, got %q", "line C", got)
	}
}

func TestHeadingSection_KeepsDeeperHeadings(t *testing.T) {
	body := "## Notes\nfirst\n### Detail\nsecond\n# Top\nthird"
	got := HeadingSection(body, "notes")
	want := "first\n### Detail\nsecond"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHeadingSection_StopsAtHigherLevel(t *testing.T) {
	body := "### Deep\nkept\n## Shallower\ndropped"
	if got := HeadingSection(body, "deep"); got != "kept" {
		t.Errorf("expected %q, got %q", "kept", got)
	}
}

func TestHeadingSection_ClosingHashes(t *testing.T) {
	body := "## Summary ##\nbody\n## C#\nsharp"
	if got := HeadingSection(body, "summary"); got != "body" {
		t.Errorf("expected %q, got %q", "body", got)
	}
	if got := HeadingSection(body, "c#"); got != "sharp" {
		t.Errorf("expected %q, got %q", "sharp", got)
	}
}

func TestHeadingSection_RequiresWhitespaceAfterHashes(t *testing.T) {
	body := "#Summary\nnot a heading\n####### Summary\nseven hashes"
	if got := HeadingSection(body, "summary"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestTruncate_Boundary(t *testing.T) {
	long := strings.Repeat("a", 250)
	got := Truncate(long, 200)
	if got != strings.Repeat("a", 200)+Ellipsis {
		t.Errorf("expected 200 chars plus ellipsis, got %d runes", utf8.RuneCountInString(got))
	}

	exact := strings.Repeat("b", 200)
	if got := Truncate(exact, 200); got != exact {
		t.Errorf("expected body of exactly the limit to stay unchanged")
	}
}

func TestTruncate_CountsRunes(t *testing.T) {
	got := Truncate("héllo wörld", 5)
	if got != "héllo"+Ellipsis {
		t.Errorf("expected %q, got %q", "héllo"+Ellipsis, got)
	}
}

func TestExtract_FullBody(t *testing.T) {
	cfg := Config{Length: 200, Source: SourceFullBody}
	got := Extract("---\nkey: v\n---\nBody text", cfg)
	if got != "Body text" {
		t.Errorf("expected %q, got %q", "Body text", got)
	}
}

func TestExtract_HeadingWithFrontmatterAndTruncation(t *testing.T) {
	cfg := Config{Length: 4, Source: SourceHeading, Heading: "Summary"}
	got := Extract("---\nstatus: open\n---\n"+headingDoc, cfg)
	if got != "line"+Ellipsis {
		t.Errorf("expected %q, got %q", "line"+Ellipsis, got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"zero length", Config{Length: 0, Source: SourceFullBody}, true},
		{"heading without name", Config{Length: 10, Source: SourceHeading}, true},
		{"heading with blank name", Config{Length: 10, Source: SourceHeading, Heading: "  "}, true},
		{"heading", Config{Length: 10, Source: SourceHeading, Heading: "Summary"}, false},
		{"unknown source", Config{Length: 10, Source: "tail"}, true},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error=%v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

type fakeSource map[string]string

func (f fakeSource) ReadText(_ context.Context, path string) (string, error) {
	text, ok := f[path]
	if !ok {
		return "", errors.New("not found")
	}
	return text, nil
}

func TestLoad_ReadFailureIsEmpty(t *testing.T) {
	got, err := Load(context.Background(), fakeSource{}, "gone.md", DefaultConfig())
	if err == nil {
		t.Fatal("expected read error to be reported")
	}
	if got != "" {
		t.Errorf("expected empty preview, got %q", got)
	}
}

func TestLoad_Success(t *testing.T) {
	src := fakeSource{"a.md": "---\nx: 1\n---\nhello"}
	got, err := Load(context.Background(), src, "a.md", DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}
