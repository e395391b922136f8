// Package vault is the document repository: a directory of markdown notes
// and attachments addressed by slash-separated paths relative to its root.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/tablelens/internal/parser"
)

var (
	// ErrExists is returned by Create when the path is taken.
	ErrExists = errors.New("document already exists")
	// ErrInvalidPath is returned for empty paths or paths leaving the vault.
	ErrInvalidPath = errors.New("invalid document path")
)

// Ref identifies a document by its vault-relative path.
type Ref struct {
	Path string `json:"path"`
}

// Name is the document's base name without extension.
func (r Ref) Name() string {
	base := path.Base(r.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Folder is the vault-relative folder holding the document ("" for root).
func (r Ref) Folder() string {
	dir := path.Dir(r.Path)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// Doc is a listed document.
type Doc struct {
	Ref     Ref
	ModTime time.Time
}

// Vault reads and writes documents under a root directory.
type Vault struct {
	root string
	opts parser.Options
	log  *slog.Logger
}

// New opens the vault rooted at dir. The directory must exist.
func New(dir string, opts parser.Options, log *slog.Logger) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", abs)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Vault{root: abs, opts: opts, log: log}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// clean validates a vault-relative path and returns it in slash form.
func clean(rel string) (string, error) {
	rel = strings.TrimPrefix(strings.TrimSpace(filepath.ToSlash(rel)), "/")
	if rel == "" {
		return "", ErrInvalidPath
	}
	rel = path.Clean(rel)
	if rel == "." || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", ErrInvalidPath
	}
	return rel, nil
}

func (v *Vault) abs(rel string) string {
	return filepath.Join(v.root, filepath.FromSlash(rel))
}

func (v *Vault) isFile(rel string) bool {
	info, err := os.Stat(v.abs(rel))
	return err == nil && info.Mode().IsRegular()
}

// ReadText returns the text of a document, flattened by its file type.
func (v *Vault) ReadText(ctx context.Context, rel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel, err := clean(rel)
	if err != nil {
		return "", err
	}
	p, err := parser.ForFile(rel, v.opts)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	f, err := os.Open(v.abs(rel))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	defer f.Close()

	text, err := p.Extract(f, path.Base(rel))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	return text, nil
}

// ResolveLink maps link text, as rendered in a table cell, to a document.
// Fragments ("#heading") and aliases ("|label") are ignored. Lookup order is
// the literal path, the path relative to contextPath's folder, each of those
// with ".md" appended, and finally a search by file name.
func (v *Vault) ResolveLink(href, contextPath string) (Ref, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.Contains(href, "://") || strings.HasPrefix(href, "mailto:") {
		return Ref{}, false
	}
	if i := strings.IndexAny(href, "#|"); i >= 0 {
		href = href[:i]
	}
	if u, err := url.PathUnescape(href); err == nil {
		href = u
	}
	if strings.TrimSpace(href) == "" {
		return Ref{}, false
	}

	candidates := []string{href}
	if folder := (Ref{Path: contextPath}).Folder(); folder != "" && !strings.HasPrefix(href, "/") {
		candidates = append(candidates, path.Join(folder, href))
	}

	for _, ext := range []string{"", ".md"} {
		for _, c := range candidates {
			rel, err := clean(c + ext)
			if err != nil {
				continue
			}
			if v.isFile(rel) {
				return Ref{Path: rel}, true
			}
		}
	}

	if strings.Contains(strings.Trim(href, "/"), "/") {
		return Ref{}, false
	}
	return v.findByName(path.Base(href))
}

// findByName returns the first document, in lexical path order, whose file
// name is name or name + ".md".
func (v *Vault) findByName(name string) (Ref, bool) {
	var found string
	_ = filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != v.root && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == name || d.Name() == name+".md" {
			rel, relErr := filepath.Rel(v.root, p)
			if relErr == nil {
				found = filepath.ToSlash(rel)
				return filepath.SkipAll
			}
		}
		return nil
	})
	if found == "" {
		return Ref{}, false
	}
	return Ref{Path: found}, true
}

// Create writes a new document. It never overwrites: an existing path fails
// with ErrExists, and a failed write removes the partial file.
func (v *Vault) Create(ctx context.Context, rel, text string) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, err
	}
	name := rel
	rel, err := clean(rel)
	if err != nil {
		return Ref{}, fmt.Errorf("create %q: %w", name, err)
	}
	full := v.abs(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Ref{}, fmt.Errorf("create %s: %w", rel, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Ref{}, fmt.Errorf("create %s: %w", rel, ErrExists)
		}
		return Ref{}, fmt.Errorf("create %s: %w", rel, err)
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		os.Remove(full)
		return Ref{}, fmt.Errorf("write %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return Ref{}, fmt.Errorf("close %s: %w", rel, err)
	}

	v.log.Info("document created", "path", rel)
	return Ref{Path: rel}, nil
}

// List returns the markdown documents under folder ("" for the whole vault),
// sorted by path. Hidden files and folders are skipped.
func (v *Vault) List(folder string) ([]Doc, error) {
	start := v.root
	if strings.Trim(folder, "/") != "" {
		rel, err := clean(folder)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", folder, err)
		}
		start = v.abs(rel)
	}

	var docs []Doc
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != start && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden(d.Name()) || strings.ToLower(filepath.Ext(p)) != ".md" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return nil
		}
		docs = append(docs, Doc{Ref: Ref{Path: filepath.ToSlash(rel)}, ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", folder, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Ref.Path < docs[j].Ref.Path })
	return docs, nil
}

// ReadRaw returns a document's bytes without flattening.
func (v *Vault) ReadRaw(rel string) ([]byte, error) {
	rel, err := clean(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(v.abs(rel))
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
