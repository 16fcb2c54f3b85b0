// Package templates renders html/template pages merged from an embedded
// default set and an optional on-disk override directory.
package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/okian/hearth/internal/domain/render"
)

// PartialsDir holds shared definitions parsed alongside every page.
const PartialsDir = "partials"

const templateExt = ".html"

// Set resolves template names against the on-disk directory first and the
// embedded defaults second.
//
// In preloaded mode every page is parsed once by Load and the result is never
// mutated afterwards; Reload swaps in a freshly parsed set. In live mode each
// Render re-reads its sources, so edits and deletions on disk take effect on
// the next request.
type Set struct {
	embedded fs.FS
	disk     fs.FS
	dir      string
	live     bool
	funcs    template.FuncMap

	pages atomic.Pointer[map[string]*template.Template]
}

var _ render.Renderer = (*Set)(nil)

// New builds a Set over embedded defaults and an optional override directory.
func New(embedded fs.FS, dir string, opts ...Option) *Set {
	s := &Set{
		embedded: embedded,
		dir:      dir,
		funcs:    defaultFuncs(),
	}
	if strings.TrimSpace(dir) != "" {
		s.disk = os.DirFS(dir)
	}
	for _, opt := range opts {
		opt(s)
	}
	empty := map[string]*template.Template{}
	s.pages.Store(&empty)
	return s
}

// Live reports whether sources are re-read on every render.
func (s *Set) Live() bool { return s.live }

// Load parses every page from both sources. In live mode it only validates
// that the pages parse; nothing is retained.
func (s *Set) Load(ctx context.Context) error {
	return s.Reload(ctx)
}

// Reload parses all pages and atomically replaces the preloaded set.
// In-flight renders keep using the set they started with.
func (s *Set) Reload(ctx context.Context) error {
	names, err := s.pageNames()
	if err != nil {
		return err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := s.build(name)
		if err != nil {
			return err
		}
		pages[name] = t
	}
	if !s.live {
		s.pages.Store(&pages)
	}
	return nil
}

// Names lists the pages currently known, sorted.
func (s *Set) Names() []string {
	if s.live {
		names, err := s.pageNames()
		if err != nil {
			return nil
		}
		return names
	}
	pages := *s.pages.Load()
	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes name with data into a fresh buffer.
func (s *Set) Render(_ context.Context, name string, data render.Context) ([]byte, error) {
	var (
		t   *template.Template
		err error
	)
	if s.live {
		t, err = s.build(name)
		if err != nil {
			return nil, err
		}
	} else {
		var ok bool
		t, ok = (*s.pages.Load())[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", render.ErrTemplateNotFound, name)
		}
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, map[string]any(data)); err != nil {
		return nil, &render.Error{Name: name, Err: err}
	}
	return buf.Bytes(), nil
}

// build parses page name together with every shared partial.
func (s *Set) build(name string) (*template.Template, error) {
	if !isPage(name) {
		return nil, fmt.Errorf("%w: %s", render.ErrTemplateNotFound, name)
	}
	body, err := s.source(name)
	if err != nil {
		return nil, err
	}
	t, err := template.New(name).Option("missingkey=error").Funcs(s.funcs).Parse(string(body))
	if err != nil {
		return nil, &render.Error{Name: name, Err: err}
	}

	partials, err := s.list(PartialsDir)
	if err != nil {
		return nil, err
	}
	for _, p := range partials {
		pbody, err := s.source(p)
		if err != nil {
			return nil, err
		}
		if _, err := t.New(p).Parse(string(pbody)); err != nil {
			return nil, &render.Error{Name: p, Err: err}
		}
	}
	return t, nil
}

// source reads name from disk if present there, otherwise from the embedded set.
func (s *Set) source(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %s", render.ErrTemplateNotFound, name)
	}
	if s.disk != nil {
		body, err := fs.ReadFile(s.disk, name)
		switch {
		case err == nil:
			return body, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, &render.Error{Name: name, Err: err}
		}
	}
	if s.embedded != nil {
		body, err := fs.ReadFile(s.embedded, name)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &render.Error{Name: name, Err: err}
		}
	}
	return nil, fmt.Errorf("%w: %s", render.ErrTemplateNotFound, name)
}

// pageNames lists every renderable template across both sources.
func (s *Set) pageNames() ([]string, error) {
	all, err := s.list(".")
	if err != nil {
		return nil, err
	}
	names := all[:0]
	for _, n := range all {
		if isPage(n) {
			names = append(names, n)
		}
	}
	return names, nil
}

// list returns the sorted union of template files under root in both sources.
// A missing override directory is not an error.
func (s *Set) list(root string) ([]string, error) {
	seen := map[string]struct{}{}
	for _, fsys := range []fs.FS{s.embedded, s.disk} {
		if fsys == nil {
			continue
		}
		err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && path.Ext(p) == templateExt {
				seen[p] = struct{}{}
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("list templates: %w", err)
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func isPage(name string) bool {
	return path.Ext(name) == templateExt && !strings.HasPrefix(name, PartialsDir+"/")
}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"asset": func(p string) string {
			return "/assets/" + strings.TrimLeft(p, "/")
		},
	}
}
