package templates

import (
	"context"
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/okian/hearth/internal/domain/render"
	. "github.com/smartystreets/goconvey/convey"
)

func embeddedDefaults() fstest.MapFS {
	return fstest.MapFS{
		"index.html":            {Data: []byte(`<html><title>{{.title}}</title><body>{{template "content" .}}</body></html>`)},
		"_index.html":           {Data: []byte(`{{template "content" .}}`)},
		"partials/content.html": {Data: []byte(`{{define "content"}}<h1>{{.title}}</h1>{{end}}`)},
	}
}

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPreloadedSet(t *testing.T) {
	Convey("Given a preloaded set with no override directory", t, func() {
		ctx := context.Background()
		set := New(embeddedDefaults(), "")
		So(set.Load(ctx), ShouldBeNil)
		So(set.Live(), ShouldBeFalse)

		Convey("Then pages should be listed without partials", func() {
			So(set.Names(), ShouldResemble, []string{"_index.html", "index.html"})
		})

		Convey("When rendering the full page", func() {
			out, err := set.Render(ctx, "index.html", render.Context{"title": "Home"})

			Convey("Then the shell and the shared content should be present", func() {
				So(err, ShouldBeNil)
				So(string(out), ShouldEqual, `<html><title>Home</title><body><h1>Home</h1></body></html>`)
			})
		})

		Convey("When rendering the partial page", func() {
			out, err := set.Render(ctx, "_index.html", render.Context{"title": "Home"})

			Convey("Then only the fragment should be produced", func() {
				So(err, ShouldBeNil)
				So(string(out), ShouldEqual, `<h1>Home</h1>`)
			})
		})

		Convey("When the context escapes into markup", func() {
			out, err := set.Render(ctx, "_index.html", render.Context{"title": "<b>x</b>"})
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `<h1>&lt;b&gt;x&lt;/b&gt;</h1>`)
		})

		Convey("When rendering an unknown name", func() {
			_, err := set.Render(ctx, "about.html", nil)

			Convey("Then it should fail with not found", func() {
				So(errors.Is(err, render.ErrTemplateNotFound), ShouldBeTrue)
			})
		})

		Convey("When a context variable is missing", func() {
			_, err := set.Render(ctx, "index.html", render.Context{})

			Convey("Then a render error should name the template", func() {
				var rerr *render.Error
				So(errors.As(err, &rerr), ShouldBeTrue)
				So(rerr.Name, ShouldEqual, "index.html")
			})
		})
	})
}

func TestOverrides(t *testing.T) {
	Convey("Given an override directory", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		writeTemplate(t, dir, "index.html", `<main>disk {{.title}}</main>`)
		writeTemplate(t, dir, "about.html", `about {{template "content" .}}`)

		Convey("When preloading", func() {
			set := New(embeddedDefaults(), dir)
			So(set.Load(ctx), ShouldBeNil)

			Convey("Then the disk copy should win and new pages should appear", func() {
				out, err := set.Render(ctx, "index.html", render.Context{"title": "Home"})
				So(err, ShouldBeNil)
				So(string(out), ShouldEqual, `<main>disk Home</main>`)
				So(set.Names(), ShouldContain, "about.html")
			})

			Convey("And disk edits should stay invisible until reload", func() {
				writeTemplate(t, dir, "index.html", `<main>edited</main>`)
				out, _ := set.Render(ctx, "index.html", render.Context{"title": "Home"})
				So(string(out), ShouldEqual, `<main>disk Home</main>`)

				So(set.Reload(ctx), ShouldBeNil)
				out, _ = set.Render(ctx, "index.html", render.Context{"title": "Home"})
				So(string(out), ShouldEqual, `<main>edited</main>`)
			})
		})

		Convey("When rendering live", func() {
			set := New(embeddedDefaults(), dir, WithLive(true))
			So(set.Load(ctx), ShouldBeNil)
			So(set.Live(), ShouldBeTrue)

			out, err := set.Render(ctx, "index.html", render.Context{"title": "Home"})
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `<main>disk Home</main>`)

			Convey("Then removing the disk copy should restore the embedded default", func() {
				So(os.Remove(filepath.Join(dir, "index.html")), ShouldBeNil)
				out, err := set.Render(ctx, "index.html", render.Context{"title": "Home"})
				So(err, ShouldBeNil)
				So(string(out), ShouldContainSubstring, `<title>Home</title>`)
			})

			Convey("And a broken disk copy should surface as a render error", func() {
				writeTemplate(t, dir, "index.html", `{{ .title `)
				_, err := set.Render(ctx, "index.html", render.Context{"title": "Home"})
				var rerr *render.Error
				So(errors.As(err, &rerr), ShouldBeTrue)
			})

			Convey("And overridden partials should apply to every page", func() {
				writeTemplate(t, dir, "partials/content.html", `{{define "content"}}<p>{{.title}}</p>{{end}}`)
				out, err := set.Render(ctx, "_index.html", render.Context{"title": "Home"})
				So(err, ShouldBeNil)
				So(string(out), ShouldEqual, `<p>Home</p>`)
			})
		})

		Convey("When the directory does not exist", func() {
			set := New(embeddedDefaults(), filepath.Join(dir, "missing"))

			Convey("Then the embedded defaults should load alone", func() {
				So(set.Load(ctx), ShouldBeNil)
				So(set.Names(), ShouldResemble, []string{"_index.html", "index.html"})
			})
		})

		Convey("When a disk template has a syntax error", func() {
			writeTemplate(t, dir, "broken.html", `{{ if }}`)
			set := New(embeddedDefaults(), dir)

			Convey("Then loading should fail", func() {
				err := set.Load(ctx)
				var rerr *render.Error
				So(errors.As(err, &rerr), ShouldBeTrue)
				So(rerr.Name, ShouldEqual, "broken.html")
			})
		})
	})
}

func TestFuncs(t *testing.T) {
	Convey("Given a page using template functions", t, func() {
		ctx := context.Background()
		defaults := fstest.MapFS{
			"page.html": {Data: []byte(`{{asset "/css/app.css"}} {{shout .title}}`)},
		}
		set := New(defaults, "", WithFuncs(template.FuncMap{
			"shout": func(s string) string { return s + "!" },
		}))
		So(set.Load(ctx), ShouldBeNil)

		out, err := set.Render(ctx, "page.html", render.Context{"title": "hi"})
		So(err, ShouldBeNil)
		So(string(out), ShouldEqual, `/assets/css/app.css hi!`)
	})
}

func TestConcurrentRender(t *testing.T) {
	Convey("Given many concurrent renders of the same page", t, func() {
		ctx := context.Background()
		for _, live := range []bool{false, true} {
			set := New(embeddedDefaults(), "", WithLive(live))
			So(set.Load(ctx), ShouldBeNil)

			const n = 64
			outs := make([][]byte, n)
			errs := make([]error, n)
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					outs[i], errs[i] = set.Render(ctx, "index.html", render.Context{"title": "Home", "n": 1, "ok": true})
				}(i)
			}
			wg.Wait()

			for i := 0; i < n; i++ {
				So(errs[i], ShouldBeNil)
				So(string(outs[i]), ShouldEqual, string(outs[0]))
			}
		}
	})
}
