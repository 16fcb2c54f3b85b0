package site

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/okian/hearth/internal/adapters/templates"
	"github.com/okian/hearth/internal/domain/render"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEmbeddedAssets(t *testing.T) {
	Convey("Given the embedded asset tree", t, func() {
		assets := Assets()

		Convey("Then the favicon and bundles should be present at the root", func() {
			for _, name := range []string{"favicon.ico", "css/app.css", "js/app.js"} {
				body, err := fs.ReadFile(assets, name)
				So(err, ShouldBeNil)
				So(len(body), ShouldBeGreaterThan, 0)
			}
		})

		Convey("And templates should not leak into the asset tree", func() {
			_, err := fs.Stat(assets, "index.html")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestEmbeddedTemplates(t *testing.T) {
	Convey("Given the embedded templates", t, func() {
		ctx := context.Background()
		set := templates.New(Templates(), "")
		So(set.Load(ctx), ShouldBeNil)

		Convey("Then the underscore-prefixed partial page should be embedded", func() {
			So(set.Names(), ShouldResemble, []string{"_index.html", "index.html"})
		})

		Convey("When rendering the home page", func() {
			full, err := set.Render(ctx, "index.html", render.Context{"title": "Home"})
			So(err, ShouldBeNil)
			part, err := set.Render(ctx, "_index.html", render.Context{"title": "Home"})
			So(err, ShouldBeNil)

			Convey("Then the full page should carry the shell", func() {
				So(string(full), ShouldContainSubstring, "<title>Home</title>")
				So(string(full), ShouldContainSubstring, "/assets/css/app.css")
				So(string(full), ShouldContainSubstring, "<h1>Home</h1>")
			})

			Convey("And the partial should carry only the content", func() {
				So(string(part), ShouldContainSubstring, "<h1>Home</h1>")
				So(strings.Contains(string(part), "<html"), ShouldBeFalse)
				So(strings.Contains(string(part), "<title>"), ShouldBeFalse)
			})
		})
	})
}
